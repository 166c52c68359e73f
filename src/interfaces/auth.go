package interfaces

// -----------------------------------------------------------------------------
// ITokenVerifier maps an auth token to a user identity. Verification is
// delegated here so the stream server never owns credential logic.
// -----------------------------------------------------------------------------

type ITokenVerifier interface {

	// Verify returns the user id the token belongs to, or an error for
	// expired, malformed or forged tokens.
	Verify(token string) (string, error)
}
