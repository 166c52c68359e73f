package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token layout: "<userID>:<expiryUnix>:<hex hmac-sha256>". The signature
// covers "<userID>:<expiryUnix>" under the shared secret. The session
// service issues these; the stream server only verifies.

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token expired")
	ErrBadSignature   = errors.New("invalid token signature")
)

// -----------------------------------------------------------------------------

type HMACVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), now: time.Now}
}

// NewHMACVerifierWithClock injects a clock for expiry tests.
func NewHMACVerifierWithClock(secret string, now func() time.Time) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), now: now}
}

// -----------------------------------------------------------------------------

// Verify returns the user id encoded in a valid token.
func (v *HMACVerifier) Verify(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}

	userID, expiryStr, sig := parts[0], parts[1], parts[2]
	if userID == "" {
		return "", ErrMalformedToken
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", ErrMalformedToken
	}
	if v.now().Unix() > expiry {
		return "", ErrExpiredToken
	}

	expected := v.sign(userID, expiry)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrBadSignature
	}

	return userID, nil
}

// -----------------------------------------------------------------------------

// Issue mints a token for a user, valid for ttl. Exposed for tests and for
// deployments where the session service shares this package.
func (v *HMACVerifier) Issue(userID string, ttl time.Duration) string {
	expiry := v.now().Add(ttl).Unix()
	return fmt.Sprintf("%s:%d:%s", userID, expiry, v.sign(userID, expiry))
}

// -----------------------------------------------------------------------------

func (v *HMACVerifier) sign(userID string, expiry int64) string {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s:%d", userID, expiry)
	return hex.EncodeToString(mac.Sum(nil))
}
