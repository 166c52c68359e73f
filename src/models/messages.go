package models

// -----------------------------------------------------------------------------
// WebSocket protocol
// -----------------------------------------------------------------------------

// Inbound message types.
const (
	MsgAuth        = "auth"
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgPing        = "ping"
)

// Outbound message types.
const (
	MsgConnected     = "connected"
	MsgAuthenticated = "authenticated"
	MsgAuthError     = "auth_error"
	MsgSubscribed    = "subscribed"
	MsgUnsubscribed  = "unsubscribed"
	MsgQuote         = "quote"
	MsgAlert         = "alert"
	MsgPong          = "pong"
)

// MClientMessage is the single inbound envelope; unused fields stay empty.
type MClientMessage struct {
	Type    string   `json:"type"`
	Token   string   `json:"token,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// MServerMessage is the single outbound envelope.
type MServerMessage struct {
	Type      string       `json:"type"`
	Symbol    string       `json:"symbol,omitempty"`
	Data      *MQuote      `json:"data,omitempty"`
	Alert     *MAlertEvent `json:"alert,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	Symbols   []string     `json:"symbols,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp int64        `json:"timestamp"`
}
