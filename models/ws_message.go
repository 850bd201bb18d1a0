package models

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Server to client event types.
const (
	WSNewMessage  = "new_message"
	WSUserOnline  = "user_online"
	WSUserOffline = "user_offline"
	WSOnlineUsers = "online_users"
	WSUserTyping  = "user_typing"
	WSPong        = "pong"
	WSError       = "error"
)

// Client to server event types.
const (
	WSInMessage = "message"
	WSInTyping  = "typing"
	WSInPing    = "ping"
)

// WSInbound is a frame received from a client.
type WSInbound struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	RecipientID *int64 `json:"recipient_id"`
}

// PresencePayload announces a user joining or leaving.
type PresencePayload struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name,omitempty"`
}

// TypingPayload tells peers who is typing.
type TypingPayload struct {
	UserID      int64  `json:"user_id"`
	FullName    string `json:"full_name,omitempty"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
}

// ErrorPayload reports a problem with a client frame.
type ErrorPayload struct {
	Message string `json:"message"`
}
