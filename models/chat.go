package models

import "time"

// MessageKind distinguishes ordinary chat from system notices.
type MessageKind string

const (
	KindText         MessageKind = "text"
	KindSystem       MessageKind = "system"
	KindAnnouncement MessageKind = "announcement"
)

// Valid reports whether k is a known kind.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindSystem, KindAnnouncement:
		return true
	}
	return false
}

// ChatMessage is one persisted team chat message. A nil RecipientID means the
// message is public.
type ChatMessage struct {
	ID          int64       `json:"id"`
	SenderID    int64       `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	RecipientID *int64      `json:"recipient_id"`
	Content     string      `json:"content"`
	Kind        MessageKind `json:"message_type"`
	IsPrivate   bool        `json:"is_private"`
	IsRead      bool        `json:"is_read"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ChatMessageCreate is the REST payload for sending a message.
type ChatMessageCreate struct {
	Content     string       `json:"content" binding:"required"`
	RecipientID *int64       `json:"recipient_id"`
	Kind        *MessageKind `json:"message_type"`
}

// UnreadCount is the number of unread private messages per sender.
type UnreadCount struct {
	SenderID int64 `json:"sender_id"`
	Count    int   `json:"count"`
}
