// Package chat implements the team chat on top of the presence broker:
// presence announcements, persisted messages and typing notices.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"venue-manager/broker"
	"venue-manager/db"
	"venue-manager/models"
)

// MaxContentLength is the longest accepted message, in characters.
const MaxContentLength = 2000

var (
	ErrEmptyMessage     = errors.New("message content is empty")
	ErrMessageTooLong   = fmt.Errorf("message content exceeds %d characters", MaxContentLength)
	ErrInvalidKind      = errors.New("unknown message type")
	ErrKindNotAllowed   = errors.New("only managers can send this message type")
	ErrInvalidRecipient = errors.New("invalid recipient")
	errUnsupportedFrame = errors.New("invalid message frame")
)

// Store is the persistence the chat needs.
type Store interface {
	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Service routes chat traffic between connected users.
type Service struct {
	broker *broker.Broker
	store  Store
	logger *zap.Logger

	mu    sync.RWMutex
	names map[int64]string
}

// NewService wires the chat to b. It installs the broker's drop hook so
// users lost through failed deliveries are announced as offline.
func NewService(b *broker.Broker, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		broker: b,
		store:  store,
		logger: logger,
		names:  make(map[int64]string),
	}
	b.SetDropHook(s.announceOffline)
	return s
}

// Connect registers ch for user, sends the newcomer the current roster and
// tells everyone else the user is online.
func (s *Service) Connect(user *models.User, ch broker.Channel) {
	s.mu.Lock()
	s.names[user.ID] = user.FullName
	s.mu.Unlock()

	s.broker.Register(user.ID, ch)
	s.logger.Info("chat user connected", zap.Int64("user_id", user.ID))

	s.broker.SendToUser(user.ID, models.WSMessage{Type: models.WSOnlineUsers, Payload: s.OnlineUsers()})
	s.broker.BroadcastExcept(models.WSMessage{
		Type:    models.WSUserOnline,
		Payload: models.PresencePayload{UserID: user.ID, FullName: user.FullName},
	}, user.ID)
}

// Disconnect releases ch. Nothing is announced when ch was already replaced
// by a newer connection of the same user.
func (s *Service) Disconnect(userID int64, ch broker.Channel) {
	if !s.broker.Release(userID, ch) {
		return
	}
	s.logger.Info("chat user disconnected", zap.Int64("user_id", userID))
	s.announceOffline(userID)
}

func (s *Service) announceOffline(userID int64) {
	s.broker.Broadcast(models.WSMessage{
		Type:    models.WSUserOffline,
		Payload: models.PresencePayload{UserID: userID, FullName: s.name(userID)},
	})
}

func (s *Service) name(userID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[userID]
}

// OnlineUsers lists the connected users in id order.
func (s *Service) OnlineUsers() []models.PresencePayload {
	ids := s.broker.OnlineUsers()
	out := make([]models.PresencePayload, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.PresencePayload{UserID: id, FullName: s.name(id)})
	}
	return out
}

// IsOnline reports whether userID has an open connection.
func (s *Service) IsOnline(userID int64) bool {
	return s.broker.IsOnline(userID)
}

// Send validates, stores and delivers a message. Private messages reach the
// recipient and the sender's own connection, public ones reach everybody.
func (s *Service) Send(ctx context.Context, sender *models.User, in models.ChatMessageCreate) (*models.ChatMessage, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrMessageTooLong
	}

	kind := models.KindText
	if in.Kind != nil {
		kind = *in.Kind
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if kind != models.KindText && !sender.Role.AtLeast(models.RoleManager) {
		return nil, ErrKindNotAllowed
	}

	if in.RecipientID != nil {
		if *in.RecipientID == sender.ID {
			return nil, ErrInvalidRecipient
		}
		if _, err := s.store.GetUser(ctx, *in.RecipientID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, ErrInvalidRecipient
			}
			return nil, err
		}
	}

	msg := &models.ChatMessage{
		SenderID:    sender.ID,
		SenderName:  sender.FullName,
		RecipientID: in.RecipientID,
		Content:     content,
		Kind:        kind,
	}
	if err := s.store.SaveChatMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}

	frame := models.WSMessage{Type: models.WSNewMessage, Payload: msg}
	if msg.RecipientID != nil {
		s.broker.SendToUser(*msg.RecipientID, frame)
		s.broker.SendToUser(sender.ID, frame)
	} else {
		s.broker.Broadcast(frame)
	}
	return msg, nil
}

// Typing tells the recipient, or everyone but the sender, that sender is
// typing.
func (s *Service) Typing(sender *models.User, recipientID *int64) {
	frame := models.WSMessage{
		Type:    models.WSUserTyping,
		Payload: models.TypingPayload{UserID: sender.ID, FullName: sender.FullName, RecipientID: recipientID},
	}
	if recipientID != nil {
		if *recipientID != sender.ID {
			s.broker.SendToUser(*recipientID, frame)
		}
		return
	}
	s.broker.BroadcastExcept(frame, sender.ID)
}

// HandleInbound processes one frame received from user's connection.
// Problems are reported back to that user only.
func (s *Service) HandleInbound(ctx context.Context, user *models.User, raw []byte) {
	var in models.WSInbound
	if err := json.Unmarshal(raw, &in); err != nil {
		s.replyError(user.ID, errUnsupportedFrame)
		return
	}

	switch in.Type {
	case models.WSInMessage:
		_, err := s.Send(ctx, user, models.ChatMessageCreate{Content: in.Content, RecipientID: in.RecipientID})
		if err != nil {
			s.logger.Debug("inbound message rejected", zap.Int64("user_id", user.ID), zap.Error(err))
			s.replyError(user.ID, err)
		}
	case models.WSInTyping:
		s.Typing(user, in.RecipientID)
	case models.WSInPing:
		s.broker.SendToUser(user.ID, models.WSMessage{Type: models.WSPong})
	default:
		s.logger.Debug("ignoring frame", zap.String("type", in.Type), zap.Int64("user_id", user.ID))
	}
}

func (s *Service) replyError(userID int64, err error) {
	msg := err.Error()
	// hide server-side failures
	if !IsClientError(err) {
		msg = "message could not be delivered"
	}
	s.broker.SendToUser(userID, models.WSMessage{Type: models.WSError, Payload: models.ErrorPayload{Message: msg}})
}

// IsClientError reports whether err was caused by the submitted message
// rather than by the server.
func IsClientError(err error) bool {
	for _, e := range []error{ErrEmptyMessage, ErrMessageTooLong, ErrInvalidKind, ErrKindNotAllowed, ErrInvalidRecipient, errUnsupportedFrame} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
