package db

import (
	"context"
	"fmt"
	"time"

	"venue-manager/models"
)

const chatSelect = `SELECT c.id, c.sender_id, u.full_name, c.recipient_id, c.content, c.kind, c.is_private, c.is_read, c.created_at
	FROM chat_messages c JOIN users u ON u.id = c.sender_id`

func (m *Manager) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Kind == "" {
		msg.Kind = models.KindText
	}
	msg.CreatedAt = utc(msg.CreatedAt)
	msg.IsPrivate = msg.RecipientID != nil

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO chat_messages (sender_id, recipient_id, content, kind, is_private, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.SenderID, msg.RecipientID, msg.Content, msg.Kind, msg.IsPrivate, msg.IsRead, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	msg.ID, err = res.LastInsertId()
	return err
}

// ListPublicMessages returns the latest public messages in chronological order.
func (m *Manager) ListPublicMessages(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	return m.queryMessages(ctx,
		"SELECT * FROM ("+chatSelect+" WHERE c.recipient_id IS NULL ORDER BY c.created_at DESC, c.id DESC LIMIT ?) t ORDER BY created_at, id",
		limit)
}

// ListConversation returns the latest private messages between two users in
// chronological order.
func (m *Manager) ListConversation(ctx context.Context, userA, userB int64, limit int) ([]*models.ChatMessage, error) {
	return m.queryMessages(ctx,
		"SELECT * FROM ("+chatSelect+` WHERE (c.sender_id = ? AND c.recipient_id = ?) OR (c.sender_id = ? AND c.recipient_id = ?)
			ORDER BY c.created_at DESC, c.id DESC LIMIT ?) t ORDER BY created_at, id`,
		userA, userB, userB, userA, limit)
}

func (m *Manager) queryMessages(ctx context.Context, query string, args ...any) ([]*models.ChatMessage, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderName, &msg.RecipientID, &msg.Content,
			&msg.Kind, &msg.IsPrivate, &msg.IsRead, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

// MarkRead flags a private message as read. Only its recipient may do so.
func (m *Manager) MarkRead(ctx context.Context, messageID, recipientID int64) error {
	res, err := m.db.ExecContext(ctx,
		"UPDATE chat_messages SET is_read = ? WHERE id = ? AND recipient_id = ?", true, messageID, recipientID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return affected(res, "chat message")
}

// MarkConversationRead flags every message from sender to recipient as read.
func (m *Manager) MarkConversationRead(ctx context.Context, senderID, recipientID int64) error {
	_, err := m.db.ExecContext(ctx,
		"UPDATE chat_messages SET is_read = ? WHERE sender_id = ? AND recipient_id = ? AND is_read = ?",
		true, senderID, recipientID, false)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

// UnreadCounts returns unread private messages addressed to userID, per sender.
func (m *Manager) UnreadCounts(ctx context.Context, userID int64) ([]models.UnreadCount, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT sender_id, COUNT(*) FROM chat_messages
		WHERE recipient_id = ? AND is_read = ?
		GROUP BY sender_id ORDER BY sender_id`, userID, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.UnreadCount{}
	for rows.Next() {
		var uc models.UnreadCount
		if err := rows.Scan(&uc.SenderID, &uc.Count); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}
