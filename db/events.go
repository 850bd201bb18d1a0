package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"venue-manager/models"
)

const eventColumns = "id, name, date, description, capacity, ticket_price, genre, status, notes, created_by, created_at"

func scanEvent(s scanner) (*models.Event, error) {
	var e models.Event
	if err := s.Scan(&e.ID, &e.Name, &e.Date, &e.Description, &e.Capacity, &e.TicketPrice,
		&e.Genre, &e.Status, &e.Notes, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (m *Manager) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = models.EventPlanned
	}
	e.CreatedAt = utc(e.CreatedAt)
	e.Date = utc(e.Date)

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO events (name, date, description, capacity, ticket_price, genre, status, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Date, e.Description, e.Capacity, e.TicketPrice, e.Genre, e.Status, e.Notes, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (m *Manager) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(m.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "event")
	}
	return e, nil
}

// ListEvents returns a page of events, newest date first, and the total count.
func (m *Manager) ListEvents(ctx context.Context, skip, limit int) ([]*models.Event, int, error) {
	var total int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	rows, err := m.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY date DESC, id DESC LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, 0, err
	}
	events, err := collectEvents(rows)
	return events, total, err
}

// ListEventsBetween returns events whose date lies in [from, to].
func (m *Manager) ListEventsBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE date >= ? AND date <= ? ORDER BY date", utc(from), utc(to))
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]*models.Event, error) {
	defer rows.Close()
	events := []*models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (m *Manager) UpdateEvent(ctx context.Context, e *models.Event) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE events SET name = ?, date = ?, description = ?, capacity = ?, ticket_price = ?,
			genre = ?, status = ?, notes = ?
		WHERE id = ?`,
		e.Name, utc(e.Date), e.Description, e.Capacity, e.TicketPrice, e.Genre, e.Status, e.Notes, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return affected(res, "event")
}

// DeleteEvent removes the event with its staff plan. Costs and revenue stay
// on the books as general entries.
func (m *Manager) DeleteEvent(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return affected(res, "event")
}
