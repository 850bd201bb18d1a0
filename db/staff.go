package db

import (
	"context"
	"fmt"

	"venue-manager/models"
)

const staffColumns = "id, event_id, position, name, hours, hourly_rate, notes"

func scanStaff(s scanner) (*models.StaffAssignment, error) {
	var a models.StaffAssignment
	if err := s.Scan(&a.ID, &a.EventID, &a.Position, &a.Name, &a.Hours, &a.HourlyRate, &a.Notes); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *Manager) CreateStaff(ctx context.Context, a *models.StaffAssignment) error {
	res, err := m.db.ExecContext(ctx,
		"INSERT INTO staff_assignments (event_id, position, name, hours, hourly_rate, notes) VALUES (?, ?, ?, ?, ?, ?)",
		a.EventID, a.Position, a.Name, a.Hours, a.HourlyRate, a.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert staff assignment: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (m *Manager) GetStaff(ctx context.Context, id int64) (*models.StaffAssignment, error) {
	a, err := scanStaff(m.db.QueryRowContext(ctx, "SELECT "+staffColumns+" FROM staff_assignments WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "staff assignment")
	}
	return a, nil
}

// ListStaff returns the staff plan of one event ordered by position.
func (m *Manager) ListStaff(ctx context.Context, eventID int64) ([]*models.StaffAssignment, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT "+staffColumns+" FROM staff_assignments WHERE event_id = ? ORDER BY position, id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := []*models.StaffAssignment{}
	for rows.Next() {
		a, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, a)
	}
	return staff, rows.Err()
}

func (m *Manager) UpdateStaff(ctx context.Context, a *models.StaffAssignment) error {
	res, err := m.db.ExecContext(ctx,
		"UPDATE staff_assignments SET position = ?, name = ?, hours = ?, hourly_rate = ?, notes = ? WHERE id = ?",
		a.Position, a.Name, a.Hours, a.HourlyRate, a.Notes, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update staff assignment: %w", err)
	}
	return affected(res, "staff assignment")
}

func (m *Manager) DeleteStaff(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM staff_assignments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete staff assignment: %w", err)
	}
	return affected(res, "staff assignment")
}
