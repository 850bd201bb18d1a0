package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"venue-manager/models"
)

const costColumns = "id, event_id, category, amount, description, vendor, invoice_number, receipt_id, cost_date, created_by, created_at"

func scanCost(s scanner) (*models.Cost, error) {
	var c models.Cost
	if err := s.Scan(&c.ID, &c.EventID, &c.Category, &c.Amount, &c.Description, &c.Vendor,
		&c.InvoiceNumber, &c.ReceiptID, &c.CostDate, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCost(ctx context.Context, ex execer, c *models.Cost) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = utc(c.CreatedAt)
	c.CostDate = utcPtr(c.CostDate)

	res, err := ex.ExecContext(ctx, `
		INSERT INTO costs (event_id, category, amount, description, vendor, invoice_number, receipt_id, cost_date, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.EventID, c.Category, c.Amount, c.Description, c.Vendor, c.InvoiceNumber, c.ReceiptID, c.CostDate, c.CreatedBy, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cost: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (m *Manager) CreateCost(ctx context.Context, c *models.Cost) error {
	return insertCost(ctx, m.db, c)
}

func (m *Manager) GetCost(ctx context.Context, id int64) (*models.Cost, error) {
	c, err := scanCost(m.db.QueryRowContext(ctx, "SELECT "+costColumns+" FROM costs WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "cost")
	}
	return c, nil
}

// ListCosts returns costs newest first, limited to one event when eventID is set.
func (m *Manager) ListCosts(ctx context.Context, eventID *int64) ([]*models.Cost, error) {
	query := "SELECT " + costColumns + " FROM costs"
	var args []any
	if eventID != nil {
		query += " WHERE event_id = ?"
		args = append(args, *eventID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := []*models.Cost{}
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		costs = append(costs, c)
	}
	return costs, rows.Err()
}

func (m *Manager) UpdateCost(ctx context.Context, c *models.Cost) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE costs SET category = ?, amount = ?, description = ?, vendor = ?, invoice_number = ?,
			receipt_id = ?, cost_date = ?
		WHERE id = ?`,
		c.Category, c.Amount, c.Description, c.Vendor, c.InvoiceNumber, c.ReceiptID, utcPtr(c.CostDate), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update cost: %w", err)
	}
	return affected(res, "cost")
}

// DeleteCost removes the cost and unlinks any receipt booked to it.
func (m *Manager) DeleteCost(ctx context.Context, id int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM costs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	if err := affected(res, "cost"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE receipts SET cost_id = NULL WHERE cost_id = ?", id); err != nil {
		return fmt.Errorf("unlink receipt: %w", err)
	}
	return tx.Commit()
}

const revenueColumns = "id, event_id, source, amount, description, revenue_date, recorded_by, created_at"

func scanRevenue(s scanner) (*models.Revenue, error) {
	var r models.Revenue
	if err := s.Scan(&r.ID, &r.EventID, &r.Source, &r.Amount, &r.Description, &r.RevenueDate,
		&r.RecordedBy, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (m *Manager) CreateRevenue(ctx context.Context, r *models.Revenue) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = utc(r.CreatedAt)
	r.RevenueDate = utcPtr(r.RevenueDate)

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO revenues (event_id, source, amount, description, revenue_date, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.EventID, r.Source, r.Amount, r.Description, r.RevenueDate, r.RecordedBy, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert revenue: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (m *Manager) GetRevenue(ctx context.Context, id int64) (*models.Revenue, error) {
	r, err := scanRevenue(m.db.QueryRowContext(ctx, "SELECT "+revenueColumns+" FROM revenues WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "revenue")
	}
	return r, nil
}

// ListRevenue returns revenue newest first, limited to one event when eventID is set.
func (m *Manager) ListRevenue(ctx context.Context, eventID *int64) ([]*models.Revenue, error) {
	query := "SELECT " + revenueColumns + " FROM revenues"
	var args []any
	if eventID != nil {
		query += " WHERE event_id = ?"
		args = append(args, *eventID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revenues := []*models.Revenue{}
	for rows.Next() {
		r, err := scanRevenue(rows)
		if err != nil {
			return nil, err
		}
		revenues = append(revenues, r)
	}
	return revenues, rows.Err()
}

func (m *Manager) UpdateRevenue(ctx context.Context, r *models.Revenue) error {
	res, err := m.db.ExecContext(ctx,
		"UPDATE revenues SET source = ?, amount = ?, description = ?, revenue_date = ? WHERE id = ?",
		r.Source, r.Amount, r.Description, utcPtr(r.RevenueDate), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update revenue: %w", err)
	}
	return affected(res, "revenue")
}

func (m *Manager) DeleteRevenue(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM revenues WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete revenue: %w", err)
	}
	return affected(res, "revenue")
}

// CostTotals sums cost amounts per category over the given events.
func (m *Manager) CostTotals(ctx context.Context, eventIDs []int64) (map[string]float64, error) {
	return m.sumGrouped(ctx, "costs", "category", eventIDs)
}

// RevenueTotals sums revenue amounts per source over the given events.
func (m *Manager) RevenueTotals(ctx context.Context, eventIDs []int64) (map[string]float64, error) {
	return m.sumGrouped(ctx, "revenues", "source", eventIDs)
}

// StaffWages sums hours times hourly rate over the given events.
func (m *Manager) StaffWages(ctx context.Context, eventIDs []int64) (float64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	in, args := inClause(eventIDs)
	var total sql.NullFloat64
	err := m.db.QueryRowContext(ctx,
		"SELECT SUM(hours * hourly_rate) FROM staff_assignments WHERE event_id IN ("+in+")", args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum staff wages: %w", err)
	}
	return total.Float64, nil
}

// sumGrouped is only called with fixed table and column names.
func (m *Manager) sumGrouped(ctx context.Context, table, column string, eventIDs []int64) (map[string]float64, error) {
	out := make(map[string]float64)
	if len(eventIDs) == 0 {
		return out, nil
	}
	in, args := inClause(eventIDs)
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, SUM(amount) FROM %s WHERE event_id IN (%s) GROUP BY %s", column, table, in, column), args...)
	if err != nil {
		return nil, fmt.Errorf("sum %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var sum float64
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, err
		}
		out[key] = sum
	}
	return out, rows.Err()
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
