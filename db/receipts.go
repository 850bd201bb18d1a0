package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"venue-manager/models"
	"venue-manager/receipts"
)

const receiptColumns = `id, filename, content_type, file_size, image_key, ocr_text, store_name, receipt_date,
	total_amount, total_source, currency, items_json, status, notes, uploaded_by, cost_id, created_at, processed_at`

func scanReceipt(s scanner) (*models.Receipt, error) {
	var r models.Receipt
	var items sql.NullString
	if err := s.Scan(&r.ID, &r.Filename, &r.ContentType, &r.FileSize, &r.ImageKey, &r.OCRText,
		&r.StoreName, &r.ReceiptDate, &r.TotalAmount, &r.TotalSource, &r.Currency, &items,
		&r.Status, &r.Notes, &r.UploadedBy, &r.CostID, &r.CreatedAt, &r.ProcessedAt); err != nil {
		return nil, err
	}
	r.Items = []receipts.Item{}
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &r.Items); err != nil {
			return nil, fmt.Errorf("decode receipt items: %w", err)
		}
	}
	return &r, nil
}

func encodeItems(items []receipts.Item) (*string, error) {
	if items == nil {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode receipt items: %w", err)
	}
	s := string(b)
	return &s, nil
}

func (m *Manager) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Status == "" {
		r.Status = models.ReceiptPending
	}
	if r.Currency == "" {
		r.Currency = receipts.DefaultCurrency
	}
	r.CreatedAt = utc(r.CreatedAt)
	r.ProcessedAt = utcPtr(r.ProcessedAt)

	items, err := encodeItems(r.Items)
	if err != nil {
		return err
	}

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO receipts (filename, content_type, file_size, image_key, ocr_text, store_name, receipt_date,
			total_amount, total_source, currency, items_json, status, notes, uploaded_by, cost_id, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Filename, r.ContentType, r.FileSize, r.ImageKey, r.OCRText, r.StoreName, r.ReceiptDate,
		r.TotalAmount, r.TotalSource, r.Currency, items, r.Status, r.Notes, r.UploadedBy, r.CostID,
		r.CreatedAt, r.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (m *Manager) GetReceipt(ctx context.Context, id int64) (*models.Receipt, error) {
	r, err := scanReceipt(m.db.QueryRowContext(ctx, "SELECT "+receiptColumns+" FROM receipts WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "receipt")
	}
	return r, nil
}

// ListReceipts returns a page of receipts, newest first, and the total count.
// A non-empty status filters the list.
func (m *Manager) ListReceipts(ctx context.Context, status models.ReceiptStatus, skip, limit int) ([]*models.Receipt, int, error) {
	where := ""
	var args []any
	if status != "" {
		where = " WHERE status = ?"
		args = append(args, status)
	}

	var total int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM receipts"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count receipts: %w", err)
	}

	rows, err := m.db.QueryContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts"+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, limit, skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []*models.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, r)
	}
	return list, total, rows.Err()
}

// UpdateReceipt stores everything but the upload metadata of r.
func (m *Manager) UpdateReceipt(ctx context.Context, r *models.Receipt) error {
	items, err := encodeItems(r.Items)
	if err != nil {
		return err
	}
	res, err := m.db.ExecContext(ctx, `
		UPDATE receipts SET ocr_text = ?, store_name = ?, receipt_date = ?, total_amount = ?, total_source = ?,
			currency = ?, items_json = ?, status = ?, notes = ?, cost_id = ?, processed_at = ?
		WHERE id = ?`,
		r.OCRText, r.StoreName, r.ReceiptDate, r.TotalAmount, r.TotalSource, r.Currency, items,
		r.Status, r.Notes, r.CostID, utcPtr(r.ProcessedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	return affected(res, "receipt")
}

// DeleteReceipt removes the receipt row and unlinks the cost booked from it.
func (m *Manager) DeleteReceipt(ctx context.Context, id int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if err := affected(res, "receipt"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE costs SET receipt_id = NULL WHERE receipt_id = ?", id); err != nil {
		return fmt.Errorf("unlink cost: %w", err)
	}
	return tx.Commit()
}

// BookReceipt creates c from receipt id and links the two in one
// transaction. A receipt that already has a cost yields ErrConflict.
func (m *Manager) BookReceipt(ctx context.Context, id int64, c *models.Cost) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var costID sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT cost_id FROM receipts WHERE id = ?", id).Scan(&costID); err != nil {
		return notFound(err, "receipt")
	}
	if costID.Valid {
		return fmt.Errorf("receipt %d already booked as cost %d: %w", id, costID.Int64, ErrConflict)
	}

	c.ReceiptID = &id
	if err := insertCost(ctx, tx, c); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE receipts SET cost_id = ?, status = ? WHERE id = ?",
		c.ID, models.ReceiptVerified, id); err != nil {
		return fmt.Errorf("link receipt: %w", err)
	}
	return tx.Commit()
}
