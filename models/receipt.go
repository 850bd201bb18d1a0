package models

import (
	"time"

	"venue-manager/receipts"
)

// ReceiptStatus tracks a receipt from upload to bookkeeping.
type ReceiptStatus string

const (
	ReceiptPending    ReceiptStatus = "pending"
	ReceiptProcessing ReceiptStatus = "processing"
	ReceiptProcessed  ReceiptStatus = "processed"
	ReceiptVerified   ReceiptStatus = "verified"
	ReceiptRejected   ReceiptStatus = "rejected"
)

var ReceiptStatuses = []ReceiptStatus{
	ReceiptPending, ReceiptProcessing, ReceiptProcessed, ReceiptVerified, ReceiptRejected,
}

// Valid reports whether s is a known status.
func (s ReceiptStatus) Valid() bool {
	for _, known := range ReceiptStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Receipt is an uploaded shop receipt. The image itself lives in the image
// store under ImageKey.
type Receipt struct {
	ID          int64                `json:"id"`
	Filename    string               `json:"filename"`
	ContentType *string              `json:"content_type"`
	FileSize    *int64               `json:"file_size"`
	ImageKey    *string              `json:"-"`
	OCRText     *string              `json:"ocr_raw_text,omitempty"`
	StoreName   *string              `json:"store_name"`
	ReceiptDate *string              `json:"receipt_date"`
	TotalAmount *float64             `json:"total_amount"`
	TotalSource receipts.TotalSource `json:"total_source,omitempty"`
	Currency    string               `json:"currency"`
	Items       []receipts.Item      `json:"items"`
	Status      ReceiptStatus        `json:"status"`
	Notes       *string              `json:"notes"`
	UploadedBy  *int64               `json:"uploaded_by"`
	CostID      *int64               `json:"cost_id"`
	CreatedAt   time.Time            `json:"uploaded_at"`
	ProcessedAt *time.Time           `json:"processed_at"`
}

// ApplyParsed copies the parser output onto the receipt.
func (r *Receipt) ApplyParsed(p receipts.Receipt) {
	r.StoreName = p.StoreName
	r.ReceiptDate = p.Date
	r.TotalAmount = p.TotalFloat()
	r.TotalSource = p.TotalSource
	r.Currency = p.Currency
	r.Items = p.Items
}

// ReceiptUpdate holds the fields a user may correct after OCR.
type ReceiptUpdate struct {
	StoreName   *string        `json:"store_name"`
	ReceiptDate *string        `json:"receipt_date"`
	TotalAmount *float64       `json:"total_amount"`
	Notes       *string        `json:"notes"`
	Status      *ReceiptStatus `json:"status"`
}

// Apply copies the set fields of u onto r.
func (u ReceiptUpdate) Apply(r *Receipt) {
	if u.StoreName != nil {
		r.StoreName = u.StoreName
	}
	if u.ReceiptDate != nil {
		r.ReceiptDate = u.ReceiptDate
	}
	if u.TotalAmount != nil {
		r.TotalAmount = u.TotalAmount
		r.TotalSource = ""
	}
	if u.Notes != nil {
		r.Notes = u.Notes
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
}

// ReceiptCostRequest books a receipt as a cost.
type ReceiptCostRequest struct {
	EventID  *int64  `json:"event_id"`
	Category *string `json:"category"`
}

// ScanTextRequest asks the server to parse already recognised text.
type ScanTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ReceiptList is a page of receipts plus the overall count.
type ReceiptList struct {
	Receipts []*Receipt `json:"receipts"`
	Total    int        `json:"total"`
}
