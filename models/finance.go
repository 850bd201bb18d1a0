package models

import (
	"strings"
	"time"
)

// Cost categories. The bar_* and cleaning values are also produced by the
// receipt parser as item suggestions.
const (
	CostBarAlcohol      = "bar_alcohol"
	CostBarBeverages    = "bar_beverages"
	CostBarFood         = "bar_food"
	CostBarSupplies     = "bar_supplies"
	CostStaffWages      = "staff_wages"
	CostEquipmentRental = "equipment_rental"
	CostMarketing       = "marketing"
	CostUtilities       = "utilities"
	CostMaintenance     = "maintenance"
	CostCleaning        = "cleaning"
	CostSecurity        = "security"
	CostArtistFee       = "artist_fee"
	CostSoundEngineer   = "sound_engineer"
	CostLighting        = "lighting"
	CostLicenses        = "licenses"
	CostInsurance       = "insurance"
	CostOther           = "other"
)

var CostCategories = []string{
	CostBarAlcohol, CostBarBeverages, CostBarFood, CostBarSupplies,
	CostStaffWages, CostEquipmentRental, CostMarketing, CostUtilities,
	CostMaintenance, CostCleaning, CostSecurity, CostArtistFee,
	CostSoundEngineer, CostLighting, CostLicenses, CostInsurance, CostOther,
}

// Revenue sources.
const (
	RevenueBoxOffice   = "box_office"
	RevenueBarSales    = "bar_sales"
	RevenueMerchandise = "merchandise"
	RevenueSponsorship = "sponsorship"
	RevenueRental      = "rental"
	RevenueOther       = "other"
)

var RevenueSources = []string{
	RevenueBoxOffice, RevenueBarSales, RevenueMerchandise,
	RevenueSponsorship, RevenueRental, RevenueOther,
}

// ValidCostCategory reports whether c is one of CostCategories.
func ValidCostCategory(c string) bool {
	return contains(CostCategories, c)
}

// ValidRevenueSource reports whether s is one of RevenueSources.
func ValidRevenueSource(s string) bool {
	return contains(RevenueSources, s)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Label turns a snake_case value into a title-cased display label.
func Label(value string) string {
	words := strings.Split(value, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Cost is money spent, optionally attached to an event.
type Cost struct {
	ID            int64      `json:"id"`
	EventID       *int64     `json:"event_id"`
	Category      string     `json:"category"`
	Amount        float64    `json:"amount"`
	Description   *string    `json:"description"`
	Vendor        *string    `json:"vendor"`
	InvoiceNumber *string    `json:"invoice_number"`
	ReceiptID     *int64     `json:"receipt_id"`
	CostDate      *time.Time `json:"cost_date"`
	CreatedBy     *int64     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CostCreate is the payload for a new cost.
type CostCreate struct {
	EventID       *int64     `json:"event_id"`
	Category      string     `json:"category" binding:"required"`
	Amount        float64    `json:"amount" binding:"required,gt=0"`
	Description   *string    `json:"description"`
	Vendor        *string    `json:"vendor"`
	InvoiceNumber *string    `json:"invoice_number"`
	ReceiptID     *int64     `json:"receipt_id"`
	CostDate      *time.Time `json:"cost_date"`
}

// CostUpdate holds the fields to change; nil fields are left untouched.
type CostUpdate struct {
	Category      *string    `json:"category"`
	Amount        *float64   `json:"amount"`
	Description   *string    `json:"description"`
	Vendor        *string    `json:"vendor"`
	InvoiceNumber *string    `json:"invoice_number"`
	ReceiptID     *int64     `json:"receipt_id"`
	CostDate      *time.Time `json:"cost_date"`
}

// Apply copies the set fields of u onto c.
func (u CostUpdate) Apply(c *Cost) {
	if u.Category != nil {
		c.Category = *u.Category
	}
	if u.Amount != nil {
		c.Amount = *u.Amount
	}
	if u.Description != nil {
		c.Description = u.Description
	}
	if u.Vendor != nil {
		c.Vendor = u.Vendor
	}
	if u.InvoiceNumber != nil {
		c.InvoiceNumber = u.InvoiceNumber
	}
	if u.ReceiptID != nil {
		c.ReceiptID = u.ReceiptID
	}
	if u.CostDate != nil {
		c.CostDate = u.CostDate
	}
}

// Revenue is money earned, optionally attached to an event.
type Revenue struct {
	ID          int64      `json:"id"`
	EventID     *int64     `json:"event_id"`
	Source      string     `json:"source"`
	Amount      float64    `json:"amount"`
	Description *string    `json:"description"`
	RevenueDate *time.Time `json:"revenue_date"`
	RecordedBy  *int64     `json:"recorded_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RevenueCreate is the payload for a new revenue entry.
type RevenueCreate struct {
	EventID     *int64     `json:"event_id"`
	Source      string     `json:"source" binding:"required"`
	Amount      float64    `json:"amount" binding:"required,gt=0"`
	Description *string    `json:"description"`
	RevenueDate *time.Time `json:"revenue_date"`
}

// RevenueUpdate holds the fields to change; nil fields are left untouched.
type RevenueUpdate struct {
	Source      *string    `json:"source"`
	Amount      *float64   `json:"amount"`
	Description *string    `json:"description"`
	RevenueDate *time.Time `json:"revenue_date"`
}

// Apply copies the set fields of u onto r.
func (u RevenueUpdate) Apply(r *Revenue) {
	if u.Source != nil {
		r.Source = *u.Source
	}
	if u.Amount != nil {
		r.Amount = *u.Amount
	}
	if u.Description != nil {
		r.Description = u.Description
	}
	if u.RevenueDate != nil {
		r.RevenueDate = u.RevenueDate
	}
}
