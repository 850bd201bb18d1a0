package models

import "time"

// EventReport summarises the finances of one event.
type EventReport struct {
	EventID          int64              `json:"event_id"`
	EventName        string             `json:"event_name"`
	EventDate        time.Time          `json:"event_date"`
	TotalCosts       float64            `json:"total_costs"`
	TotalRevenue     float64            `json:"total_revenue"`
	NetProfit        float64            `json:"net_profit"`
	ProfitMargin     float64            `json:"profit_margin"`
	StaffCosts       float64            `json:"staff_costs"`
	CostsBreakdown   map[string]float64 `json:"costs_breakdown"`
	RevenueBreakdown map[string]float64 `json:"revenue_breakdown"`
}

// PeriodReport summarises all events within a date range.
type PeriodReport struct {
	PeriodFrom   time.Time `json:"period_from"`
	PeriodTo     time.Time `json:"period_to"`
	EventsCount  int       `json:"events_count"`
	TotalCosts   float64   `json:"total_costs"`
	TotalRevenue float64   `json:"total_revenue"`
	NetProfit    float64   `json:"net_profit"`
	ProfitMargin float64   `json:"profit_margin"`
}

// Option is a value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories lists every enumerated value the clients offer in forms.
type Categories struct {
	CostCategories  []Option `json:"cost_categories"`
	RevenueSources  []Option `json:"revenue_sources"`
	UserRoles       []Option `json:"user_roles"`
	ReceiptStatuses []Option `json:"receipt_statuses"`
	StaffPositions  []Option `json:"staff_positions"`
}
