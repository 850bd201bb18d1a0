// Package reports aggregates event finances into profit summaries and
// charts.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"venue-manager/models"
)

// ErrInvalidPeriod is returned when a period ends before it starts.
var ErrInvalidPeriod = errors.New("end date is before start date")

// Store provides the raw sums the reports are built from.
type Store interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error)
	CostTotals(ctx context.Context, eventIDs []int64) (map[string]float64, error)
	RevenueTotals(ctx context.Context, eventIDs []int64) (map[string]float64, error)
	StaffWages(ctx context.Context, eventIDs []int64) (float64, error)
}

type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// EventReport summarises one event. Staff wages are reported separately and
// are not part of TotalCosts.
func (b *Builder) EventReport(ctx context.Context, eventID int64) (*models.EventReport, error) {
	event, err := b.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ids := []int64{eventID}
	costs, err := b.store.CostTotals(ctx, ids)
	if err != nil {
		return nil, err
	}
	revenue, err := b.store.RevenueTotals(ctx, ids)
	if err != nil {
		return nil, err
	}
	wages, err := b.store.StaffWages(ctx, ids)
	if err != nil {
		return nil, err
	}

	s := summarise(costs, revenue)
	return &models.EventReport{
		EventID:          event.ID,
		EventName:        event.Name,
		EventDate:        event.Date,
		TotalCosts:       s.costs,
		TotalRevenue:     s.revenue,
		NetProfit:        s.net,
		ProfitMargin:     s.margin,
		StaffCosts:       round(decimal.NewFromFloat(wages)),
		CostsBreakdown:   roundAll(costs),
		RevenueBreakdown: roundAll(revenue),
	}, nil
}

// PeriodReport summarises every event dated within [from, to].
func (b *Builder) PeriodReport(ctx context.Context, from, to time.Time) (*models.PeriodReport, error) {
	if to.Before(from) {
		return nil, ErrInvalidPeriod
	}
	events, err := b.store.ListEventsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	costs, err := b.store.CostTotals(ctx, ids)
	if err != nil {
		return nil, err
	}
	revenue, err := b.store.RevenueTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	s := summarise(costs, revenue)
	return &models.PeriodReport{
		PeriodFrom:   from,
		PeriodTo:     to,
		EventsCount:  len(events),
		TotalCosts:   s.costs,
		TotalRevenue: s.revenue,
		NetProfit:    s.net,
		ProfitMargin: s.margin,
	}, nil
}

type summary struct {
	costs, revenue, net, margin float64
}

// summarise sums in decimal so float noise never reaches the rounding step.
// The margin is net profit as a percentage of revenue, zero without revenue.
func summarise(costs, revenue map[string]float64) summary {
	c := sum(costs)
	r := sum(revenue)
	net := r.Sub(c)

	margin := decimal.Zero
	if r.IsPositive() {
		margin = net.Div(r).Mul(decimal.NewFromInt(100))
	}
	return summary{costs: round(c), revenue: round(r), net: round(net), margin: round(margin)}
}

func sum(m map[string]float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

func round(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func roundAll(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = round(decimal.NewFromFloat(v))
	}
	return out
}

// ParseRange parses the start and end of a report period. Both accept
// YYYY-MM-DD or RFC 3339; a date-only end covers that whole day.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	from, _, err := parseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, dateOnly, err := parseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		to = to.Add(24*time.Hour - time.Second)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return from, to, nil
}

func parseDay(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}
