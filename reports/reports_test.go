package reports

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"venue-manager/db"
	"venue-manager/models"
)

type fakeStore struct {
	events  map[int64]*models.Event
	costs   map[int64]map[string]float64
	revenue map[int64]map[string]float64
	wages   map[int64]float64
}

func (f *fakeStore) GetEvent(_ context.Context, id int64) (*models.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) ListEventsBetween(_ context.Context, from, to time.Time) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range f.events {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func merge(src map[int64]map[string]float64, ids []int64) map[string]float64 {
	out := map[string]float64{}
	for _, id := range ids {
		for k, v := range src[id] {
			out[k] += v
		}
	}
	return out
}

func (f *fakeStore) CostTotals(_ context.Context, ids []int64) (map[string]float64, error) {
	return merge(f.costs, ids), nil
}

func (f *fakeStore) RevenueTotals(_ context.Context, ids []int64) (map[string]float64, error) {
	return merge(f.revenue, ids), nil
}

func (f *fakeStore) StaffWages(_ context.Context, ids []int64) (float64, error) {
	total := 0.0
	for _, id := range ids {
		total += f.wages[id]
	}
	return total, nil
}

func newFake() *fakeStore {
	return &fakeStore{
		events: map[int64]*models.Event{
			1: {ID: 1, Name: "Techno Night", Date: time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)},
			2: {ID: 2, Name: "Jazz Sunday", Date: time.Date(2025, 3, 16, 19, 0, 0, 0, time.UTC)},
			3: {ID: 3, Name: "Empty", Date: time.Date(2025, 4, 1, 20, 0, 0, 0, time.UTC)},
		},
		costs: map[int64]map[string]float64{
			1: {models.CostBarAlcohol: 1200.10, models.CostArtistFee: 2000.20},
			2: {models.CostArtistFee: 800},
		},
		revenue: map[int64]map[string]float64{
			1: {models.RevenueBoxOffice: 4000.10, models.RevenueBarSales: 2500.20},
			2: {models.RevenueBoxOffice: 600},
		},
		wages: map[int64]float64{1: 470},
	}
}

func TestEventReport(t *testing.T) {
	b := NewBuilder(newFake())
	r, err := b.EventReport(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Techno Night", r.EventName)
	assert.Equal(t, 3200.30, r.TotalCosts)
	assert.Equal(t, 6500.30, r.TotalRevenue)
	assert.Equal(t, 3300.0, r.NetProfit)
	// 3300 / 6500.30 * 100
	assert.Equal(t, 50.77, r.ProfitMargin)
	assert.Equal(t, 470.0, r.StaffCosts)
	assert.Equal(t, map[string]float64{"bar_alcohol": 1200.10, "artist_fee": 2000.20}, r.CostsBreakdown)
	assert.Len(t, r.RevenueBreakdown, 2)
}

func TestEventReportWithoutRevenue(t *testing.T) {
	store := newFake()
	store.revenue[1] = nil
	r, err := NewBuilder(store).EventReport(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, -3200.30, r.NetProfit)
	assert.Zero(t, r.ProfitMargin)
	assert.Empty(t, r.RevenueBreakdown)
}

func TestEventReportUnknownEvent(t *testing.T) {
	_, err := NewBuilder(newFake()).EventReport(context.Background(), 42)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPeriodReport(t *testing.T) {
	b := NewBuilder(newFake())
	from, to, err := ParseRange("2025-03-01", "2025-03-16")
	require.NoError(t, err)

	r, err := b.PeriodReport(context.Background(), from, to)
	require.NoError(t, err)
	// the end date covers the whole day, so the 19:00 event counts
	assert.Equal(t, 2, r.EventsCount)
	assert.Equal(t, 4000.30, r.TotalCosts)
	assert.Equal(t, 7100.30, r.TotalRevenue)
	assert.Equal(t, 3100.0, r.NetProfit)
	assert.Equal(t, 43.66, r.ProfitMargin)

	r, err = b.PeriodReport(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, r.EventsCount)
	assert.Zero(t, r.TotalRevenue)
	assert.Zero(t, r.ProfitMargin)
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC), to)

	from, _, err = ParseRange("2025-03-01T10:00:00+01:00", "2025-03-02T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), from)

	_, _, err = ParseRange("2025-03-31", "2025-03-01")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, _, err = ParseRange("yesterday", "2025-03-01")
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	c := Categories()
	assert.Len(t, c.CostCategories, len(models.CostCategories))
	assert.Equal(t, models.Option{Value: "bar_alcohol", Label: "Bar Alcohol"}, c.CostCategories[0])
	assert.Equal(t, models.Option{Value: "box_office", Label: "Box Office"}, c.RevenueSources[0])
	assert.Equal(t, models.Option{Value: "owner", Label: "Owner"}, c.UserRoles[0])
	assert.Equal(t, models.Option{Value: "Świetlik", Label: "Świetlik"}, c.StaffPositions[2])
	assert.Len(t, c.ReceiptStatuses, len(models.ReceiptStatuses))
}

func TestRenderEventChart(t *testing.T) {
	r, err := NewBuilder(newFake()).EventReport(context.Background(), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderEventChart(&buf, r))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, chartWidth, img.Bounds().Dx())
	assert.Equal(t, 3*rowHeight+2*chartMargin+4*rowHeight, img.Bounds().Dy())

	bars := chartBars(r)
	assert.Equal(t, "+ Box Office", bars[0].label)
	assert.False(t, bars[0].cost)
	assert.Equal(t, "- Artist Fee", bars[2].label)
	assert.True(t, bars[3].cost)
}

func TestRenderEmptyEventChart(t *testing.T) {
	r, err := NewBuilder(newFake()).EventReport(context.Background(), 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderEventChart(&buf, r))
	_, err = png.Decode(&buf)
	assert.NoError(t, err)
}
