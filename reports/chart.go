package reports

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/fogleman/gg"
	"venue-manager/models"
)

const (
	chartWidth  = 800
	rowHeight   = 26
	chartMargin = 20
	labelWidth  = 180
	valueWidth  = 90
)

type bar struct {
	label  string
	amount float64
	cost   bool
}

// RenderEventChart draws the event's costs and revenue per category as a
// horizontal bar chart and writes it to w as PNG.
func RenderEventChart(w io.Writer, r *models.EventReport) error {
	bars := chartBars(r)

	header := 3 * rowHeight
	height := header + chartMargin*2 + max(len(bars), 1)*rowHeight
	dc := gg.NewContext(chartWidth, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#222222")
	dc.DrawString(fmt.Sprintf("%s (%s)", r.EventName, r.EventDate.Format("2006-01-02")), chartMargin, chartMargin+12)
	dc.DrawString(fmt.Sprintf("Revenue %.2f  Costs %.2f  Net %.2f  Margin %.2f%%",
		r.TotalRevenue, r.TotalCosts, r.NetProfit, r.ProfitMargin), chartMargin, chartMargin+12+rowHeight)

	top := float64(chartMargin + header)
	if len(bars) == 0 {
		dc.DrawString("No costs or revenue recorded", chartMargin, top+16)
		return dc.EncodePNG(w)
	}

	peak := 0.0
	for _, b := range bars {
		peak = math.Max(peak, b.amount)
	}
	span := float64(chartWidth - 2*chartMargin - labelWidth - valueWidth)

	for i, b := range bars {
		y := top + float64(i*rowHeight)
		dc.SetHexColor("#222222")
		dc.DrawStringAnchored(b.label, chartMargin+labelWidth-8, y+rowHeight/2, 1, 0.5)

		width := 0.0
		if peak > 0 {
			width = b.amount / peak * span
		}
		if b.cost {
			dc.SetHexColor("#d9534f")
		} else {
			dc.SetHexColor("#5cb85c")
		}
		dc.DrawRectangle(chartMargin+labelWidth, y+4, math.Max(width, 1), rowHeight-8)
		dc.Fill()

		dc.SetHexColor("#222222")
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", b.amount), chartMargin+labelWidth+width+8, y+rowHeight/2, 0, 0.5)
	}
	return dc.EncodePNG(w)
}

// chartBars lists revenue sources first, then cost categories, each group
// by descending amount.
func chartBars(r *models.EventReport) []bar {
	group := func(m map[string]float64, cost bool, prefix string) []bar {
		out := make([]bar, 0, len(m))
		for k, v := range m {
			out = append(out, bar{label: prefix + models.Label(k), amount: v, cost: cost})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].amount != out[j].amount {
				return out[i].amount > out[j].amount
			}
			return out[i].label < out[j].label
		})
		return out
	}
	return append(group(r.RevenueBreakdown, false, "+ "), group(r.CostsBreakdown, true, "- ")...)
}
