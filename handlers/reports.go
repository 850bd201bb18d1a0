package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"venue-manager/reports"
)

func (a *API) eventReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := a.reports.EventReport(c.Request.Context(), id)
	if err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) eventChart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := a.reports.EventReport(c.Request.Context(), id)
	if err != nil {
		a.fail(c, "Event", err)
		return
	}

	var buf bytes.Buffer
	if err := reports.RenderEventChart(&buf, report); err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (a *API) periodReport(c *gin.Context) {
	start, end := c.Query("start_date"), c.Query("end_date")
	if start == "" || end == "" {
		badRequest(c, "start_date and end_date are required")
		return
	}
	from, to, err := reports.ParseRange(start, end)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := a.reports.PeriodReport(c.Request.Context(), from, to)
	if errors.Is(err, reports.ErrInvalidPeriod) {
		badRequest(c, err.Error())
		return
	}
	if err != nil {
		a.fail(c, "Report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) categories(c *gin.Context) {
	c.JSON(http.StatusOK, reports.Categories())
}
