package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"venue-manager/models"
)

func (a *API) createCost(c *gin.Context) {
	var req models.CostCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !models.ValidCostCategory(req.Category) {
		badRequest(c, "invalid category")
		return
	}
	if !a.requireEvent(c, req.EventID) {
		return
	}

	userID := currentUser(c).ID
	cost := &models.Cost{
		EventID:       req.EventID,
		Category:      req.Category,
		Amount:        req.Amount,
		Description:   req.Description,
		Vendor:        req.Vendor,
		InvoiceNumber: req.InvoiceNumber,
		ReceiptID:     req.ReceiptID,
		CostDate:      req.CostDate,
		CreatedBy:     &userID,
	}
	if err := a.store.CreateCost(c.Request.Context(), cost); err != nil {
		a.fail(c, "Cost", err)
		return
	}
	c.JSON(http.StatusCreated, cost)
}

func (a *API) listCosts(c *gin.Context) {
	eventID, ok := eventFilter(c)
	if !ok {
		return
	}
	costs, err := a.store.ListCosts(c.Request.Context(), eventID)
	if err != nil {
		a.fail(c, "Cost", err)
		return
	}
	c.JSON(http.StatusOK, costs)
}

func (a *API) updateCost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.CostUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Category != nil && !models.ValidCostCategory(*req.Category) {
		badRequest(c, "invalid category")
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		badRequest(c, "amount must be positive")
		return
	}

	ctx := c.Request.Context()
	cost, err := a.store.GetCost(ctx, id)
	if err != nil {
		a.fail(c, "Cost", err)
		return
	}
	req.Apply(cost)
	if err := a.store.UpdateCost(ctx, cost); err != nil {
		a.fail(c, "Cost", err)
		return
	}
	c.JSON(http.StatusOK, cost)
}

func (a *API) deleteCost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.store.DeleteCost(c.Request.Context(), id); err != nil {
		a.fail(c, "Cost", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cost deleted"})
}

func (a *API) createRevenue(c *gin.Context) {
	var req models.RevenueCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !models.ValidRevenueSource(req.Source) {
		badRequest(c, "invalid source")
		return
	}
	if !a.requireEvent(c, req.EventID) {
		return
	}

	userID := currentUser(c).ID
	revenue := &models.Revenue{
		EventID:     req.EventID,
		Source:      req.Source,
		Amount:      req.Amount,
		Description: req.Description,
		RevenueDate: req.RevenueDate,
		RecordedBy:  &userID,
	}
	if err := a.store.CreateRevenue(c.Request.Context(), revenue); err != nil {
		a.fail(c, "Revenue", err)
		return
	}
	c.JSON(http.StatusCreated, revenue)
}

func (a *API) listRevenue(c *gin.Context) {
	eventID, ok := eventFilter(c)
	if !ok {
		return
	}
	revenue, err := a.store.ListRevenue(c.Request.Context(), eventID)
	if err != nil {
		a.fail(c, "Revenue", err)
		return
	}
	c.JSON(http.StatusOK, revenue)
}

func (a *API) updateRevenue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.RevenueUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Source != nil && !models.ValidRevenueSource(*req.Source) {
		badRequest(c, "invalid source")
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		badRequest(c, "amount must be positive")
		return
	}

	ctx := c.Request.Context()
	revenue, err := a.store.GetRevenue(ctx, id)
	if err != nil {
		a.fail(c, "Revenue", err)
		return
	}
	req.Apply(revenue)
	if err := a.store.UpdateRevenue(ctx, revenue); err != nil {
		a.fail(c, "Revenue", err)
		return
	}
	c.JSON(http.StatusOK, revenue)
}

func (a *API) deleteRevenue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.store.DeleteRevenue(c.Request.Context(), id); err != nil {
		a.fail(c, "Revenue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Revenue deleted"})
}
