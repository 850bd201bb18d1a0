package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"venue-manager/models"
)

func (a *API) listEvents(c *gin.Context) {
	skip, limit, ok := page(c)
	if !ok {
		return
	}
	events, total, err := a.store.ListEvents(c.Request.Context(), skip, limit)
	if err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.JSON(http.StatusOK, models.EventList{Events: events, Total: total})
}

func (a *API) getEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	event, err := a.store.GetEvent(c.Request.Context(), id)
	if err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (a *API) createEvent(c *gin.Context) {
	var req models.EventCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}

	userID := currentUser(c).ID
	event := &models.Event{
		Name:        strings.TrimSpace(req.Name),
		Date:        req.Date,
		Description: req.Description,
		Capacity:    req.Capacity,
		TicketPrice: req.TicketPrice,
		Genre:       req.Genre,
		Notes:       req.Notes,
		CreatedBy:   &userID,
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if err := a.store.CreateEvent(c.Request.Context(), event); err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (a *API) updateEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.EventUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		badRequest(c, "name must not be empty")
		return
	}

	ctx := c.Request.Context()
	event, err := a.store.GetEvent(ctx, id)
	if err != nil {
		a.fail(c, "Event", err)
		return
	}
	req.Apply(event)
	if err := a.store.UpdateEvent(ctx, event); err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// deleteEvent removes the event with its staff plan. Costs and revenue stay
// on the books without an event.
func (a *API) deleteEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.store.DeleteEvent(c.Request.Context(), id); err != nil {
		a.fail(c, "Event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

func (a *API) listStaff(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if !a.requireEvent(c, &id) {
		return
	}
	staff, err := a.store.ListStaff(ctx, id)
	if err != nil {
		a.fail(c, "Staff assignment", err)
		return
	}

	total := 0.0
	for _, s := range staff {
		total += s.Wage()
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff, "total_wages": total})
}

func (a *API) createStaff(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.StaffCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !models.ValidPosition(req.Position) {
		badRequest(c, "invalid position")
		return
	}
	if negative(req.Hours) || negative(req.HourlyRate) {
		badRequest(c, "hours and hourly_rate must not be negative")
		return
	}
	if !a.requireEvent(c, &eventID) {
		return
	}

	assignment := &models.StaffAssignment{
		EventID:    eventID,
		Position:   req.Position,
		Name:       strings.TrimSpace(req.Name),
		Hours:      req.Hours,
		HourlyRate: req.HourlyRate,
		Notes:      req.Notes,
	}
	if err := a.store.CreateStaff(c.Request.Context(), assignment); err != nil {
		a.fail(c, "Staff assignment", err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (a *API) updateStaff(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.StaffUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Position != nil && !models.ValidPosition(*req.Position) {
		badRequest(c, "invalid position")
		return
	}
	if negative(req.Hours) || negative(req.HourlyRate) {
		badRequest(c, "hours and hourly_rate must not be negative")
		return
	}

	ctx := c.Request.Context()
	assignment, err := a.store.GetStaff(ctx, id)
	if err != nil {
		a.fail(c, "Staff assignment", err)
		return
	}
	req.Apply(assignment)
	if err := a.store.UpdateStaff(ctx, assignment); err != nil {
		a.fail(c, "Staff assignment", err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (a *API) deleteStaff(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.store.DeleteStaff(c.Request.Context(), id); err != nil {
		a.fail(c, "Staff assignment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff assignment deleted"})
}

func (a *API) staffPositions(c *gin.Context) {
	c.JSON(http.StatusOK, models.StaffPositions)
}

func negative(v *float64) bool {
	return v != nil && *v < 0
}
