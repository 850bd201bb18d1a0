package models

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventPlanned   EventStatus = "planned"
	EventUpcoming  EventStatus = "upcoming"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventPlanned, EventUpcoming, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// Event is a concert or party held at the venue.
type Event struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Date        time.Time   `json:"date"`
	Description *string     `json:"description"`
	Capacity    *int        `json:"capacity"`
	TicketPrice *float64    `json:"ticket_price"`
	Genre       *string     `json:"genre"`
	Status      EventStatus `json:"status"`
	Notes       *string     `json:"notes"`
	CreatedBy   *int64      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

// EventCreate is the payload for a new event.
type EventCreate struct {
	Name        string       `json:"name" binding:"required"`
	Date        time.Time    `json:"date" binding:"required"`
	Description *string      `json:"description"`
	Capacity    *int         `json:"capacity"`
	TicketPrice *float64     `json:"ticket_price"`
	Genre       *string      `json:"genre"`
	Status      *EventStatus `json:"status"`
	Notes       *string      `json:"notes"`
}

// EventUpdate holds the fields to change; nil fields are left untouched.
type EventUpdate struct {
	Name        *string      `json:"name"`
	Date        *time.Time   `json:"date"`
	Description *string      `json:"description"`
	Capacity    *int         `json:"capacity"`
	TicketPrice *float64     `json:"ticket_price"`
	Genre       *string      `json:"genre"`
	Status      *EventStatus `json:"status"`
	Notes       *string      `json:"notes"`
}

// Apply copies the set fields of u onto e.
func (u EventUpdate) Apply(e *Event) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Description != nil {
		e.Description = u.Description
	}
	if u.Capacity != nil {
		e.Capacity = u.Capacity
	}
	if u.TicketPrice != nil {
		e.TicketPrice = u.TicketPrice
	}
	if u.Genre != nil {
		e.Genre = u.Genre
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.Notes != nil {
		e.Notes = u.Notes
	}
}

// EventList is a page of events plus the overall count.
type EventList struct {
	Events []*Event `json:"events"`
	Total  int      `json:"total"`
}
