package models

// Positions a person can be scheduled for during an event.
var StaffPositions = []string{
	"Barman", "Barback", "Świetlik", "Ochrona", "Akustyk",
	"Promotor", "Menedżer", "Szatnia", "Bramka",
}

// ValidPosition reports whether p is one of StaffPositions.
func ValidPosition(p string) bool {
	return contains(StaffPositions, p)
}

// StaffAssignment puts a named person on a position for one event.
type StaffAssignment struct {
	ID         int64    `json:"id"`
	EventID    int64    `json:"event_id"`
	Position   string   `json:"position"`
	Name       string   `json:"name"`
	Hours      *float64 `json:"hours"`
	HourlyRate *float64 `json:"hourly_rate"`
	Notes      *string  `json:"notes"`
}

// Wage is hours times rate, zero when either is unknown.
func (s *StaffAssignment) Wage() float64 {
	if s.Hours == nil || s.HourlyRate == nil {
		return 0
	}
	return *s.Hours * *s.HourlyRate
}

type StaffCreate struct {
	Position   string   `json:"position" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	Hours      *float64 `json:"hours"`
	HourlyRate *float64 `json:"hourly_rate"`
	Notes      *string  `json:"notes"`
}

type StaffUpdate struct {
	Position   *string  `json:"position"`
	Name       *string  `json:"name"`
	Hours      *float64 `json:"hours"`
	HourlyRate *float64 `json:"hourly_rate"`
	Notes      *string  `json:"notes"`
}

// Apply copies the set fields of u onto s.
func (u StaffUpdate) Apply(s *StaffAssignment) {
	if u.Position != nil {
		s.Position = *u.Position
	}
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Hours != nil {
		s.Hours = u.Hours
	}
	if u.HourlyRate != nil {
		s.HourlyRate = u.HourlyRate
	}
	if u.Notes != nil {
		s.Notes = u.Notes
	}
}
