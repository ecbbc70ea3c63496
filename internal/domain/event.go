package domain

import "time"

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event represents a ticketed campus event with a hard capacity limit.
type Event struct {
	ID             string
	OrganizationID string
	CampusID       string
	Name           string
	Description    string
	Capacity       int
	Status         EventStatus
	StartsAt       time.Time
	EndsAt         time.Time
}

// TicketType is a named price tier for an event. The set of types is fixed
// when the event is created.
type TicketType struct {
	EventID string
	Name    string
	Price   float64
}
