package domain

import "encoding/json"

// DomainEventType enumerates the stable wire vocabulary for change
// notifications. Values must not change: connected clients and other
// backend instances match on them.
type DomainEventType string

const (
	EventCreated        DomainEventType = "EVENT_CREATED"
	EventUpdated        DomainEventType = "EVENT_UPDATED"
	EventDeleted        DomainEventType = "EVENT_DELETED"
	EventCancelled      DomainEventType = "EVENT_CANCELLED"
	CapacityUpdated     DomainEventType = "CAPACITY_UPDATED"
	TicketPurchased     DomainEventType = "TICKET_PURCHASED"
	TicketCancelled     DomainEventType = "TICKET_CANCELLED"
	TicketRefunded      DomainEventType = "TICKET_REFUNDED"
	OrganizationUpdated DomainEventType = "ORGANIZATION_UPDATED"
	AnalyticsUpdated    DomainEventType = "ANALYTICS_UPDATED"
)

// DomainEvent is an immutable record of a state change, published once to the
// bus and fanned out read-only to every relay instance.
type DomainEvent struct {
	Type           DomainEventType `json:"type"`
	EventID        string          `json:"eventId,omitempty"`
	CampusID       string          `json:"campusId,omitempty"`
	OrganizationID string          `json:"organizationId,omitempty"`
	UserID         string          `json:"userId,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// CapacityPayload is the payload for CAPACITY_UPDATED events.
type CapacityPayload struct {
	Sold      int `json:"sold"`
	Available int `json:"available"`
}
