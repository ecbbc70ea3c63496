package domain

import "time"

// Ticket is one admission right, identified by (user, event, type). The
// composite key is what makes a duplicate purchase a storage-level conflict.
type Ticket struct {
	UserID      string
	EventID     string
	Type        string
	Price       float64
	PurchasedAt time.Time
}
