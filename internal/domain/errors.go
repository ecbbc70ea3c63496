package domain

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventCancelled     = errors.New("event cancelled")
	ErrInvalidTicketType  = errors.New("invalid ticket type")
	ErrSoldOut            = errors.New("sold out")
	ErrAlreadyPurchased   = errors.New("already purchased")
	ErrEventNameRequired  = errors.New("event name required")
	ErrInvalidCapacity    = errors.New("invalid capacity")
	ErrCapacityBelowSold  = errors.New("capacity below tickets sold")
	ErrInvalidTimeWindow  = errors.New("invalid time window")
	ErrInvalidTicketPrice = errors.New("invalid ticket price")
	ErrTicketTypeRequired = errors.New("at least one ticket type required")
	ErrInvalidID          = errors.New("invalid id")
)
