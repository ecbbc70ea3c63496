package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quadpass/quadpass/internal/clock"
	"github.com/quadpass/quadpass/internal/domain"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	CreateTicketType(ctx context.Context, tt domain.TicketType) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListTicketTypes(ctx context.Context, eventID string) ([]domain.TicketType, error)
	CountTickets(ctx context.Context, eventID string) (int, error)
	UpdateEvent(ctx context.Context, event domain.Event) error
	CancelEvent(ctx context.Context, eventID string) error
	DeleteEvent(ctx context.Context, eventID string) error
}

type EventService struct {
	repo      EventRepository
	publisher Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

func NewEventService(repo EventRepository, pub Publisher, clk clock.Clock, logger *zap.Logger) *EventService {
	return &EventService{
		repo:      repo,
		publisher: pub,
		clock:     clk,
		logger:    logger.Named("event_service"),
	}
}

type TicketTypeInput struct {
	Name  string
	Price float64
}

type CreateEventInput struct {
	OrganizationID string
	CampusID       string
	Name           string
	Description    string
	Capacity       int
	StartsAt       time.Time
	EndsAt         time.Time
	TicketTypes    []TicketTypeInput
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if in.OrganizationID == "" || in.CampusID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	if in.Name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	if in.Capacity <= 0 {
		return domain.Event{}, domain.ErrInvalidCapacity
	}
	if !in.StartsAt.Before(in.EndsAt) {
		return domain.Event{}, domain.ErrInvalidTimeWindow
	}
	if in.EndsAt.Before(s.clock.Now()) {
		return domain.Event{}, domain.ErrInvalidTimeWindow
	}
	if len(in.TicketTypes) == 0 {
		return domain.Event{}, domain.ErrTicketTypeRequired
	}
	for _, tt := range in.TicketTypes {
		if tt.Name == "" {
			return domain.Event{}, domain.ErrInvalidTicketType
		}
		if tt.Price < 0 {
			return domain.Event{}, domain.ErrInvalidTicketPrice
		}
	}

	event := domain.Event{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		CampusID:       in.CampusID,
		Name:           in.Name,
		Description:    in.Description,
		Capacity:       in.Capacity,
		Status:         domain.EventStatusActive,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateEvent(txCtx, event); err != nil {
			return err
		}
		for _, tt := range in.TicketTypes {
			if err := s.repo.CreateTicketType(txCtx, domain.TicketType{
				EventID: event.ID,
				Name:    tt.Name,
				Price:   tt.Price,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, domain.DomainEvent{
		Type:           domain.EventCreated,
		EventID:        event.ID,
		CampusID:       event.CampusID,
		OrganizationID: event.OrganizationID,
	})
	return event, nil
}

type UpdateEventInput struct {
	EventID     string
	Description *string
	Capacity    *int
	StartsAt    *time.Time
	EndsAt      *time.Time
}

// UpdateEvent applies a partial update. Capacity can never drop below the
// number of tickets already sold; the event row lock keeps the sold count
// stable while the new capacity is decided.
func (s *EventService) UpdateEvent(ctx context.Context, in UpdateEventInput) (domain.Event, error) {
	if in.EventID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}

	var (
		event domain.Event
		sold  int
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Status == domain.EventStatusCancelled {
			return domain.ErrEventCancelled
		}

		sold, err = s.repo.CountTickets(txCtx, in.EventID)
		if err != nil {
			return err
		}

		if in.Description != nil {
			event.Description = *in.Description
		}
		if in.Capacity != nil {
			if *in.Capacity <= 0 {
				return domain.ErrInvalidCapacity
			}
			if *in.Capacity < sold {
				return domain.ErrCapacityBelowSold
			}
			event.Capacity = *in.Capacity
		}
		if in.StartsAt != nil {
			event.StartsAt = *in.StartsAt
		}
		if in.EndsAt != nil {
			event.EndsAt = *in.EndsAt
		}
		if !event.StartsAt.Before(event.EndsAt) {
			return domain.ErrInvalidTimeWindow
		}

		return s.repo.UpdateEvent(txCtx, event)
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.publish(ctx, domain.DomainEvent{
		Type:           domain.EventUpdated,
		EventID:        event.ID,
		CampusID:       event.CampusID,
		OrganizationID: event.OrganizationID,
	})
	if in.Capacity != nil {
		payload, _ := json.Marshal(domain.CapacityPayload{
			Sold:      sold,
			Available: event.Capacity - sold,
		})
		s.publish(ctx, domain.DomainEvent{
			Type:           domain.CapacityUpdated,
			EventID:        event.ID,
			CampusID:       event.CampusID,
			OrganizationID: event.OrganizationID,
			Payload:        payload,
		})
	}
	return event, nil
}

func (s *EventService) CancelEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return domain.ErrInvalidID
	}

	var event domain.Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Status == domain.EventStatusCancelled {
			return domain.ErrEventCancelled
		}
		return s.repo.CancelEvent(txCtx, eventID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, domain.DomainEvent{
		Type:           domain.EventCancelled,
		EventID:        event.ID,
		CampusID:       event.CampusID,
		OrganizationID: event.OrganizationID,
	})
	return nil
}

func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return domain.ErrInvalidID
	}

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return err
	}

	s.publish(ctx, domain.DomainEvent{
		Type:           domain.EventDeleted,
		EventID:        event.ID,
		CampusID:       event.CampusID,
		OrganizationID: event.OrganizationID,
	})
	return nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (domain.Event, []domain.TicketType, error) {
	if eventID == "" {
		return domain.Event{}, nil, domain.ErrInvalidID
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, nil, err
	}
	types, err := s.repo.ListTicketTypes(ctx, eventID)
	if err != nil {
		return domain.Event{}, nil, err
	}
	return event, types, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *EventService) publish(ctx context.Context, ev domain.DomainEvent) {
	if _, err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish failed",
			zap.String("type", string(ev.Type)),
			zap.String("event_id", ev.EventID),
			zap.Error(err))
	}
}
