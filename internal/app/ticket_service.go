package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/quadpass/quadpass/internal/clock"
	"github.com/quadpass/quadpass/internal/domain"
)

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	GetTicketType(ctx context.Context, eventID, name string) (domain.TicketType, error)
	CountTickets(ctx context.Context, eventID string) (int, error)
	CreateTicket(ctx context.Context, ticket domain.Ticket) error
	ListTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
}

// Publisher pushes domain events onto the cross-instance bus. Publishing is
// best-effort relative to the originating request.
type Publisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) (string, error)
}

type TicketService struct {
	repo      TicketRepository
	publisher Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

func NewTicketService(repo TicketRepository, pub Publisher, clk clock.Clock, logger *zap.Logger) *TicketService {
	return &TicketService{
		repo:      repo,
		publisher: pub,
		clock:     clk,
		logger:    logger.Named("ticket_service"),
	}
}

type PurchaseInput struct {
	UserID     string
	EventID    string
	TicketType string
}

// TicketConfirmation is the user-facing purchase outcome.
type TicketConfirmation struct {
	EventID          string
	UserID           string
	Type             string
	Cost             float64
	EventDescription string
	Message          string
}

// Purchase issues a ticket if, and only if, the event has a free slot and the
// user does not already hold a ticket of this type. The event row lock makes
// the count-then-insert indivisible with respect to concurrent purchases for
// the same event; the tickets primary key backstops duplicate purchases.
func (s *TicketService) Purchase(ctx context.Context, in PurchaseInput) (TicketConfirmation, error) {
	if in.UserID == "" || in.EventID == "" || in.TicketType == "" {
		return TicketConfirmation{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var (
		event domain.Event
		sold  int
		price float64
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

		tt, err := s.repo.GetTicketType(txCtx, in.EventID, in.TicketType)
		if err != nil {
			return err
		}
		price = tt.Price

		sold, err = s.repo.CountTickets(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if sold >= event.Capacity {
			return domain.ErrSoldOut
		}

		if err := s.repo.CreateTicket(txCtx, domain.Ticket{
			UserID:      in.UserID,
			EventID:     in.EventID,
			Type:        in.TicketType,
			Price:       price,
			PurchasedAt: now,
		}); err != nil {
			return err
		}

		sold++
		return nil
	})
	if err != nil {
		return TicketConfirmation{}, err
	}

	confirmation := TicketConfirmation{
		EventID:          event.ID,
		UserID:           in.UserID,
		Type:             in.TicketType,
		Cost:             price,
		EventDescription: event.Description,
		Message:          fmt.Sprintf("Ticket confirmed for %s (%s)", event.Name, in.TicketType),
	}

	s.publishPurchase(ctx, event, sold, confirmation)
	return confirmation, nil
}

func (s *TicketService) ListTickets(ctx context.Context, userID string) ([]domain.Ticket, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListTicketsByUser(ctx, userID)
}

// publishPurchase emits the capacity change and the buyer's private
// confirmation. Failures are logged, never surfaced: the ticket is already
// committed.
func (s *TicketService) publishPurchase(ctx context.Context, event domain.Event, sold int, conf TicketConfirmation) {
	capacityPayload, _ := json.Marshal(domain.CapacityPayload{
		Sold:      sold,
		Available: event.Capacity - sold,
	})
	if _, err := s.publisher.Publish(ctx, domain.DomainEvent{
		Type:           domain.CapacityUpdated,
		EventID:        event.ID,
		CampusID:       event.CampusID,
		OrganizationID: event.OrganizationID,
		Payload:        capacityPayload,
	}); err != nil {
		s.logger.Warn("publish capacity update failed", zap.String("event_id", event.ID), zap.Error(err))
	}

	purchasePayload, _ := json.Marshal(map[string]any{
		"eventId": conf.EventID,
		"type":    conf.Type,
		"cost":    conf.Cost,
		"message": conf.Message,
	})
	if _, err := s.publisher.Publish(ctx, domain.DomainEvent{
		Type:    domain.TicketPurchased,
		EventID: event.ID,
		UserID:  conf.UserID,
		Payload: purchasePayload,
	}); err != nil {
		s.logger.Warn("publish ticket purchased failed", zap.String("user_id", conf.UserID), zap.Error(err))
	}
}
