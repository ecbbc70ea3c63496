package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/quadpass/quadpass/internal/domain"
)

// fakeTicketRepo emulates the storage layer. The transaction mutex gives the
// same serialization the event row lock provides in Postgres.
type fakeTicketRepo struct {
	mu      sync.Mutex
	events  map[string]domain.Event
	types   map[string]domain.TicketType
	tickets []domain.Ticket
}

func newFakeTicketRepo(events []domain.Event, types []domain.TicketType) *fakeTicketRepo {
	e := make(map[string]domain.Event)
	for _, event := range events {
		e[event.ID] = event
	}
	tt := make(map[string]domain.TicketType)
	for _, typ := range types {
		tt[typeKey(typ.EventID, typ.Name)] = typ
	}
	return &fakeTicketRepo{events: e, types: tt}
}

func (f *fakeTicketRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeTicketRepo) GetEventForUpdate(_ context.Context, eventID string) (domain.Event, error) {
	event, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeTicketRepo) GetTicketType(_ context.Context, eventID, name string) (domain.TicketType, error) {
	tt, ok := f.types[typeKey(eventID, name)]
	if !ok {
		return domain.TicketType{}, domain.ErrInvalidTicketType
	}
	return tt, nil
}

func (f *fakeTicketRepo) CountTickets(_ context.Context, eventID string) (int, error) {
	total := 0
	for _, t := range f.tickets {
		if t.EventID == eventID {
			total++
		}
	}
	return total, nil
}

func (f *fakeTicketRepo) CreateTicket(_ context.Context, ticket domain.Ticket) error {
	for _, t := range f.tickets {
		if t.UserID == ticket.UserID && t.EventID == ticket.EventID && t.Type == ticket.Type {
			return domain.ErrAlreadyPurchased
		}
	}
	f.tickets = append(f.tickets, ticket)
	return nil
}

func (f *fakeTicketRepo) ListTicketsByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func typeKey(eventID, name string) string {
	return eventID + "|" + name
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.DomainEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, ev domain.DomainEvent) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	return uuid.NewString(), nil
}

func (f *fakePublisher) events() []domain.DomainEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DomainEvent{}, f.published...)
}

// fakeEventRepo backs the event lifecycle tests.
type fakeEventRepo struct {
	mu      sync.Mutex
	events  map[string]domain.Event
	types   map[string][]domain.TicketType
	tickets map[string]int
}

func newFakeEventRepo(events ...domain.Event) *fakeEventRepo {
	e := make(map[string]domain.Event)
	for _, event := range events {
		e[event.ID] = event
	}
	return &fakeEventRepo{
		events:  e,
		types:   make(map[string][]domain.TicketType),
		tickets: make(map[string]int),
	}
}

func (f *fakeEventRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeEventRepo) CreateEvent(_ context.Context, event domain.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) CreateTicketType(_ context.Context, tt domain.TicketType) error {
	f.types[tt.EventID] = append(f.types[tt.EventID], tt)
	return nil
}

func (f *fakeEventRepo) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	event, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeEventRepo) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	return f.GetEvent(ctx, eventID)
}

func (f *fakeEventRepo) ListEvents(_ context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(f.events))
	for _, event := range f.events {
		out = append(out, event)
	}
	return out, nil
}

func (f *fakeEventRepo) ListTicketTypes(_ context.Context, eventID string) ([]domain.TicketType, error) {
	return f.types[eventID], nil
}

func (f *fakeEventRepo) CountTickets(_ context.Context, eventID string) (int, error) {
	return f.tickets[eventID], nil
}

func (f *fakeEventRepo) UpdateEvent(_ context.Context, event domain.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) CancelEvent(_ context.Context, eventID string) error {
	event, ok := f.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	event.Status = domain.EventStatusCancelled
	f.events[eventID] = event
	f.tickets[eventID] = 0
	return nil
}

func (f *fakeEventRepo) DeleteEvent(_ context.Context, eventID string) error {
	if _, ok := f.events[eventID]; !ok {
		return domain.ErrEventNotFound
	}
	delete(f.events, eventID)
	delete(f.types, eventID)
	delete(f.tickets, eventID)
	return nil
}
