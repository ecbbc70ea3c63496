package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quadpass/quadpass/internal/domain"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, organization_id, campus_id, name, description, capacity, status, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.OrganizationID,
		event.CampusID,
		event.Name,
		event.Description,
		event.Capacity,
		event.Status,
		event.StartsAt,
		event.EndsAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) CreateTicketType(ctx context.Context, tt domain.TicketType) error {
	const stmt = `INSERT INTO ticket_types (event_id, name, price) VALUES ($1, $2, $3)`

	_, err := r.exec(ctx, stmt, tt.EventID, tt.Name, tt.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidTicketType
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create ticket type: %w", err)
	}
	return nil
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	const query = `
SELECT id, organization_id, campus_id, name, description, capacity, status, starts_at, ends_at
FROM events
WHERE id = $1`

	var e domain.Event
	err := r.queryRow(ctx, query, eventID).
		Scan(&e.ID, &e.OrganizationID, &e.CampusID, &e.Name, &e.Description, &e.Capacity, &e.Status, &e.StartsAt, &e.EndsAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// GetEventForUpdate locks the event row so capacity edits serialize with
// concurrent purchases.
func (r *EventRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	const query = `
SELECT id, organization_id, campus_id, name, description, capacity, status, starts_at, ends_at
FROM events
WHERE id = $1
FOR UPDATE`

	var e domain.Event
	err := r.queryRow(ctx, query, eventID).
		Scan(&e.ID, &e.OrganizationID, &e.CampusID, &e.Name, &e.Description, &e.Capacity, &e.Status, &e.StartsAt, &e.EndsAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event for update: %w", err)
	}
	return e, nil
}

func (r *EventRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const query = `
SELECT id, organization_id, campus_id, name, description, capacity, status, starts_at, ends_at
FROM events
ORDER BY starts_at`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.CampusID, &e.Name, &e.Description, &e.Capacity, &e.Status, &e.StartsAt, &e.EndsAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *EventRepository) ListTicketTypes(ctx context.Context, eventID string) ([]domain.TicketType, error) {
	const query = `SELECT event_id, name, price FROM ticket_types WHERE event_id = $1 ORDER BY name`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	defer rows.Close()

	var types []domain.TicketType
	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(&tt.EventID, &tt.Name, &tt.Price); err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

func (r *EventRepository) CountTickets(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE event_id = $1`

	var total int
	if err := r.queryRow(ctx, query, eventID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return total, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET description = $2, capacity = $3, starts_at = $4, ends_at = $5
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, event.ID, event.Description, event.Capacity, event.StartsAt, event.EndsAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// CancelEvent marks the event cancelled and removes its tickets. The event
// row stays so clients can still resolve the cancellation notice.
func (r *EventRepository) CancelEvent(ctx context.Context, eventID string) error {
	tag, err := r.exec(ctx, `UPDATE events SET status = 'cancelled' WHERE id = $1`, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("cancel event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	if _, err := r.exec(ctx, `DELETE FROM tickets WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("cascade tickets: %w", err)
	}
	return nil
}

// DeleteEvent removes the event row; tickets and ticket types cascade via FK.
func (r *EventRepository) DeleteEvent(ctx context.Context, eventID string) error {
	tag, err := r.exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *EventRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *EventRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
