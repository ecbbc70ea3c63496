package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/quadpass/quadpass/internal/app"
	"github.com/quadpass/quadpass/internal/domain"
)

// EventAdminService is the minimal interface needed for event lifecycle
// endpoints.
type EventAdminService interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	UpdateEvent(ctx context.Context, in app.UpdateEventInput) (domain.Event, error)
	CancelEvent(ctx context.Context, eventID string) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// EventReadService is the minimal interface for the public read surface.
type EventReadService interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, []domain.TicketType, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

// HandleAdminEvents returns an HTTP handler for event creation.
func HandleAdminEvents(svc EventAdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimeWindow, "invalid starts_at format")
			return
		}
		endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimeWindow, "invalid ends_at format")
			return
		}

		in := app.CreateEventInput{
			OrganizationID: req.OrganizationID,
			CampusID:       req.CampusID,
			Name:           req.Name,
			Description:    req.Description,
			Capacity:       req.Capacity,
			StartsAt:       startsAt,
			EndsAt:         endsAt,
		}
		for _, tt := range req.TicketTypes {
			in.TicketTypes = append(in.TicketTypes, app.TicketTypeInput{Name: tt.Name, Price: tt.Price})
		}

		event, err := svc.CreateEvent(r.Context(), in)
		if err != nil {
			writeEventError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toEventResponse(event))
	}
}

// HandleAdminEvent returns an HTTP handler for update, cancel and delete of a
// single event under /admin/events/{id}[/cancel].
func HandleAdminEvent(svc EventAdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, action, ok := parseAdminEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case action == "cancel" && r.Method == http.MethodPost:
			if err := svc.CancelEvent(r.Context(), eventID); err != nil {
				writeEventError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case action == "" && r.Method == http.MethodPatch:
			var req updateEventRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			in := app.UpdateEventInput{
				EventID:     eventID,
				Description: req.Description,
				Capacity:    req.Capacity,
			}
			if req.StartsAt != nil {
				parsed, err := time.Parse(time.RFC3339, *req.StartsAt)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidTimeWindow, "invalid starts_at format")
					return
				}
				in.StartsAt = &parsed
			}
			if req.EndsAt != nil {
				parsed, err := time.Parse(time.RFC3339, *req.EndsAt)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidTimeWindow, "invalid ends_at format")
					return
				}
				in.EndsAt = &parsed
			}

			event, err := svc.UpdateEvent(r.Context(), in)
			if err != nil {
				writeEventError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toEventResponse(event))
		case action == "" && r.Method == http.MethodDelete:
			if err := svc.DeleteEvent(r.Context(), eventID); err != nil {
				writeEventError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleEvents returns an HTTP handler for the public event listing.
func HandleEvents(svc EventReadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		events, err := svc.ListEvents(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		resp := make([]eventResponse, 0, len(events))
		for _, event := range events {
			resp = append(resp, toEventResponse(event))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleEvent returns an HTTP handler for a single event with its ticket
// types, under /events/{id}.
func HandleEvent(svc EventReadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		eventID, ok := parseEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		event, types, err := svc.GetEvent(r.Context(), eventID)
		if err != nil {
			writeEventError(w, err)
			return
		}

		resp := eventDetailResponse{eventResponse: toEventResponse(event)}
		resp.TicketTypes = make([]ticketTypeResponse, 0, len(types))
		for _, tt := range types {
			resp.TicketTypes = append(resp.TicketTypes, ticketTypeResponse{Name: tt.Name, Price: tt.Price})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeEventError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrEventNameRequired:
		writeError(w, http.StatusBadRequest, codeEventNameRequired, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrInvalidTimeWindow:
		writeError(w, http.StatusBadRequest, codeInvalidTimeWindow, err.Error())
	case domain.ErrInvalidTicketPrice:
		writeError(w, http.StatusBadRequest, codeInvalidTicketPrice, err.Error())
	case domain.ErrTicketTypeRequired:
		writeError(w, http.StatusBadRequest, codeTicketTypeRequired, err.Error())
	case domain.ErrInvalidTicketType:
		writeError(w, http.StatusBadRequest, codeInvalidTicketType, err.Error())
	case domain.ErrEventNotFound:
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case domain.ErrEventCancelled:
		writeError(w, http.StatusConflict, codeEventCancelled, err.Error())
	case domain.ErrCapacityBelowSold:
		writeError(w, http.StatusConflict, codeCapacityBelowSold, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseAdminEventPath(path string) (eventID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || len(parts) > 4 {
		return "", "", false
	}
	if parts[0] != "admin" || parts[1] != "events" || parts[2] == "" {
		return "", "", false
	}
	if len(parts) == 4 {
		if parts[3] != "cancel" {
			return "", "", false
		}
		return parts[2], "cancel", true
	}
	return parts[2], "", true
}

func parseEventPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "events" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type createEventRequest struct {
	OrganizationID string                    `json:"organization_id"`
	CampusID       string                    `json:"campus_id"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description"`
	Capacity       int                       `json:"capacity"`
	StartsAt       string                    `json:"starts_at"`
	EndsAt         string                    `json:"ends_at"`
	TicketTypes    []createTicketTypeRequest `json:"ticket_types"`
}

type createTicketTypeRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type updateEventRequest struct {
	Description *string `json:"description"`
	Capacity    *int    `json:"capacity"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
}

type eventResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	CampusID       string    `json:"campus_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Capacity       int       `json:"capacity"`
	Status         string    `json:"status"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
}

type ticketTypeResponse struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type eventDetailResponse struct {
	eventResponse
	TicketTypes []ticketTypeResponse `json:"ticket_types"`
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:             event.ID,
		OrganizationID: event.OrganizationID,
		CampusID:       event.CampusID,
		Name:           event.Name,
		Description:    event.Description,
		Capacity:       event.Capacity,
		Status:         string(event.Status),
		StartsAt:       event.StartsAt,
		EndsAt:         event.EndsAt,
	}
}
