package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quadpass/quadpass/internal/app"
	"github.com/quadpass/quadpass/internal/domain"
)

type stubEventService struct {
	event domain.Event
	types []domain.TicketType
	err   error

	cancelledID string
	deletedID   string
	updateIn    app.UpdateEventInput
}

func (s *stubEventService) CreateEvent(_ context.Context, _ app.CreateEventInput) (domain.Event, error) {
	return s.event, s.err
}

func (s *stubEventService) UpdateEvent(_ context.Context, in app.UpdateEventInput) (domain.Event, error) {
	s.updateIn = in
	return s.event, s.err
}

func (s *stubEventService) CancelEvent(_ context.Context, eventID string) error {
	s.cancelledID = eventID
	return s.err
}

func (s *stubEventService) DeleteEvent(_ context.Context, eventID string) error {
	s.deletedID = eventID
	return s.err
}

func (s *stubEventService) GetEvent(_ context.Context, _ string) (domain.Event, []domain.TicketType, error) {
	return s.event, s.types, s.err
}

func (s *stubEventService) ListEvents(_ context.Context) ([]domain.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Event{s.event}, nil
}

func sampleEvent() domain.Event {
	return domain.Event{
		ID:             "event-1",
		OrganizationID: "org-1",
		CampusID:       "campus-1",
		Name:           "Homecoming",
		Description:    "Annual homecoming concert",
		Capacity:       500,
		Status:         domain.EventStatusActive,
		StartsAt:       time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, 9, 12, 23, 0, 0, 0, time.UTC),
	}
}

func TestHandleAdminEvents_Create(t *testing.T) {
	t.Parallel()

	validBody := `{
		"organization_id": "org-1",
		"campus_id": "campus-1",
		"name": "Homecoming",
		"description": "Annual homecoming concert",
		"capacity": 500,
		"starts_at": "2026-09-12T19:00:00Z",
		"ends_at": "2026-09-12T23:00:00Z",
		"ticket_types": [{"name": "General", "price": 15}]
	}`

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "success",
			body:           validBody,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidRequestBody,
		},
		{
			name:           "bad starts_at",
			body:           `{"name":"x","starts_at":"tomorrow","ends_at":"2026-09-12T23:00:00Z"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidTimeWindow,
		},
		{
			name:           "name required",
			body:           validBody,
			serviceErr:     domain.ErrEventNameRequired,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeEventNameRequired,
		},
		{
			name:           "invalid capacity",
			body:           validBody,
			serviceErr:     domain.ErrInvalidCapacity,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidCapacity,
		},
		{
			name:           "ticket type required",
			body:           validBody,
			serviceErr:     domain.ErrTicketTypeRequired,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeTicketTypeRequired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubEventService{event: sampleEvent(), err: tc.serviceErr}
			handler := HandleAdminEvents(svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/events", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if tc.expectedCode != "" {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Code != tc.expectedCode {
					t.Fatalf("expected code %s, got %s", tc.expectedCode, resp.Code)
				}
			}
		})
	}

	t.Run("returns created event", func(t *testing.T) {
		svc := &stubEventService{event: sampleEvent()}
		handler := HandleAdminEvents(svc)

		req := httptest.NewRequest(http.MethodPost, "/admin/events", strings.NewReader(validBody))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var resp eventResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "event-1" || resp.Status != "active" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})
}

func TestHandleAdminEvent(t *testing.T) {
	t.Parallel()

	t.Run("update", func(t *testing.T) {
		svc := &stubEventService{event: sampleEvent()}
		handler := HandleAdminEvent(svc)

		req := httptest.NewRequest(http.MethodPatch, "/admin/events/event-1",
			strings.NewReader(`{"capacity": 600}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
		}
		if svc.updateIn.EventID != "event-1" {
			t.Fatalf("expected event id, got %q", svc.updateIn.EventID)
		}
		if svc.updateIn.Capacity == nil || *svc.updateIn.Capacity != 600 {
			t.Fatalf("expected capacity 600, got %v", svc.updateIn.Capacity)
		}
		if svc.updateIn.Description != nil {
			t.Fatalf("expected description untouched, got %v", svc.updateIn.Description)
		}
	})

	t.Run("update with bad time", func(t *testing.T) {
		handler := HandleAdminEvent(&stubEventService{event: sampleEvent()})

		req := httptest.NewRequest(http.MethodPatch, "/admin/events/event-1",
			strings.NewReader(`{"starts_at": "soon"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("update capacity below sold", func(t *testing.T) {
		handler := HandleAdminEvent(&stubEventService{err: domain.ErrCapacityBelowSold})

		req := httptest.NewRequest(http.MethodPatch, "/admin/events/event-1",
			strings.NewReader(`{"capacity": 1}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if resp.Code != codeCapacityBelowSold {
			t.Fatalf("expected code %s, got %s", codeCapacityBelowSold, resp.Code)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		svc := &stubEventService{}
		handler := HandleAdminEvent(svc)

		req := httptest.NewRequest(http.MethodPost, "/admin/events/event-1/cancel", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.cancelledID != "event-1" {
			t.Fatalf("expected cancel of event-1, got %q", svc.cancelledID)
		}
	})

	t.Run("cancel already cancelled", func(t *testing.T) {
		handler := HandleAdminEvent(&stubEventService{err: domain.ErrEventCancelled})

		req := httptest.NewRequest(http.MethodPost, "/admin/events/event-1/cancel", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		svc := &stubEventService{}
		handler := HandleAdminEvent(svc)

		req := httptest.NewRequest(http.MethodDelete, "/admin/events/event-1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.deletedID != "event-1" {
			t.Fatalf("expected delete of event-1, got %q", svc.deletedID)
		}
	})

	t.Run("delete missing event", func(t *testing.T) {
		handler := HandleAdminEvent(&stubEventService{err: domain.ErrEventNotFound})

		req := httptest.NewRequest(http.MethodDelete, "/admin/events/event-1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := HandleAdminEvent(&stubEventService{})

		req := httptest.NewRequest(http.MethodGet, "/admin/events/event-1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("bad path", func(t *testing.T) {
		handler := HandleAdminEvent(&stubEventService{})

		req := httptest.NewRequest(http.MethodPost, "/admin/events/event-1/refund", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleEvents_List(t *testing.T) {
	t.Parallel()

	handler := HandleEvents(&stubEventService{event: sampleEvent()})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp []eventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "Homecoming" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleEvent_Detail(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		svc := &stubEventService{
			event: sampleEvent(),
			types: []domain.TicketType{{EventID: "event-1", Name: "General", Price: 15}},
		}
		handler := HandleEvent(svc)

		req := httptest.NewRequest(http.MethodGet, "/events/event-1", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp eventDetailResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "event-1" {
			t.Fatalf("unexpected event id %q", resp.ID)
		}
		if len(resp.TicketTypes) != 1 || resp.TicketTypes[0].Name != "General" {
			t.Fatalf("unexpected ticket types %+v", resp.TicketTypes)
		}
	})

	t.Run("not found", func(t *testing.T) {
		handler := HandleEvent(&stubEventService{err: domain.ErrEventNotFound})

		req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("bad path", func(t *testing.T) {
		handler := HandleEvent(&stubEventService{event: sampleEvent()})

		req := httptest.NewRequest(http.MethodGet, "/events/event-1/extra", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestParseAdminEventPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path       string
		wantID     string
		wantAction string
		wantOK     bool
	}{
		{"/admin/events/abc", "abc", "", true},
		{"/admin/events/abc/cancel", "abc", "cancel", true},
		{"/admin/events/", "", "", false},
		{"/admin/events/abc/refund", "", "", false},
		{"/admin/events/abc/cancel/extra", "", "", false},
		{"/events/abc", "", "", false},
	}

	for _, tc := range tests {
		id, action, ok := parseAdminEventPath(tc.path)
		if id != tc.wantID || action != tc.wantAction || ok != tc.wantOK {
			t.Errorf("parseAdminEventPath(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.path, id, action, ok, tc.wantID, tc.wantAction, tc.wantOK)
		}
	}
}
