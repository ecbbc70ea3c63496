package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quadpass/quadpass/internal/domain"
)

// TicketLister is the minimal interface for the authenticated ticket list.
type TicketLister interface {
	ListTickets(ctx context.Context, userID string) ([]domain.Ticket, error)
}

// HandleTickets returns an HTTP handler listing the authenticated user's
// tickets, newest first.
func HandleTickets(svc TicketLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		userID := userIDFromContext(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}

		tickets, err := svc.ListTickets(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := make([]ticketResponse, 0, len(tickets))
		for _, t := range tickets {
			resp = append(resp, ticketResponse{
				EventID:     t.EventID,
				Type:        t.Type,
				Price:       t.Price,
				PurchasedAt: t.PurchasedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type ticketResponse struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	Price       float64   `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`
}
