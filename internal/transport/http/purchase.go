package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quadpass/quadpass/internal/app"
	"github.com/quadpass/quadpass/internal/domain"
)

// TicketPurchaser is the minimal interface needed to purchase a ticket.
type TicketPurchaser interface {
	Purchase(ctx context.Context, in app.PurchaseInput) (app.TicketConfirmation, error)
}

// HandlePurchase returns an HTTP handler for the purchase entry point. The
// authenticated user id must already be in the request context.
func HandlePurchase(svc TicketPurchaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		userID := userIDFromContext(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}

		var req purchaseRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.EventID == "" || req.TicketType == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "event_id and ticket_type are required")
			return
		}

		conf, err := svc.Purchase(r.Context(), app.PurchaseInput{
			UserID:     userID,
			EventID:    req.EventID,
			TicketType: req.TicketType,
		})
		if err != nil {
			switch err {
			case domain.ErrEventNotFound:
				writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			case domain.ErrInvalidTicketType:
				writeError(w, http.StatusBadRequest, codeInvalidTicketType, err.Error())
			case domain.ErrEventCancelled:
				writeError(w, http.StatusConflict, codeEventCancelled, err.Error())
			case domain.ErrSoldOut:
				writeError(w, http.StatusConflict, codeSoldOut, err.Error())
			case domain.ErrAlreadyPurchased:
				writeError(w, http.StatusConflict, codeAlreadyPurchased, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := purchaseResponse{
			EventID:          conf.EventID,
			UserID:           conf.UserID,
			Type:             conf.Type,
			Cost:             conf.Cost,
			EventDescription: conf.EventDescription,
			Message:          conf.Message,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type purchaseRequest struct {
	EventID    string `json:"event_id"`
	TicketType string `json:"ticket_type"`
}

type purchaseResponse struct {
	EventID          string  `json:"event_id"`
	UserID           string  `json:"user_id"`
	Type             string  `json:"type"`
	Cost             float64 `json:"cost"`
	EventDescription string  `json:"event_description"`
	Message          string  `json:"message"`
}
