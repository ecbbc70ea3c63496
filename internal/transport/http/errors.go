package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeUnauthorized       = "unauthorized"
	codeEventNameRequired  = "event_name_required"
	codeInvalidCapacity    = "invalid_capacity"
	codeCapacityBelowSold  = "capacity_below_sold"
	codeInvalidTimeWindow  = "invalid_time_window"
	codeInvalidTicketPrice = "invalid_ticket_price"
	codeTicketTypeRequired = "ticket_type_required"
	codeInvalidTicketType  = "invalid_ticket_type"
	codeEventNotFound      = "event_not_found"
	codeEventCancelled     = "event_cancelled"
	codeSoldOut            = "sold_out"
	codeAlreadyPurchased   = "already_purchased"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
