package handler

import (
	"creditline/internal/domain"
	"creditline/internal/query"
)

// QueryResponse is the outward contract for every query endpoint.
type QueryResponse struct {
	Success       bool                 `json:"success"`
	DNI           string               `json:"dni"`
	Channel       domain.Channel       `json:"channel"`
	ClientMessage string               `json:"client_message"`
	Error         string               `json:"error,omitempty"`
	ReturnCode    int                  `json:"return_code"`
	HasOffer      bool                 `json:"has_offer"`
	Record        *domain.ClientRecord `json:"record,omitempty"`
}

// FromResult converts a canonical result into the outward contract. The
// composed message replaces raw channel errors; the error field carries the
// internal detail only for non-success results.
func FromResult(result domain.QueryResult) QueryResponse {
	message, hasOffer := query.Compose(result)

	errMessage := ""
	if !result.Success {
		errMessage = result.ErrorMessage
	}

	return QueryResponse{
		Success:       result.Success,
		DNI:           result.DNI,
		Channel:       result.Channel,
		ClientMessage: message,
		Error:         errMessage,
		ReturnCode:    query.ReturnCode(result),
		HasOffer:      hasOffer,
		Record:        result.Record,
	}
}

// HealthResponse reports per-channel reachability.
type HealthResponse struct {
	Status   string                  `json:"status"`
	Channels map[domain.Channel]bool `json:"channels,omitempty"`
}
