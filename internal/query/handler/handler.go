// Package handler is the thin HTTP layer over the query service. It decodes
// and validates requests, delegates, and renders the outward contract;
// business rules stay in the service and channel packages.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"creditline/internal/domain"
	"creditline/internal/query"
	dErrors "creditline/pkg/domain-errors"
	"creditline/pkg/platform/httputil"
	"creditline/pkg/requestcontext"
)

// Handler wires query endpoints to the orchestrator.
type Handler struct {
	service *query.Service
	logger  *slog.Logger
}

// New constructs the query handler.
func New(service *query.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the query endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/query", h.HandleQuery)
	r.Post("/query/{channel}", h.HandleQueryChannel)
	r.Get("/health", h.HandleHealth)
	r.Get("/health/{channel}", h.HandleHealthChannel)
}

// HandleQuery handles POST /query: ordered fallback across all channels.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	dni, ok := h.decodeDNI(w, r)
	if !ok {
		return
	}

	result := h.service.Consult(ctx, dni)

	h.logger.InfoContext(ctx, "query completed",
		"request_id", requestcontext.RequestID(ctx),
		"dni", dni,
		"channel", result.Channel,
		"state", result.State,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleQueryChannel handles POST /query/{channel}: one channel, no fallback.
func (h *Handler) HandleQueryChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channel := domain.Channel(chi.URLParam(r, "channel"))
	if !channel.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown channel"))
		return
	}

	dni, ok := h.decodeDNI(w, r)
	if !ok {
		return
	}

	result := h.service.ConsultChannel(ctx, dni, channel)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleHealth handles GET /health: overall status plus per-channel detail.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	channels := h.service.Health(r.Context())

	status := "ok"
	for _, healthy := range channels {
		if !healthy {
			status = "degraded"
		}
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: status, Channels: channels})
}

// HandleHealthChannel handles GET /health/{channel}.
func (h *Handler) HandleHealthChannel(w http.ResponseWriter, r *http.Request) {
	channel := domain.Channel(chi.URLParam(r, "channel"))
	if !channel.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown channel"))
		return
	}

	healthy, registered := h.service.HealthChannel(r.Context(), channel)
	if !registered {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "channel not registered"))
		return
	}

	status := "ok"
	if !healthy {
		status = "error"
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   status,
		Channels: map[domain.Channel]bool{channel: healthy},
	})
}

// decodeDNI decodes and validates the request body, writing the error
// envelope on failure. No channel is touched for malformed identifiers.
func (h *Handler) decodeDNI(w http.ResponseWriter, r *http.Request) (domain.DNI, bool) {
	req, ok := httputil.DecodeJSON[QueryRequest](w, r)
	if !ok {
		return "", false
	}

	dni, err := req.Parse()
	if err != nil {
		h.logger.WarnContext(r.Context(), "rejected invalid identifier",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return "", false
	}
	return dni, true
}
