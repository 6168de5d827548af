package gaso

import (
	"context"
	"log/slog"

	"creditline/internal/domain"
)

// Adapter maps raw channel outcomes into the canonical result type.
type Adapter struct {
	client *Client
	logger *slog.Logger
}

// NewAdapter wraps a channel client for the orchestrator.
func NewAdapter(client *Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{client: client, logger: logger}
}

// Consult queries the channel and normalizes the outcome. Channel failures
// surface as ERROR-state results, never as errors.
func (a *Adapter) Consult(ctx context.Context, dni domain.DNI) domain.QueryResult {
	record, status, detail := a.client.Query(ctx, dni)

	switch {
	case status == StatusSuccess && record != nil:
		return domain.FoundResult(dni, domain.ChannelGASO, record)
	case status == StatusNotFound:
		return domain.NotFoundResult(dni, domain.ChannelGASO, detail)
	default:
		a.logger.ErrorContext(ctx, "channel query failed",
			"channel", domain.ChannelGASO,
			"dni", dni,
			"detail", detail,
		)
		return domain.ErrorResult(dni, domain.ChannelGASO, detail)
	}
}

// Health reports channel reachability.
func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Health(ctx)
}
