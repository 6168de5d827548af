package fnb

import (
	"context"
	"log/slog"
	"strings"

	"creditline/internal/domain"
)

// notFoundIndicators are backend message fragments that mean the identifier
// is unknown or has no active campaign, rather than a real failure.
var notFoundIndicators = []string{
	"no encontrado",
	"no existe",
	"no califica",
	"no tiene campaña",
}

// Adapter maps raw channel outcomes into the canonical result type, handling
// session lifecycle around the client.
type Adapter struct {
	sessions *SessionCache
	client   *Client
	logger   *slog.Logger
}

// NewAdapter wraps the channel client and its session cache for the
// orchestrator.
func NewAdapter(sessions *SessionCache, client *Client, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{sessions: sessions, client: client, logger: logger}
}

// Consult acquires a session, queries the channel, and normalizes the
// outcome. An expired session is retried exactly once with a forced refresh;
// authentication failure surfaces as an ERROR-state result.
func (a *Adapter) Consult(ctx context.Context, dni domain.DNI) domain.QueryResult {
	session, err := a.sessions.Acquire(ctx, false)
	if err != nil {
		a.logger.ErrorContext(ctx, "session acquisition failed", "channel", domain.ChannelFNB, "error", err)
		return domain.ErrorResult(dni, domain.ChannelFNB, "authentication failed: "+err.Error())
	}

	record, status, detail := a.client.Query(ctx, session, dni)

	if status == StatusSessionExpired {
		a.logger.WarnContext(ctx, "session expired, retrying with fresh login", "dni", dni)
		a.sessions.Invalidate()

		session, err = a.sessions.Acquire(ctx, true)
		if err != nil {
			return domain.ErrorResult(dni, domain.ChannelFNB, "authentication failed: "+err.Error())
		}
		record, status, detail = a.client.Query(ctx, session, dni)
	}

	return a.normalize(dni, record, status, detail)
}

func (a *Adapter) normalize(dni domain.DNI, record *domain.ClientRecord, status Status, detail string) domain.QueryResult {
	switch {
	case status == StatusSuccess && record != nil:
		return domain.FoundResult(dni, domain.ChannelFNB, record)
	case status == StatusNotFound, isNotFoundMessage(detail):
		return domain.NotFoundResult(dni, domain.ChannelFNB, detail)
	default:
		return domain.ErrorResult(dni, domain.ChannelFNB, detail)
	}
}

// Health reports channel reachability: the channel is healthy when a session
// can be acquired.
func (a *Adapter) Health(ctx context.Context) error {
	_, err := a.sessions.Acquire(ctx, false)
	return err
}

func isNotFoundMessage(message string) bool {
	if message == "" {
		return false
	}
	lower := strings.ToLower(message)
	for _, indicator := range notFoundIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
