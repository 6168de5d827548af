// Package query orchestrates consultations across the registered channels and
// turns canonical results into the outward response contract.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"creditline/internal/cache"
	"creditline/internal/domain"
	"creditline/internal/query/metrics"
)

// Consultant is the one interface every channel adapter satisfies.
type Consultant interface {
	Consult(ctx context.Context, dni domain.DNI) domain.QueryResult
	Health(ctx context.Context) error
}

// FallbackConfig governs the orchestration: the channel order and whether an
// ERROR in one channel still allows trying the next.
type FallbackConfig struct {
	Order           []domain.Channel
	ContinueOnError bool
}

// DefaultFallbackConfig tries the primary channel first and keeps going on
// channel errors.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		Order:           []domain.Channel{domain.ChannelFNB, domain.ChannelGASO},
		ContinueOnError: true,
	}
}

// Service drives the ordered fallback across registered channels.
type Service struct {
	cfg      FallbackConfig
	channels map[domain.Channel]Consultant
	results  cache.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches the query instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithResultCache enables the per-identifier result cache on the fallback
// path.
func WithResultCache(store cache.Store) Option {
	return func(s *Service) { s.results = store }
}

// New builds an orchestrator with the given fallback policy.
func New(cfg FallbackConfig, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		channels: make(map[domain.Channel]Consultant),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register installs the adapter for a channel. Registering twice is a wiring
// bug and fails loudly.
func (s *Service) Register(channel domain.Channel, consultant Consultant) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q", channel)
	}
	if _, exists := s.channels[channel]; exists {
		return fmt.Errorf("channel %q already registered", channel)
	}
	s.channels[channel] = consultant
	return nil
}

// Consult runs the ordered fallback: the first channel that conclusively
// finds the client wins; NOT_FOUND moves on to the next channel; ERROR moves
// on only when the policy allows it. When every channel has been tried the
// last result is surfaced so a trailing NOT_FOUND or ERROR is not swallowed.
func (s *Service) Consult(ctx context.Context, dni domain.DNI) domain.QueryResult {
	if cached := s.fromCache(ctx, dni); cached != nil {
		return *cached
	}

	var last *domain.QueryResult

	for _, channel := range s.cfg.Order {
		consultant, ok := s.channels[channel]
		if !ok {
			s.logger.WarnContext(ctx, "no consultant registered for channel", "channel", channel)
			continue
		}

		result := s.consultOne(ctx, consultant, channel, dni)
		last = &result

		if result.FoundClient() {
			s.saveResult(ctx, result)
			return result
		}
		if result.State == domain.StateNotFound {
			s.logger.InfoContext(ctx, "client not found, trying next channel", "dni", dni, "channel", channel)
			continue
		}
		if result.State == domain.StateError && !s.cfg.ContinueOnError {
			return result
		}
	}

	if last != nil {
		s.saveResult(ctx, *last)
		return *last
	}

	fallback := domain.ChannelFNB
	if len(s.cfg.Order) > 0 {
		fallback = s.cfg.Order[0]
	}
	return domain.ErrorResult(dni, fallback, "no channels registered for consultation")
}

// ConsultChannel queries exactly one channel, bypassing fallback and cache.
func (s *Service) ConsultChannel(ctx context.Context, dni domain.DNI, channel domain.Channel) domain.QueryResult {
	consultant, ok := s.channels[channel]
	if !ok {
		return domain.ErrorResult(dni, channel, fmt.Sprintf("no consultant registered for channel %q", channel))
	}
	return s.consultOne(ctx, consultant, channel, dni)
}

// Health probes every registered channel for reachability.
func (s *Service) Health(ctx context.Context) map[domain.Channel]bool {
	health := make(map[domain.Channel]bool, len(s.channels))
	for channel, consultant := range s.channels {
		health[channel] = consultant.Health(ctx) == nil
	}
	return health
}

// HealthChannel probes one channel; the second return reports registration.
func (s *Service) HealthChannel(ctx context.Context, channel domain.Channel) (bool, bool) {
	consultant, ok := s.channels[channel]
	if !ok {
		return false, false
	}
	return consultant.Health(ctx) == nil, true
}

func (s *Service) consultOne(ctx context.Context, consultant Consultant, channel domain.Channel, dni domain.DNI) domain.QueryResult {
	start := time.Now()
	result := consultant.Consult(ctx, dni)
	elapsed := time.Since(start)

	s.metrics.ObserveConsult(string(channel), string(result.State), elapsed)
	s.logger.InfoContext(ctx, "channel consulted",
		"dni", dni,
		"channel", channel,
		"state", result.State,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result
}

func (s *Service) fromCache(ctx context.Context, dni domain.DNI) *domain.QueryResult {
	if s.results == nil {
		return nil
	}
	result, err := s.results.Find(ctx, dni)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.WarnContext(ctx, "result cache lookup failed", "dni", dni, "error", err)
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
		return nil
	}
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	return result
}

func (s *Service) saveResult(ctx context.Context, result domain.QueryResult) {
	if s.results == nil || !cache.Cacheable(result) {
		return
	}
	if err := s.results.Save(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "result cache save failed", "dni", result.DNI, "error", err)
	}
}
