package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"creditline/internal/cache"
	"creditline/internal/domain"
)

// stubConsultant returns a canned result and counts consultations.
type stubConsultant struct {
	result    domain.QueryResult
	calls     int
	healthErr error
}

func (s *stubConsultant) Consult(context.Context, domain.DNI) domain.QueryResult {
	s.calls++
	return s.result
}

func (s *stubConsultant) Health(context.Context) error { return s.healthErr }

func foundStub(channel domain.Channel, eligible bool) *stubConsultant {
	record := &domain.ClientRecord{DNI: "12345678", Name: "ANA", Eligible: eligible, Channel: channel}
	if eligible {
		record.CreditLimit = 1000
	}
	return &stubConsultant{result: domain.FoundResult("12345678", channel, record)}
}

func notFoundStub(channel domain.Channel) *stubConsultant {
	return &stubConsultant{result: domain.NotFoundResult("12345678", channel, "unknown client")}
}

func errorStub(channel domain.Channel) *stubConsultant {
	return &stubConsultant{result: domain.ErrorResult("12345678", channel, "backend down")}
}

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) newService(cfg FallbackConfig, primary, secondary Consultant) *Service {
	svc := New(cfg)
	if primary != nil {
		s.Require().NoError(svc.Register(domain.ChannelFNB, primary))
	}
	if secondary != nil {
		s.Require().NoError(svc.Register(domain.ChannelGASO, secondary))
	}
	return svc
}

func (s *ServiceSuite) TestFallbackOrder() {
	cfg := DefaultFallbackConfig()

	s.Run("primary hit stops the fallback", func() {
		primary := foundStub(domain.ChannelFNB, true)
		secondary := foundStub(domain.ChannelGASO, true)
		svc := s.newService(cfg, primary, secondary)

		result := svc.Consult(s.ctx, "12345678")

		s.True(result.FoundClient())
		s.Equal(domain.ChannelFNB, result.Channel)
		s.Equal(1, primary.calls)
		s.Zero(secondary.calls, "secondary must not be consulted after a hit")
	})

	s.Run("not found moves to the next channel", func() {
		primary := notFoundStub(domain.ChannelFNB)
		secondary := foundStub(domain.ChannelGASO, true)
		svc := s.newService(cfg, primary, secondary)

		result := svc.Consult(s.ctx, "12345678")

		s.True(result.FoundClient())
		s.Equal(domain.ChannelGASO, result.Channel)
		s.Equal(1, primary.calls)
		s.Equal(1, secondary.calls)
	})

	s.Run("error moves on when the policy allows it", func() {
		primary := errorStub(domain.ChannelFNB)
		secondary := foundStub(domain.ChannelGASO, true)
		svc := s.newService(cfg, primary, secondary)

		result := svc.Consult(s.ctx, "12345678")

		s.True(result.FoundClient())
		s.Equal(domain.ChannelGASO, result.Channel)
	})

	s.Run("error stops the fallback when the policy forbids it", func() {
		primary := errorStub(domain.ChannelFNB)
		secondary := foundStub(domain.ChannelGASO, true)
		svc := s.newService(FallbackConfig{
			Order:           []domain.Channel{domain.ChannelFNB, domain.ChannelGASO},
			ContinueOnError: false,
		}, primary, secondary)

		result := svc.Consult(s.ctx, "12345678")

		s.Equal(domain.StateError, result.State)
		s.Equal(domain.ChannelFNB, result.Channel)
		s.Zero(secondary.calls)
	})

	s.Run("last result is surfaced when every channel misses", func() {
		primary := errorStub(domain.ChannelFNB)
		secondary := notFoundStub(domain.ChannelGASO)
		svc := s.newService(cfg, primary, secondary)

		result := svc.Consult(s.ctx, "12345678")

		s.Equal(domain.StateNotFound, result.State)
		s.Equal(domain.ChannelGASO, result.Channel)
	})

	s.Run("unregistered channel is skipped", func() {
		secondary := foundStub(domain.ChannelGASO, true)
		svc := s.newService(cfg, nil, secondary)

		result := svc.Consult(s.ctx, "12345678")

		s.True(result.FoundClient())
		s.Equal(domain.ChannelGASO, result.Channel)
	})

	s.Run("no channels registered is a synthetic error", func() {
		svc := New(cfg)

		result := svc.Consult(s.ctx, "12345678")

		s.Equal(domain.StateError, result.State)
		s.Equal(domain.ChannelFNB, result.Channel)
		s.NotEmpty(result.ErrorMessage)
	})
}

func (s *ServiceSuite) TestRegister() {
	svc := New(DefaultFallbackConfig())

	s.Run("rejects unknown channels", func() {
		s.Error(svc.Register("telepathy", foundStub(domain.ChannelFNB, true)))
	})

	s.Run("rejects duplicates", func() {
		s.NoError(svc.Register(domain.ChannelFNB, foundStub(domain.ChannelFNB, true)))
		s.Error(svc.Register(domain.ChannelFNB, foundStub(domain.ChannelFNB, true)))
	})
}

func (s *ServiceSuite) TestConsultChannel() {
	primary := foundStub(domain.ChannelFNB, true)
	secondary := notFoundStub(domain.ChannelGASO)
	svc := s.newService(DefaultFallbackConfig(), primary, secondary)

	s.Run("queries only the requested channel", func() {
		result := svc.ConsultChannel(s.ctx, "12345678", domain.ChannelGASO)

		s.Equal(domain.StateNotFound, result.State)
		s.Zero(primary.calls)
	})

	s.Run("unregistered channel is an error result", func() {
		empty := New(DefaultFallbackConfig())
		result := empty.ConsultChannel(s.ctx, "12345678", domain.ChannelFNB)
		s.Equal(domain.StateError, result.State)
	})
}

func (s *ServiceSuite) TestResultCache() {
	s.Run("cache hit skips every channel", func() {
		primary := foundStub(domain.ChannelFNB, true)
		store := cache.NewInMemoryStore(0)
		svc := New(DefaultFallbackConfig(), WithResultCache(store))
		s.Require().NoError(svc.Register(domain.ChannelFNB, primary))

		first := svc.Consult(s.ctx, "12345678")
		second := svc.Consult(s.ctx, "12345678")

		s.Equal(first, second)
		s.Equal(1, primary.calls, "second consult must come from the cache")
	})

	s.Run("error results are not cached", func() {
		primary := errorStub(domain.ChannelFNB)
		store := cache.NewInMemoryStore(0)
		svc := New(DefaultFallbackConfig(), WithResultCache(store))
		s.Require().NoError(svc.Register(domain.ChannelFNB, primary))

		svc.Consult(s.ctx, "12345678")
		svc.Consult(s.ctx, "12345678")

		s.Equal(2, primary.calls)
	})
}

func (s *ServiceSuite) TestHealth() {
	primary := foundStub(domain.ChannelFNB, true)
	secondary := errorStub(domain.ChannelGASO)
	secondary.healthErr = context.DeadlineExceeded
	svc := s.newService(DefaultFallbackConfig(), primary, secondary)

	health := svc.Health(s.ctx)
	s.True(health[domain.ChannelFNB])
	s.False(health[domain.ChannelGASO])

	healthy, registered := svc.HealthChannel(s.ctx, domain.ChannelGASO)
	s.True(registered)
	s.False(healthy)

	_, registered = New(DefaultFallbackConfig()).HealthChannel(s.ctx, domain.ChannelFNB)
	s.False(registered)
}
