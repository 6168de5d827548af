package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditline/internal/domain"
	"creditline/internal/query"
)

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

func newTestRouter(t *testing.T, consultants map[domain.Channel]query.Consultant) chi.Router {
	t.Helper()

	service := query.New(query.DefaultFallbackConfig())
	for channel, consultant := range consultants {
		require.NoError(t, service.Register(channel, consultant))
	}

	router := chi.NewRouter()
	New(service, nil).Register(router)
	return router
}

func postQuery(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuery(t *testing.T) {
	t.Run("returns the composed contract for a hit", func(t *testing.T) {
		record := &domain.ClientRecord{DNI: "12345678", Name: "ANA", Eligible: true, CreditLimit: 1500}
		primary := &stubConsultant{result: domain.FoundResult("12345678", domain.ChannelFNB, record)}
		router := newTestRouter(t, map[domain.Channel]query.Consultant{domain.ChannelFNB: primary})

		rec := postQuery(t, router, "/query", `{"dni":"12345678"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp QueryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.True(t, resp.Success)
		assert.Equal(t, "12345678", resp.DNI)
		assert.Equal(t, domain.ChannelFNB, resp.Channel)
		assert.True(t, resp.HasOffer)
		assert.Zero(t, resp.ReturnCode)
		assert.Empty(t, resp.Error)
		assert.Contains(t, resp.ClientMessage, "FELICITACIONES")
		require.NotNil(t, resp.Record)
		assert.Equal(t, "ANA", resp.Record.Name)
	})

	t.Run("channel error still answers 200 with the error contract", func(t *testing.T) {
		primary := &stubConsultant{result: domain.ErrorResult("12345678", domain.ChannelFNB, "backend down")}
		router := newTestRouter(t, map[domain.Channel]query.Consultant{domain.ChannelFNB: primary})

		rec := postQuery(t, router, "/query", `{"dni":"12345678"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp QueryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		assert.Equal(t, 2, resp.ReturnCode)
		assert.Equal(t, "backend down", resp.Error)
		assert.NotContains(t, resp.ClientMessage, "backend down")
	})

	t.Run("invalid identifier is rejected before any channel is consulted", func(t *testing.T) {
		primary := &stubConsultant{result: domain.NotFoundResult("12345678", domain.ChannelFNB, "")}
		router := newTestRouter(t, map[domain.Channel]query.Consultant{domain.ChannelFNB: primary})

		for _, body := range []string{
			`{"dni":"123"}`,
			`{"dni":"1234567a"}`,
			`{"dni":""}`,
			`{"dni":`,
			`{}`,
		} {
			rec := postQuery(t, router, "/query", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		}
		assert.Zero(t, primary.calls)
	})
}

func TestHandleQueryChannel(t *testing.T) {
	primary := &stubConsultant{result: domain.NotFoundResult("12345678", domain.ChannelFNB, "unknown")}
	secondary := &stubConsultant{result: domain.FoundResult("12345678", domain.ChannelGASO, &domain.ClientRecord{Name: "ANA"})}
	router := newTestRouter(t, map[domain.Channel]query.Consultant{
		domain.ChannelFNB:  primary,
		domain.ChannelGASO: secondary,
	})

	t.Run("queries only the named channel", func(t *testing.T) {
		rec := postQuery(t, router, "/query/gaso", `{"dni":"12345678"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp QueryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, domain.ChannelGASO, resp.Channel)
		assert.Equal(t, 1, secondary.calls)
		assert.Zero(t, primary.calls)
	})

	t.Run("unknown channel is a bad request", func(t *testing.T) {
		rec := postQuery(t, router, "/query/telepathy", `{"dni":"12345678"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("all channels healthy", func(t *testing.T) {
		router := newTestRouter(t, map[domain.Channel]query.Consultant{
			domain.ChannelFNB:  &stubConsultant{},
			domain.ChannelGASO: &stubConsultant{},
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, resp.Channels[domain.ChannelFNB])
		assert.True(t, resp.Channels[domain.ChannelGASO])
	})

	t.Run("one failing channel degrades the status", func(t *testing.T) {
		router := newTestRouter(t, map[domain.Channel]query.Consultant{
			domain.ChannelFNB:  &stubConsultant{},
			domain.ChannelGASO: &stubConsultant{healthErr: context.DeadlineExceeded},
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.False(t, resp.Channels[domain.ChannelGASO])
	})

	t.Run("single channel probe", func(t *testing.T) {
		router := newTestRouter(t, map[domain.Channel]query.Consultant{
			domain.ChannelGASO: &stubConsultant{},
		})

		req := httptest.NewRequest(http.MethodGet, "/health/gaso", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/health/fnb", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "registered channels only")

		req = httptest.NewRequest(http.MethodGet, "/health/telepathy", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
