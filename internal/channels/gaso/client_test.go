package gaso

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditline/internal/domain"
)

// fakeDashboard scripts per-field responses keyed by the selected property.
type fakeDashboard struct {
	t *testing.T

	mu       sync.Mutex
	values   map[string]string
	failing  map[string]bool
	requests map[string]int
}

func newFakeDashboard(t *testing.T, values map[string]string) *fakeDashboard {
	return &fakeDashboard{
		t:        t,
		values:   values,
		failing:  map[string]bool{},
		requests: map[string]int{},
	}
}

func (f *fakeDashboard) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload queryPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			f.t.Errorf("malformed query payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		sel := payload.Queries[0].Query.Commands[0].SemanticQueryDataShapeCommand.Query.Select[0]
		property := sel.NativeReferenceName

		f.mu.Lock()
		f.requests[property]++
		fail := f.failing[property]
		value, known := f.values[property]
		f.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !known {
			// Unknown client: an empty dataset, which extracts to "".
			fmt.Fprint(w, `{"results":[{"result":{"data":{"dsr":{"DS":[]}}}}]}`)
			return
		}

		// Columns answer with a grouping value, measures with the aggregate
		// cell. Both shapes flow through the same extractor.
		cell := "M0"
		if sel.Column != nil {
			cell = "G0"
		}
		fmt.Fprintf(w, `{"results":[{"result":{"data":{"dsr":{"DS":[{"PH":[{"DM0":[{%q:%q}]}]}]}}}}]}`, cell, value)
	}
}

func (f *fakeDashboard) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.requests {
		total += n
	}
	return total
}

func newTestClient(t *testing.T, dashboard *fakeDashboard) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(dashboard.handler())
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIURL:      server.URL,
		ResourceKey: "test-resource-key",
		DatasetID:   "dataset",
		ReportID:    "report",
		ModelID:     42,
	}, DefaultVisualIDs())
	return client, server
}

func TestClientQuery(t *testing.T) {
	ctx := t.Context()

	t.Run("assembles the full record", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{
			"Estado":          "ACTIVO",
			"Saldo":           "S/ 1.234,56",
			"Cliente":         "JUAN PEREZ",
			"Cuenta_contrato": "500123",
			"NSE":             "B",
			"Dirección":       "AV LIMA 123",
			"Distrito":        "SAN ISIDRO",
			"Documento":       "12345678",
			"Estado_cta":      "ACTIVA",
		})
		client, _ := newTestClient(t, dashboard)

		record, status, detail := client.Query(ctx, "12345678")
		require.Equal(t, StatusSuccess, status)
		require.Empty(t, detail)
		require.NotNil(t, record)

		assert.Equal(t, "12345678", record.DNI)
		assert.Equal(t, "JUAN PEREZ", record.Name)
		assert.Equal(t, "ACTIVO", record.Status)
		assert.Equal(t, "S/ 1.234,56", record.Balance)
		assert.Equal(t, "500123", record.Account)
		assert.Equal(t, "B", record.Segment)
		assert.Equal(t, "AV LIMA 123 - SAN ISIDRO", record.Address)
		assert.Equal(t, "12345678", record.Document)
		assert.Equal(t, "ACTIVA", record.AccountStatus)
		assert.True(t, record.Eligible)
		assert.InDelta(t, 1234.56, record.CreditLimit, 1e-9)
		assert.Equal(t, domain.ChannelGASO, record.Channel)
	})

	t.Run("placeholder status short-circuits to not found", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{"Estado": "--"})
		client, _ := newTestClient(t, dashboard)

		record, status, _ := client.Query(ctx, "12345678")
		assert.Nil(t, record)
		assert.Equal(t, StatusNotFound, status)
		assert.Equal(t, 1, dashboard.requestCount(), "no field queries after an unknown status")
	})

	t.Run("missing status short-circuits to not found", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{})
		client, _ := newTestClient(t, dashboard)

		record, status, _ := client.Query(ctx, "99999999")
		assert.Nil(t, record)
		assert.Equal(t, StatusNotFound, status)
		assert.Equal(t, 1, dashboard.requestCount())
	})

	t.Run("failed status query is an error", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{"Estado": "ACTIVO"})
		dashboard.failing["Estado"] = true
		client, _ := newTestClient(t, dashboard)

		record, status, detail := client.Query(ctx, "12345678")
		assert.Nil(t, record)
		assert.Equal(t, StatusError, status)
		assert.NotEmpty(t, detail)
	})

	t.Run("failed field queries degrade to defaults", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{
			"Estado":  "ACTIVO",
			"Saldo":   "5000",
			"Cliente": "JUAN PEREZ",
		})
		dashboard.failing["Saldo"] = true
		dashboard.failing["Cliente"] = true
		client, _ := newTestClient(t, dashboard)

		record, status, _ := client.Query(ctx, "12345678")
		require.Equal(t, StatusSuccess, status)
		require.NotNil(t, record)

		assert.Equal(t, "Cliente GASO", record.Name)
		assert.Equal(t, "0", record.Balance)
		assert.Zero(t, record.CreditLimit)
		assert.False(t, record.Eligible, "no balance means no offer")
	})

	t.Run("NO APLICA status is never eligible", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{
			"Estado": "NO APLICA",
			"Saldo":  "5000",
		})
		client, _ := newTestClient(t, dashboard)

		record, status, _ := client.Query(ctx, "12345678")
		require.Equal(t, StatusSuccess, status)
		require.NotNil(t, record)
		assert.False(t, record.Eligible)
		assert.InDelta(t, 5000, record.CreditLimit, 1e-9)
	})
}

func TestClientHealth(t *testing.T) {
	t.Run("reachable dashboard is healthy", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{})
		client, _ := newTestClient(t, dashboard)
		assert.NoError(t, client.Health(t.Context()))
	})

	t.Run("unreachable dashboard is not", func(t *testing.T) {
		dashboard := newFakeDashboard(t, map[string]string{})
		client, server := newTestClient(t, dashboard)
		server.Close()
		assert.Error(t, client.Health(t.Context()))
	})
}

func TestClientSendsResourceKey(t *testing.T) {
	var gotKey string
	var gotSync string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-PowerBI-ResourceKey")
		gotSync = r.URL.Query().Get("synchronous")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIURL: server.URL, ResourceKey: "secret-key"}, DefaultVisualIDs())
	_, _ = client.queryField(t.Context(), "12345678", field{"Estado", client.visuals.Status, KindMeasure})

	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "true", gotSync)
}
