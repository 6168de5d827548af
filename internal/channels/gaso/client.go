// Package gaso implements the secondary consultation channel. The backend has
// no record-fetch endpoint; every client attribute is recovered with an
// independent analytic query against a published dashboard, one field at a
// time, and assembled into a normalized record.
package gaso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"creditline/internal/domain"
)

// Status classifies the outcome of a channel query before adaptation.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Config carries the static dashboard coordinates. These identify a published
// report and never change at runtime; they are configuration, not state.
type Config struct {
	APIURL      string
	ResourceKey string
	DatasetID   string
	ReportID    string
	ModelID     int
	Timeout     time.Duration
}

// VisualIDs maps each client attribute to the dashboard visual that exposes
// it. Harvested from the published report; treated as opaque.
type VisualIDs struct {
	Status        string
	Balance       string
	Name          string
	Account       string
	Segment       string
	Address       string
	District      string
	Document      string
	AccountStatus string
}

// DefaultVisualIDs returns the visual set of the current published report.
func DefaultVisualIDs() VisualIDs {
	return VisualIDs{
		Status:        "1939653a9d6bbd4abe2b",
		Balance:       "fa2a9da34ca3522cc3b6",
		Name:          "a75cdb19088461402488",
		Account:       "c034bb0d649b01c765c0",
		Segment:       "3ad014bf316f57fe6b8f",
		Address:       "04df67600e7aad10d3a0",
		District:      "7f69ea308db71aa50aa7",
		Document:      "123456789abc0def",
		AccountStatus: "fedcba9876543210abcd",
	}
}

// field couples an attribute's query property with its visual and shape.
type field struct {
	property string
	visualID string
	kind     FieldKind
}

// statusPlaceholder is what the dashboard renders for an unknown identifier.
const statusPlaceholder = "--"

// defaultClientName labels records whose name field could not be resolved so
// downstream messages are never nameless.
const defaultClientName = "Cliente GASO"

// Client queries the dashboard field by field.
type Client struct {
	httpClient *http.Client
	cfg        Config
	visuals    VisualIDs
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a channel client for the configured dashboard.
func NewClient(cfg Config, visuals VisualIDs, opts ...Option) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		visuals:    visuals,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query consults every attribute for the identifier and assembles the record.
//
// The status field goes first: when it is absent, blank, or the placeholder,
// the client is unknown and no further field queries are issued. Remaining
// fields are fetched concurrently; a failed field degrades to empty and is
// logged, it never aborts the record.
func (c *Client) Query(ctx context.Context, dni domain.DNI) (*domain.ClientRecord, Status, string) {
	status, err := c.queryField(ctx, dni, field{"Estado", c.visuals.Status, KindMeasure})
	if err != nil {
		c.logger.ErrorContext(ctx, "status query failed", "dni", dni, "error", err)
		return nil, StatusError, "error querying channel"
	}
	if status == "" || status == statusPlaceholder {
		return nil, StatusNotFound, "client not found in GASO"
	}

	var (
		balance, name, account, segment     string
		address, district, document, acctSt string
	)
	fetch := func(dst *string, f field) func() error {
		return func() error {
			value, err := c.queryField(ctx, dni, f)
			if err != nil {
				c.logger.WarnContext(ctx, "field query failed",
					"dni", dni,
					"field", f.property,
					"error", err,
				)
				return nil // partial data is acceptable
			}
			*dst = value
			return nil
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(fetch(&balance, field{"Saldo", c.visuals.Balance, KindMeasure}))
	g.Go(fetch(&name, field{"Cliente", c.visuals.Name, KindMeasure}))
	g.Go(fetch(&account, field{"Cuenta_contrato", c.visuals.Account, KindMeasure}))
	g.Go(fetch(&segment, field{"NSE", c.visuals.Segment, KindMeasure}))
	g.Go(fetch(&address, field{"Dirección", c.visuals.Address, KindColumn}))
	g.Go(fetch(&district, field{"Distrito", c.visuals.District, KindColumn}))
	g.Go(fetch(&document, field{"Documento", c.visuals.Document, KindColumn}))
	g.Go(fetch(&acctSt, field{"Estado_cta", c.visuals.AccountStatus, KindColumn}))
	_ = g.Wait()

	amount := ParseBalance(balance)
	eligible := amount > 0 && strings.ToUpper(status) != "NO APLICA"

	if name == "" {
		name = defaultClientName
	}
	if balance == "" {
		balance = "0"
	}

	record := &domain.ClientRecord{
		DNI:           dni.String(),
		Name:          name,
		Status:        status,
		Balance:       balance,
		Account:       account,
		Segment:       segment,
		Address:       joinAddress(address, district),
		Document:      document,
		AccountStatus: acctSt,
		Eligible:      eligible,
		CreditLimit:   amount,
		Channel:       domain.ChannelGASO,
	}
	return record, StatusSuccess, ""
}

// Health issues a status query for the all-zeros identifier; the channel is
// reachable when the dashboard answers at all.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.queryField(ctx, "00000000", field{"Estado", c.visuals.Status, KindMeasure})
	return err
}

// joinAddress composes "street - district" when both parts are known, or
// whichever single part is present.
func joinAddress(street, district string) string {
	switch {
	case street != "" && district != "":
		return street + " - " + district
	case street != "":
		return street
	default:
		return district
	}
}

func (c *Client) queryField(ctx context.Context, dni domain.DNI, f field) (string, error) {
	payload := c.buildPayload(dni, f)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal query payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"?synchronous=true", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("X-PowerBI-ResourceKey", c.cfg.ResourceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("query returned status %d", resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode query response: %w", err)
	}

	return Extract(&decoded, f.kind), nil
}
