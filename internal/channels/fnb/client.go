package fnb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"creditline/internal/domain"
)

// Status classifies the outcome of a channel query before adaptation.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusNotFound       Status = "not_found"
	StatusSessionExpired Status = "session_expired"
	StatusRateLimited    Status = "rate_limited"
	StatusTimeout        Status = "timeout"
	StatusError          Status = "error"
)

// Fixed request parameters for the credit-line endpoint.
const (
	documentType = "PE2"
	channelTag   = "FNB"
)

// creditLineResponse is the backend envelope: valid marks whether the
// identifier has an active campaign; data carries the client payload.
type creditLineResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Data    *struct {
		Name        string  `json:"nombre"`
		Account     string  `json:"cuentaContrato"`
		Address     string  `json:"direccion"`
		Eligible    bool    `json:"tieneLineaCredito"`
		CreditLimit float64 `json:"lineaCredito"`
	} `json:"data"`
}

// Client issues authenticated credit-line queries.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds the channel client.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query performs one authenticated credit-line lookup.
//
// Status mapping: 200 with a valid body yields the record; 200 with an
// invalid body is not_found carrying the backend message; 401 means the
// session expired; 429 means rate limited; any other status or transport
// failure is an error, with timeouts reported distinctly.
func (c *Client) Query(ctx context.Context, session Session, dni domain.DNI) (*domain.ClientRecord, Status, string) {
	endpoint := c.cfg.BaseURL + c.cfg.QueryPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, StatusError, err.Error()
	}

	params := url.Values{}
	params.Set("numeroDocumento", dni.String())
	params.Set("tipoDocumento", documentType)
	params.Set("idAliado", session.AllyID)
	params.Set("canal", channelTag)
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.ErrorContext(ctx, "query timed out", "dni", dni, "timeout", c.cfg.Timeout)
			return nil, StatusTimeout, fmt.Sprintf("request timeout after %s", c.cfg.Timeout)
		}
		c.logger.ErrorContext(ctx, "query transport failure", "dni", dni, "error", err)
		return nil, StatusError, err.Error()
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// handled below
	case http.StatusUnauthorized:
		return nil, StatusSessionExpired, "session expired"
	case http.StatusTooManyRequests:
		return nil, StatusRateLimited, "too many requests"
	default:
		c.logger.ErrorContext(ctx, "query rejected", "dni", dni, "status", resp.StatusCode)
		return nil, StatusError, fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	var decoded creditLineResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, StatusError, "malformed response from backend"
	}

	if !decoded.Valid {
		message := decoded.Message
		if message == "" {
			message = "no message provided"
		}
		return nil, StatusNotFound, message
	}
	if decoded.Data == nil {
		c.logger.ErrorContext(ctx, "valid response missing data", "dni", dni)
		return nil, StatusError, "missing data field in response"
	}

	record := &domain.ClientRecord{
		DNI:         dni.String(),
		Name:        decoded.Data.Name,
		Account:     decoded.Data.Account,
		Address:     decoded.Data.Address,
		Eligible:    decoded.Data.Eligible,
		CreditLimit: decoded.Data.CreditLimit,
		Channel:     domain.ChannelFNB,
	}
	return record, StatusSuccess, ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
