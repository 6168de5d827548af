// Package fnb implements the primary consultation channel: an authenticated
// financing API queried with a bearer session obtained from a login endpoint.
package fnb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "creditline/pkg/domain-errors"
)

// Session is an authenticated handle on the backend: the bearer token plus
// the commercial ally identity the backend requires on every query.
type Session struct {
	Token  string
	AllyID string
}

// Authenticator produces authenticated sessions.
type Authenticator interface {
	Login(ctx context.Context) (Session, error)
}

// Config carries the channel endpoints and credentials.
type Config struct {
	BaseURL    string
	LoginPath  string
	QueryPath  string
	User       string
	Password   string
	Timeout    time.Duration
	SessionTTL time.Duration
}

type loginRequest struct {
	User     string `json:"usuario"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
	Latitude string `json:"Latitud"`
	Longitud string `json:"Longitud"`
}

type loginResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Data    struct {
		AuthToken string `json:"authToken"`
	} `json:"data"`
}

// httpAuthenticator logs in against the real backend.
type httpAuthenticator struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

// NewAuthenticator builds the HTTP login provider for the channel.
func NewAuthenticator(cfg Config, logger *slog.Logger) Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &httpAuthenticator{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// Login authenticates and extracts the ally identity from the issued token.
// The token signature is not verified: the token is consumed as a data
// carrier for the claim, not trusted for authorization decisions here.
func (a *httpAuthenticator) Login(ctx context.Context) (Session, error) {
	payload := loginRequest{
		User:     a.cfg.User,
		Password: a.cfg.Password,
		Captcha:  "exitoso",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "marshal login payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+a.cfg.LoginPath, bytes.NewReader(body))
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "build login request")
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "login request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, fmt.Sprintf("login rejected with status %d", resp.StatusCode))
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "decode login response")
	}
	if !decoded.Valid {
		a.logger.ErrorContext(ctx, "login marked invalid", "message", decoded.Message)
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "login marked invalid by backend")
	}
	if decoded.Data.AuthToken == "" {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "login response missing auth token")
	}

	allyID, err := allyIDFromToken(decoded.Data.AuthToken)
	if err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "extract ally id from token")
	}

	return Session{Token: decoded.Data.AuthToken, AllyID: allyID}, nil
}

// allyIDFromToken decodes the JWT claims without signature verification and
// reads the commercial ally identifier. The claim has been observed both as a
// string and as a number.
func allyIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	switch v := claims["commercialAllyId"].(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return "", fmt.Errorf("token has no commercialAllyId claim")
	}
}
