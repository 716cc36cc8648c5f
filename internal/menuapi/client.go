// Package menuapi talks to the external menu generation service.
package menuapi

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seasonal-menu/internal/config"
	"seasonal-menu/internal/menu"
)

// ErrTransport marks failures to reach the service at all.
var ErrTransport = errors.New("menu service unreachable")

const maxErrorBody = 512

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("menu service error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("menu service error: status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code to callers that only need the number.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

type requestIDKey struct{}

// WithRequestID attaches the id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Client is a client for the menu generation endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new menu service client.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		endpoint: cfg.MenuAPIURL,
		apiKey:   cfg.MenuAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.MenuAPITimeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate posts req and decodes the weekly menu.
func (c *Client) Generate(ctx context.Context, req menu.Request) (menu.Response, error) {
	jsonBody, err := json.Marshal(req.Clone())
	if err != nil {
		return menu.Response{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return menu.Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	requestID, ok := RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	if c.apiKey != "" {
		token, err := c.createToken()
		if err != nil {
			return menu.Response{}, fmt.Errorf("failed to create service token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.logger.With(zap.String("request_id", requestID), zap.String("endpoint", c.endpoint))
	log.Debug("sending menu request", zap.String("location", req.Location), zap.String("season", req.Season))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return menu.Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Debug("menu service returned error status", zap.Int("status", resp.StatusCode))
		return menu.Response{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	out, err := menu.DecodeResponse(resp.Body)
	if err != nil {
		return menu.Response{}, err
	}
	log.Debug("menu received", zap.Int("days", out.Len()))
	return out, nil
}

// createToken signs a short-lived HS256 token from an "id:hexsecret" key.
func (c *Client) createToken() (string, error) {
	keyParts := strings.Split(c.apiKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid api key format: expected id:secret")
	}

	id := keyParts[0]
	secret, err := hex.DecodeString(keyParts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	audience := "/"
	if u, err := url.Parse(c.endpoint); err == nil && u.Path != "" {
		audience = u.Path
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": audience,
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
