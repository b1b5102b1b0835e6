// Package registry implements the SchemaRegistry port against a hosted
// GraphQL schema registry.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
	"github.com/ericfisherdev/graphdesk/internal/metrics"
)

// maxResponseBytes caps how much of a registry response is read.
const maxResponseBytes = 10 << 20

// DefaultTimeout is the HTTP client timeout used when Options.Timeout is zero.
// It acts as a safety net alongside context cancellation.
const DefaultTimeout = 30 * time.Second

// Options configures a Transport.
type Options struct {
	Endpoint      string
	ClientName    string
	ClientVersion string
	Timeout       time.Duration
	// HTTPClient overrides the client built from Timeout. Used by tests.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Transport holds the connection settings shared by every user's client.
type Transport struct {
	httpClient    *http.Client
	endpoint      string
	clientName    string
	clientVersion string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

var _ driven.SchemaRegistryFactory = (*Transport)(nil)

// NewTransport creates a Transport from opts.
func NewTransport(opts Options) (*Transport, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("registry endpoint is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	version := opts.ClientVersion
	if version == "" {
		version = "dev"
	}

	return &Transport{
		httpClient:    httpClient,
		endpoint:      opts.Endpoint,
		clientName:    opts.ClientName,
		clientVersion: version,
		logger:        logger,
		metrics:       opts.Metrics,
	}, nil
}

// ForAPIKey returns a client that authenticates every request with apiKey.
func (t *Transport) ForAPIKey(apiKey string) driven.SchemaRegistry {
	return &Client{t: t, apiKey: apiKey}
}

// Client is a SchemaRegistry bound to one API key.
type Client struct {
	t      *Transport
	apiKey string
}

var _ driven.SchemaRegistry = (*Client)(nil)

// graphqlRequest is the JSON body sent to the registry.
type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// graphqlResponse is the envelope of every registry response. Errors are kept
// raw so they can be handed back to callers untouched.
type graphqlResponse struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

type graphqlErrorMessage struct {
	Message string `json:"message"`
}

// do posts one operation and decodes its data into out. Transport failures
// are wrapped; registry-reported failures are returned as *driven.RegistryError.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, OperationName: op, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("apollographql-client-name", c.t.clientName)
	req.Header.Set("apollographql-client-version", c.t.clientVersion)

	resp, err := c.t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	var envelope graphqlResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode != http.StatusOK {
		rerr := &driven.RegistryError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
		if decodeErr == nil && len(envelope.Errors) > 0 {
			rerr.Errors = envelope.Errors
			rerr.Message = firstMessage(envelope.Errors, rerr.Message)
		}
		return rerr
	}

	if decodeErr != nil {
		return &driven.RegistryError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    "invalid response body: " + decodeErr.Error(),
		}
	}

	if len(envelope.Errors) > 0 {
		return &driven.RegistryError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    firstMessage(envelope.Errors, "registry returned errors"),
			Errors:     envelope.Errors,
		}
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &driven.RegistryError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    "unexpected response shape: " + err.Error(),
		}
	}
	return nil
}

// observe records the outcome of an operation. Call it deferred with the
// operation's named error result.
func (c *Client) observe(op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	err := *errp

	outcome := metrics.OutcomeSuccess
	var rerr *driven.RegistryError
	switch {
	case err == nil:
	case errors.Is(err, driven.ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case errors.As(err, &rerr):
		outcome = metrics.OutcomeRegistryError
	default:
		outcome = metrics.OutcomeFailure
	}
	c.t.metrics.ObserveRegistry(op, outcome, elapsed)

	switch outcome {
	case metrics.OutcomeSuccess, metrics.OutcomeNotFound:
		c.t.logger.Debug("registry operation", "operation", op, "outcome", outcome, "duration", elapsed)
	default:
		c.t.logger.Warn("registry operation failed", "operation", op, "outcome", outcome, "duration", elapsed, "error", err)
	}
}

func firstMessage(errs []json.RawMessage, fallback string) string {
	if len(errs) == 0 {
		return fallback
	}
	var m graphqlErrorMessage
	if err := json.Unmarshal(errs[0], &m); err != nil || m.Message == "" {
		return fallback
	}
	return m.Message
}

// typedResult is a union member returned by mutations. Success members carry
// their own fields; error members carry a message.
type typedResult struct {
	Typename string `json:"__typename"`
	Message  string `json:"message"`
}

// payloadError converts an error member of a mutation result union into a
// RegistryError that carries the member as its single raw error.
func payloadError(op string, raw json.RawMessage) error {
	var tr typedResult
	if err := json.Unmarshal(raw, &tr); err != nil {
		return &driven.RegistryError{Operation: op, StatusCode: http.StatusOK, Message: "unexpected response shape: " + err.Error()}
	}
	msg := tr.Message
	if msg == "" {
		msg = tr.Typename
	}
	if msg == "" {
		msg = "unexpected result"
	}
	return &driven.RegistryError{
		Operation:  op,
		StatusCode: http.StatusOK,
		Message:    msg,
		Errors:     []json.RawMessage{raw},
	}
}
