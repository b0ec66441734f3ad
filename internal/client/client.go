// Package client provides the HTTP request client for the TexEdit backend.
// It performs single request/response exchanges with per-request deadlines
// and classifies failures into the engine's error taxonomy: transport
// failures surface as textypes.ErrNetwork, while received-but-bad responses
// (non-2xx, unparsable JSON, or an application "error" field) surface as
// textypes.ErrRemote.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"texedit/internal/config"
	"texedit/internal/logger"
	"texedit/pkg/textypes"
)

const userAgent = "TexEdit-Client"

// Client issues timed, abortable exchanges against the backend. It is used
// by both the connectivity monitor (health probes, shortest timeout) and the
// dispatcher (command execution, longer timeout).
type Client struct {
	baseURL        string
	httpClient     *http.Client
	probeTimeout   time.Duration
	requestTimeout time.Duration
	log            *log.Logger
}

// New creates a client from the given configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.ServerURL,
		// Per-exchange deadlines come from request contexts, not the
		// shared transport.
		httpClient:     &http.Client{},
		probeTimeout:   cfg.ProbeTimeout,
		requestTimeout: cfg.RequestTimeout,
		log:            logger.NewStyledLogger("Client"),
	}
}

// Health performs one lightweight health probe. Any 2xx response counts as
// healthy; the body is not inspected. Every other outcome, including the
// probe timeout, is returned as a network error.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: building health probe: %v", textypes.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", textypes.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health endpoint returned %s", textypes.ErrNetwork, resp.Status)
	}
	return nil
}

// Post sends a JSON payload to the given endpoint and decodes the JSON
// response body. Exactly one outcome is produced per call: either the decoded
// object or a classified error.
func (c *Client) Post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	requestID := uuid.NewString()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request payload: %v", textypes.ErrValidation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", textypes.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("Sending request", "request_id", requestID, "endpoint", endpoint, "timeout", c.requestTimeout.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("Request failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %v", textypes.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", textypes.ErrNetwork, err)
	}

	c.log.Debug("Response received", "request_id", requestID, "status", resp.StatusCode, "body_length", len(raw))

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response: %v", textypes.ErrRemote, err)
	}

	// An error field anywhere in the response marks failure, even on a
	// 2xx status.
	if msg, found := findErrorField(decoded); found {
		return nil, fmt.Errorf("%w: %s", textypes.ErrRemote, msg)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: backend returned %s", textypes.ErrRemote, resp.Status)
	}

	return decoded, nil
}

// findErrorField walks the decoded response looking for an "error" entry,
// including inside nested objects.
func findErrorField(obj map[string]any) (string, bool) {
	if v, ok := obj["error"]; ok {
		return fmt.Sprintf("%v", v), true
	}
	for _, v := range obj {
		if nested, ok := v.(map[string]any); ok {
			if msg, found := findErrorField(nested); found {
				return msg, true
			}
		}
	}
	return "", false
}

// Search performs a fuzzy-search request against the backend, used for
// remote suggestion enrichment. choices is the candidate pool.
func (c *Client) Search(ctx context.Context, query string, choices []string) ([]string, error) {
	payload := map[string]any{
		"query":   query,
		"choices": choices,
	}

	response, err := c.Post(ctx, "/api/search", payload)
	if err != nil {
		return nil, err
	}

	rawResults, ok := response["results"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: search response missing results array", textypes.ErrRemote)
	}

	results := make([]string, 0, len(rawResults))
	for _, v := range rawResults {
		if s, ok := v.(string); ok {
			results = append(results, s)
		}
	}
	return results, nil
}
