package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Masterminds/semver/v3"

	"texedit/pkg/textypes"
)

// ServerInfo describes the backend as reported by its root endpoint.
type ServerInfo struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// Info fetches the backend's self-description from the root endpoint.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building info request: %v", textypes.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", textypes.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading info response: %v", textypes.ErrNetwork, err)
	}

	var info ServerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: invalid info response: %v", textypes.ErrRemote, err)
	}
	return &info, nil
}

// CheckMinVersion verifies the reported backend version against a minimum
// semver constraint. An empty minimum accepts any backend; a backend that
// does not report a parseable version is rejected when a minimum is set.
func (info *ServerInfo) CheckMinVersion(minimum string) error {
	if minimum == "" {
		return nil
	}

	min, err := semver.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("invalid minimum backend version %q: %w", minimum, err)
	}

	reported, err := semver.NewVersion(info.Version)
	if err != nil {
		return fmt.Errorf("%w: backend reported unparseable version %q", textypes.ErrRemote, info.Version)
	}

	if reported.LessThan(min) {
		return fmt.Errorf("%w: backend version %s is older than required %s", textypes.ErrRemote, reported, min)
	}
	return nil
}
