// Package refdata fetches reference and market data for securities from the
// market-data bridge.
package refdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/trogers1052/oms-service/internal/metrics"
)

var (
	// ErrNotFound is returned when the bridge has no data for a security
	ErrNotFound = errors.New("reference data not found")
	// ErrUnavailable is returned when the bridge cannot be reached or fails
	ErrUnavailable = errors.New("reference data unavailable")
)

// Fetcher retrieves raw field values for a set of securities
type Fetcher interface {
	Fetch(ctx context.Context, securities, fields []string) ([]SecurityData, error)
}

// Request is the body sent to the bridge
type Request struct {
	Securities []string `json:"securities"`
	Fields     []string `json:"fields"`
}

// Response is the body returned by the bridge
type Response struct {
	SecurityData []SecurityData `json:"securityData"`
}

// SecurityData holds the field values returned for one security. Values are
// kept as the bridge's text representation.
type SecurityData struct {
	Security  string            `json:"security"`
	FieldData map[string]string `json:"fieldData"`
	Error     string            `json:"error,omitempty"`
}

// UnmarshalJSON accepts field values sent as strings or bare numbers
func (s *SecurityData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Security  string                     `json:"security"`
		FieldData map[string]json.RawMessage `json:"fieldData"`
		Error     string                     `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Security = raw.Security
	s.Error = raw.Error
	s.FieldData = make(map[string]string, len(raw.FieldData))
	for field, value := range raw.FieldData {
		text := strings.TrimSpace(string(value))
		if text == "" || text == "null" {
			continue
		}
		var str string
		if err := json.Unmarshal(value, &str); err == nil {
			s.FieldData[field] = str
			continue
		}
		s.FieldData[field] = text
	}
	return nil
}

// Client talks to the market-data bridge over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new bridge client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("component", "refdata").Logger(),
	}
}

// Fetch requests the given fields for the given securities
func (c *Client) Fetch(ctx context.Context, securities, fields []string) ([]SecurityData, error) {
	start := time.Now()
	defer func() {
		metrics.RefDataRequestDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(Request{Securities: securities, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/refdata", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().
		Strs("securities", securities).
		Int("fields", len(fields)).
		Msg("Making reference data request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: bridge status %d, body: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}

	return out.SecurityData, nil
}
