// Package homeassistant is the boundary to the Home Assistant hub: a
// REST client for the flat endpoints plus the template-execution
// translator that expresses the richer area/label/device queries.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guidomitolo/my-home-assistant/internal/httpkit"
)

// ErrNotFound reports that the hub answered 404 for a lookup. It keeps
// "doesn't exist" distinguishable from "couldn't ask" for callers.
var ErrNotFound = errors.New("not found")

// maxResponseBytes caps how much of a hub response is read. A full
// state snapshot on a large installation runs to a few MiB; 32 MiB
// leaves ample headroom without risking unbounded reads.
const maxResponseBytes = 32 << 20

// Client talks to the Home Assistant REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a hub client. baseURL points at the API root
// (e.g. http://homeassistant.local:8123/api); token is the long-lived
// bearer token. One client is shared by all calls for connection reuse.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(30*time.Second),
			httpkit.WithRetry(3, 2*time.Second),
			httpkit.WithLogger(logger),
		),
		logger: logger,
	}
}

// Get performs a GET against an API endpoint and returns the raw body.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req, endpoint)
}

// Post performs a POST with a JSON body and returns the raw response body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
	}

	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		httpkit.DrainAndClose(resp.Body, 4096)
		return nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("API error %d on %s: %s", resp.StatusCode, endpoint, body)
	}

	// The body is returned as-is: the template endpoint can legitimately
	// produce non-JSON text, so decoding is the caller's decision.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}
	return json.RawMessage(body), nil
}

// RenderTemplate executes a template on the hub's generic template
// endpoint and returns the decoded result. The hub frequently returns
// the rendered JSON double-encoded as a JSON string; a second decode
// pass unwraps that. A rendering that is not machine-parseable at all
// comes back as its raw text.
func (c *Client) RenderTemplate(ctx context.Context, source string) (any, error) {
	raw, err := c.Post(ctx, "template", map[string]string{"template": source})
	if err != nil {
		return nil, err
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		// Not JSON at all: surface the raw text.
		return string(raw), nil
	}

	if s, ok := result.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return inner, nil
		}
		return s, nil
	}
	return result, nil
}

// GetState fetches a single entity state. Returns ErrNotFound (wrapped)
// when the entity does not exist.
func (c *Client) GetState(ctx context.Context, entityID string) (json.RawMessage, error) {
	return c.Get(ctx, "states/"+entityID, nil)
}

// GetStates fetches the full state snapshot for every entity.
func (c *Client) GetStates(ctx context.Context) (json.RawMessage, error) {
	return c.Get(ctx, "states", nil)
}

// GetHistory fetches the history-by-period endpoint for one entity.
// start, when non-empty, selects the period start and must already be
// validated; the hub applies its own last-24-hours default otherwise.
// The minimal_response and significant_changes_only flags keep the
// payload small; attributes then only appear on the first record.
func (c *Client) GetHistory(ctx context.Context, entityID, start, end string) (json.RawMessage, error) {
	endpoint := "history/period"
	if start != "" {
		endpoint += "/" + url.PathEscape(start)
	}

	params := url.Values{}
	params.Set("filter_entity_id", entityID)
	params.Set("minimal_response", "")
	params.Set("significant_changes_only", "")
	if end != "" {
		params.Set("end_time", end)
	}

	return c.Get(ctx, endpoint, params)
}

// CallService invokes a hub service (e.g. light/turn_on) and returns
// the raw response, which the hub defines as the list of states that
// changed during the call.
func (c *Client) CallService(ctx context.Context, domain, action string, data map[string]any) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("services/%s/%s", domain, action)
	return c.Post(ctx, endpoint, data)
}
