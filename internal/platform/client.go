package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nkarimian/cardlab/internal/metrics"
)

// Client issues authenticated requests against the issuing platform's v3 REST
// API and normalizes success and error shapes.
//
// Outbound calls carry no explicit deadline beyond the transport default: the
// upstream contract is fire-to-completion, and callers cancel via ctx only.
type Client struct {
	baseURL    string
	appToken   string
	adminToken string
	httpClient *http.Client
	log        *zap.Logger
}

// Response is a normalized 2xx platform reply. Data defaults to an empty map
// when the body is empty or not parseable.
type Response struct {
	Status int
	Data   map[string]any
}

func New(baseURL, appToken, adminToken string, hc *http.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appToken:   appToken,
		adminToken: adminToken,
		httpClient: hc,
		log:        log,
	}
}

// Do sends one request. body is JSON-serialized when non-nil. Non-2xx statuses
// are returned as *UpstreamError with the parsed error payload.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.SetBasicAuth(c.appToken, c.adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Info("platform request", zap.String("method", method), zap.String("url", url))

	res, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("platform %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(method, strconv.Itoa(res.StatusCode)).Inc()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("platform %s %s: read response body: %w", method, path, err)
	}

	if res.StatusCode/100 != 2 {
		upErr := &UpstreamError{Status: res.StatusCode, raw: strings.TrimSpace(string(raw))}
		var payload map[string]any
		if json.Unmarshal(raw, &payload) == nil && payload != nil {
			upErr.Payload = payload
		} else {
			// some platform errors come back as a bare JSON string
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				upErr.raw = s
			}
		}
		return nil, upErr
	}

	data := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &data)
	}
	if data == nil { // body was JSON null
		data = map[string]any{}
	}

	return &Response{Status: res.StatusCode, Data: data}, nil
}

// Ping issues the lightweight connectivity probe used before a setup run.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Do(ctx, http.MethodGet, "/ping", nil); err != nil {
		return err
	}
	return nil
}
