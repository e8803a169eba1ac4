// Package weather fetches active alerts and short forecasts from the National
// Weather Service API (api.weather.gov) and formats them as plain text for
// tool results.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the NWS API root.
	DefaultBaseURL = "https://api.weather.gov"

	// userAgent identifies this module to the NWS API, which rejects
	// anonymous clients.
	userAgent = "wxmcp-weather/1.0 (example)"

	requestTimeout = 30 * time.Second

	// forecastPeriods caps how many forecast periods are rendered.
	forecastPeriods = 4
)

// FetchError reports which step of an NWS exchange failed. The user-facing
// messages stay generic; the step and cause carry the detail for logs.
type FetchError struct {
	Step  string // "alerts", "points", or "forecast"
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s request to %s failed: %v", e.Step, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s request to %s returned an unusable response", e.Step, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Client talks to the NWS API. The zero value is not usable; construct with
// NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates an NWS API client with a 30 second request timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON fetches url and returns the body, which is guaranteed valid JSON.
func (c *Client) getJSON(ctx context.Context, step, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Step: step, URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Step: step, URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Step: step, URL: url, Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Step: step, URL: url, Cause: err}
	}
	if !gjson.ValidBytes(body) {
		return nil, &FetchError{Step: step, URL: url, Cause: fmt.Errorf("response is not valid JSON")}
	}
	return body, nil
}

// ActiveAlerts returns the active alerts for a state as formatted text blocks
// separated by "---" rules, or "No active alerts for this state." when there
// are none. state must already be a 2-letter code; it is upper-cased here.
func (c *Client) ActiveAlerts(ctx context.Context, state string) (string, error) {
	url := fmt.Sprintf("%s/alerts/active/area/%s", c.baseURL, strings.ToUpper(state))
	body, err := c.getJSON(ctx, "alerts", url)
	if err != nil {
		return "", err
	}

	features := gjson.GetBytes(body, "features")
	if !features.Exists() || !features.IsArray() {
		return "", &FetchError{Step: "alerts", URL: url}
	}
	items := features.Array()
	if len(items) == 0 {
		return "No active alerts for this state.", nil
	}

	blocks := make([]string, 0, len(items))
	for _, feature := range items {
		blocks = append(blocks, formatAlert(feature))
	}
	return strings.Join(blocks, "\n\n---\n\n"), nil
}

// formatAlert renders one alert feature as a five-line block.
func formatAlert(feature gjson.Result) string {
	props := feature.Get("properties")
	return fmt.Sprintf(
		"Event: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s",
		fieldOr(props, "event", "Unknown"),
		fieldOr(props, "areaDesc", "Unknown"),
		fieldOr(props, "severity", "Unknown"),
		fieldOr(props, "description", "No description available"),
		fieldOr(props, "instruction", "No specific instructions provided"),
	)
}

// Forecast resolves the grid forecast for a coordinate and returns the first
// few periods, one line each.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64) (string, error) {
	pointsURL := fmt.Sprintf("%s/points/%s,%s", c.baseURL, formatCoord(latitude), formatCoord(longitude))
	points, err := c.getJSON(ctx, "points", pointsURL)
	if err != nil {
		return "", err
	}
	forecastURL := gjson.GetBytes(points, "properties.forecast").String()
	if forecastURL == "" {
		return "", &FetchError{Step: "points", URL: pointsURL}
	}

	fc, err := c.getJSON(ctx, "forecast", forecastURL)
	if err != nil {
		return "", err
	}
	periods := gjson.GetBytes(fc, "properties.periods")
	if !periods.Exists() || !periods.IsArray() {
		return "", &FetchError{Step: "forecast", URL: forecastURL}
	}

	lines := make([]string, 0, forecastPeriods)
	for _, p := range periods.Array() {
		if len(lines) == forecastPeriods {
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s°%s) Wind %s",
			fieldOr(p, "name", "Period"),
			fieldOr(p, "shortForecast", "n/a"),
			fieldOr(p, "temperature", "n/a"),
			fieldOr(p, "temperatureUnit", ""),
			fieldOr(p, "windSpeed", ""),
		))
	}
	return strings.Join(lines, "\n"), nil
}

// fieldOr returns the string form of a field, or fallback when it is missing
// or null.
func fieldOr(obj gjson.Result, field, fallback string) string {
	v := obj.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return fallback
	}
	return v.String()
}

// formatCoord renders a coordinate without trailing zeros, the way it appears
// in NWS point URLs.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
