package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxmcp/logx"
	"wxmcp/protocol"
	"wxmcp/server"
)

func newCountingTools(t *testing.T, handler http.HandlerFunc) (*Tools, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return NewTools(NewClient(WithBaseURL(ts.URL)), logx.NopLogger{}), &calls
}

func TestGetAlertsRejectsBadStateWithoutFetching(t *testing.T) {
	tools, calls := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features": []}`)
	})

	for _, state := range []string{"", "C", "CAL", "California"} {
		text, err := tools.GetAlerts(context.Background(), AlertsArgs{State: state})
		require.NoError(t, err)
		assert.Equal(t, "Please provide a 2-letter US state/territory code (e.g., CA, NY).", text)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestGetAlertsCollapsesFetchFailure(t *testing.T) {
	tools, _ := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	text, err := tools.GetAlerts(context.Background(), AlertsArgs{State: "CA"})
	require.NoError(t, err)
	assert.Equal(t, "Unable to fetch alerts or invalid response.", text)
}

func TestGetAlertsPassesThroughText(t *testing.T) {
	tools, _ := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features": []}`)
	})

	text, err := tools.GetAlerts(context.Background(), AlertsArgs{State: "CA"})
	require.NoError(t, err)
	assert.Equal(t, "No active alerts for this state.", text)
}

func TestGetForecastCollapsesPointsFailure(t *testing.T) {
	tools, _ := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties": {}}`)
	})

	text, err := tools.GetForecast(context.Background(), ForecastArgs{Latitude: 37.78, Longitude: -122.42})
	require.NoError(t, err)
	assert.Equal(t, "Unable to resolve grid forecast URL for this location.", text)
}

func TestGetForecastCollapsesForecastFailure(t *testing.T) {
	tools := NewTools(newForecastServer(t, `not json`), logx.NopLogger{})

	text, err := tools.GetForecast(context.Background(), ForecastArgs{Latitude: 37.78, Longitude: -122.42})
	require.NoError(t, err)
	assert.Equal(t, "Unable to fetch forecast periods.", text)
}

func TestHandleForecastRejectsMalformedCoordinates(t *testing.T) {
	tools, calls := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	text, err := tools.handleForecast(context.Background(), map[string]interface{}{
		"latitude":  "not-a-number",
		"longitude": -122.42,
	})
	require.NoError(t, err)
	assert.Equal(t, "Invalid latitude/longitude.", text)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestHandleForecastRejectsMissingCoordinates(t *testing.T) {
	tools, _ := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	text, err := tools.handleForecast(context.Background(), map[string]interface{}{
		"latitude": 37.78,
	})
	require.NoError(t, err)
	assert.Equal(t, "Invalid latitude/longitude.", text)
}

func TestRegisterExposesBothTools(t *testing.T) {
	tools, _ := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features": []}`)
	})

	registry := server.NewRegistry()
	require.NoError(t, tools.Register(registry))

	defs := registry.Tools()
	require.Len(t, defs, 2)
	assert.Equal(t, "get_alerts", defs[0].Name)
	assert.Equal(t, "get_forecast", defs[1].Name)
	assert.Contains(t, string(defs[0].InputSchema), `"state"`)
	assert.Contains(t, string(defs[1].InputSchema), `"latitude"`)
	assert.Contains(t, string(defs[1].InputSchema), `"longitude"`)
}

func TestDispatchGetAlertsThroughRegistry(t *testing.T) {
	tools, _ := newCountingTools(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features": []}`)
	})

	registry := server.NewRegistry()
	require.NoError(t, tools.Register(registry))

	result, err := registry.Dispatch(context.Background(), "get_alerts", map[string]interface{}{"state": "CA"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text := result.Content[0].(protocol.TextContent)
	assert.Equal(t, "No active alerts for this state.", text.Text)
}
