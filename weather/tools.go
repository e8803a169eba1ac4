package weather

import (
	"context"
	"errors"

	"wxmcp/logx"
	"wxmcp/server"
)

// User-facing messages. Fetch failures collapse to these; the underlying
// cause goes to the debug log only.
const (
	msgBadState       = "Please provide a 2-letter US state/territory code (e.g., CA, NY)."
	msgAlertsFailed   = "Unable to fetch alerts or invalid response."
	msgBadCoordinates = "Invalid latitude/longitude."
	msgPointsFailed   = "Unable to resolve grid forecast URL for this location."
	msgForecastFailed = "Unable to fetch forecast periods."

	alertsToolName      = "get_alerts"
	forecastToolName    = "get_forecast"
	alertsDescription   = "Get active weather alerts for a US state (e.g., CA, NY)."
	forecastDescription = "Get a short forecast for a location by lat/lon (first ~4 periods)."
)

// AlertsArgs are the arguments of the get_alerts tool.
type AlertsArgs struct {
	State string `json:"state" jsonschema_description:"2-letter US state/territory code"`
}

// ForecastArgs are the arguments of the get_forecast tool.
type ForecastArgs struct {
	Latitude  float64 `json:"latitude" jsonschema_description:"Latitude in decimal degrees"`
	Longitude float64 `json:"longitude" jsonschema_description:"Longitude in decimal degrees"`
}

// Tools adapts a Client into tool handlers. Handlers never fail the tool
// call; every failure mode maps to a fixed message in the result text.
type Tools struct {
	nws    *Client
	logger logx.Logger
}

// NewTools wraps an NWS client for tool registration.
func NewTools(nws *Client, logger logx.Logger) *Tools {
	if logger == nil {
		logger = logx.NopLogger{}
	}
	return &Tools{nws: nws, logger: logger}
}

// GetAlerts implements the get_alerts tool.
func (t *Tools) GetAlerts(ctx context.Context, args AlertsArgs) (string, error) {
	if len(args.State) != 2 {
		return msgBadState, nil
	}
	text, err := t.nws.ActiveAlerts(ctx, args.State)
	if err != nil {
		t.logger.Debug("get_alerts: %v", err)
		return msgAlertsFailed, nil
	}
	return text, nil
}

// GetForecast implements the get_forecast tool.
func (t *Tools) GetForecast(ctx context.Context, args ForecastArgs) (string, error) {
	text, err := t.nws.Forecast(ctx, args.Latitude, args.Longitude)
	if err != nil {
		t.logger.Debug("get_forecast: %v", err)
		var fe *FetchError
		if errors.As(err, &fe) && fe.Step == "forecast" {
			return msgForecastFailed, nil
		}
		return msgPointsFailed, nil
	}
	return text, nil
}

// Register adds both weather tools to a registry.
func (t *Tools) Register(registry *server.Registry) error {
	if err := registry.Register(server.ToolDef{
		Name:        alertsToolName,
		Description: alertsDescription,
		InputSchema: server.GenerateSchema[AlertsArgs](),
		Handler:     server.TypedHandler(t.GetAlerts),
	}); err != nil {
		return err
	}
	return registry.Register(server.ToolDef{
		Name:        forecastToolName,
		Description: forecastDescription,
		InputSchema: server.GenerateSchema[ForecastArgs](),
		Handler:     t.handleForecast,
	})
}

// handleForecast decodes arguments by hand so that malformed coordinates
// surface as the fixed message rather than a decode error.
func (t *Tools) handleForecast(ctx context.Context, raw map[string]interface{}) (string, error) {
	var args ForecastArgs
	if err := server.DecodeArgs(raw, &args); err != nil {
		t.logger.Debug("get_forecast arguments rejected: %v", err)
		return msgBadCoordinates, nil
	}
	return t.GetForecast(ctx, args)
}
