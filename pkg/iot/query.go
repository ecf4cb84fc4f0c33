package iot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

type QueryAction string

const (
	ActionSensorData   QueryAction = "sensor_data"
	ActionLatestData   QueryAction = "latest_data"
	ActionAlerts       QueryAction = "alerts"
	ActionDeviceStatus QueryAction = "device_status"
	ActionTrend        QueryAction = "trend"

	DefaultTrendLimit = 10
)

// DeviceStatus keeps the stored estatus and the live classification apart,
// they may disagree.
type DeviceStatus struct {
	Reading      models.Reading `json:"reading"`
	StoredStatus string         `json:"stored_status"`
	LiveStatus   string         `json:"live_status"`
	LiveClass    string         `json:"live_class"`
	LiveColor    string         `json:"live_color"`
	CategoryName string         `json:"category_name"`
}

type TrendReport struct {
	DeviceID string           `json:"device_id"`
	Readings []models.Reading `json:"readings"`
	Trend    Trend            `json:"trend"`
}

type queryHandler func(i *IOT, ctx context.Context, params QueryParams) (any, error)

// adding an action means adding an entry here, filtering stays in ReadingFilter
var queryHandlers = map[QueryAction]queryHandler{
	ActionSensorData:   (*IOT).querySensorData,
	ActionLatestData:   (*IOT).queryLatestData,
	ActionAlerts:       (*IOT).queryAlerts,
	ActionDeviceStatus: (*IOT).queryDeviceStatus,
	ActionTrend:        (*IOT).queryTrend,
}

func QueryActions() []string {
	actions := make([]string, 0, len(queryHandlers))
	for action := range queryHandlers {
		actions = append(actions, string(action))
	}
	slices.Sort(actions)
	return actions
}

// RunQuery dispatches a read-only query. Unknown actions fail with
// ErrBadRequest.
func (i *IOT) RunQuery(ctx context.Context, action string, params QueryParams) (any, error) {
	handler, ok := queryHandlers[QueryAction(action)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrBadRequest, action)
	}

	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTQuery),
	)
	logger.Debug("Running query", zap.String("action", action), zap.Reflect("params", params))

	return handler(i, ctx, params)
}

func (i *IOT) querySensorData(ctx context.Context, params QueryParams) (any, error) {
	filter, err := ParseReadingFilter(params, i.now())
	if err != nil {
		return nil, err
	}
	return i.Reading.ListReadings(ctx, filter)
}

func (i *IOT) queryLatestData(ctx context.Context, _ QueryParams) (any, error) {
	return i.Reading.LatestReadings(ctx)
}

func (i *IOT) queryAlerts(ctx context.Context, _ QueryParams) (any, error) {
	return i.Alert.GetAlerts(ctx)
}

func requireDeviceID(params QueryParams) (string, error) {
	deviceID := strings.TrimSpace(params.DeviceID)
	if deviceID == "" {
		return "", fmt.Errorf("%w: device_id is required", ErrBadRequest)
	}
	return deviceID, nil
}

func (i *IOT) queryDeviceStatus(ctx context.Context, params QueryParams) (any, error) {
	deviceID, err := requireDeviceID(params)
	if err != nil {
		return nil, err
	}

	readings, err := i.Reading.ListReadings(ctx, ReadingFilter{DeviceID: deviceID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no readings for device %q", ErrNotFound, deviceID)
	}

	latest := readings[0]
	live := Classify(latest.Value)
	return &DeviceStatus{
		Reading:      latest,
		StoredStatus: latest.Estatus,
		LiveStatus:   live.String(),
		LiveClass:    live.CSSClass(),
		LiveColor:    live.Color(),
		CategoryName: models.CategoryDisplayName(latest.Categoria),
	}, nil
}

func (i *IOT) queryTrend(ctx context.Context, params QueryParams) (any, error) {
	deviceID, err := requireDeviceID(params)
	if err != nil {
		return nil, err
	}

	limit, err := parseNonNegative("limit", params.Limit, DefaultTrendLimit)
	if err != nil {
		return nil, err
	}
	// zero means unlimited to the store, a trend always looks at a window
	if limit == 0 {
		limit = DefaultTrendLimit
	}

	history, err := i.Reading.DeviceHistory(ctx, deviceID, limit)
	if err != nil {
		return nil, err
	}

	return &TrendReport{
		DeviceID: deviceID,
		Readings: history,
		Trend:    FitTrend(common.Mapper(history, func(r models.Reading) float64 { return r.Value })),
	}, nil
}
