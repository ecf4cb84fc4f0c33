package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/metrics"
)

func logger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameGrpcServer)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, iot.ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, iot.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, iot.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts through JSON so results keep the same field names as on
// the HTTP API.
func toStruct(fields map[string]any) (*structpb.Struct, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return structpb.NewStruct(generic)
}

// stringField accepts both string and number values, query arguments such as
// limit arrive either way.
func stringField(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	default:
		return ""
	}
}

func (s *ReadingServer) PostReading(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	started := time.Now()

	input, issues := iot.ParseReadingInput(req.AsMap())
	if issues != nil {
		metrics.ObserveIngest(metrics.TransportGRPC, metrics.ResultRejected, started)
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", issues)
	}

	stored, err := s.Iot.Reading.InsertReading(ctx, input.Reading())
	if err != nil {
		metrics.ObserveIngest(metrics.TransportGRPC, metrics.ResultError, started)
		logger().Error("Failed to ingest reading", zap.String("device_id", input.DeviceID), zap.Error(err))
		return nil, toStatus(err)
	}

	metrics.ObserveIngest(metrics.TransportGRPC, metrics.ResultSuccess, started)
	return toStruct(map[string]any{
		"message": "Data stored successfully",
		"id":      stored.ID,
	})
}

func (s *ReadingServer) Query(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	started := time.Now()
	action := stringField(req, "action")
	// only known actions reach the metrics, the label set stays bounded
	if !slices.Contains(iot.QueryActions(), action) {
		return nil, status.Errorf(codes.InvalidArgument, "Acción no válida: %q", action)
	}

	result, err := s.Iot.RunQuery(ctx, action, iot.QueryParams{
		DeviceID: stringField(req, "device_id"),
		Date:     stringField(req, "date"),
		Status:   stringField(req, "status"),
		Limit:    stringField(req, "limit"),
		Offset:   stringField(req, "offset"),
	})
	if err != nil {
		metrics.ObserveQuery(action, metrics.ResultError, started)
		return nil, toStatus(err)
	}

	out, err := toStruct(map[string]any{"action": action, "result": result})
	if err != nil {
		metrics.ObserveQuery(action, metrics.ResultError, started)
		return nil, toStatus(fmt.Errorf("encoding %s result: %w", action, err))
	}

	metrics.ObserveQuery(action, metrics.ResultSuccess, started)
	return out, nil
}

type LimiterRequest struct {
	DeviceID string  `zog:"device_id"`
	Rate     float64 `zog:"rate"`
	Burst    int     `zog:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"DeviceID": z.String().Trim().Min(1).Required(),
	"Rate":     z.Float64().GTE(0).Required(),
	"Burst":    z.Int().GTE(0).Required(),
})

func (s *ReadingServer) PostLimiter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in LimiterRequest
	if issues := limiterRequestSchema.Parse(req.AsMap(), &in); issues != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", issues)
	}

	if s.RateLimiterStore == nil {
		return toStruct(map[string]any{"message": "RateLimiterStore is not used. No effect."})
	}

	s.RateLimiterStore.SetLimiter(in.DeviceID, rate.Limit(in.Rate), in.Burst)
	logger().Info("Updated device limiter",
		zap.String("device_id", in.DeviceID),
		zap.Float64("rate", in.Rate),
		zap.Int("burst", in.Burst),
	)
	return toStruct(map[string]any{"message": "OK"})
}
