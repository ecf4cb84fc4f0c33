package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/db"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
	_ "liyu1981.xyz/iot-pressure-service/pkg/testing"

	"liyu1981.xyz/iot-pressure-service/pkg/iot/mocks"
)

const bufSize = 1024 * 1024

func startServer(t *testing.T, iotCore *iot.IOT, limiter *iot.RateLimiterStore) *ReadingServiceClient {
	listener := bufconn.Listen(bufSize)

	readingServer := &ReadingServer{Iot: iotCore, RateLimiterStore: limiter}
	server := grpc.NewServer(readingServer.ServerOptions()...)
	RegisterReadingServiceServer(server, readingServer)

	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewReadingServiceClient(conn)
}

func newIOTCore() *iot.IOT {
	iotCore := &iot.IOT{
		Db: *db.GetInstance(db.UseMemorySqliteDialector()),
	}
	return iotCore.WithDefaultServices()
}

func startTestServer(t *testing.T) (*ReadingServiceClient, *iot.IOT) {
	iotCore := newIOTCore()
	return startServer(t, iotCore, nil), iotCore
}

func startTestServerWithMocks(t *testing.T) (*gomock.Controller, *ReadingServiceClient, *mocks.MockIReading, *mocks.MockIAlert) {
	ctrl := gomock.NewController(t)
	mockIReading := mocks.NewMockIReading(ctrl)
	mockIAlert := mocks.NewMockIAlert(ctrl)

	iotCore := newIOTCore()
	iotCore.WithServices(iot.ServiceOpts{Reading: mockIReading, Alert: mockIAlert})

	return ctrl, startServer(t, iotCore, nil), mockIReading, mockIAlert
}

func seedToken(t *testing.T, iotCore *iot.IOT) string {
	token := uuid.NewString()
	err := iotCore.Db.Conn.Create(&models.APIToken{Token: token, ExpiresAt: time.Now().Add(time.Hour)}).Error
	require.NoError(t, err)
	return token
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), authorizationKey, "Bearer "+token)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func readingStruct(t *testing.T, deviceID string, value float64, estatus string) *structpb.Struct {
	return mustStruct(t, map[string]any{
		"device_id":   deviceID,
		"sensor_type": "presion",
		"value":       value,
		"estatus":     estatus,
		"categoria":   "refrigeracion",
	})
}

func TestPostReadingAndQuery(t *testing.T) {
	common.SetTestLoggerNop()
	client, iotCore := startTestServer(t)
	token := seedToken(t, iotCore)

	deviceID := uuid.NewString()

	for _, v := range []float64{20, 280} {
		resp, err := client.PostReading(withToken(token), readingStruct(t, deviceID, v, iot.Classify(v).String()))
		require.NoError(t, err)
		assert.Equal(t, "Data stored successfully", resp.GetFields()["message"].GetStringValue())
		assert.NotZero(t, resp.GetFields()["id"].GetNumberValue())
	}

	{
		resp, err := client.Query(context.Background(), mustStruct(t, map[string]any{
			"action":    "sensor_data",
			"device_id": deviceID,
			"limit":     1.0,
		}))
		require.NoError(t, err)
		rows := resp.GetFields()["result"].GetListValue().GetValues()
		require.Len(t, rows, 1)
		row := rows[0].GetStructValue().GetFields()
		assert.Equal(t, 280.0, row["value"].GetNumberValue())
		assert.Equal(t, "Alta", row["estatus"].GetStringValue())
		assert.Equal(t, deviceID, row["device_id"].GetStringValue())
	}

	{
		resp, err := client.Query(context.Background(), mustStruct(t, map[string]any{"action": "alerts"}))
		require.NoError(t, err)
		alerts := resp.GetFields()["result"].GetListValue().GetValues()
		require.NotEmpty(t, alerts)

		found := false
		for _, a := range alerts {
			if a.GetStructValue().GetFields()["title"].GetStringValue() == deviceID+" - Presión Alta" {
				found = true
				assert.Equal(t, "warning", a.GetStructValue().GetFields()["type"].GetStringValue())
			}
		}
		assert.True(t, found, "expected an Alta alert for the device")
	}

	{
		resp, err := client.Query(context.Background(), mustStruct(t, map[string]any{
			"action":    "trend",
			"device_id": deviceID,
		}))
		require.NoError(t, err)
		trend := resp.GetFields()["result"].GetStructValue().GetFields()["trend"].GetStructValue().GetFields()
		assert.InDelta(t, 260.0, trend["slope"].GetNumberValue(), 1e-9)
	}
}

func TestPostReading_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()
	client, iotCore := startTestServer(t)
	token := seedToken(t, iotCore)

	{
		// no metadata at all
		_, err := client.PostReading(context.Background(), readingStruct(t, uuid.NewString(), 100, "Baja"))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	}

	{
		_, err := client.PostReading(withToken(uuid.NewString()), readingStruct(t, uuid.NewString(), 100, "Baja"))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	}

	{
		// empty device_id will fail validation
		_, err := client.PostReading(withToken(token), readingStruct(t, "", 100, "Baja"))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, status.Convert(err).Message(), "validation error")
	}

	{
		// missing value will fail validation
		_, err := client.PostReading(withToken(token), mustStruct(t, map[string]any{"device_id": uuid.NewString()}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}
}

func TestPostReading_StoreFailure(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, client, mockIReading, _ := startTestServerWithMocks(t)
	defer ctrl.Finish()

	token := uuid.NewString()
	require.NoError(t, db.GetInstance(db.UseMemorySqliteDialector()).Conn.
		Create(&models.APIToken{Token: token, ExpiresAt: time.Now().Add(time.Hour)}).Error)

	mockIReading.EXPECT().
		InsertReading(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: test error", iot.ErrStoreFailure)).
		Times(1)

	_, err := client.PostReading(withToken(token), readingStruct(t, uuid.NewString(), 100, "Baja"))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "test error")
}

func TestQuery_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	{
		client, _ := startTestServer(t)

		_, err := client.Query(context.Background(), mustStruct(t, map[string]any{"action": "nope"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = client.Query(context.Background(), mustStruct(t, map[string]any{"action": "device_status"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = client.Query(context.Background(), mustStruct(t, map[string]any{
			"action":    "device_status",
			"device_id": uuid.NewString(),
		}))
		assert.Equal(t, codes.NotFound, status.Code(err))
	}

	{
		ctrl, client, _, mockIAlert := startTestServerWithMocks(t)
		defer ctrl.Finish()

		mockIAlert.EXPECT().
			GetAlerts(gomock.Any()).
			Return(nil, fmt.Errorf("test error")).
			Times(1)

		_, err := client.Query(context.Background(), mustStruct(t, map[string]any{"action": "alerts"}))
		assert.Equal(t, codes.Internal, status.Code(err))
	}
}

func TestRateLimitInterceptor(t *testing.T) {
	common.SetTestLoggerNop()

	iotCore := newIOTCore()
	client := startServer(t, iotCore, iot.NewRateLimiterStore(2, 2))
	token := seedToken(t, iotCore)
	deviceID := uuid.NewString()

	for i := 0; i < 3; i++ {
		_, err := client.PostReading(withToken(token), readingStruct(t, deviceID, 200, "Normal"))
		if i < 2 {
			require.NoError(t, err, "request %d should be allowed", i+1)
		} else {
			require.Equal(t, codes.ResourceExhausted, status.Code(err), "request %d should be rate limited", i+1)
		}
	}

	// queries are never limited
	_, err := client.Query(context.Background(), mustStruct(t, map[string]any{"action": "latest_data"}))
	require.NoError(t, err)

	resp, err := client.PostLimiter(withToken(token), mustStruct(t, map[string]any{
		"device_id": deviceID,
		"rate":      5.0,
		"burst":     5.0,
	}))
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.GetFields()["message"].GetStringValue())

	_, err = client.PostReading(withToken(token), readingStruct(t, deviceID, 200, "Normal"))
	require.NoError(t, err, "request after limiter reset should be allowed")
}

func TestPostLimiter_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	client, iotCore := startTestServer(t)
	token := seedToken(t, iotCore)
	deviceID := uuid.NewString()

	{
		_, err := client.PostLimiter(context.Background(), mustStruct(t, map[string]any{
			"device_id": deviceID, "rate": 3.0, "burst": 2.0,
		}))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	}

	{
		// empty rate or burst will fail validation
		_, err := client.PostLimiter(withToken(token), mustStruct(t, map[string]any{"device_id": deviceID}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}

	{
		// default there is no rate limiter so setting a rate has no effect
		resp, err := client.PostLimiter(withToken(token), mustStruct(t, map[string]any{
			"device_id": deviceID, "rate": 3.0, "burst": 2.0,
		}))
		require.NoError(t, err)
		assert.Contains(t, resp.GetFields()["message"].GetStringValue(), "No effect")
	}
}

func TestQuery_UnknownActionsDoNotAddSeries(t *testing.T) {
	common.SetTestLoggerNop()
	client, _ := startTestServer(t)

	_, err := client.Query(context.Background(), mustStruct(t, map[string]any{"action": "latest_data"}))
	require.NoError(t, err)

	before, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "pressure_query_total")
	require.NoError(t, err)

	for idx := 0; idx < 20; idx++ {
		_, err := client.Query(context.Background(), mustStruct(t, map[string]any{"action": fmt.Sprintf("junk-%d", idx)}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}

	after, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "pressure_query_total")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPostReading_RejectedTokenStoresNothing(t *testing.T) {
	common.SetTestLoggerNop()
	client, iotCore := startTestServer(t)

	expired := uuid.NewString()
	require.NoError(t, iotCore.Db.Conn.Create(&models.APIToken{Token: expired, ExpiresAt: time.Now().Add(-time.Minute)}).Error)

	contexts := map[string]context.Context{
		"absent":  context.Background(),
		"unknown": withToken(uuid.NewString()),
		"expired": withToken(expired),
	}
	for name, ctx := range contexts {
		deviceID := uuid.NewString()
		_, err := client.PostReading(ctx, readingStruct(t, deviceID, 100, "Baja"))
		assert.Equal(t, codes.Unauthenticated, status.Code(err), name)

		rows, err := iotCore.Reading.ListReadings(context.Background(), iot.ReadingFilter{DeviceID: deviceID})
		require.NoError(t, err)
		assert.Empty(t, rows, name)
	}
}

func TestRateLimitInterceptor_TrimsDeviceID(t *testing.T) {
	common.SetTestLoggerNop()

	iotCore := newIOTCore()
	client := startServer(t, iotCore, iot.NewRateLimiterStore(0, 1))
	token := seedToken(t, iotCore)
	deviceID := uuid.NewString()

	_, err := client.PostReading(withToken(token), readingStruct(t, deviceID, 200, "Normal"))
	require.NoError(t, err)

	// padding must not open a second bucket for the same device
	_, err = client.PostReading(withToken(token), readingStruct(t, "  "+deviceID+" ", 200, "Normal"))
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
