package iot_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
	_ "liyu1981.xyz/iot-pressure-service/pkg/testing"
)

func TestDeriveAlerts(t *testing.T) {
	readAt := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	now := readAt.Add(time.Hour)

	latest := []models.Reading{
		{ID: 1, DeviceID: "ESP32_001", Value: 10, Estatus: "Muy Baja", CreatedAt: readAt},
		{ID: 2, DeviceID: "ESP32_002", Value: 100, Estatus: "Baja", CreatedAt: readAt},
		{ID: 3, DeviceID: "ESP32_003", Value: 200, Estatus: "Normal", CreatedAt: readAt},
		{ID: 4, DeviceID: "ESP32_004", Value: 280, Estatus: "Alta", CreatedAt: readAt},
		{ID: 5, DeviceID: "ESP32_005", Value: 500, Estatus: "Muy Alta", CreatedAt: readAt},
	}

	alerts := iot.DeriveAlerts(latest, now)
	require.Len(t, alerts, 4)

	assert.Equal(t, "ESP32_001 - Presión Muy Baja", alerts[0].Title)
	assert.Equal(t, models.AlertTypeCritical, alerts[0].Type)
	assert.Equal(t, "ESP32_004 - Presión Alta", alerts[1].Title)
	assert.Equal(t, models.AlertTypeWarning, alerts[1].Type)
	assert.Equal(t, "ESP32_005 - Presión Muy Alta", alerts[2].Title)
	assert.Equal(t, models.AlertTypeCritical, alerts[2].Type)

	for idx, alert := range alerts[:3] {
		assert.Equal(t, idx+1, alert.ID)
		assert.True(t, readAt.Equal(alert.Time))
	}

	system := alerts[3]
	assert.Equal(t, 4, system.ID)
	assert.Equal(t, "Sistema Actualizado", system.Title)
	assert.Equal(t, models.AlertTypeInfo, system.Type)
	assert.True(t, now.Equal(system.Time))
}

func TestDeriveAlerts_NoDevices(t *testing.T) {
	now := time.Now()
	alerts := iot.DeriveAlerts(nil, now)
	require.Len(t, alerts, 1)
	assert.Equal(t, 1, alerts[0].ID)
	assert.Equal(t, models.AlertTypeInfo, alerts[0].Type)
}

func TestIsAlertable(t *testing.T) {
	assert.True(t, iot.IsAlertable("Muy Baja"))
	assert.True(t, iot.IsAlertable("Alta"))
	assert.True(t, iot.IsAlertable("Muy Alta"))
	assert.False(t, iot.IsAlertable("Baja"))
	assert.False(t, iot.IsAlertable("Normal"))
	assert.False(t, iot.IsAlertable(""))
}

func TestGetAlerts_WithMockReading(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, iotObj, mockIReading, _, _ := GetMockIOTWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	iotObj.Now = func() time.Time { return now }

	mockIReading.EXPECT().
		LatestReadings(gomock.Any()).
		Return([]models.Reading{
			{DeviceID: "A", Estatus: "Muy Alta", CreatedAt: now.Add(-time.Minute)},
			{DeviceID: "B", Estatus: "Normal", CreatedAt: now.Add(-time.Minute)},
		}, nil).
		Times(1)

	alerts, err := iotObj.Alert.GetAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "A - Presión Muy Alta", alerts[0].Title)
	assert.True(t, now.Equal(alerts[1].Time))
}

func TestGetAlerts_StoreFailure(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, iotObj, mockIReading, _, _ := GetMockIOTWithMemorySqliteDialector(t, true, false, false)
	defer ctrl.Finish()

	mockIReading.EXPECT().
		LatestReadings(gomock.Any()).
		Return(nil, errors.Join(iot.ErrStoreFailure, errors.New("disk I/O error"))).
		Times(1)

	_, err := iotObj.Alert.GetAlerts(context.Background())
	assert.ErrorIs(t, err, iot.ErrStoreFailure)
}

func TestGetAlerts_Logs(t *testing.T) {
	ctrl, iotObj, _, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	common.SetTestLoggerNop()
	insertReadings(t, iotObj, uuid.NewString(), []float64{500}, []string{"Muy Alta"})

	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zapcore.DebugLevel)
	defer common.SetTestLoggerNop()

	alerts, err := iotObj.Alert.GetAlerts(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(alerts), 2)

	logs := ParseLogs(&buf)
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]any)
	assert.Equal(t, "Derived alerts", entry["msg"])
	assert.Equal(t, common.LoggerCategoryIOTAlert, entry[common.LoggerFieldIOTCategory])
	assert.EqualValues(t, len(alerts), entry["alerts"])
}
