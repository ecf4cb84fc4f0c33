package iot_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/iot-pressure-service/pkg/db"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/iot/mocks"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

func GetMockIOTWithMemorySqliteDialector(t *testing.T, useMockIReading, useMockIAlert, useMockIToken bool) (
	*gomock.Controller,
	*iot.IOT,
	*mocks.MockIReading,
	*mocks.MockIAlert,
	*mocks.MockIToken,
) {
	ctrl := gomock.NewController(t)

	mockIReading := mocks.NewMockIReading(ctrl)
	mockIAlert := mocks.NewMockIAlert(ctrl)
	mockIToken := mocks.NewMockIToken(ctrl)
	dialector := db.UseMemorySqliteDialector()
	dbInstance := db.GetInstance(dialector) // ensure migrations
	iotInstance := &iot.IOT{Db: *dbInstance}

	readingService := iotInstance.GetIReading()
	if useMockIReading {
		readingService = mockIReading
	}

	alertService := iotInstance.GetIAlert()
	if useMockIAlert {
		alertService = mockIAlert
	}

	tokenService := iotInstance.GetIToken()
	if useMockIToken {
		tokenService = mockIToken
	}

	iotInstance.WithServices(iot.ServiceOpts{
		Reading: readingService,
		Alert:   alertService,
		Token:   tokenService,
	})

	return ctrl, iotInstance, mockIReading, mockIAlert, mockIToken
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

func insertReadings(t *testing.T, iotObj *iot.IOT, deviceID string, values []float64, statuses []string) []models.Reading {
	t.Helper()

	stored := make([]models.Reading, 0, len(values))
	for idx, v := range values {
		r, err := iotObj.Reading.InsertReading(context.Background(), &models.Reading{
			DeviceID:   deviceID,
			SensorType: models.SensorTypePressure,
			Value:      v,
			Estatus:    statuses[idx],
			Categoria:  models.CategoryIndustrial,
		})
		require.NoError(t, err)
		stored = append(stored, *r)
	}
	return stored
}

func seedToken(t *testing.T, iotObj *iot.IOT, token string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, iotObj.Db.Conn.Create(&models.APIToken{Token: token, ExpiresAt: expiresAt}).Error)
}
