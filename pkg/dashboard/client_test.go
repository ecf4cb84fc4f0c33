package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

func newTestAPI(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		switch q.Get("action") {
		case "latest_data":
			_ = json.NewEncoder(w).Encode(sampleLatest())
		case "alerts":
			_ = json.NewEncoder(w).Encode([]models.Alert{{ID: 1, Title: "Sistema Actualizado", Type: models.AlertTypeInfo}})
		case "device_status":
			if q.Get("device_id") == "" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"bad request: device_id is required"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(iot.DeviceStatus{StoredStatus: "Alta", LiveStatus: "Muy Alta"})
		case "trend":
			assert.Equal(t, "5", q.Get("limit"))
			_ = json.NewEncoder(w).Encode(iot.TrendReport{DeviceID: q.Get("device_id"), Trend: iot.FitTrend([]float64{1, 2})})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Acción no válida"}`))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient(t *testing.T) {
	server := newTestAPI(t)
	client := NewClient(server.URL + "/")
	ctx := context.Background()

	latest, err := client.LatestData(ctx)
	require.NoError(t, err)
	assert.Len(t, latest, 4)

	alerts, err := client.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeInfo, alerts[0].Type)

	status, err := client.DeviceStatus(ctx, "ESP32_001")
	require.NoError(t, err)
	assert.Equal(t, "Muy Alta", status.LiveStatus)

	report, err := client.Trend(ctx, "ESP32_001", 5)
	require.NoError(t, err)
	assert.Equal(t, "ESP32_001", report.DeviceID)
	assert.InDelta(t, 1.0, report.Trend.Slope, 1e-9)

	_, err = client.DeviceStatus(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_Unreachable(t *testing.T) {
	server := newTestAPI(t)
	client := NewClient(server.URL)
	server.Close()

	_, err := client.LatestData(context.Background())
	assert.Error(t, err)
}
