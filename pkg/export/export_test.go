package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

func sampleHistory() *History {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	readings := []models.Reading{
		{ID: 1, DeviceID: "ESP32_001", SensorType: "presion", Value: 100, Estatus: "Baja", Categoria: models.CategoryDomestico, CreatedAt: at},
		{ID: 2, DeviceID: "ESP32_001", SensorType: "presion", Value: 200, Estatus: "Normal", Categoria: models.CategoryDomestico, CreatedAt: at.Add(time.Minute)},
		{ID: 3, DeviceID: "ESP32_001", SensorType: "presion", Value: 300, Estatus: "Alta", Categoria: models.CategoryDomestico, CreatedAt: at.Add(2 * time.Minute)},
	}
	return &History{
		DeviceID:    "ESP32_001",
		GeneratedAt: at.Add(time.Hour),
		Readings:    readings,
		Trend: &iot.TrendReport{
			DeviceID: "ESP32_001",
			Readings: readings,
			Trend:    iot.FitTrend([]float64{100, 200, 300}),
		},
	}
}

func TestBuildHistoryXLSX(t *testing.T) {
	data, err := BuildHistoryXLSX(sampleHistory())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ReadingsSheet, TrendSheet}, f.GetSheetList())

	rows, err := f.GetRows(ReadingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, readingsHeader, rows[0])
	assert.Equal(t, []string{"3", "ESP32_001", "presion", "300", "Alta", "Doméstico", "2024-03-05 10:02:00"}, rows[3])

	slope, err := f.GetCellValue(TrendSheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "100", slope)

	fitted, err := f.GetCellValue(TrendSheet, "C11")
	require.NoError(t, err)
	assert.Equal(t, "300", fitted)
}

func TestBuildHistoryXLSX_NoTrend(t *testing.T) {
	h := sampleHistory()
	h.Readings = h.Readings[:1]
	h.Trend.Readings = h.Readings
	h.Trend.Trend = iot.FitTrend([]float64{100})

	data, err := BuildHistoryXLSX(h)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	msg, err := f.GetCellValue(TrendSheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Datos insuficientes para la tendencia", msg)
}

func TestBuild(t *testing.T) {
	data, err := Build(FormatPDF, sampleHistory())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	data, err = Build("", sampleHistory())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	_, err = Build("csv", sampleHistory())
	assert.ErrorIs(t, err, iot.ErrBadRequest)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 5, 23, 0, 0, 0, time.FixedZone("X", -3600))
	assert.Equal(t, "historial_ESP32_001_20240306.xlsx", FileName("ESP32_001", FormatXLSX, at))
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
}
