package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	ReadingsSheet = "lecturas"
	TrendSheet    = "tendencia"

	timeLayout = "2006-01-02 15:04:05"
)

var readingsHeader = []string{"ID", "Dispositivo", "Sensor", "Presión (PSI)", "Estatus", "Categoría", "Fecha"}

// History is what one export contains: the filtered readings of a device and
// the trend over its most recent ones.
type History struct {
	DeviceID    string
	GeneratedAt time.Time
	Readings    []models.Reading
	Trend       *iot.TrendReport
}

func ContentType(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func FileName(deviceID, format string, at time.Time) string {
	return fmt.Sprintf("historial_%s_%s.%s", deviceID, at.UTC().Format("20060102"), format)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// BuildHistoryXLSX renders the readings sheet and the trend sheet.
func BuildHistoryXLSX(h *History) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReadingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(TrendSheet); err != nil {
		return nil, err
	}

	for idx, title := range readingsHeader {
		_ = f.SetCellValue(ReadingsSheet, cell(idx+1, 1), title)
	}
	for idx, r := range h.Readings {
		row := idx + 2
		_ = f.SetCellValue(ReadingsSheet, cell(1, row), r.ID)
		_ = f.SetCellValue(ReadingsSheet, cell(2, row), r.DeviceID)
		_ = f.SetCellValue(ReadingsSheet, cell(3, row), r.SensorType)
		_ = f.SetCellValue(ReadingsSheet, cell(4, row), r.Value)
		_ = f.SetCellValue(ReadingsSheet, cell(5, row), r.Estatus)
		_ = f.SetCellValue(ReadingsSheet, cell(6, row), models.CategoryDisplayName(r.Categoria))
		_ = f.SetCellValue(ReadingsSheet, cell(7, row), r.CreatedAt.UTC().Format(timeLayout))
	}

	_ = f.SetCellValue(TrendSheet, "A1", "Dispositivo")
	_ = f.SetCellValue(TrendSheet, "B1", h.DeviceID)
	_ = f.SetCellValue(TrendSheet, "A2", "Generado")
	_ = f.SetCellValue(TrendSheet, "B2", h.GeneratedAt.UTC().Format(timeLayout))

	if h.Trend == nil || h.Trend.Trend.IsEmpty() {
		_ = f.SetCellValue(TrendSheet, "A4", "Datos insuficientes para la tendencia")
	} else {
		trend := h.Trend.Trend
		_ = f.SetCellValue(TrendSheet, "A4", "Pendiente")
		_ = f.SetCellValue(TrendSheet, "B4", trend.Slope)
		_ = f.SetCellValue(TrendSheet, "A5", "Intercepto")
		_ = f.SetCellValue(TrendSheet, "B5", trend.Intercept)
		_ = f.SetCellValue(TrendSheet, "A6", "R²")
		_ = f.SetCellValue(TrendSheet, "B6", trend.RSquared)

		_ = f.SetCellValue(TrendSheet, "A8", "Fecha")
		_ = f.SetCellValue(TrendSheet, "B8", "Presión (PSI)")
		_ = f.SetCellValue(TrendSheet, "C8", "Tendencia")
		for idx, r := range h.Trend.Readings {
			row := idx + 9
			_ = f.SetCellValue(TrendSheet, cell(1, row), r.CreatedAt.UTC().Format(timeLayout))
			_ = f.SetCellValue(TrendSheet, cell(2, row), r.Value)
			_ = f.SetCellValue(TrendSheet, cell(3, row), trend.Points[idx])
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryPDF renders a printable summary: the trend and a readings table.
func BuildHistoryPDF(h *History) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(fmt.Sprintf("Historial de presión: %s", h.DeviceID)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generado: %s", h.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(6)

	if h.Trend != nil && !h.Trend.Trend.IsEmpty() {
		trend := h.Trend.Trend
		pdf.Cell(0, 6, tr(fmt.Sprintf("Tendencia: pendiente %.3f, intercepto %.3f, R² %.3f", trend.Slope, trend.Intercept, trend.RSquared)))
	} else {
		pdf.Cell(0, 6, "Datos insuficientes para la tendencia")
	}
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 6, "ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Fecha", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, tr("Presión (PSI)"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Estatus", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, tr("Categoría"), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, r := range h.Readings {
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", r.ID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, r.CreatedAt.UTC().Format(timeLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", r.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, tr(r.Estatus), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, tr(models.CategoryDisplayName(r.Categoria)), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Build(format string, h *History) ([]byte, error) {
	switch format {
	case "", FormatXLSX:
		return BuildHistoryXLSX(h)
	case FormatPDF:
		return BuildHistoryPDF(h)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", iot.ErrBadRequest, format)
	}
}
