package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/export"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
)

// Export streams the history of one device as a workbook (or a PDF with
// format=pdf). The usual date/status/limit/offset filters select the rows.
func (rs *RestfulServer) Export(c *gin.Context) {
	ctx := c.Request.Context()
	params := queryParams(c)
	params.DeviceID = strings.TrimSpace(params.DeviceID)
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == "" {
		format = export.FormatXLSX
	}

	if params.DeviceID == "" {
		abortWithError(c, fmt.Errorf("%w: device_id is required", iot.ErrBadRequest))
		return
	}

	filter, err := iot.ParseReadingFilter(params, time.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}

	readings, err := rs.Iot.Reading.ListReadings(ctx, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	trend, err := rs.Iot.RunQuery(ctx, string(iot.ActionTrend), iot.QueryParams{DeviceID: params.DeviceID})
	if err != nil {
		abortWithError(c, err)
		return
	}

	now := time.Now()
	data, err := export.Build(format, &export.History{
		DeviceID:    params.DeviceID,
		GeneratedAt: now,
		Readings:    readings,
		Trend:       trend.(*iot.TrendReport),
	})
	if err != nil {
		logger().Error("Failed to build export", zap.String("device_id", params.DeviceID), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(params.DeviceID, format, now)))
	c.Data(http.StatusOK, export.ContentType(format), data)
}
