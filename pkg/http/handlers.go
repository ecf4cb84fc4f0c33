package http

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/metrics"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

func logger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameRestfulServer)
}

// authenticate writes the 401/500 response itself and reports whether the
// request may go on.
func (rs *RestfulServer) authenticate(c *gin.Context) bool {
	token, err := iot.ParseBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgMissingToken})
		return false
	}

	if err := rs.Iot.Token.Authenticate(c.Request.Context(), token); err != nil {
		if errors.Is(err, iot.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgInvalidToken})
		} else {
			abortWithError(c, err)
		}
		return false
	}
	return true
}

func (rs *RestfulServer) PostData(c *gin.Context) {
	started := time.Now()

	if !rs.authenticate(c) {
		metrics.ObserveIngest(metrics.TransportHTTP, metrics.ResultRejected, started)
		return
	}

	var req iot.ReadingInput
	if issues := iot.ReadingInputSchema.Parse(zhttp.Request(c.Request), &req); issues != nil {
		metrics.ObserveIngest(metrics.TransportHTTP, metrics.ResultRejected, started)
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSON, "issues": issues})
		return
	}

	if !rs.CheckDeviceLimiter(req.DeviceID) {
		metrics.ObserveIngest(metrics.TransportHTTP, metrics.ResultRateLimited, started)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": msgRateLimited})
		return
	}

	if _, err := rs.Iot.Reading.InsertReading(c.Request.Context(), req.Reading()); err != nil {
		metrics.ObserveIngest(metrics.TransportHTTP, metrics.ResultError, started)
		logger().Error("Failed to ingest reading", zap.String("device_id", req.DeviceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgStoreFailed})
		return
	}

	metrics.ObserveIngest(metrics.TransportHTTP, metrics.ResultSuccess, started)
	c.JSON(http.StatusOK, gin.H{"message": msgDataStored})
}

func queryParams(c *gin.Context) iot.QueryParams {
	return iot.QueryParams{
		DeviceID: c.Query("device_id"),
		Date:     c.Query("date"),
		Status:   c.Query("status"),
		Limit:    c.Query("limit"),
		Offset:   c.Query("offset"),
	}
}

func (rs *RestfulServer) Query(c *gin.Context) {
	started := time.Now()
	action := c.Query("action")

	if !slices.Contains(iot.QueryActions(), action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidAction})
		return
	}

	result, err := rs.Iot.RunQuery(c.Request.Context(), action, queryParams(c))
	if err != nil {
		metrics.ObserveQuery(action, metrics.ResultError, started)
		abortWithError(c, err)
		return
	}

	metrics.ObserveQuery(action, metrics.ResultSuccess, started)
	c.JSON(http.StatusOK, result)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().GTE(0).Required(),
	"burst": z.Int().GTE(0).Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("device_id")

	if !rs.authenticate(c) {
		return
	}

	var req LimiterRequest
	if issues := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); issues != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSON, "issues": issues})
		return
	}

	if !rs.SetLimiter(deviceID, req.Rate, req.Burst) {
		c.JSON(http.StatusOK, gin.H{"message": msgLimiterNoEffect})
		return
	}

	logger().Info("Updated device limiter",
		zap.String("device_id", deviceID),
		zap.Float64("rate", req.Rate),
		zap.Int("burst", req.Burst),
	)
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
