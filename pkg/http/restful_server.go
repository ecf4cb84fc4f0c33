package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/metrics"
)

type RestfulServer struct {
	Server           *gin.Engine
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	return rs.RateLimiterStore.Allow(deviceID)
}

func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) bool {
	return rs.RateLimiterStore.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
}

// dashboards are served from anywhere, so any origin is accepted
func corsConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(cors.New(corsConfig()))
	rs.Server.Use(metrics.GinMiddleware())

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := rs.Server.Group("/api")
	{
		api.GET("", rs.Query)
		api.POST("/data", rs.PostData)
		api.POST("/limiter/:device_id", rs.PostLimiter)
		api.GET("/export", rs.Export)
	}
}
