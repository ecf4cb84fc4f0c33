package grpc

import (
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
)

type ReadingServer struct {
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
}

func (s *ReadingServer) CheckDeviceLimiter(deviceID string) bool {
	return s.RateLimiterStore.Allow(deviceID)
}
