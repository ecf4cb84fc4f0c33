package grpc

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/metrics"
)

const authorizationKey = "authorization"

func methodSet(methods []string) map[string]bool {
	return common.Reducer(methods,
		func(m map[string]bool, method string) map[string]bool {
			m[method] = true
			return m
		},
		map[string]bool{},
	)
}

// CreateAuthInterceptor requires a valid bearer token in the authorization
// metadata for the given methods.
func (s *ReadingServer) CreateAuthInterceptor(targetMethods []string) grpc.UnaryServerInterceptor {
	targets := methodSet(targetMethods)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !targets[info.FullMethod] {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(authorizationKey); len(values) > 0 {
				header = values[0]
			}
		}

		token, err := iot.ParseBearerToken(header)
		if err == nil {
			err = s.Iot.Token.Authenticate(ctx, token)
		}
		if err != nil {
			if info.FullMethod == PostReadingMethod {
				metrics.ObserveIngest(metrics.TransportGRPC, metrics.ResultRejected, time.Now())
			}
			return nil, toStatus(err)
		}

		return handler(ctx, req)
	}
}

// CreateRateLimitInterceptor throttles the given methods by the device_id
// field of the request.
func (s *ReadingServer) CreateRateLimitInterceptor(targetMethods []string) grpc.UnaryServerInterceptor {
	targets := methodSet(targetMethods)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if targets[info.FullMethod] {
			if r, ok := req.(*structpb.Struct); ok {
				deviceID := strings.TrimSpace(r.GetFields()["device_id"].GetStringValue())
				if !s.CheckDeviceLimiter(deviceID) {
					metrics.ObserveIngest(metrics.TransportGRPC, metrics.ResultRateLimited, time.Now())
					return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
				}
			}
		}

		return handler(ctx, req)
	}
}

// ServerOptions wires authentication before rate limiting.
func (s *ReadingServer) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			s.CreateAuthInterceptor([]string{PostReadingMethod, PostLimiterMethod}),
			s.CreateRateLimitInterceptor([]string{PostReadingMethod}),
		),
	}
}
