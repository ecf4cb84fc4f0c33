package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/db"
	iotGrpc "liyu1981.xyz/iot-pressure-service/pkg/grpc"
	iotHttp "liyu1981.xyz/iot-pressure-service/pkg/http"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/metrics"
	"liyu1981.xyz/iot-pressure-service/pkg/mqtt"
)

const seedTokenTTL = 365 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	var dbInstance *db.DB
	switch cfg.DBType {
	case "file":
		dbInstance = db.GetInstance(db.UseSqliteDialector())
	case "memory":
		dbInstance = db.GetInstance(db.UseMemorySqliteDialector())
	case "postgres":
		dbInstance = db.GetInstance(db.UsePostgresDialector(cfg.DBDSN))
	}

	logger := common.GetLogger()

	if cfg.SeedToken != "" {
		if err := db.SeedToken(dbInstance.Conn, cfg.SeedToken, seedTokenTTL); err != nil {
			log.Fatalf("failed to seed api token: %v", err)
		}
		logger.Warn("Seeded development api token, do not use IOT_SEED_TOKEN in production")
	}

	metrics.Init()

	iotCore := iot.IOT{Db: *dbInstance}
	iotCore.WithDefaultServices()

	limiterConfig := zap.String("default_limiter",
		fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GrpcHostPort != "" {
		go func() {
			grpcServer := &iotGrpc.ReadingServer{
				Iot:              &iotCore,
				RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
			}
			s := grpc.NewServer(grpcServer.ServerOptions()...)
			iotGrpc.RegisterReadingServiceServer(s, grpcServer)
			logger.Info("gRPC server created with:", limiterConfig)

			listener, err := net.Listen("tcp", cfg.GrpcHostPort)
			if err != nil {
				log.Fatalf("failed to listen: %v", err)
			}

			logger.Info("start gRPC server on " + cfg.GrpcHostPort)
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	if cfg.Mqtt.Broker != "" {
		ingestor := mqtt.New(cfg.Mqtt, &iotCore,
			iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst))
		logger.Info("MQTT ingestor created with:", limiterConfig, zap.String("broker", cfg.Mqtt.Broker))
		// connect retries until the broker is up, do not hold the http server on it
		go func() {
			if err := ingestor.Start(ctx); err != nil {
				logger.Error("mqtt ingestor failed to start", zap.Error(err))
			}
		}()
		defer ingestor.Stop()
	}

	if !common.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	rs := &iotHttp.RestfulServer{
		Server:           gin.Default(),
		Iot:              &iotCore,
		RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
	}
	rs.Setup()
	logger.Info("http server created with:", limiterConfig)

	go func() {
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := rs.Server.Run(cfg.HttpHostPort); err != nil {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
}
