package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	iotGrpc "liyu1981.xyz/iot-pressure-service/pkg/grpc"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

var (
	maxDevices   = flag.Int("devices", 200, "number of simulated devices")
	rounds       = flag.Int("rounds", 5, "readings posted per device")
	httpHostPort = flag.String("http", "127.0.0.1:1080", "http host:port")
	grpcHostPort = flag.String("grpc", "", "grpc host:port, empty to skip grpc")
	mqttBroker   = flag.String("mqtt", "", "mqtt broker url, empty to skip mqtt")
	token        = flag.String("token", "", "api token")
)

var categories = []string{
	models.CategoryAutomotriz,
	models.CategoryDomestico,
	models.CategoryIndustrial,
	models.CategoryRefrigeracion,
}

var (
	rnd   = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMu sync.Mutex
)

type transport func(deviceID, category string, value float64) error

func main() {
	flag.Parse()
	if *token == "" {
		log.Fatal("-token is required")
	}

	deviceIDs := make([]string, *maxDevices)
	for i := 0; i < *maxDevices; i++ {
		deviceIDs[i] = "SIM_" + strings.ToUpper(uuid.NewString()[:8])
	}
	fmt.Printf("generated %v device IDs\n", *maxDevices)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", *httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}
	fmt.Printf("http server verified\n")

	transports := []transport{postHTTP}

	if *grpcHostPort != "" {
		conn, err := grpc.NewClient(*grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			log.Fatal("Failed to connect to gRPC server:", err)
		}
		defer conn.Close()
		transports = append(transports, postGRPC(iotGrpc.NewReadingServiceClient(conn)))
		fmt.Printf("gRPC client created\n")
	}

	if *mqttBroker != "" {
		client := pahomqtt.NewClient(pahomqtt.NewClientOptions().
			AddBroker(*mqttBroker).
			SetClientID("pressure-simulator-" + uuid.NewString()[:8]))
		if tk := client.Connect(); tk.Wait() && tk.Error() != nil {
			log.Fatal("Failed to connect to MQTT broker:", tk.Error())
		}
		defer client.Disconnect(250)
		transports = append(transports, publishMQTT(client))
		fmt.Printf("mqtt broker connected\n")
	}

	var failed atomic.Int64
	startTime := time.Now()
	wg := sync.WaitGroup{}
	for i := 0; i < *maxDevices; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			failed.Add(simulateDevice(deviceIDs[i], categories[i%len(categories)], transports))
		}()
	}
	wg.Wait()
	usedTime := time.Since(startTime)

	total := *maxDevices * *rounds
	fmt.Printf(
		"\rposted %v readings (%v failed): used time=%v seconds, throughput=%v readings/second\n",
		total, failed.Load(), usedTime.Seconds(), float64(total)/usedTime.Seconds(),
	)
}

func rndInt(n int) int {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Intn(n)
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

// simulateDevice drifts around a base pressure so every band shows up.
func simulateDevice(deviceID, category string, transports []transport) int64 {
	var failed int64
	value := rndFloat64(10, iot.PressureGaugeMax-80, 1)
	for _i := 0; _i < *rounds; _i++ {
		value = math.Max(0, math.Min(iot.PressureGaugeMax, value+rndFloat64(-40, 40, 1)))
		send := transports[rndInt(len(transports))]
		if err := send(deviceID, category, value); err != nil {
			fmt.Printf("\nerror: %v\n", err)
			failed++
		}
		time.Sleep(time.Duration(100+rndInt(500)) * time.Millisecond)
	}
	return failed
}

func payload(deviceID, category string, value float64) map[string]any {
	return map[string]any{
		"device_id":   deviceID,
		"sensor_type": models.SensorTypePressure,
		"value":       value,
		"estatus":     iot.Classify(value).String(),
		"categoria":   category,
	}
}

func postHTTP(deviceID, category string, value float64) error {
	jsonData, _ := json.Marshal(payload(deviceID, category, value))
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/data", *httpHostPort), bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+*token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %s: status %d", deviceID, resp.StatusCode)
	}
	return nil
}

func postGRPC(client *iotGrpc.ReadingServiceClient) transport {
	return func(deviceID, category string, value float64) error {
		req, err := structpb.NewStruct(payload(deviceID, category, value))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+*token)
		_, err = client.PostReading(ctx, req)
		return err
	}
}

func publishMQTT(client pahomqtt.Client) transport {
	return func(deviceID, category string, value float64) error {
		body := payload(deviceID, category, value)
		body["token"] = *token
		jsonData, _ := json.Marshal(body)
		tk := client.Publish(fmt.Sprintf("sensors/%s/presion", deviceID), 1, false, jsonData)
		tk.Wait()
		return tk.Error()
	}
}
