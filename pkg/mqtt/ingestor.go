package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/metrics"
)

const (
	tokenField     = "token"
	deviceIDField  = "device_id"
	qos            = 1
	handleTimeout  = 5 * time.Second
	disconnectWait = 500
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Ingestor subscribes to sensors/<device_id>/presion and stores every valid
// message. The payload is the HTTP body plus a "token" field, device_id may
// be left out and is then taken from the topic.
type Ingestor struct {
	cfg     common.MqttConfig
	iot     *iot.IOT
	limiter *iot.RateLimiterStore
	client  pahomqtt.Client
	logger  *zap.Logger
}

func New(cfg common.MqttConfig, iotCore *iot.IOT, limiter *iot.RateLimiterStore) *Ingestor {
	if cfg.ClientID == "" {
		cfg.ClientID = "pressure-ingestor-" + uuid.NewString()[:8]
	}
	if cfg.Topic == "" {
		cfg.Topic = common.DefaultMqttTopic
	}
	return &Ingestor{
		cfg:     cfg,
		iot:     iotCore,
		limiter: limiter,
		logger:  common.GetLoggerWith(common.LoggerNameMqttIngestor),
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	opts := pahomqtt.NewClientOptions().
		AddBroker(i.cfg.Broker).
		SetClientID(i.cfg.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if i.cfg.User != "" {
		opts.SetUsername(i.cfg.User)
		opts.SetPassword(i.cfg.Pass)
	}

	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		i.logger.Error("MQTT connection lost", zap.Error(err))
	}
	opts.OnConnect = func(c pahomqtt.Client) {
		i.logger.Info("MQTT connected, subscribing to topic", zap.String("topic", i.cfg.Topic))
		if token := c.Subscribe(i.cfg.Topic, qos, i.onMessage(ctx)); token.Wait() && token.Error() != nil {
			i.logger.Error("Failed to subscribe to MQTT topic", zap.String("topic", i.cfg.Topic), zap.Error(token.Error()))
		}
	}

	i.client = pahomqtt.NewClient(opts)
	if tk := i.client.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}
	return nil
}

func (i *Ingestor) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(disconnectWait)
	}
}

func (i *Ingestor) IsConnected() bool {
	return i.client != nil && i.client.IsConnected()
}

func (i *Ingestor) onMessage(ctx context.Context) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, m pahomqtt.Message) {
		msgCtx, cancel := context.WithTimeout(ctx, handleTimeout)
		defer cancel()

		if err := i.HandleMessage(msgCtx, m.Topic(), m.Payload()); err != nil {
			i.logger.Warn("Dropped MQTT message", zap.String("topic", m.Topic()), zap.Error(err))
		}
	}
}

// deviceFromTopic expects sensors/<device_id>/<sensor_type>.
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// HandleMessage runs the same steps as the HTTP ingestion: token, body,
// limiter, insert. Messages are never retried.
func (i *Ingestor) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	started := time.Now()

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		metrics.ObserveIngest(metrics.TransportMQTT, metrics.ResultRejected, started)
		return fmt.Errorf("%w: invalid JSON: %v", iot.ErrBadRequest, err)
	}

	token, _ := body[tokenField].(string)
	delete(body, tokenField)
	if err := i.iot.Token.Authenticate(ctx, token); err != nil {
		metrics.ObserveIngest(metrics.TransportMQTT, metrics.ResultRejected, started)
		return err
	}

	if _, ok := body[deviceIDField]; !ok {
		body[deviceIDField] = deviceFromTopic(topic)
	}

	input, issues := iot.ParseReadingInput(body)
	if issues != nil {
		metrics.ObserveIngest(metrics.TransportMQTT, metrics.ResultRejected, started)
		return fmt.Errorf("%w: validation error: %v", iot.ErrBadRequest, issues)
	}

	if !i.limiter.Allow(input.DeviceID) {
		metrics.ObserveIngest(metrics.TransportMQTT, metrics.ResultRateLimited, started)
		return fmt.Errorf("%w: device %s", ErrRateLimited, input.DeviceID)
	}

	stored, err := i.iot.Reading.InsertReading(ctx, input.Reading())
	if err != nil {
		metrics.ObserveIngest(metrics.TransportMQTT, metrics.ResultError, started)
		return err
	}

	metrics.ObserveIngest(metrics.TransportMQTT, metrics.ResultSuccess, started)
	i.logger.Debug("Stored MQTT reading", zap.String("topic", topic), zap.Uint("id", stored.ID))
	return nil
}
