package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type MqttConfig struct {
	Broker   string
	ClientID string
	User     string
	Pass     string
	Topic    string
}

type Config struct {
	DBType string
	DBPath string
	DBDSN  string

	HttpHostPort string
	GrpcHostPort string

	DefaultRate  float64
	DefaultBurst int

	Mqtt MqttConfig

	SeedToken string
}

// LoadConfig reads the service configuration from the environment. Callers
// are expected to have loaded .env already.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBType:       strings.TrimSpace(os.Getenv(EnvKeyIOTDBType)),
		DBPath:       strings.TrimSpace(os.Getenv(EnvKeyIOTDbPath)),
		DBDSN:        strings.TrimSpace(os.Getenv(EnvKeyIOTDbDSN)),
		HttpHostPort: strings.TrimSpace(os.Getenv(EnvKeyIOTHttpHostPort)),
		GrpcHostPort: strings.TrimSpace(os.Getenv(EnvKeyIOTGrpcHostPort)),
		Mqtt: MqttConfig{
			Broker:   strings.TrimSpace(os.Getenv(EnvKeyIOTMqttBroker)),
			ClientID: strings.TrimSpace(os.Getenv(EnvKeyIOTMqttClientID)),
			User:     os.Getenv(EnvKeyIOTMqttUser),
			Pass:     os.Getenv(EnvKeyIOTMqttPass),
			Topic:    strings.TrimSpace(os.Getenv(EnvKeyIOTMqttTopic)),
		},
		SeedToken: strings.TrimSpace(os.Getenv(EnvKeyIOTSeedToken)),
	}

	switch cfg.DBType {
	case "file", "memory":
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("%s must be set when %s=postgres", EnvKeyIOTDbDSN, EnvKeyIOTDBType)
		}
	default:
		return nil, fmt.Errorf("unknown %s: %q", EnvKeyIOTDBType, cfg.DBType)
	}

	if cfg.HttpHostPort == "" {
		// fallback to default http port
		cfg.HttpHostPort = DefaultHttpHostPort
	}

	if cfg.Mqtt.Topic == "" {
		cfg.Mqtt.Topic = DefaultMqttTopic
	}

	var err error
	if cfg.DefaultRate, err = strconv.ParseFloat(os.Getenv(EnvKeyIOTDefaultRate), 64); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a float64 value: %w", EnvKeyIOTDefaultRate, err)
	}

	var burst int64
	if burst, err = strconv.ParseInt(os.Getenv(EnvKeyIOTDefaultBurst), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid %s, should be an int value: %w", EnvKeyIOTDefaultBurst, err)
	}
	cfg.DefaultBurst = int(burst)

	return cfg, nil
}
