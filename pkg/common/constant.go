package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTDbDSN  string = "IOT_DB_DSN"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyIOTMqttBroker   string = "IOT_MQTT_BROKER"
	EnvKeyIOTMqttClientID string = "IOT_MQTT_CLIENT_ID"
	EnvKeyIOTMqttUser     string = "IOT_MQTT_USER"
	EnvKeyIOTMqttPass     string = "IOT_MQTT_PASS"
	EnvKeyIOTMqttTopic    string = "IOT_MQTT_TOPIC"

	// only for local development, tokens are provisioned outside of this service
	EnvKeyIOTSeedToken string = "IOT_SEED_TOKEN"

	DefaultHttpHostPort string = ":1080"
	DefaultMqttTopic    string = "sensors/+/presion"

	LoggerNameIOTCore        string = "iot_core"
	LoggerNameRestfulServer  string = "restful_server"
	LoggerNameGrpcServer     string = "grpc_server"
	LoggerNameMqttIngestor   string = "mqtt_ingestor"
	LoggerNameDashboard      string = "dashboard"
	LoggerFieldIOTCategory   string = "category"
	LoggerCategoryIOTReading string = "reading"
	LoggerCategoryIOTAlert   string = "alert"
	LoggerCategoryIOTToken   string = "token"
	LoggerCategoryIOTQuery   string = "query"
)
