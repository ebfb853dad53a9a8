package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds environment configuration for the client.
type Config struct {
	// BackendURL is the base URL of the REST backend, e.g. https://localhost:7008.
	BackendURL string

	// BrokerURL is the websocket URL of the real-time hub, e.g. wss://localhost:7008/chatHub.
	BrokerURL string

	// StatePath is the sqlite file holding persisted client state (credential).
	StatePath string

	// AMQPURL enables audit/event publishing when set.
	AMQPURL      string
	AMQPExchange string

	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string

	Environment string

	// MetricsAddr is the debug listener serving prometheus metrics; empty disables it.
	MetricsAddr string
}

// Load reads configuration from a .env file if present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		BackendURL:   getEnv("BACKEND_URL", "https://localhost:7008"),
		BrokerURL:    getEnv("BROKER_URL", "wss://localhost:7008/chatHub"),
		StatePath:    getEnv("STATE_PATH", "chat-client.db"),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "chat_events"),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		Environment:  getEnv("ENVIRONMENT", "dev"),
		MetricsAddr:  getEnv("METRICS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
