// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every tunable of the chat service.
type Config struct {
	Port          string
	StoreBackend  string // "sqlite" or "file"
	SQLitePath    string
	ChatFile      string
	JWTSecret     string
	AMQPURL       string
	AMQPExchange  string
	RedisAddr     string
	RedisChannel  string
	OTLPEndpoint  string
	Environment   string
	SweepInterval time.Duration
	DebugRoutes   bool
}

// Load reads configuration from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8083")
	v.SetDefault("CHAT_STORE", "sqlite")
	v.SetDefault("CHAT_SQLITE_PATH", "data/community.db")
	v.SetDefault("CHAT_FILE", "data/chat.json")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "community.events")
	v.SetDefault("CHAT_REDIS_ADDR", "")
	v.SetDefault("CHAT_REDIS_CHANNEL", "chat:events")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("CHAT_SWEEP_INTERVAL", "60s")
	v.SetDefault("DEBUG_ROUTES", false)

	return Config{
		Port:          v.GetString("PORT"),
		StoreBackend:  v.GetString("CHAT_STORE"),
		SQLitePath:    v.GetString("CHAT_SQLITE_PATH"),
		ChatFile:      v.GetString("CHAT_FILE"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		AMQPURL:       v.GetString("AMQP_URL"),
		AMQPExchange:  v.GetString("AMQP_EXCHANGE"),
		RedisAddr:     v.GetString("CHAT_REDIS_ADDR"),
		RedisChannel:  v.GetString("CHAT_REDIS_CHANNEL"),
		OTLPEndpoint:  v.GetString("OTLP_ENDPOINT"),
		Environment:   v.GetString("ENVIRONMENT"),
		SweepInterval: v.GetDuration("CHAT_SWEEP_INTERVAL"),
		DebugRoutes:   v.GetBool("DEBUG_ROUTES"),
	}
}
