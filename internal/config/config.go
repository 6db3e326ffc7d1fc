package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                   int
	APIKey                 string
	LogLevel               string
	GeminiAPIKey           string
	GeminiModel            string
	ModelTimeoutSeconds    int
	CallbackURL            string
	CallbackTimeoutSeconds int
	CallbackMaxAttempts    int
	CallbackBackoffSeconds int
	NatsURL                string
	NatsToken              string
}

func Load() Config {
	return Config{
		Port:                   envInt("HONEYPOT_PORT", 8080),
		APIKey:                 envStr("HONEYPOT_API_KEY", ""),
		LogLevel:               envStr("LOG_LEVEL", "info"),
		GeminiAPIKey:           envStr("GEMINI_API_KEY", ""),
		GeminiModel:            envStr("GEMINI_MODEL_NAME", "gemini-2.5-flash"),
		ModelTimeoutSeconds:    envInt("MODEL_TIMEOUT_SECONDS", 30),
		CallbackURL:            envStr("CALLBACK_URL", "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"),
		CallbackTimeoutSeconds: envInt("CALLBACK_TIMEOUT_SECONDS", 5),
		CallbackMaxAttempts:    envInt("CALLBACK_MAX_ATTEMPTS", 4),
		CallbackBackoffSeconds: envInt("CALLBACK_BACKOFF_SECONDS", 2),
		NatsURL:                envStr("NATS_URL", ""),
		NatsToken:              envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
