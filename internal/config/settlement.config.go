package config

import (
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HTTPAddr     string
	RedisAddr    string
	RedisPass    string
	KafkaBrokers []string
	KafkaTopic   string

	GatewayBaseURL string
	GatewayAPIKey  string

	JWTSecret string

	// Settlement policy knobs
	EscrowHoldDays       int
	PlatformFeePercent   int64
	MinServicePrice      int64
	CreditExpiryDays     int
	ReleaseSweepMinutes  int
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8031"),
		RedisAddr:    getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:    getEnv("REDIS_PASS", ""),
		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", []string{"kafka:9092"}),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "settlement.events"),

		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", "https://api.payments.internal"),
		GatewayAPIKey:  getEnv("GATEWAY_API_KEY", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		EscrowHoldDays:      getEnvInt("ESCROW_HOLD_DAYS", 7),
		PlatformFeePercent:  int64(getEnvInt("PLATFORM_FEE_PERCENT", 5)),
		MinServicePrice:     int64(getEnvInt("MIN_SERVICE_PRICE", 10000)),
		CreditExpiryDays:    getEnvInt("CREDIT_EXPIRY_DAYS", 365),
		ReleaseSweepMinutes: getEnvInt("RELEASE_SWEEP_MINUTES", 60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		// Zero is meaningful (CREDIT_EXPIRY_DAYS=0 disables expiry);
		// only negatives fall back.
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}
	return def
}
