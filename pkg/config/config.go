package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"
)

type Config struct {
	Port    string
	GinMode string

	FirebaseProjectID   string
	FirebaseCredentials string

	// FirestoreEmulatorHost is read by the Firestore SDK itself; kept for logging
	FirestoreEmulatorHost string

	AuthMode  string
	JWTSecret string

	DatabaseURL    string
	AuditRetention time.Duration
	PubSubTopic    string

	ProjectListCap int
	MessageListCap int

	LogLevel    string
	CORSOrigins []string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		GinMode:               getEnv("GIN_MODE", "debug"),
		FirebaseProjectID:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials:   getEnv("FIREBASE_CREDENTIALS", ""),
		FirestoreEmulatorHost: getEnv("FIRESTORE_EMULATOR_HOST", ""),
		AuthMode:              strings.ToLower(getEnv("AUTH_MODE", AuthModeFirebase)),
		JWTSecret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		AuditRetention:        getEnvDuration("AUDIT_RETENTION", 90*24*time.Hour),
		PubSubTopic:           topicName(getEnv("PUBSUB_TOPIC", "")),
		ProjectListCap:        getEnvInt("PROJECT_LIST_CAP", 50),
		MessageListCap:        getEnvInt("MESSAGE_LIST_CAP", 100),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// topicName accepts either a short topic name or a full projects/<p>/topics/<t> resource name
func topicName(topic string) string {
	if parts := strings.Split(topic, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return topic
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
