package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from
// environment variables.
type Config struct {
	Env      string
	HTTPAddr string

	// StoreMode selects the persistence backend: "mongo" or "memory".
	StoreMode string
	MongoURI  string
	MongoDB   string

	// ImageMode selects attachment storage: "local" or "s3".
	ImageMode string
	UploadDir string

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool

	KafkaBrokers    []string
	KafkaEventTopic string

	ShutdownTimeout time.Duration

	FixturesPath string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StoreMode:        strings.ToLower(getEnv("STORE_MODE", "memory")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "tradehub"),
		ImageMode:        strings.ToLower(getEnv("IMAGE_MODE", "local")),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads/messages"),
		S3Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "tradehub-message-images"),
		KafkaEventTopic:  getEnv("KAFKA_EVENT_TOPIC", "tradehub.messages"),
		FixturesPath:     getEnv("FIXTURES_PATH", ""),
	}

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	shutdown, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout = shutdown

	switch cfg.StoreMode {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_MODE %q", cfg.StoreMode)
	}

	switch cfg.ImageMode {
	case "local", "s3":
	default:
		return Config{}, fmt.Errorf("invalid IMAGE_MODE %q", cfg.ImageMode)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
