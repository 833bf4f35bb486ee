package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr                string
	Environment         string
	BackendURL          string
	CollaboratorTimeout time.Duration
	SessionTTL          time.Duration
	SweepInterval       time.Duration
	LogLevel            string
	LogFormat           string
	KafkaBrokers        []string
	AuditTopic          string
	AuditStoreCapacity  int
}

// IsDevelopment reports whether the process runs with development defaults.
func (s Server) IsDevelopment() bool {
	return s.Environment == "development"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getenv("POLICYWRITER_ADDR", ":8080"),
		Environment: getenv("ENVIRONMENT", "development"),
		BackendURL:  strings.TrimRight(getenv("POLICY_BACKEND_URL", "http://localhost:8000"), "/"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getenv("LOG_FORMAT", "json")),
		AuditTopic:  getenv("AUDIT_TOPIC", "policywriter.audit"),
	}

	var err error
	if cfg.CollaboratorTimeout, err = duration("COLLABORATOR_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.SessionTTL, err = duration("SESSION_TTL", 2*time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.SweepInterval, err = duration("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		return Server{}, err
	}

	if cfg.AuditStoreCapacity, err = positiveInt("AUDIT_STORE_CAPACITY", 10000); err != nil {
		return Server{}, err
	}

	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Server{}, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return n, nil
}
