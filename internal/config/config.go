// Package config loads gateway configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hari87gxs/voice-agent-gateway/internal/errkind"
)

// Config holds the gateway's process-wide configuration, loaded once at
// startup and passed explicitly to every component that needs it.
type Config struct {
	Host string
	Port int

	CORSAllowedOrigins []string

	UpstreamRealtimeEndpoint string
	UpstreamAPIKey           string
	UpstreamDeploymentName   string

	EmbeddingEndpoint string
	EmbeddingAPIKey   string
	EmbeddingModel    string
	UseVectorStore    bool

	BackendAPIBase string

	PersonaConfigPath string
	CorpusPath        string
	VectorStoreDir    string

	UpstreamConnectTimeout time.Duration
	BackendCallTimeout     time.Duration

	LogLevel string
}

// Load reads configuration from the environment, applying the defaults
// documented in spec.md §6.
func Load() *Config {
	return &Config{
		Host:                     getEnv("HOST", "0.0.0.0"),
		Port:                     getEnvInt("PORT", 8080),
		CORSAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		UpstreamRealtimeEndpoint: getEnv("UPSTREAM_REALTIME_ENDPOINT", ""),
		UpstreamAPIKey:           getEnv("UPSTREAM_API_KEY", ""),
		UpstreamDeploymentName:   getEnv("UPSTREAM_DEPLOYMENT_NAME", ""),
		EmbeddingEndpoint:        getEnv("EMBEDDING_ENDPOINT", ""),
		EmbeddingAPIKey:          getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:           getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		UseVectorStore:           getEnvBool("USE_VECTOR_STORE", true),
		BackendAPIBase:           getEnv("BACKEND_API_BASE", "http://localhost:9090"),
		PersonaConfigPath:        getEnv("PERSONA_CONFIG_PATH", "internal/persona/config/personas.json"),
		CorpusPath:               getEnv("CORPUS_PATH", "internal/retrieval/testdata/corpus.txt"),
		VectorStoreDir:           getEnv("VECTOR_STORE_DIR", "./chroma_db"),
		UpstreamConnectTimeout:   time.Duration(getEnvInt("UPSTREAM_CONNECT_TIMEOUT_MS", 10000)) * time.Millisecond,
		BackendCallTimeout:       time.Duration(getEnvInt("BACKEND_CALL_TIMEOUT_MS", 5000)) * time.Millisecond,
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
	}
}

// Validate fails fast on missing required settings, matching the C1
// contract: "a missing required field fails fast with a configuration
// error kind."
func (c *Config) Validate() error {
	switch {
	case c.UpstreamRealtimeEndpoint == "":
		return errkind.Newf(errkind.ConfigInvalid, "UPSTREAM_REALTIME_ENDPOINT is required")
	case c.UpstreamAPIKey == "":
		return errkind.Newf(errkind.ConfigInvalid, "UPSTREAM_API_KEY is required")
	case c.BackendAPIBase == "":
		return errkind.Newf(errkind.ConfigInvalid, "BACKEND_API_BASE is required")
	case c.UseVectorStore && c.EmbeddingEndpoint == "":
		return errkind.Newf(errkind.ConfigInvalid, "EMBEDDING_ENDPOINT is required when USE_VECTOR_STORE is true")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitCSV(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
