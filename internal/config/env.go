package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"marketadmin/internal/utils"
)

// Data source modes.
const (
	SourceAPI   = "api"
	SourceMySQL = "mysql"
)

type Env struct {
	AppAddr string
	GinMode string

	JWTSecret string

	DataSource      string
	UpstreamBaseURL string
	UpstreamToken   string
	UpstreamTimeout time.Duration
	DBDSN           string

	ScreenIdleTTL  time.Duration
	ResourcesFile  string
	AllowedOrigins []string
}

// LoadEnv reads the process environment, after merging a .env file when
// one exists in the working directory.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: failed to read .env: %v", err)
	}

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	source := strings.ToLower(strings.TrimSpace(os.Getenv("DATA_SOURCE")))
	if source != SourceMySQL {
		source = SourceAPI
	}

	upstream := strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "/")
	if upstream == "" {
		upstream = "http://localhost:3000"
	}

	return Env{
		AppAddr:         appAddr,
		GinMode:         strings.TrimSpace(os.Getenv("GIN_MODE")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		DataSource:      source,
		UpstreamBaseURL: upstream,
		UpstreamToken:   strings.TrimSpace(os.Getenv("UPSTREAM_TOKEN")),
		UpstreamTimeout: durationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
		DBDSN:           strings.TrimSpace(os.Getenv("DB_DSN")),
		ScreenIdleTTL:   durationEnv("SCREEN_IDLE_TTL", 30*time.Minute),
		ResourcesFile:   strings.TrimSpace(os.Getenv("RESOURCES_FILE")),
		AllowedOrigins:  listEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}
}

// durationEnv accepts Go durations ("90s") or plain seconds ("90").
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("warning: invalid %s=%q, using %s", key, raw, fallback)
	return fallback
}

func listEnv(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	return utils.SplitList(raw)
}
