// Package config resolves runtime settings for the coordination server
// and its adapter: environment variables with flag overrides for the
// connection/process settings, and YAML files for the data that gets
// seeded into the store on first boot (agent roster toggles, the quick
// action catalog, notification routing).
package config

import (
	"flag"
	"os"
	"strconv"
)

// AppConfig holds the environment/flag-driven settings devcoachd needs
// to start listening and talking to its store.
type AppConfig struct {
	MainPort   int
	HealthPort int
	MainHost   string
	DBPath     string
	DataDir    string
	AuthToken  string
	LogLevel   string
	LogFile    string
}

// Default returns the baseline configuration before flags or env vars
// are applied.
func Default() AppConfig {
	return AppConfig{
		MainPort:   8080,
		HealthPort: 8081,
		MainHost:   "localhost",
		DBPath:     "data/devcoach.db",
		DataDir:    "data",
		LogLevel:   "info",
	}
}

// Load resolves an AppConfig from environment variables, then lets
// command-line flags registered on fs override them. Call before
// fs.Parse(args) has run; Load parses fs itself.
func Load(fs *flag.FlagSet, args []string) (AppConfig, error) {
	cfg := Default()
	applyEnv(&cfg)

	mainPort := fs.Int("port", cfg.MainPort, "main server port")
	healthPort := fs.Int("health-port", cfg.HealthPort, "health check port")
	mainHost := fs.String("host", cfg.MainHost, "server bind host")
	dbPath := fs.String("db", cfg.DBPath, "sqlite database path")
	dataDir := fs.String("data-dir", cfg.DataDir, "data directory for filesystem checks and seeded config")
	authToken := fs.String("auth-token", cfg.AuthToken, "shared-secret token required on bus connections")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error (recorded only; log output is not filtered by it)")
	logFile := fs.String("log-file", cfg.LogFile, "optional file to tee logs into")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	cfg.MainPort = *mainPort
	cfg.HealthPort = *healthPort
	cfg.MainHost = *mainHost
	cfg.DBPath = *dbPath
	cfg.DataDir = *dataDir
	cfg.AuthToken = *authToken
	cfg.LogLevel = *logLevel
	cfg.LogFile = *logFile
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("MAIN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MainPort = n
		}
	}
	if v := os.Getenv("HEALTH_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HealthPort = n
		}
	}
	if v := os.Getenv("MAIN_HOST"); v != "" {
		cfg.MainHost = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}
