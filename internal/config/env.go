package config

import (
	"os"
	"strings"
)

func Development() bool {
	development, ok := os.LookupEnv("DEVELOPMENT")
	if !ok {
		return false
	}
	return development != "0"
}

// Port is the listen address of the HTTP server, ":8080" by default.
func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

// LogFile is an optional path that receives a rotated copy of the log.
func LogFile() string {
	return os.Getenv("LOG_FILE")
}

// SQLitePath is the location of the best-result cache, empty when disabled.
func SQLitePath() string {
	return os.Getenv("SQLITE_PATH")
}

// SolverFile is an optional YAML file with the solver defaults.
func SolverFile() string {
	return os.Getenv("FLATTEN_CONFIG")
}
