package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDatabase means neither DATABASE_URL nor the POSTGRES_* variables are
// set. Callers treat it as "run without persistence".
var ErrNoDatabase = errors.New("database is not configured")

type Database struct {
	Username string
	Password string
	Host     string
	Port     uint16
	DBName   string
	SSLMode  string
}

func loadPassword() (string, error) {
	if password, ok := os.LookupEnv("POSTGRES_PASSWORD"); ok {
		return password, nil
	}
	passwordFile, ok := os.LookupEnv("POSTGRES_PASSWORD_FILE")
	if !ok {
		return "", fmt.Errorf("no POSTGRES_PASSWORD or POSTGRES_PASSWORD_FILE env variable set")
	}
	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", fmt.Errorf("unable to read from password file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func NewDatabase() (*Database, error) {
	host, ok := os.LookupEnv("POSTGRES_HOST")
	if !ok {
		return nil, ErrNoDatabase
	}

	required := map[string]string{}
	for _, key := range []string{"POSTGRES_USER", "POSTGRES_DB"} {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil, fmt.Errorf("no %s env variable set", key)
		}
		required[key] = v
	}

	password, err := loadPassword()
	if err != nil {
		return nil, fmt.Errorf("unable to load password: %w", err)
	}

	port := 5432
	if portStr, ok := os.LookupEnv("POSTGRES_PORT"); ok {
		if port, err = strconv.Atoi(portStr); err != nil {
			return nil, fmt.Errorf("unable to convert port to int: %w", err)
		}
	}

	sslMode, ok := os.LookupEnv("POSTGRES_SSLMODE")
	if !ok {
		sslMode = "disable"
	}

	return &Database{
		Username: required["POSTGRES_USER"],
		Password: password,
		Host:     host,
		Port:     uint16(port),
		DBName:   required["POSTGRES_DB"],
		SSLMode:  sslMode,
	}, nil
}

func (c Database) URL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// DbURL prefers DATABASE_URL and falls back to the POSTGRES_* variables.
func DbURL() (string, error) {
	if dbURL, ok := os.LookupEnv("DATABASE_URL"); ok {
		return dbURL, nil
	}
	cfg, err := NewDatabase()
	if err != nil {
		return "", err
	}
	return cfg.URL(), nil
}

func NewPgxpoolConfig() (*pgxpool.Config, error) {
	dbURL, err := DbURL()
	if err != nil {
		return nil, err
	}
	return pgxpool.ParseConfig(dbURL)
}
