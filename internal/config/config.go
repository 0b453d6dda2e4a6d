// Package config содержит логику чтения конфигурации ритейл-сервиса nxtcomm.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации ритейл-сервиса nxtcomm.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN"`
}

// Parse считывает конфигурацию из .env-файла, переменных окружения
// и флагов командной строки. Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// .env — необязательный, его отсутствие не ошибка.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCORSOrigin := cfg.CORSAllowOrigin

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CORSAllowOrigin, "c", "*", "allowed CORS origin")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCORSOrigin != "" {
		cfg.CORSAllowOrigin = envCORSOrigin
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.CORSAllowOrigin == "" {
		cfg.CORSAllowOrigin = "*"
	}

	return cfg, nil
}
