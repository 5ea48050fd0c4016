package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
)

// config is read from GOBLADE_* variables, after .env has been loaded.
type config struct {
	BaseURL      string `env:"GOBLADE_BASE_URL,default=http://localhost:5320"`
	ClientID     string `env:"GOBLADE_CLIENT_ID,default=saber"`
	ClientSecret string `env:"GOBLADE_CLIENT_SECRET,default=saber_secret"`
	TenantID     string `env:"GOBLADE_TENANT_ID,default=000000"`
	PublicKey    string `env:"GOBLADE_SM2_PUBLIC_KEY"`
	SessionFile  string `env:"GOBLADE_SESSION_FILE"`
	LogLevel     string `env:"GOBLADE_LOG_LEVEL,default=info"`

	MockAddr          string   `env:"GOBLADE_MOCK_ADDR,default=:5320"`
	RedisAddr         string   `env:"GOBLADE_REDIS_ADDR"`
	SM2PrivateKey     string   `env:"GOBLADE_SM2_PRIVATE_KEY"`
	StrictCredentials bool     `env:"GOBLADE_STRICT,default=false"`
	AllowedOrigins    []string `env:"GOBLADE_CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func loadConfig(ctx context.Context) (config, error) {
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return config{}, err
	}
	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return config{}, fmt.Errorf("locate config dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(dir, "goblade", "session.json")
	}
	return cfg, nil
}
