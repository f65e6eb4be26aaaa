// Package config carrega a configuração da API a partir do ambiente e de um
// arquivo .env opcional.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Modos de verificação do token bearer.
const (
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// ErrInvalidConfig agrupa todas as combinações de configuração recusadas.
var ErrInvalidConfig = errors.New("configuração inválida")

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	LogLevel       slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"./sqlite-database.db"`

	AuthMode        string `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSecret       string `env:"JWT_SECRET"`
	JWTAudience     string `env:"JWT_AUDIENCE" envDefault:"authenticated"`
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`

	ExpirySweepSchedule string        `env:"EXPIRY_SWEEP_SCHEDULE" envDefault:"@every 5m"`
	ExpirySweepTimeout  time.Duration `env:"EXPIRY_SWEEP_TIMEOUT" envDefault:"30s"`

	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// Load lê o .env do diretório atual, se existir, e depois o ambiente.
// Variáveis já definidas no ambiente têm precedência sobre o arquivo.
func Load() (Config, error) {
	// O .env é opcional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("erro ao ler variáveis de ambiente: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate recusa combinações que impediriam a API de subir corretamente.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("%w: DB_DRIVER %q não suportado", ErrInvalidConfig, c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL vazio", ErrInvalidConfig)
	}

	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("%w: JWT_SECRET é obrigatório com AUTH_MODE=jwt", ErrInvalidConfig)
		}
	case AuthModeRemote:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("%w: SUPABASE_URL e SUPABASE_ANON_KEY são obrigatórios com AUTH_MODE=remote", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: AUTH_MODE %q não suportado", ErrInvalidConfig, c.AuthMode)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT deve ser positivo", ErrInvalidConfig)
	}
	if c.ExpirySweepTimeout <= 0 {
		return fmt.Errorf("%w: EXPIRY_SWEEP_TIMEOUT deve ser positivo", ErrInvalidConfig)
	}
	return nil
}

// Addr devolve o endereço de escuta do servidor HTTP.
func (c Config) Addr() string {
	return ":" + c.Port
}

// WebhooksEnabled indica se a rota do Stripe deve ser registrada.
func (c Config) WebhooksEnabled() bool {
	return c.StripeWebhookSecret != ""
}
