// Package config содержит логику чтения конфигурации сервиса каршеринга.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress = "localhost:8080"
	sessionIDParam    = "session_id={CHECKOUT_SESSION_ID}"
)

// Config содержит параметры конфигурации сервиса каршеринга.
type Config struct {
	RunAddress        string `env:"RUN_ADDRESS"`
	DatabaseURI       string `env:"DATABASE_URI"`
	CheckoutSecretKey string `env:"CHECKOUT_SECRET_KEY"`

	CheckoutAPIURL     string `env:"CHECKOUT_API_URL"`
	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string `env:"CHECKOUT_CANCEL_URL"`
	CheckoutCurrency   string `env:"CHECKOUT_CURRENCY" envDefault:"usd"`

	JWTSecret string `env:"JWT_SECRET"`
	RedisAddr string `env:"REDIS_ADDR"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`
	TelegramAPIURL   string `env:"TELEGRAM_API_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"carsharing-notifications"`

	// ReconcileInterval задаёт период фоновой сверки неоплаченных платежей, 0 отключает сверку.
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"0s"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCheckoutKey := cfg.CheckoutSecretKey

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CheckoutSecretKey, "k", "", "checkout provider secret key")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCheckoutKey != "" {
		cfg.CheckoutSecretKey = envCheckoutKey
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.CheckoutSuccessURL == "" {
		cfg.CheckoutSuccessURL = fmt.Sprintf("http://%s/api/payments/success?%s", cfg.RunAddress, sessionIDParam)
	}
	if cfg.CheckoutCancelURL == "" {
		cfg.CheckoutCancelURL = fmt.Sprintf("http://%s/api/payments/cancel?%s", cfg.RunAddress, sessionIDParam)
	}
	if cfg.ReconcileInterval < 0 {
		return nil, fmt.Errorf("reconcile interval must not be negative: %s", cfg.ReconcileInterval)
	}

	return cfg, nil
}
