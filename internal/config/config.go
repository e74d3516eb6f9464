package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Ledger modes
const (
	LedgerAlgod = "algod"
	LedgerLocal = "local"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string

	Store string
	DBDSN string

	LedgerMode        string
	AppID             uint64
	AlgodServer       string
	AlgodPort         string
	AlgodToken        string
	SignerMnemonic    string
	LedgerTimeout     time.Duration
	LedgerWaitRounds  uint64
	LedgerReadRetries uint64

	DataEncKey     string
	MaxUploadBytes int64

	ClaimTTL      time.Duration
	SweepInterval time.Duration

	TelegramToken  string
	TelegramChatID int64

	SentryDSN string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:    getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":3000"),
		Store:          strings.ToLower(getEnv("STORE", StorePostgres)),
		DBDSN:          os.Getenv("DB_DSN"),
		LedgerMode:     strings.ToLower(getEnv("LEDGER_MODE", LedgerAlgod)),
		AlgodServer:    getEnv("ALGOD_SERVER", "http://localhost"),
		AlgodPort:      os.Getenv("ALGOD_PORT"),
		AlgodToken:     os.Getenv("ALGOD_TOKEN"),
		SignerMnemonic: strings.TrimSpace(os.Getenv("SIGNER_MNEMONIC")),
		DataEncKey:     strings.TrimSpace(os.Getenv("DATA_ENC_KEY")),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
	}

	var errs []error
	parse := func(name string, fn func(string) error) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			if err == nil && *dst <= 0 {
				err = errors.New("must be positive")
			}
			return err
		}
	}
	unsigned := func(dst *uint64) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.ParseUint(v, 10, 64)
			return err
		}
	}

	cfg.LedgerTimeout = 15 * time.Second
	cfg.LedgerWaitRounds = 3
	cfg.LedgerReadRetries = 2
	cfg.MaxUploadBytes = 10 << 20
	cfg.ClaimTTL = 2 * time.Minute
	cfg.SweepInterval = time.Minute

	parse("APP_ID", unsigned(&cfg.AppID))
	parse("LEDGER_TIMEOUT", duration(&cfg.LedgerTimeout))
	parse("LEDGER_WAIT_ROUNDS", unsigned(&cfg.LedgerWaitRounds))
	parse("LEDGER_READ_RETRIES", unsigned(&cfg.LedgerReadRetries))
	parse("CLAIM_TTL", duration(&cfg.ClaimTTL))
	parse("SWEEP_INTERVAL", duration(&cfg.SweepInterval))
	parse("MAX_UPLOAD_BYTES", func(v string) (err error) {
		cfg.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64)
		if err == nil && cfg.MaxUploadBytes <= 0 {
			err = errors.New("must be positive")
		}
		return err
	})
	parse("TELEGRAM_CHAT_ID", func(v string) (err error) {
		cfg.TelegramChatID, err = strconv.ParseInt(v, 10, 64)
		return err
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded: env=%s store=%s ledger=%s\n", cfg.Environment, cfg.Store, cfg.LedgerMode)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE must be %s or %s, got %q", StorePostgres, StoreMemory, c.Store)
	}

	switch c.LedgerMode {
	case LedgerAlgod:
		if c.AppID == 0 {
			return fmt.Errorf("APP_ID is required for LEDGER_MODE=algod")
		}
		if c.SignerMnemonic == "" {
			return fmt.Errorf("SIGNER_MNEMONIC is required for LEDGER_MODE=algod")
		}
	case LedgerLocal:
	default:
		return fmt.Errorf("LEDGER_MODE must be %s or %s, got %q", LedgerAlgod, LedgerLocal, c.LedgerMode)
	}

	// Захват заявки должен пережить вызов леджера
	if c.ClaimTTL <= c.LedgerTimeout {
		return fmt.Errorf("CLAIM_TTL (%s) must exceed LEDGER_TIMEOUT (%s)", c.ClaimTTL, c.LedgerTimeout)
	}

	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// AlgodAddress returns ALGOD_SERVER with ALGOD_PORT appended when set
func (c *Config) AlgodAddress() string {
	if c.AlgodPort == "" {
		return c.AlgodServer
	}
	return strings.TrimRight(c.AlgodServer, "/") + ":" + c.AlgodPort
}

// NotificationsEnabled reports whether Telegram delivery is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
