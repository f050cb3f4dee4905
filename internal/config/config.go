package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	// recipient phone number, E.164
	Recipient string

	// provider credentials
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioNumber     string
	GeniusToken      string
	BitlyToken       string

	// scheduler interval bounds (whole minutes)
	LowerBound int
	UpperBound int

	// supervisory poll cadence and delivery-status settle delay
	PollInterval time.Duration
	SettleDelay  time.Duration

	// web UI session keys, base64
	CookieHashKey  []byte
	CookieBlockKey []byte

	DevMode bool
}

func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr: envDefault("HTTP_ADDR", ":8080"),
		DevMode:  strings.TrimSpace(os.Getenv("DEV_MODE")) == "1",
	}

	var err error
	if cfg.DatabaseURL, err = mustEnv("DATABASE_URL"); err != nil {
		return Config{}, err
	}
	if cfg.Recipient, err = mustEnv("RECIPIENT"); err != nil {
		return Config{}, err
	}
	if cfg.TwilioAccountSID, err = mustEnv("TWILIO_ACCOUNT_SID"); err != nil {
		return Config{}, err
	}
	if cfg.TwilioAuthToken, err = mustEnv("TWILIO_AUTH_TOKEN"); err != nil {
		return Config{}, err
	}
	if cfg.TwilioNumber, err = mustEnv("TWILIO_NUMBER"); err != nil {
		return Config{}, err
	}
	if cfg.GeniusToken, err = mustEnv("GENIUS_TOKEN"); err != nil {
		return Config{}, err
	}
	if cfg.BitlyToken, err = mustEnv("BITLY_TOKEN"); err != nil {
		return Config{}, err
	}

	if cfg.LowerBound, err = envInt("LOWER_BOUND_MINUTES", 90); err != nil {
		return Config{}, err
	}
	if cfg.UpperBound, err = envInt("UPPER_BOUND_MINUTES", 300); err != nil {
		return Config{}, err
	}
	if cfg.LowerBound < 1 || cfg.LowerBound > cfg.UpperBound {
		return Config{}, fmt.Errorf("interval bounds must satisfy 0 < lower <= upper (got %d..%d)", cfg.LowerBound, cfg.UpperBound)
	}

	pollSec, err := envInt("SCHED_POLL_SECONDS", 59)
	if err != nil {
		return Config{}, err
	}
	if pollSec < 1 {
		return Config{}, fmt.Errorf("SCHED_POLL_SECONDS must be >= 1")
	}
	cfg.PollInterval = time.Duration(pollSec) * time.Second

	settleSec, err := envInt("SETTLE_SECONDS", 2)
	if err != nil {
		return Config{}, err
	}
	cfg.SettleDelay = time.Duration(settleSec) * time.Second

	return cfg, nil
}

// LoadSessionKeys reads and validates the securecookie key pair. Split out
// of FromEnv so non-web commands (send, song) don't need the keys set.
func (c *Config) LoadSessionKeys() error {
	var err error
	if c.CookieHashKey, err = mustB64("COOKIE_HASH_KEY"); err != nil {
		return err
	}
	if c.CookieBlockKey, err = mustB64("COOKIE_BLOCK_KEY"); err != nil {
		return err
	}
	return nil
}

func envDefault(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("%s is required", k)
	}
	return v, nil
}

func envInt(k string, d int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func mustB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, fmt.Errorf("%s is required (base64)", k)
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
