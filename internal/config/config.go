package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath         string
	ListenAddr     string
	BaseURL        string
	SessionTTL     time.Duration
	ResetTokenTTL  time.Duration
	NotesPerPage   int
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	MailFrom       string
	DBLockTimeout  time.Duration
	SecureCookies  bool
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		DBPath:     envOr("NOTEBOOK_DB_PATH", "notebook.sqlite"),
		ListenAddr: envOr("NOTEBOOK_LISTEN_ADDR", "127.0.0.1:8080"),
		BaseURL:    envOr("NOTEBOOK_BASE_URL", "http://127.0.0.1:8080"),
		SMTPHost:   os.Getenv("NOTEBOOK_SMTP_HOST"),
		SMTPUser:   os.Getenv("NOTEBOOK_SMTP_USER"),
		SMTPPass:   os.Getenv("NOTEBOOK_SMTP_PASS"),
		MailFrom:   envOr("NOTEBOOK_MAIL_FROM", "notebook@localhost"),
	}

	cfg.SessionTTL = parseDurationOr("NOTEBOOK_SESSION_TTL", 14*24*time.Hour)
	cfg.ResetTokenTTL = parseDurationOr("NOTEBOOK_RESET_TOKEN_TTL", 24*time.Hour)
	cfg.NotesPerPage = parseIntOr("NOTEBOOK_NOTES_PER_PAGE", 10)
	cfg.SMTPPort = parseIntOr("NOTEBOOK_SMTP_PORT", 587)
	cfg.DBLockTimeout = parseDurationOr("NOTEBOOK_DB_LOCK_TIMEOUT", 5*time.Second)
	cfg.SecureCookies = parseBoolOr("NOTEBOOK_SECURE_COOKIES", false)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
