package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Username string

	LichessBaseURL string
	LichessTimeout time.Duration
	LichessToken   string

	RecheckDelay time.Duration
	SpinDuration time.Duration

	HTTPAddr       string
	AllowedOrigins []string
	WheelImageSize int

	RedisURL      string
	RedisChannel  string
	RedisStateTTL time.Duration

	MessagesDir string
}

// Load reads the environment, seeded from .env files when present. A
// username given in args takes precedence over LICHESS_USERNAME.
func Load(args []string, envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, err
			}
		}
	}

	cfg := &AppConfig{
		LichessBaseURL: "https://lichess.org",
		LichessTimeout: 10 * time.Second,
		RecheckDelay:   5 * time.Second,
		SpinDuration:   2 * time.Second,
		HTTPAddr:       ":8080",
		WheelImageSize: 450,
		RedisChannel:   "wheel:events",
		RedisStateTTL:  time.Hour,
	}

	cfg.Username = strings.TrimSpace(os.Getenv("LICHESS_USERNAME"))
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		cfg.Username = strings.TrimSpace(args[0])
	}
	if v := strings.TrimSpace(os.Getenv("LICHESS_BASE_URL")); v != "" {
		cfg.LichessBaseURL = strings.TrimRight(v, "/")
	}
	cfg.LichessToken = strings.TrimSpace(os.Getenv("LICHESS_TOKEN"))
	cfg.LichessTimeout = durationEnv("LICHESS_TIMEOUT", cfg.LichessTimeout)
	cfg.RecheckDelay = durationEnv("RECHECK_DELAY", cfg.RecheckDelay)
	cfg.SpinDuration = durationEnv("SPIN_DURATION", cfg.SpinDuration)

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("WHEEL_IMAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WheelImageSize = n
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("REDIS_CHANNEL")); v != "" {
		cfg.RedisChannel = v
	}
	cfg.RedisStateTTL = durationEnv("REDIS_STATE_TTL", cfg.RedisStateTTL)

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if cfg.Username == "" {
		return nil, errors.New("LICHESS_USERNAME is required")
	}
	return cfg, nil
}

// durationEnv accepts Go durations ("5s") or bare seconds ("5").
func durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
