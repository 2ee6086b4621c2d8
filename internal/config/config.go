package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/langchou/ridegazer/internal/geo"
)

type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// 数据分区（CSV 目录或 SQLite 文件），顺序决定 directory_token
	DataDirs     []string
	DistanceMode geo.Mode
	Workers      int

	// 刷新
	RefreshInterval time.Duration // 0 表示只在启动时加载
	RefreshTimeout  time.Duration

	// Database，为空时不保存快照
	DatabaseURL string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration
	AuthUsers map[string]string
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:  getEnv("PORT", "4000"),
		Debug:       getEnvBool("DEBUG", false),
		DataDirs:    splitList(os.Getenv("DATA_DIRS")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", "ridegazer-dev-secret"),
	}

	if len(cfg.DataDirs) == 0 {
		return nil, fmt.Errorf("DATA_DIRS is required")
	}

	var err error
	if cfg.DistanceMode, err = geo.ParseMode(os.Getenv("DISTANCE_MODE")); err != nil {
		return nil, fmt.Errorf("DISTANCE_MODE: %w", err)
	}
	if cfg.Workers, err = getEnvInt("WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be positive, got %d", cfg.Workers)
	}
	if cfg.RefreshInterval, err = getEnvDuration("REFRESH_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.RefreshTimeout, err = getEnvDuration("REFRESH_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthUsers, err = parseUsers(getEnv("AUTH_USERS", "bob:secret,alice:secret2")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseUsers 解析 user:password 列表
func parseUsers(value string) (map[string]string, error) {
	users := make(map[string]string)
	for _, entry := range splitList(value) {
		name, password, ok := strings.Cut(entry, ":")
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("AUTH_USERS: invalid entry %q", entry)
		}
		users[name] = password
	}
	return users, nil
}
