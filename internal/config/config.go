package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa toda a configuração da aplicação.
type Config struct {
	Env            string
	Port           int
	Database       DatabaseConfig
	Auth           AuthConfig
	RateLimit      RateLimitConfig
	CORS           []string
	// Proxies cujos X-Forwarded-For / X-Real-IP são aceitos (IPs ou CIDRs).
	TrustedProxies []string
	Alerta         string
	Snapshot       time.Duration
	LogLevel       slog.Level
}

type DatabaseConfig struct {
	Host       string
	Port       uint
	Name       string
	Username   string
	Password   string
	SecretID   string
	SSLDisable bool
}

type AuthConfig struct {
	Secret           string
	TTL              time.Duration
	RefreshTTL       time.Duration
	Leeway           time.Duration
	BlacklistGrace   time.Duration
	RefreshThreshold time.Duration
	RSAPrivatePath   string
	KID              string
	Issuer           string
	Audience         string
}

type RateLimitConfig struct {
	Max   int
	Decay time.Duration
	Store string
}

// Load lê o .env (se existir) e monta a Config a partir do ambiente.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:  GetString("APP_ENV", "development"),
		Port: GetInt("APP_PORT", 8080),
		Database: DatabaseConfig{
			Host:       GetString("DB_HOST", "localhost"),
			Port:       uint(GetInt("DB_PORT", 5432)),
			Name:       GetString("DB_NAME", "controle_clube"),
			Username:   GetString("DB_USERNAME", ""),
			Password:   GetString("DB_PASSWORD", ""),
			SecretID:   GetString("DB_SECRET_ID", ""),
			SSLDisable: GetBool("DB_SSL_MODE_DISABLE", false),
		},
		Auth: AuthConfig{
			Secret:           GetString("JWT_SECRET", ""),
			TTL:              time.Duration(GetInt("JWT_TTL_MINUTES", 60)) * time.Minute,
			RefreshTTL:       time.Duration(GetInt("JWT_REFRESH_TTL_MINUTES", 20160)) * time.Minute,
			Leeway:           time.Duration(GetInt("JWT_LEEWAY_SECONDS", 0)) * time.Second,
			BlacklistGrace:   time.Duration(GetInt("JWT_BLACKLIST_GRACE_SECONDS", 30)) * time.Second,
			RefreshThreshold: time.Duration(GetInt("JWT_REFRESH_THRESHOLD_SECONDS", 1800)) * time.Second,
			RSAPrivatePath:   GetString("AUTH_RSA_PRIVATE_PATH", ""),
			KID:              GetString("AUTH_KID", ""),
			Issuer:           GetString("AUTH_ISSUER", "api-controle-clube"),
			Audience:         GetString("AUTH_AUDIENCE", "controle-clube"),
		},
		RateLimit: RateLimitConfig{
			Max:   GetInt("RATE_LIMIT_MAX", 60),
			Decay: time.Duration(GetInt("RATE_LIMIT_DECAY_MINUTES", 1)) * time.Minute,
			Store: GetString("RATE_LIMIT_STORE", "memory"),
		},
		CORS:           GetList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TrustedProxies: GetList("TRUSTED_PROXIES", nil),
		Alerta:         GetString("ALERT_WEBHOOK_URL", ""),
		Snapshot:       time.Duration(GetInt("SNAPSHOT_INTERVAL_MINUTES", 60)) * time.Minute,
		LogLevel:       parseLevel(GetString("LOG_LEVEL", "info")),
	}
}

// Production desliga o debug_info das respostas de erro.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func GetString(key, fallback string) string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	valInt, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return valInt
}

func GetBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return b
}

// GetList separa valores por vírgula.
func GetList(key string, fallback []string) []string {
	val, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger cria o logger JSON usado por toda a aplicação.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
