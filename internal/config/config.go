package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                 string
	AllowedOrigins       []string
	FrontendURL          string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	RedisURL             string
	RedisPassword        string
	SnapshotTTL          time.Duration
	JWTSecret            string
	SeatTokenTTL         time.Duration
	BoardColumns         int
	BoardRows            int
	SearchDepth          int
	BotMoveDelay         time.Duration
	SessionIdleTTL       time.Duration
	FinishedSessionTTL   time.Duration
	MatchmakingTimeout   time.Duration
	MaxAnalyses          int
	LogLevel             string
	LogPretty            bool
}

var AppConfig *Config

func LoadConfig() *Config {
	port := GetEnv("PORT", "8080")

	// Frontend & CORS
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")
	allowedOrigins := []string{frontendURL}
	for _, origin := range strings.Split(GetEnv("ALLOWED_ORIGINS", ""), ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" && trimmed != frontendURL {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	AppConfig = &Config{
		Port:                 port,
		AllowedOrigins:       allowedOrigins,
		FrontendURL:          frontendURL,
		DatabaseURL:          GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", "")),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),
		RedisURL:             GetEnv("REDIS_URL", ""),
		RedisPassword:        GetEnv("REDIS_PASSWORD", ""),
		SnapshotTTL:          time.Duration(GetEnvAsInt("SNAPSHOT_TTL_MINUTES", 120)) * time.Minute,
		JWTSecret:            GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		SeatTokenTTL:         time.Duration(GetEnvAsInt("SEAT_TOKEN_TTL_MINUTES", 24*60)) * time.Minute,
		BoardColumns:         GetEnvAsInt("BOARD_COLUMNS", 7),
		BoardRows:            GetEnvAsInt("BOARD_ROWS", 6),
		SearchDepth:          GetEnvAsInt("SEARCH_DEPTH", 7),
		BotMoveDelay:         GetEnvAsDuration("BOT_MOVE_DELAY_MS", 500*time.Millisecond, time.Millisecond),
		SessionIdleTTL:       GetEnvAsDuration("SESSION_IDLE_HOURS", 24*time.Hour, time.Hour),
		FinishedSessionTTL:   GetEnvAsDuration("FINISHED_SESSION_TTL_MINUTES", time.Hour, time.Minute),
		MatchmakingTimeout:   GetEnvAsDuration("MATCHMAKING_TIMEOUT_SECONDS", 10*time.Second, time.Second),
		MaxAnalyses:          GetEnvAsInt("MAX_CONCURRENT_ANALYSES", 2),
		LogLevel:             GetEnv("LOG_LEVEL", "info"),
		LogPretty:            GetEnvAsBool("LOG_PRETTY", false),
	}

	return AppConfig
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

// GetEnvAsDuration reads an integer count of unit, e.g. BOT_MOVE_DELAY_MS
// with unit time.Millisecond.
func GetEnvAsDuration(key string, defaultValue, unit time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return time.Duration(value) * unit
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}
