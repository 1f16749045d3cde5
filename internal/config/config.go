package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds all tunables for a load run. Everything is optional and
// env-driven so the same binary can be pointed at staging or production-like
// environments without a rebuild.
type Config struct {
	// Target
	BaseURL string

	// Test identities
	UserPassword    string
	UserEmailPrefix string
	UserEmailDomain string
	UserPoolSize    int
	UserPoolOffset  int

	// Flow shape
	CommentsPerFeed        int
	TeamsMin               int
	TeamsMax               int
	PLatestPaginate        float64
	PLatestPaginateTwice   float64
	PTeamFeedPaginate      float64
	PTeamFeedPaginateTwice float64
	PSummary               float64
	PBlendTrueUser         float64

	// Pacing
	SleepMin   time.Duration
	SleepMax   time.Duration
	ErrorSleep time.Duration

	// Run identification and output
	RunTag    string
	ReportDir string
	RedisURL  string
	Debug     bool
}

// Load reads configuration from the environment, falling back to defaults
// that match the staging mock API.
func Load() *Config {
	return &Config{
		BaseURL: getEnvOrDefault("BASE_URL", "http://localhost:9000"),

		UserPassword:    getEnvOrDefault("USER_PASSWORD", "Passw0rd!test"),
		UserEmailPrefix: getEnvOrDefault("USER_EMAIL_PREFIX", "loadtest+"),
		UserEmailDomain: getEnvOrDefault("USER_EMAIL_DOMAIN", "example.org"),
		UserPoolSize:    getEnvAsIntOrDefault("USER_POOL_SIZE", 500),
		UserPoolOffset:  getEnvAsIntOrDefault("USER_POOL_OFFSET", 0),

		CommentsPerFeed:        getEnvAsIntOrDefault("COMMENTS_PER_FEED", 3),
		TeamsMin:               getEnvAsIntOrDefault("TEAMS_MIN", 2),
		TeamsMax:               getEnvAsIntOrDefault("TEAMS_MAX", 5),
		PLatestPaginate:        getEnvAsFloatOrDefault("P_LATEST_PAGINATE", 0.35),
		PLatestPaginateTwice:   getEnvAsFloatOrDefault("P_LATEST_PAGINATE_TWICE", 0.5),
		PTeamFeedPaginate:      getEnvAsFloatOrDefault("P_TEAM_FEED_PAGINATE", 0.25),
		PTeamFeedPaginateTwice: getEnvAsFloatOrDefault("P_TEAM_FEED_PAGINATE_TWICE", 0.4),
		PSummary:               getEnvAsFloatOrDefault("P_SUMMARY", 0.3),
		PBlendTrueUser:         getEnvAsFloatOrDefault("P_BLEND_TRUE_USER", 0.7),

		SleepMin:   time.Duration(getEnvAsIntOrDefault("SLEEP_MIN_MS", 400)) * time.Millisecond,
		SleepMax:   time.Duration(getEnvAsIntOrDefault("SLEEP_MAX_MS", 1800)) * time.Millisecond,
		ErrorSleep: time.Duration(getEnvAsIntOrDefault("ERROR_SLEEP_MS", 2000)) * time.Millisecond,

		RunTag:    getEnvOrDefault("RUN_TAG", uuid.New().String()),
		ReportDir: getEnvOrDefault("REPORT_DIR", "./test-results"),
		RedisURL:  getEnvOrDefault("REDIS_URL", ""),
		Debug:     getEnvAsBoolOrDefault("DEBUG", false),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
