package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// AI advisory
	AdvisoryEnabled  bool
	AIBaseURL        string
	AIAPIKey         string
	AIModel          string
	AIMaxInputChars  int
	AIMaxOutputChars int

	// Object storage
	StorageMode      string // "local" or "cloud"
	StorageLocalDir  string
	StorageCloudName string
	StorageAPIKey    string
	StorageAPISecret string
}

var appConfig *Config

// Load reads configuration from the environment, with a best-effort
// .env file on top.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "otcbook"),
		DBPassword: getEnv("DB_PASSWORD", "otcbook"),
		DBName:     getEnv("DB_NAME", "otcbook"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		AdvisoryEnabled:  getEnvBool("AI_ADVISORY_ENABLED", true),
		AIBaseURL:        getEnv("AI_BASE_URL", "https://api.groq.com/openai/v1"),
		AIAPIKey:         getEnv("AI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", "llama-3.1-8b-instant"),
		AIMaxInputChars:  getEnvInt("AI_MAX_INPUT_CHARS", 2000),
		AIMaxOutputChars: getEnvInt("AI_MAX_OUTPUT_CHARS", 8000),

		StorageMode:      getEnv("STORAGE_MODE", "local"),
		StorageLocalDir:  getEnv("STORAGE_LOCAL_DIR", "media"),
		StorageCloudName: getEnv("STORAGE_CLOUD_NAME", ""),
		StorageAPIKey:    getEnv("STORAGE_API_KEY", ""),
		StorageAPISecret: getEnv("STORAGE_API_SECRET", ""),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
