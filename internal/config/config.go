package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	BackendURL     string
	BackendWSURL   string
	BackendToken   string
	DefaultInboxID string
	DBDriver       string
	DBPath         string
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBSSLMode      string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendWSURL:   getEnv("BACKEND_WS_URL", "ws://localhost:8000/ws"),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),
		DefaultInboxID: getEnv("DEFAULT_INBOX_ID", ""),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBPath:         getEnv("DB_PATH", "./console.db"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "campaign_console"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
