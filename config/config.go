package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env              string
	Port             string
	MongoURI         string
	MongoDatabase    string
	JWTSecret        string
	AdminKey         string
	MaxMessageLength int
	AllowedOrigins   []string
}

func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "bloodlink"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-jwt-secret-change-this-in-production"),
		AdminKey:         getEnv("ADMIN_KEY", "dev-admin-key"),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 2000),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
