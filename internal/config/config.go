package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Site      SiteConfig
	RateLimit RateLimitConfig
	Profile   Profile
}

type ServerConfig struct {
	Port           string
	Env            string
	StaticDir      string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type SiteConfig struct {
	BrandName string
	BaseURL   string
}

type RateLimitConfig struct {
	SubscribePerMinute int
}

// Profile holds the behaviour switches that differ between deployments.
// It is selected once at startup from SERVER_ENV.
type Profile struct {
	Name          string
	Debug         bool
	PageCache     bool
	SecureHeaders bool
	SSLMode       string
	HomeTTL       time.Duration
	ProductTTL    time.Duration
	StaticTTL     time.Duration
}

// DevelopmentProfile disables caching and transport hardening.
func DevelopmentProfile() Profile {
	return Profile{
		Name:       EnvDevelopment,
		Debug:      true,
		SSLMode:    "disable",
		HomeTTL:    time.Hour,
		ProductTTL: 30 * time.Minute,
		StaticTTL:  time.Hour,
	}
}

// ProductionProfile turns on the page cache and security headers.
func ProductionProfile() Profile {
	return Profile{
		Name:          EnvProduction,
		PageCache:     true,
		SecureHeaders: true,
		SSLMode:       "require",
		HomeTTL:       time.Hour,
		ProductTTL:    30 * time.Minute,
		StaticTTL:     time.Hour,
	}
}

// ProfileFor maps an environment name to its profile. Unknown names fall
// back to development.
func ProfileFor(env string) Profile {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvProduction, "staging":
		return ProductionProfile()
	default:
		return DevelopmentProfile()
	}
}

func (c *Config) IsProduction() bool {
	return c.Profile.Name == EnvProduction
}

// DSN builds the PostgreSQL connection string for the pgx driver.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%s", d.Host, d.Port),
		Path:   "/" + d.Database,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.Schema != "" {
		q.Set("search_path", d.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func Load() *Config {
	// Profile-specific overrides never replace variables already in the environment.
	_ = godotenv.Load(".env." + ProfileFor(os.Getenv("SERVER_ENV")).Name)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", EnvDevelopment)
	viper.SetDefault("STATIC_DIR", "static")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "skybound")
	viper.SetDefault("DB_DATABASE", "skybound")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 1)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 60)
	viper.SetDefault("SITE_BRAND_NAME", "Skybound Academy")
	viper.SetDefault("SITE_BASE_URL", "https://skybound.example")
	viper.SetDefault("SUBSCRIBE_RATE_LIMIT", 10)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	profile := ProfileFor(viper.GetString("SERVER_ENV"))

	sslMode := viper.GetString("DB_SSLMODE")
	if sslMode == "" {
		sslMode = profile.SSLMode
	}

	// Redis is opt-in for development and on by default in production.
	redisEnabled := profile.PageCache
	if viper.IsSet("REDIS_ENABLED") {
		redisEnabled = viper.GetBool("REDIS_ENABLED")
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            profile.Name,
			StaticDir:      viper.GetString("STATIC_DIR"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
			SSLMode:  sslMode,
		},
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Site: SiteConfig{
			BrandName: viper.GetString("SITE_BRAND_NAME"),
			BaseURL:   strings.TrimRight(viper.GetString("SITE_BASE_URL"), "/"),
		},
		RateLimit: RateLimitConfig{
			SubscribePerMinute: viper.GetInt("SUBSCRIBE_RATE_LIMIT"),
		},
		Profile: profile,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
