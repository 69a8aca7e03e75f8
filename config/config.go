package config

import (
	"dutchthrift_server/structs"
	"sync"
	"time"
)

var (
	configInstance *structs.Config
	configOnce     sync.Once
)

func GetConfig() *structs.Config {
	configOnce.Do(func() {
		configInstance = load()
	})
	return configInstance
}

func load() *structs.Config {
	return &structs.Config{
		Server: &structs.ServerConfig{
			AppName:        getEnvAsString("APP_NAME", "DutchThrift_no_env"),
			Environment:    getEnvAsString("APP_ENV", "development"),
			Port:           getEnvAsString("APP_PORT", ":8082"),
			FrontendURL:    getEnvAsString("FRONTEND_URL", "http://localhost:3000"),
			ReadTimeout:    getEnvAsTimeDuration("SERVER_READ_TIME_OUT", 15*time.Second),
			WriteTimeout:   getEnvAsTimeDuration("SERVER_WRITE_TIME_OUT", 30*time.Second),
			IdleTimeout:    getEnvAsTimeDuration("SERVER_IDLE_TIME_OUT", 60*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			MaxBodyBytes:   int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 25<<20)),
		},
		Cors: &structs.CorsConfig{
			AllowedOrigins:   getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			AllowedMethods:   getEnvAsSlice("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsSlice("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			ExposedHeaders:   getEnvAsSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length", "X-RateLimit-Remaining"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 300),
		},
		Database: &structs.DatabaseConfig{
			URL:          getEnvAsString("DATABASE_URL", ""),
			Driver:       getEnvAsString("DB_DRIVER", "pg"),
			Host:         getEnvAsString("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnvAsString("DB_USER", "postgres"),
			Password:     getEnvAsString("DB_PASSWORD", "password"),
			Name:         getEnvAsString("DB_NAME", "dutchthrift_db"),
			SSLMode:      getEnvAsString("DB_SSL_MODE", "disable"),
			MaxConns:     getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 2),
			MaxLifetime:  getEnvAsTimeDuration("DB_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime:  getEnvAsTimeDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
			ReadTimeout:  getEnvAsTimeDuration("DB_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvAsTimeDuration("DB_WRITE_TIMEOUT", 5*time.Second),
			SlowQuery:    getEnvAsTimeDuration("DB_SLOW_QUERY", time.Second),
		},
		Cache: &structs.CacheConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Address:      getEnvAsString("REDIS_ADDRESS", "localhost:6379"),
			Username:     getEnvAsString("REDIS_USERNAME", ""),
			Password:     getEnvAsString("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvAsTimeDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsTimeDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsTimeDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			TrackingTTL:  getEnvAsTimeDuration("REDIS_TRACKING_TTL", 2*time.Minute),
		},
		RateLimit: &structs.RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			IntakeLimit:   getEnvAsInt("RATE_LIMIT_INTAKE", 10),
			IntakeWindow:  getEnvAsTimeDuration("RATE_LIMIT_INTAKE_WINDOW", 10*time.Minute),
			AuthLimit:     getEnvAsInt("RATE_LIMIT_AUTH", 5),
			AuthWindow:    getEnvAsTimeDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			GeneralLimit:  getEnvAsInt("RATE_LIMIT_GENERAL", 120),
			GeneralWindow: getEnvAsTimeDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
		},
		Auth: &structs.AuthConfig{
			AccessTokenSecret: getEnvAsString("AUTH_ACCESS_TOKEN_SECRET", "default_access_secret"),
			AccessTokenExpiry: getEnvAsTimeDuration("AUTH_ACCESS_TOKEN_EXPIRY", 8*time.Hour),
			CookieDomain:      getEnvAsString("AUTH_COOKIE_DOMAIN", ""),
			PasswordTokenTTL:  getEnvAsTimeDuration("AUTH_PASSWORD_TOKEN_TTL", 24*time.Hour),
			Argon: structs.ArgonParams{
				Memory:  uint32(getEnvAsInt("ARGON_MEMORY", 64*1024)),
				Time:    uint32(getEnvAsInt("ARGON_TIME", 1)),
				Threads: uint8(getEnvAsInt("ARGON_THREADS", 4)),
				KeyLen:  32,
				SaltLen: 16,
			},
		},
		Email: &structs.EmailConfig{
			ApiKey:  getEnvAsString("RESEND_API_KEY", ""),
			From:    getEnvAsString("EMAIL_FROM", "Dutch Thrift <intake@dutchthrift.nl>"),
			BaseURL: getEnvAsString("RESEND_BASE_URL", ""),
		},
		Analysis: &structs.AnalysisConfig{
			ApiKey:     getEnvAsString("OPENAI_API_KEY", ""),
			BaseURL:    getEnvAsString("OPENAI_BASE_URL", "https://api.openai.com/v1/"),
			Model:      getEnvAsString("OPENAI_MODEL", "gpt-4o"),
			Timeout:    getEnvAsTimeDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("OPENAI_MAX_RETRIES", 2),
		},
		Jobs: &structs.JobsConfig{
			RecalcTotalsEnabled:  getEnvAsBool("JOB_RECALC_TOTALS_ENABLED", false),
			RecalcTotalsInterval: getEnvAsTimeDuration("JOB_RECALC_TOTALS_INTERVAL", 15*time.Minute),
		},
	}
}

func GetLogLevel() string {
	if GetConfig().Server.Environment == "production" {
		return "info"
	}
	return "debug"
}

func IsProduction() bool {
	return GetConfig().Server.Environment == "production"
}
