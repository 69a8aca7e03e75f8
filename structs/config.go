package structs

import "time"

type Config struct {
	Server    *ServerConfig
	Cors      *CorsConfig
	Database  *DatabaseConfig
	Cache     *CacheConfig
	RateLimit *RateLimitConfig
	Auth      *AuthConfig
	Email     *EmailConfig
	Analysis  *AnalysisConfig
	Jobs      *JobsConfig
}

type ServerConfig struct {
	AppName        string        // Dutch Thrift
	Environment    string        // development, production
	Port           string        // :8082
	FrontendURL    string        // used in emails
	ReadTimeout    time.Duration // in seconds
	WriteTimeout   time.Duration // in seconds
	IdleTimeout    time.Duration // in seconds
	MaxHeaderBytes int           // in bytes
	MaxBodyBytes   int64         // intake payloads carry base64 images
}

type CorsConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type DatabaseConfig struct {
	URL          string // DATABASE_URL, takes precedence over the parts below
	Driver       string // pg (bun pgdriver) or pgx (jackc/pgx stdlib)
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SlowQuery    time.Duration
}

type CacheConfig struct {
	Enabled      bool
	Address      string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TrackingTTL  time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	IntakeLimit   int
	IntakeWindow  time.Duration
	AuthLimit     int
	AuthWindow    time.Duration
	GeneralLimit  int
	GeneralWindow time.Duration
}

type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	CookieDomain      string
	PasswordTokenTTL  time.Duration // lifetime of a mailed set-password link
	Argon             ArgonParams
}

type EmailConfig struct {
	ApiKey  string // empty disables outgoing mail
	From    string
	BaseURL string // overrides the Resend API endpoint when set
}

type AnalysisConfig struct {
	ApiKey     string // empty disables the analysis oracle
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type JobsConfig struct {
	RecalcTotalsEnabled  bool
	RecalcTotalsInterval time.Duration
}
