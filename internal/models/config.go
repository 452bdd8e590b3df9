package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	Commission CommissionConfig
	Formance   FormanceConfig
	Reconciler ReconcilerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr             string
	MaxConnections   int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	AllowedOrigins   []string
	PaymentRateLimit float64 // requests per second across all payment callers
	PaymentBurst     int
}

// AuthConfig holds the credentials used to authenticate payment callers and admins
type AuthConfig struct {
	PaymentApiKey        string
	PaymentSigningSecret string
	RequireSignature     bool
	SignatureWindow      time.Duration
	JWTSecret            string
	JWTIssuer            string
}

// CommissionConfig holds fee defaults. File, when present, overrides the numeric defaults.
type CommissionConfig struct {
	File                   string
	DefaultPlatformFeeBps  int
	DefaultCommunityFeeBps int
	MaxTotalFeeBps         int
}

// FormanceConfig holds settings for the optional Formance ledger mirror
type FormanceConfig struct {
	Enabled      bool
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// ReconcilerConfig holds settings for the background balance reconciler
type ReconcilerConfig struct {
	Enabled  bool
	Interval time.Duration
}
