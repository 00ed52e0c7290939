package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`

	// JWT settings.
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTAlgorithm string        `mapstructure:"jwt_algorithm" yaml:"jwt_algorithm"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	// DevMode accepts any decodable token without checking its signature.
	// Never enable outside local development.
	DevMode bool `mapstructure:"dev_mode" yaml:"dev_mode"`

	// Chat settings.
	MaxConnections     int           `mapstructure:"max_connections" yaml:"max_connections"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxTextLength      int           `mapstructure:"max_text_length" yaml:"max_text_length"`
	SendTimeout        time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
	BroadcastFanout    int           `mapstructure:"broadcast_fanout" yaml:"broadcast_fanout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	HistoryLimit       int           `mapstructure:"history_limit" yaml:"history_limit"`
	MaxHistory         int           `mapstructure:"max_history" yaml:"max_history"`
	WelcomeMessage     bool          `mapstructure:"welcome_message" yaml:"welcome_message"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "recipechat.db",
		JWTSecret:          "change-me",
		JWTAlgorithm:       "HS256",
		JWTTTL:             24 * time.Hour,
		DevMode:            false,
		MaxConnections:     0,
		MaxMessageBytes:    64 << 10,
		MaxTextLength:      4000,
		SendTimeout:        5 * time.Second,
		BroadcastFanout:    64,
		RateLimitPerMinute: 120,
		HistoryLimit:       50,
		MaxHistory:         200,
		WelcomeMessage:     true,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// DevMode and WelcomeMessage are booleans and are only ever switched on this way.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTAlgorithm != "" {
		c.JWTAlgorithm = other.JWTAlgorithm
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.DevMode {
		c.DevMode = true
	}
	if other.MaxConnections != 0 {
		c.MaxConnections = other.MaxConnections
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.MaxTextLength != 0 {
		c.MaxTextLength = other.MaxTextLength
	}
	if other.SendTimeout != 0 {
		c.SendTimeout = other.SendTimeout
	}
	if other.BroadcastFanout != 0 {
		c.BroadcastFanout = other.BroadcastFanout
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.MaxHistory != 0 {
		c.MaxHistory = other.MaxHistory
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
}
