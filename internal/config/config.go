package config

import "time"

// Config holds application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Audio    AudioConfig    `yaml:"audio"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Cloud    CloudConfig    `yaml:"cloud"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	BaseURL         string        `yaml:"base_url"         env:"BASE_URL"                env-default:"http://localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     []string      `yaml:"cors_origins"     env:"CORS_ALLOWED_ORIGINS"    env-default:"*"`
}

// DatabaseConfig selects and configures the SQL backend
type DatabaseConfig struct {
	Type          string `yaml:"type"           env:"DB_TYPE"            env-default:"sqlite"`
	Path          string `yaml:"path"           env:"DB_PATH"            env-default:"./dictee.db"`
	URL           string `yaml:"url"            env:"DATABASE_URL"`
	MaxDictations int    `yaml:"max_dictations" env:"DB_MAX_DICTATIONS"  env-default:"500"`
}

// SessionConfig configures where in-progress sessions are kept
type SessionConfig struct {
	Store    string        `yaml:"store"     env:"SESSION_STORE"     env-default:"memory"`
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"         env-default:"redis://localhost:6379/0"`
	TTL      time.Duration `yaml:"ttl"       env:"SESSION_TTL"       env-default:"24h"`
}

// AudioConfig configures speech synthesis
type AudioConfig struct {
	Enabled  bool          `yaml:"enabled"   env:"AUDIO_ENABLED"   env-default:"true"`
	CacheDir string        `yaml:"cache_dir" env:"AUDIO_CACHE_DIR" env-default:"./cache/audio"`
	Timeout  time.Duration `yaml:"timeout"   env:"AUDIO_TIMEOUT"   env-default:"10s"`
}

// AuthConfig configures teacher authentication. An empty password hash
// leaves authoring open.
type AuthConfig struct {
	PasswordHash string        `yaml:"password_hash" env:"TEACHER_PASSWORD_HASH"`
	JWTSecret    string        `yaml:"jwt_secret"    env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl"     env:"TOKEN_TTL"     env-default:"12h"`
	LoginRate    int           `yaml:"login_rate"    env:"LOGIN_RATE"    env-default:"5"`
	LoginWindow  time.Duration `yaml:"login_window"  env:"LOGIN_WINDOW"  env-default:"1m"`
}

// EmailConfig configures share-by-email through SES. An empty sender
// disables email.
type EmailConfig struct {
	Region   string `yaml:"region"    env:"AWS_REGION"  env-default:"eu-west-1"`
	From     string `yaml:"from"      env:"EMAIL_FROM"`
	FromName string `yaml:"from_name" env:"EMAIL_FROM_NAME" env-default:"Dictée"`
	Debug    bool   `yaml:"debug"     env:"EMAIL_DEBUG"`
}

// CloudConfig configures cloud imports. The bearer token is only sent to
// TokenHosts. Private and loopback addresses are refused unless
// AllowPrivateNetworks is set.
type CloudConfig struct {
	Timeout              time.Duration `yaml:"timeout"                env:"CLOUD_TIMEOUT"                env-default:"10s"`
	MaxBytes             int64         `yaml:"max_bytes"              env:"CLOUD_MAX_BYTES"              env-default:"1048576"`
	BearerToken          string        `yaml:"bearer_token"           env:"CLOUD_BEARER_TOKEN"`
	TokenHosts           []string      `yaml:"token_hosts"            env:"CLOUD_TOKEN_HOSTS"            env-separator:","`
	AllowPrivateNetworks bool          `yaml:"allow_private_networks" env:"CLOUD_ALLOW_PRIVATE_NETWORKS"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// AuthEnabled reports whether authoring requires a teacher token
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != ""
}

// EmailEnabled reports whether share-by-email is configured
func (c *Config) EmailEnabled() bool {
	return c.Email.From != ""
}
