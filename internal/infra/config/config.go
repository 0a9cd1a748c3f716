package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App      AppSettings      `mapstructure:"app"`
	Postgres PostgresSettings `mapstructure:"postgres"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Kafka    KafkaSettings    `mapstructure:"kafka"`
	Session  SessionSettings  `mapstructure:"session"`
	Security SecuritySettings `mapstructure:"security"`
	Argon2   Argon2Settings   `mapstructure:"argon2"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection used for sessions and the
// failed-login marker cache.
type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	SessionPrefix string `mapstructure:"session_prefix"`
	MarkerPrefix  string `mapstructure:"marker_prefix"`
}

// KafkaSettings configures the security event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Enabled     bool     `mapstructure:"enabled"`
}

// SessionSettings configures the cookie and the server-side session TTL.
type SessionSettings struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

// SecuritySettings gathers the account-security policy knobs.
type SecuritySettings struct {
	MaxFailedAttempts     int           `mapstructure:"max_failed_attempts"`
	LockoutCooldown       time.Duration `mapstructure:"lockout_cooldown"`
	PasswordHistoryDepth  int           `mapstructure:"password_history_depth"`
	MinPasswordAge        time.Duration `mapstructure:"min_password_age"`
	ReauthWindow          time.Duration `mapstructure:"reauth_window"`
	MinPasswordLength     int           `mapstructure:"min_password_length"`
	RegisterMinPwdLength  int           `mapstructure:"register_min_password_length"`
	FailedAuthMarkerTTL   time.Duration `mapstructure:"failed_auth_marker_ttl"`
	MinStrengthScore      int           `mapstructure:"min_strength_score"`
	SecurityAnswerMinLen  int           `mapstructure:"security_answer_min_len"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("RESTAURANT")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.session_prefix",
		"redis.marker_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.enabled",
		"session.cookie_name",
		"session.ttl",
		"session.secure",
		"security.max_failed_attempts",
		"security.lockout_cooldown",
		"security.password_history_depth",
		"security.min_password_age",
		"security.reauth_window",
		"security.min_password_length",
		"security.register_min_password_length",
		"security.failed_auth_marker_ttl",
		"security.min_strength_score",
		"security.security_answer_min_len",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "restaurant-app")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "restaurant")
	v.SetDefault("postgres.password", "restaurant_password")
	v.SetDefault("postgres.database", "restaurant")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "restaurant:session")
	v.SetDefault("redis.marker_prefix", "restaurant:last_failed_auth")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "restaurant")
	v.SetDefault("kafka.enabled", false)

	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.secure", false)

	v.SetDefault("security.max_failed_attempts", 5)
	v.SetDefault("security.lockout_cooldown", "15m")
	v.SetDefault("security.password_history_depth", 5)
	v.SetDefault("security.min_password_age", "24h")
	v.SetDefault("security.reauth_window", "5m")
	v.SetDefault("security.min_password_length", 12)
	v.SetDefault("security.register_min_password_length", 8)
	v.SetDefault("security.failed_auth_marker_ttl", "168h")
	v.SetDefault("security.min_strength_score", 2)
	v.SetDefault("security.security_answer_min_len", 6)

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "RESTAURANT_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
