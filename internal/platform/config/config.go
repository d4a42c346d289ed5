package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "RXCORE"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Prescriptions PrescriptionsConfig `mapstructure:"prescriptions"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	App    string        `mapstructure:"app"`
	File   LogFileConfig `mapstructure:"file"`
}

type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig: DSN vacío => storage in-memory.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig: Addr vacío => sesiones de dispensación in-memory.
type RedisConfig struct {
	Addr              string `mapstructure:"addr"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes"`
}

// AuthConfig: VerifierURL vacío => modo dev con X-Debug-User-ID.
type AuthConfig struct {
	VerifierURL    string `mapstructure:"verifier_url"`
	APIKey         string `mapstructure:"api_key"`
	APIKeyHeader   string `mapstructure:"api_key_header"`
	VerifyPath     string `mapstructure:"verify_path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c AuthConfig) Enabled() bool {
	return strings.TrimSpace(c.VerifierURL) != ""
}

func (c AuthConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type PrescriptionsConfig struct {
	CodeLength          int `mapstructure:"code_length"`
	DefaultValidityDays int `mapstructure:"default_validity_days"`
	MaxCodeAttempts     int `mapstructure:"max_code_attempts"`
}

type AuditConfig struct {
	ControlledSubstances []string            `mapstructure:"controlled_substances"`
	DosageRanges         []DosageRangeConfig `mapstructure:"dosage_ranges"`
}

type DosageRangeConfig struct {
	Medicine       string  `mapstructure:"medicine"`
	MinMg          float64 `mapstructure:"min_mg"`
	MaxMg          float64 `mapstructure:"max_mg"`
	MaxTimesPerDay float64 `mapstructure:"max_times_per_day"`
}

type BootstrapConfig struct {
	Users []BootstrapUser `mapstructure:"users"`
}

type BootstrapUser struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c RedisConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c PrescriptionsConfig) DefaultValidity() time.Duration {
	return time.Duration(c.DefaultValidityDays) * 24 * time.Hour
}

// Load lee config desde path (opcional) + env RXCORE_*.
// Ej: RXCORE_SERVER_PORT pisa server.port.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// El archivo es opcional: en contenedores alcanza con env.
	if path = strings.TrimSpace(path); path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 5)
	v.SetDefault("server.write_timeout_seconds", 10)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.app", "clinical-rx-core")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 28)

	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl_minutes", 30)

	v.SetDefault("auth.verifier_url", "")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.timeout_seconds", 5)

	v.SetDefault("prescriptions.code_length", 6)
	v.SetDefault("prescriptions.default_validity_days", 30)
	v.SetDefault("prescriptions.max_code_attempts", 10)

	v.SetDefault("audit.controlled_substances", []string{
		"oxycodone", "morphine", "fentanyl", "diazepam", "alprazolam", "codeine",
	})
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Auth.Enabled() && strings.TrimSpace(c.Auth.APIKey) == "" {
		return errors.New("auth.api_key is required when auth.verifier_url is set")
	}
	if c.Prescriptions.CodeLength < 6 {
		return fmt.Errorf("prescriptions.code_length must be >= 6, got %d", c.Prescriptions.CodeLength)
	}
	if c.Prescriptions.DefaultValidityDays <= 0 {
		return errors.New("prescriptions.default_validity_days must be > 0")
	}
	if c.Prescriptions.MaxCodeAttempts <= 0 {
		return errors.New("prescriptions.max_code_attempts must be > 0")
	}
	for _, r := range c.Audit.DosageRanges {
		if strings.TrimSpace(r.Medicine) == "" {
			return errors.New("audit.dosage_ranges: medicine is required")
		}
		if r.MaxMg > 0 && r.MinMg > r.MaxMg {
			return fmt.Errorf("audit.dosage_ranges[%s]: min_mg > max_mg", r.Medicine)
		}
	}
	for _, u := range c.Bootstrap.Users {
		if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Role) == "" {
			return errors.New("bootstrap.users: id and role are required")
		}
	}
	return nil
}
