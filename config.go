package pgate

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where pgate looks for its optional config file when
// PGATE_CONFIG is not set.
const DefaultConfigPath = "/etc/pgate.yaml"

const (
	// DefaultProbeInterval is the delay between readiness probes.
	DefaultProbeInterval = 1 * time.Second

	// DefaultProbeTimeout bounds a single probe, not the overall wait.
	DefaultProbeTimeout = 3 * time.Second
)

// Config is the resolved startup configuration. It is built once at process
// start and never mutated afterwards; every component receives it explicitly
// instead of reading the environment on its own.
type Config struct {
	// Connection target for the readiness probe and the init routine.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`

	// Stage is a deployment stage label used only for diagnostic output and
	// for selecting the per-stage init params overlay.
	Stage string `yaml:"stage"`

	// Readiness wait policy. MaxAttempts and WaitTimeout of zero mean the
	// wait retries forever; container schedulers own the outer timeout.
	ProbeInterval time.Duration `yaml:"probe_interval"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	MaxAttempts   int           `yaml:"max_attempts"`
	WaitTimeout   time.Duration `yaml:"wait_timeout"`

	// Initialization routine settings. An empty InitCommand skips phase 2.
	InitCommand   string `yaml:"init_command"`
	InitOptional  bool   `yaml:"init_optional"`
	InitParams    string `yaml:"init_params"`
	InitParamsDir string `yaml:"init_params_dir"`
}

// LoadConfig builds the configuration from defaults, the optional YAML config
// file (PGATE_CONFIG or /etc/pgate.yaml), and environment variables, in that
// order of increasing precedence. CLI flags are layered on top by the caller.
func LoadConfig() (*Config, error) {
	config := &Config{
		Host:          "localhost",
		Port:          5432,
		Database:      "postgres",
		User:          "postgres",
		SSLMode:       "prefer",
		ProbeInterval: DefaultProbeInterval,
		ProbeTimeout:  DefaultProbeTimeout,
	}

	configPath := os.Getenv("PGATE_CONFIG")
	explicit := configPath != ""
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if explicit {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
		zlog.Debug("no config file found, using defaults", zap.String("config_path", configPath))
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		zlog.Debug("loaded config file", zap.String("config_path", configPath))
	}

	config.Host = GetEnvOrDefault("POSTGRES_HOST", config.Host)
	config.Port = GetEnvAsInt("POSTGRES_PORT", config.Port)
	config.Database = GetEnvOrDefault("POSTGRES_DB", config.Database)
	config.User = GetEnvOrDefault("POSTGRES_USER", config.User)
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		config.Password = password
	}
	config.SSLMode = GetEnvOrDefault("POSTGRES_SSLMODE", config.SSLMode)
	config.Stage = GetEnvOrDefault("STAGE", config.Stage)
	config.InitCommand = GetEnvOrDefault("PGATE_INIT_CMD", config.InitCommand)

	zlog.Debug("resolved config",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.Database),
		zap.String("stage", config.Stage),
		zap.Duration("probe_interval", config.ProbeInterval))

	return config, nil
}

// ConnString assembles a postgres:// URL for the configured target.
func (c *Config) ConnString() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedactedConnString is ConnString with the password masked, safe for logs
// and the info command.
func (c *Config) RedactedConnString() string {
	if c.Password == "" {
		return c.ConnString()
	}
	redacted := *c
	redacted.Password = "xxxx"
	return strings.Replace(redacted.ConnString(), ":xxxx@", ":****@", 1)
}

// WaitPolicy derives the readiness wait policy from the config.
func (c *Config) WaitPolicy() WaitPolicy {
	return WaitPolicy{
		Interval:    c.ProbeInterval,
		MaxAttempts: c.MaxAttempts,
		Timeout:     c.WaitTimeout,
	}
}

// GetEnvOrDefault returns the environment variable value or the default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt parses an environment variable as an integer, keeping the
// default on absence or parse failure.
func GetEnvAsInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		zlog.Warn("ignoring non-integer environment value", zap.String("key", key))
	}
	return defaultValue
}
