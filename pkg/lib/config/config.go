// Package config loads daemon and CLI settings with viper.
//
// Sources, lowest precedence first: defaults, prn.toml (/etc/prn, $HOME/.prn,
// the working directory, or an explicit file), PRN_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/SanjoDeundiak/script-runner/pkg/lib/runner"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/signal"
)

const (
	EnvPrefix      = "PRN"
	FileName       = "prn"
	DefaultAddress = "localhost:50051"
	DefaultMetrics = "localhost:9464"
)

type Config struct {
	Address string        `mapstructure:"address"`
	TLS     TLSConfig     `mapstructure:"tls"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Signal  SignalConfig  `mapstructure:"signal"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Log     LogConfig     `mapstructure:"log"`
}

// TLSConfig holds PEM contents, not file names.
type TLSConfig struct {
	Key  string `mapstructure:"key"`
	Cert string `mapstructure:"cert"`
	CA   string `mapstructure:"ca"`
}

// Enabled reports whether mutual TLS is configured.
func (c TLSConfig) Enabled() bool {
	return c.Key != "" || c.Cert != "" || c.CA != ""
}

type MetricsConfig struct {
	// Address of the /metrics listener; empty disables it.
	Address string `mapstructure:"address"`
}

type SignalConfig struct {
	Path     string        `mapstructure:"path"`
	TTL      time.Duration `mapstructure:"ttl"`
	Sentinel string        `mapstructure:"sentinel"`
}

type RunnerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	KillGrace    time.Duration `mapstructure:"kill_grace"`
	History      int           `mapstructure:"history"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("address", DefaultAddress)

	v.SetDefault("tls.key", "")
	v.SetDefault("tls.cert", "")
	v.SetDefault("tls.ca", "")

	v.SetDefault("metrics.address", DefaultMetrics)

	v.SetDefault("signal.path", signal.DefaultFileName)
	v.SetDefault("signal.ttl", signal.DefaultTTL)
	v.SetDefault("signal.sentinel", signal.DefaultSentinel)

	v.SetDefault("runner.poll_interval", runner.DefaultPollInterval)
	v.SetDefault("runner.kill_grace", runner.DefaultKillGrace)
	v.SetDefault("runner.history", runner.DefaultHistory)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}

// bindEnv keeps the historical certificate variable names working.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("tls.key", "PRN_TLS_KEY")
	_ = v.BindEnv("tls.cert", "PRN_TLS_CERT")
	_ = v.BindEnv("tls.ca", "PRN_TLS_CA", "PRN_CA_TLS_CERT")
}

// New builds a viper instance. A non-empty file must exist; otherwise prn.toml
// is searched for and may be absent.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
		return v, nil
	}

	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".prn"))
	}
	v.AddConfigPath("/etc/prn")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// Load unmarshals and validates v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return errors.New("address must not be empty")
	}
	if c.TLS.Enabled() && (c.TLS.Key == "" || c.TLS.Cert == "" || c.TLS.CA == "") {
		return errors.WithHint(
			errors.New("incomplete TLS configuration"),
			"set all of PRN_TLS_KEY, PRN_TLS_CERT and PRN_CA_TLS_CERT, or none of them")
	}
	if c.Signal.TTL <= 0 {
		return errors.Newf("signal.ttl must be positive, got %s", c.Signal.TTL)
	}
	if c.Runner.PollInterval <= 0 || c.Runner.KillGrace <= 0 {
		return errors.New("runner durations must be positive")
	}
	return nil
}
