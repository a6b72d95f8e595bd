package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full client configuration. Values come from defaults,
// then an optional yaml file, then GNSSRELAY_* environment variables.
type Config struct {
	ServerAddress   string        `mapstructure:"server_address" validate:"required,hostname_port"`
	StatusAddr      string        `mapstructure:"status_addr" validate:"omitempty,hostname_port"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" validate:"gt=0"`
	BackoffInitial  time.Duration `mapstructure:"backoff_initial" validate:"gt=0"`
	BackoffMax      time.Duration `mapstructure:"backoff_max" validate:"gtefield=BackoffInitial"`
	MockStopTimeout time.Duration `mapstructure:"mock_stop_timeout" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_address", "")
	v.SetDefault("status_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("dial_timeout", 5*time.Second)
	v.SetDefault("backoff_initial", time.Second)
	v.SetDefault("backoff_max", 30*time.Second)
	v.SetDefault("mock_stop_timeout", 5*time.Second)
}

// Load reads configuration from file (skipped when empty) and the
// environment, then validates it.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("gnssrelay")
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
