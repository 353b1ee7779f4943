package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PHOTOGALLERY"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(viper.New(), ".")
}

// LoadFrom behaves like Load but searches dir for config.yaml.
func LoadFrom(dir string) (*Config, error) {
	return load(viper.New(), dir)
}

func load(v *viper.Viper, dir string) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("api.base_url", "https://api.500px.com/v1")
	v.SetDefault("api.image_size", 3)
	v.SetDefault("api.sort", "rating")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("thumbnail.max_dimension", 256)
	v.SetDefault("thumbnail.placeholder", "#d0d0d0")

	v.SetDefault("poll.interval", 15*time.Minute)
	v.SetDefault("poll.enabled_on_start", false)

	v.SetDefault("notify.exchange", "photogallery")
	v.SetDefault("notify.routing_key", "gallery.new_results")
}

// bindEnv registers keys without defaults so AutomaticEnv can populate them on Unmarshal.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"api.consumer_key",
		"poll.check_url",
		"database.url",
		"cache.bucket_url",
		"notify.amqp_url",
	} {
		_ = v.BindEnv(key)
	}
}
