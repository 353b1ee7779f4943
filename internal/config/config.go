package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	API       APIConfig       `mapstructure:"api"       validate:"required"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail" validate:"required"`
	Poll      PollConfig      `mapstructure:"poll"      validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// APIConfig describes the remote photo listing API.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"     validate:"required,url"`
	ConsumerKey string        `mapstructure:"consumer_key" validate:"required"`
	ImageSize   int           `mapstructure:"image_size"   validate:"gte=1,lte=6"`
	Sort        string        `mapstructure:"sort"         validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"      validate:"gt=0"`
}

// ThumbnailConfig controls thumbnail decoding.
type ThumbnailConfig struct {
	// MaxDimension bounds the longest side of a decoded thumbnail, in pixels.
	// Zero keeps the original size.
	MaxDimension int `mapstructure:"max_dimension" validate:"gte=0"`
	// Placeholder is the hex color shown in a slot until its thumbnail arrives.
	Placeholder string `mapstructure:"placeholder" validate:"required,hexcolor"`
}

// PollConfig controls background polling for new results.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	// CheckURL, when set, is requested before each poll; a failure counts as offline.
	CheckURL string `mapstructure:"check_url" validate:"omitempty,url"`
	// EnabledOnStart switches polling on at startup even if it was stored as off.
	EnabledOnStart bool `mapstructure:"enabled_on_start"`
}

// DatabaseConfig contains database-related configuration settings.
// An empty URL keeps preferences in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// CacheConfig configures the optional thumbnail byte cache.
// BucketURL is a gocloud.dev blob URL such as "mem://" or "file:///var/cache/photogallery".
type CacheConfig struct {
	BucketURL string `mapstructure:"bucket_url"`
}

// NotifyConfig configures the optional AMQP notification sink.
type NotifyConfig struct {
	AMQPURL    string `mapstructure:"amqp_url"    validate:"omitempty,url"`
	Exchange   string `mapstructure:"exchange"    validate:"required_with=AMQPURL"`
	RoutingKey string `mapstructure:"routing_key" validate:"required_with=AMQPURL"`
}
