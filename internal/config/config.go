package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Locate  LocateConfig  `yaml:"locate" mapstructure:"locate"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Display DisplayConfig `yaml:"display" mapstructure:"display"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects where the location set is loaded from at startup.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeocodeConfig configures the forward/reverse geocoding service.
type GeocodeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// LocateConfig configures the current-location probe.
type LocateConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"`
	GeoIPPath      string  `yaml:"geoip_path" mapstructure:"geoip_path"`
	StaticLat      float64 `yaml:"static_lat" mapstructure:"static_lat"`
	StaticLng      float64 `yaml:"static_lng" mapstructure:"static_lng"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaximumAgeSecs int     `yaml:"maximum_age_secs" mapstructure:"maximum_age_secs"`
	HighAccuracy   bool    `yaml:"high_accuracy" mapstructure:"high_accuracy"`
	Mode           string  `yaml:"mode" mapstructure:"mode"`
}

// Timeout returns the probe timeout as a duration.
func (c LocateConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MaximumAge returns how long a cached position stays acceptable.
func (c LocateConfig) MaximumAge() time.Duration {
	return time.Duration(c.MaximumAgeSecs) * time.Second
}

// CacheConfig configures the position cache backend. An empty RedisAddr
// keeps positions in process memory.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// DisplayConfig holds map view and transient UI timings.
type DisplayConfig struct {
	CenterLat         float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng         float64 `yaml:"center_lng" mapstructure:"center_lng"`
	InitialZoom       int     `yaml:"initial_zoom" mapstructure:"initial_zoom"`
	FocusZoom         int     `yaml:"focus_zoom" mapstructure:"focus_zoom"`
	CurrentPinTTLSecs int     `yaml:"current_pin_ttl_secs" mapstructure:"current_pin_ttl_secs"`
	StatusTTLSecs     int     `yaml:"status_ttl_secs" mapstructure:"status_ttl_secs"`
	AnnotateAddresses bool    `yaml:"annotate_addresses" mapstructure:"annotate_addresses"`
	// Consecutive lookup failures after which popup annotation pauses for
	// the cooldown. Zero disables the breaker.
	AnnotateBreakerThreshold    int `yaml:"annotate_breaker_threshold" mapstructure:"annotate_breaker_threshold"`
	AnnotateBreakerCooldownSecs int `yaml:"annotate_breaker_cooldown_secs" mapstructure:"annotate_breaker_cooldown_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "builtin")
	v.SetDefault("store.path", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("geocode.base_url", "https://api.opencagedata.com/geocode/v1/json")
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("geocode.rate_limit", 0)
	v.SetDefault("geocode.user_agent", "map-explorer/1.0")
	v.SetDefault("locate.provider", "geoip")
	v.SetDefault("locate.geoip_path", "data/GeoLite2-City.mmdb")
	v.SetDefault("locate.static_lat", 40.7128)
	v.SetDefault("locate.static_lng", -74.0060)
	v.SetDefault("locate.timeout_secs", 10)
	v.SetDefault("locate.maximum_age_secs", 60)
	v.SetDefault("locate.high_accuracy", true)
	v.SetDefault("locate.mode", "ephemeral")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("display.center_lat", 40.7128)
	v.SetDefault("display.center_lng", -74.0060)
	v.SetDefault("display.initial_zoom", 12)
	v.SetDefault("display.focus_zoom", 15)
	v.SetDefault("display.current_pin_ttl_secs", 5)
	v.SetDefault("display.status_ttl_secs", 5)
	v.SetDefault("display.annotate_addresses", true)
	v.SetDefault("display.annotate_breaker_threshold", 5)
	v.SetDefault("display.annotate_breaker_cooldown_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is the cobra
// command name; "serve" additionally requires a usable port.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "builtin":
	case "yaml", "xlsx", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for driver "+c.Store.Driver)
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for driver postgres")
		}
	default:
		errs = append(errs, "store.driver must be one of builtin, yaml, xlsx, sqlite, postgres")
	}

	switch c.Locate.Provider {
	case "geoip":
		if c.Locate.GeoIPPath == "" {
			errs = append(errs, "locate.geoip_path is required for provider geoip")
		}
	case "static", "disabled":
	default:
		errs = append(errs, "locate.provider must be one of geoip, static, disabled")
	}

	if c.Locate.Mode != "ephemeral" && c.Locate.Mode != "replace" {
		errs = append(errs, "locate.mode must be ephemeral or replace")
	}
	if c.Locate.TimeoutSecs <= 0 {
		errs = append(errs, "locate.timeout_secs must be positive")
	}
	if c.Locate.MaximumAgeSecs < 0 {
		errs = append(errs, "locate.maximum_age_secs must not be negative")
	}

	if c.Display.CenterLat < -90 || c.Display.CenterLat > 90 ||
		c.Display.CenterLng < -180 || c.Display.CenterLng > 180 {
		errs = append(errs, "display center is out of range")
	}
	if c.Display.CurrentPinTTLSecs <= 0 {
		errs = append(errs, "display.current_pin_ttl_secs must be positive")
	}

	if c.Display.AnnotateBreakerThreshold < 0 {
		errs = append(errs, "display.annotate_breaker_threshold must not be negative")
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
