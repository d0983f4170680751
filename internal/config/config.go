package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"telemetry_map/core-go/internal/dashboard"
	"telemetry_map/core-go/internal/projection"
	"telemetry_map/core-go/internal/throttle"
	"telemetry_map/core-go/internal/viewport"
	"telemetry_map/core-go/internal/visibleset"
)

// Config is the process configuration. Every key can be set from the environment (dots become
// underscores, so layout.min_width is LAYOUT_MIN_WIDTH) or from the YAML file named by
// CONFIG_FILE; the environment wins.
type Config struct {
	HTTPAddr    string   `mapstructure:"http_addr"`
	LogLevel    string   `mapstructure:"log_level"`
	DatabaseURL string   `mapstructure:"database_url"`
	Layout      Layout   `mapstructure:"layout"`
	Render      Render   `mapstructure:"render"`
	Sessions    Sessions `mapstructure:"sessions"`
}

type Layout struct {
	MapRatio         float64           `mapstructure:"map_ratio"`
	HeaderHeight     float64           `mapstructure:"header_height"`
	MinWidth         float64           `mapstructure:"min_width"`
	VerticalTiers    []projection.Tier `mapstructure:"vertical_tiers"`
	VerticalFallback float64           `mapstructure:"vertical_fallback"`
}

type Render struct {
	Throttle   time.Duration `mapstructure:"throttle"`
	VisibleCap int           `mapstructure:"visible_cap"`
}

type Sessions struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

func setDefaults(v *viper.Viper) {
	tiers := projection.DefaultTiers()

	v.SetDefault("http_addr", ":8081")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "")
	v.SetDefault("config_file", "")

	v.SetDefault("layout.map_ratio", viewport.DefaultMapRatio)
	v.SetDefault("layout.header_height", viewport.DefaultHeaderHeight)
	v.SetDefault("layout.min_width", viewport.DefaultMinWidth)
	v.SetDefault("layout.vertical_tiers", tiers.Steps)
	v.SetDefault("layout.vertical_fallback", tiers.Fallback)

	v.SetDefault("render.throttle", throttle.DefaultWindow)
	v.SetDefault("render.visible_cap", visibleset.DefaultCap)

	v.SetDefault("sessions.idle_timeout", 10*time.Minute)
	v.SetDefault("sessions.sweep_interval", time.Minute)
}

// Load reads the configuration from the environment and, when CONFIG_FILE is set, from that
// YAML file.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit YAML file. An empty path falls back to CONFIG_FILE.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config_file")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr must not be empty"))
	}
	if c.Layout.MapRatio <= 0 {
		errs = append(errs, fmt.Errorf("layout.map_ratio must be positive, got %v", c.Layout.MapRatio))
	}
	if c.Layout.HeaderHeight < 0 {
		errs = append(errs, fmt.Errorf("layout.header_height must not be negative, got %v", c.Layout.HeaderHeight))
	}
	if c.Layout.MinWidth < 0 {
		errs = append(errs, fmt.Errorf("layout.min_width must not be negative, got %v", c.Layout.MinWidth))
	}
	if c.Render.Throttle < 0 {
		errs = append(errs, fmt.Errorf("render.throttle must not be negative, got %s", c.Render.Throttle))
	}
	if c.Render.VisibleCap < 0 {
		errs = append(errs, fmt.Errorf("render.visible_cap must not be negative, got %d", c.Render.VisibleCap))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) ViewportConstants() viewport.Constants {
	return viewport.Constants{
		MapRatio:     c.Layout.MapRatio,
		HeaderHeight: c.Layout.HeaderHeight,
		MinWidth:     c.Layout.MinWidth,
	}
}

func (c Config) Tiers() projection.Tiers {
	return projection.NewTiers(c.Layout.VerticalTiers, c.Layout.VerticalFallback)
}

func (c Config) DashboardOptions() dashboard.Options {
	return dashboard.Options{
		Viewport:   c.ViewportConstants(),
		Tiers:      c.Tiers(),
		Throttle:   c.Render.Throttle,
		VisibleCap: c.Render.VisibleCap,
	}
}
