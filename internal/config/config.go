package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"momentum-tracker/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. MOMENTUM_STORAGE_DRIVER.
const EnvPrefix = "MOMENTUM"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
	Schedule ScheduleConfig `mapstructure:"schedule"`

	// Source is the config file that was read, empty when running on defaults.
	Source string `mapstructure:"-"`
}

type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	DBPath   string `mapstructure:"db_path"`
	JSONPath string `mapstructure:"json_path"`
}

type ScoringConfig struct {
	ProductiveThreshold int            `mapstructure:"productive_threshold"`
	StrictWeights       bool           `mapstructure:"strict_weights"`
	Categories          map[string]int `mapstructure:"categories"`
}

type RecoveryConfig struct {
	Threshold int `mapstructure:"threshold"`
}

type ScheduleConfig struct {
	DayResetTime   string        `mapstructure:"day_reset_time"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	Timezone       string        `mapstructure:"timezone"`
}

// Load reads .env, the optional config file and MOMENTUM_* environment variables on
// top of the defaults. An empty configPath searches ./momentum.yaml and ./config/.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("momentum")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var source string
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		source = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = source

	// categories are not a viper default: defaults would be merged into a configured table
	if len(cfg.Scoring.Categories) == 0 {
		cfg.Scoring.Categories = scoring.DefaultWeights()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.db_path", "momentum.db")
	v.SetDefault("storage.json_path", "momentum.json")

	v.SetDefault("scoring.productive_threshold", 70)
	v.SetDefault("scoring.strict_weights", false)

	v.SetDefault("recovery.threshold", 70)

	v.SetDefault("schedule.day_reset_time", "00:00")
	v.SetDefault("schedule.report_interval", 5*time.Hour)
	v.SetDefault("schedule.timezone", "Local")
}

// Validate rejects settings the engines cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverJSON:
	default:
		return fmt.Errorf("unknown storage driver %q, expected %s or %s", c.Storage.Driver, DriverSQLite, DriverJSON)
	}
	if err := checkThreshold("scoring.productive_threshold", c.Scoring.ProductiveThreshold); err != nil {
		return err
	}
	if err := checkThreshold("recovery.threshold", c.Recovery.Threshold); err != nil {
		return err
	}
	if _, err := time.Parse("15:04", c.Schedule.DayResetTime); err != nil {
		return fmt.Errorf("invalid schedule.day_reset_time %q, expected HH:MM", c.Schedule.DayResetTime)
	}
	if c.Schedule.ReportInterval < 0 {
		return fmt.Errorf("schedule.report_interval must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves schedule.timezone. "Local" and empty mean the system zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Schedule.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

func checkThreshold(key string, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s must be within 0..100, got %d", key, v)
	}
	return nil
}
