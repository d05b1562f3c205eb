package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/angas/nmcweather-go/logging"
	"github.com/angas/nmcweather-go/nmc"
	"github.com/angas/nmcweather-go/slice"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int `validate:"gte=0,lte=65535"`
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
}

type AppConfigDatabase struct {
	Path string `validate:"required"`
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigStation struct {
	Code string `validate:"required,alphanum"` // NMC station code, e.g. "58367", see cmd/nmc_stations
	// Display name, defaults to province and city as reported by NMC
	Name   string
	Images []string `validate:"dive,oneof=radar precipitation24 max_temperature24 temperature_hourly"`
}

func (s AppConfigStation) ImageKinds() []nmc.ImageKind {
	return slice.Map(s.Images, func(img string) nmc.ImageKind { return nmc.ImageKind(img) })
}

type AppConfigNmc struct {
	BaseURL   *string `mapstructure:"base_url" validate:"omitempty,url"`
	UserAgent *string `mapstructure:"user_agent"`
}

func (n AppConfigNmc) GetBaseURL() string {
	if n.BaseURL == nil || *n.BaseURL == "" {
		return nmc.DefaultBaseURL
	}
	return *n.BaseURL
}

func (n AppConfigNmc) GetUserAgent() string {
	if n.UserAgent == nil {
		return "nmcweather-go"
	}
	return *n.UserAgent
}

type AppConfigWeather struct {
	RunAt *string `mapstructure:"run_at"` // cron spec, default "@every 10m"
	// Deadline for a complete fetch cycle in seconds, default 30
	TimeoutSec *int `mapstructure:"timeout_sec" validate:"omitempty,gt=0"`
}

func (w AppConfigWeather) GetRunAt() string {
	if w.RunAt == nil || *w.RunAt == "" {
		return "@every 10m"
	}
	return *w.RunAt
}

func (w AppConfigWeather) GetTimeoutSec() int {
	if w.TimeoutSec == nil {
		return 30
	}
	return *w.TimeoutSec
}

type AppConfigMqtt struct {
	Enabled  bool
	Host     string `validate:"required_if=Enabled true"`
	Port     int    `validate:"gte=0,lte=65535"`
	Username string
	Password string
	// Home Assistant discovery prefix, default: "homeassistant"
	DiscoveryPrefix *string `mapstructure:"discovery_prefix"`
	// Prefix of state topics, default: "nmc_weather"
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) GetPort() int {
	if m.Port == 0 {
		return 1883
	}
	return m.Port
}

func (m AppConfigMqtt) GetDiscoveryPrefix() string {
	if m.DiscoveryPrefix == nil {
		return "homeassistant"
	}
	return *m.DiscoveryPrefix
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "nmc_weather"
	}
	return *m.TopicPrefix
}

type AppConfigGui struct {
	// Timezone for displaying times in the GUI, default: Asia/Shanghai
	Timezone *string `mapstructure:"timezone"`
}

func (g AppConfigGui) GetTimezone() string {
	if g.Timezone == nil {
		return "Asia/Shanghai"
	}
	return *g.Timezone
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for database console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi
	Database AppConfigDatabase
	Station  AppConfigStation
	Nmc      AppConfigNmc
	Weather  AppConfigWeather
	Mqtt     AppConfigMqtt
	Gui      AppConfigGui     `mapstructure:"gui"`
	Logging  AppConfigLogging `mapstructure:"logging"`
}

// Load reads the config file, environment variables override it with "."
// replaced by "_", e.g. STATION_CODE. A .env file in the working directory
// is loaded into the environment first.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to read .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &c, nil
}
