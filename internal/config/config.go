// Package config defines the planner file: the entities to project plus the
// settings for logging, output, storage and caching. Amounts in the file are
// major units and dates are text; ToInputs converts them to the model.
package config

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
	"github.com/iwvelando/cashflow-forecast/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for cashflow-forecast.
type Configuration struct {
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Projection ProjectionConfig `yaml:"projection,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Inputs     InputsConfig     `yaml:"inputs"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// ProjectionConfig selects the projection window and how it is presented.
type ProjectionConfig struct {
	HorizonDays   int    `yaml:"horizonDays,omitempty"`
	StartDate     string `yaml:"startDate,omitempty"` // empty means today
	Locale        string `yaml:"locale,omitempty"`
	StalenessDays int    `yaml:"stalenessDays,omitempty"`
}

// StorageConfig locates the snapshot database.
type StorageConfig struct {
	SnapshotDatabase string `yaml:"snapshotDatabase,omitempty"`
}

// CacheConfig selects the projection memoization backend.
type CacheConfig struct {
	Backend      string        `yaml:"backend,omitempty"` // none, memory, redis
	RedisAddress string        `yaml:"redisAddress,omitempty"`
	TTL          time.Duration `yaml:"ttl,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("projection.horizonDays", constants.DefaultHorizonDays)
	v.SetDefault("projection.locale", constants.DefaultLocale)
	v.SetDefault("projection.stalenessDays", constants.StalenessDays)
	v.SetDefault("storage.snapshotDatabase", constants.DefaultSnapshotDatabase)
	v.SetDefault("cache.backend", constants.CacheBackendNone)
	v.SetDefault("cache.redisAddress", constants.DefaultRedisAddress)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

// Defaults returns the configuration used when no planner file exists.
func Defaults() *Configuration {
	configuration, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return configuration
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timestampToStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&configuration, hook); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// timestampToStringHook turns the timestamps YAML resolves from unquoted
// dates back into text for the string date fields. Midnight values keep the
// plain date layout.
func timestampToStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		t, ok := data.(time.Time)
		if !ok || to.Kind() != reflect.String {
			return data, nil
		}
		if t.Equal(datetime.Civil(t)) {
			return t.Format(datetime.DateLayout), nil
		}
		return t.Format(time.RFC3339), nil
	}
}

// Options returns the projection window, starting today when no start date
// is configured.
func (c *Configuration) Options(now time.Time) (forecast.Options, error) {
	if err := validation.ValidateHorizon(c.Projection.HorizonDays); err != nil {
		return forecast.Options{}, err
	}
	start := datetime.Civil(now)
	if c.Projection.StartDate != "" {
		parsed, err := datetime.ParseDate(c.Projection.StartDate)
		if err != nil {
			return forecast.Options{}, fmt.Errorf("projection.startDate: %w", err)
		}
		start = parsed
	}
	return forecast.Options{StartDate: start, HorizonDays: c.Projection.HorizonDays}, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Hard errors come from ToInputs and validation.ValidateInputs.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, fmt.Sprintf("%v; falling back to %s", err, constants.OutputFormatPretty))
	}
	if err := validation.ValidateHorizon(c.Projection.HorizonDays); err != nil {
		warnings = append(warnings, err.Error())
	}

	if len(c.Inputs.Accounts) == 0 && len(c.Inputs.CreditCards) == 0 {
		warnings = append(warnings, "no accounts or credit cards configured; the projection starts from zero")
	}
	for _, project := range c.Inputs.RecurringProjects {
		if !isActive(project.Active) {
			warnings = append(warnings, fmt.Sprintf("recurring project %s is inactive and will be skipped", project.ID))
		}
	}
	for _, expense := range c.Inputs.FixedExpenses {
		if !isActive(expense.Active) {
			warnings = append(warnings, fmt.Sprintf("fixed expense %s is inactive and will be skipped", expense.ID))
		}
	}
	for _, expense := range c.Inputs.SingleShotExpenses {
		if expense.Amount == 0 {
			warnings = append(warnings, fmt.Sprintf("single-shot expense %s has no amount", expense.ID))
		}
	}

	return warnings
}
