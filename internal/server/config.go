package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/cashflow-forecast/internal/config"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server: where it listens,
// how large a planner upload may be, and the projection, snapshot storage and
// cache settings shared with the CLI.
type Config struct {
	Address         string                  `yaml:"address"`
	MaxUploadSize   string                  `yaml:"maxUploadSize"`
	Logging         config.LoggingConfig    `yaml:"logging"`
	Projection      config.ProjectionConfig `yaml:"projection"`
	Storage         config.StorageConfig    `yaml:"storage"`
	Cache           config.CacheConfig      `yaml:"cache"`
	uploadSizeBytes int64
}

// DefaultConfig returns the server configuration used when no file exists.
// Logging is left empty so the CLI's logger defaults apply.
func DefaultConfig() *Config {
	return &Config{
		Address:       constants.DefaultServerAddress,
		MaxUploadSize: strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10),
		Projection: config.ProjectionConfig{
			Locale:        constants.DefaultLocale,
			StalenessDays: constants.StalenessDays,
		},
		Storage:         config.StorageConfig{SnapshotDatabase: constants.DefaultSnapshotDatabase},
		Cache:           config.CacheConfig{Backend: constants.CacheBackendMemory},
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}
}

// LoadConfig loads the server configuration from YAML over DefaultConfig. If
// the file does not exist, defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	cfg.applyDefaults(DefaultConfig())
	if err := cfg.resolveUploadSize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// applyDefaults refills settings the file explicitly blanked out.
func (c *Config) applyDefaults(defaults *Config) {
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.Projection.Locale == "" {
		c.Projection.Locale = defaults.Projection.Locale
	}
	if c.Projection.StalenessDays <= 0 {
		c.Projection.StalenessDays = defaults.Projection.StalenessDays
	}
	if c.Storage.SnapshotDatabase == "" {
		c.Storage.SnapshotDatabase = defaults.Storage.SnapshotDatabase
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaults.Cache.Backend
	}
	if strings.TrimSpace(c.MaxUploadSize) == "" {
		c.MaxUploadSize = defaults.MaxUploadSize
	}
}

func (c *Config) resolveUploadSize() error {
	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	return nil
}

var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	split := strings.LastIndexFunc(trimmed, unicode.IsDigit) + 1
	if split == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(trimmed[:split])
	unitPart := strings.TrimSpace(trimmed[split:])

	multiplier, ok := sizeUnits[unitPart]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/n != multiplier) {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
