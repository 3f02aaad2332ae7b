// Package constants provides shared constants for the cashflow-forecast application.
package constants

// DateLayout is the civil date format expected in config files and is also the
// output date format.
const DateLayout = "2006-01-02"

// Projection constants
const (
	// DefaultHorizonDays is the projection length used when none is requested
	DefaultHorizonDays = 30

	// MaxHorizonDays bounds the daily loop
	MaxHorizonDays = 90

	// StalenessDays is how old a balanceUpdatedAt may get before the balance
	// is considered stale
	StalenessDays = 7

	// CentsPerUnit converts minor units to major units
	CentsPerUnit = 100

	// DaysPerWeek is the number of days in a week
	DaysPerWeek = 7
)

// AllowedHorizons lists the projection lengths callers may request.
var AllowedHorizons = []int{7, 14, 30, 60, 90}

// Near-danger threshold bounds, in major units.
const (
	// NearDangerPercent is the share of the starting balance used as the threshold
	NearDangerPercent = 5

	// NearDangerMin is the lowest threshold regardless of balance
	NearDangerMin = 1000

	// NearDangerMax is the highest threshold regardless of balance
	NearDangerMax = 20000
)

// SchemaVersion is the current ProjectionSnapshot schema. Increment it whenever
// the shape of inputs or projection changes incompatibly and register a
// migration in internal/snapshot.
const SchemaVersion = 1

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultSnapshotDatabase is the default SQLite file for saved projections
	DefaultSnapshotDatabase = "snapshots.db"

	// DefaultLocale is used for chart labels when no locale is configured
	DefaultLocale = "pt-BR"

	// CurrencySymbol prefixes formatted amounts
	CurrencySymbol = "R$"
)

// Cache backends
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	// DefaultRedisAddress is used when the redis backend has no address configured
	DefaultRedisAddress = "localhost:6379"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
