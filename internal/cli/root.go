// Package cli implements the cashflow-forecast command line: projecting a
// planner file, managing saved snapshots and serving the HTTP API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/cache"
	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/config"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
	"github.com/iwvelando/cashflow-forecast/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the flag values shared by every command.
type app struct {
	version    string
	configPath string
	logLevel   string
	now        func() time.Time

	outputFormat string
	horizonDays  int
	startDate    string
	noCache      bool

	database string
	name     string
	groupID  string

	serverConfig string
	address      string
}

// Execute is the main entry point called from main.go.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Running it without a subcommand
// projects the planner file.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&app{version: version, now: time.Now})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "cashflow-forecast",
		Short:        "Daily cashflow projection",
		Long:         "Project daily balances under best and worst case income, flag danger days and keep snapshots for later comparison.",
		Version:      a.version,
		SilenceUsage: true,
		RunE:         a.runProject,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	addProjectionFlags(root, a)

	root.AddCommand(newProjectCommand(a))
	root.AddCommand(newSnapshotCommand(a))
	root.AddCommand(newServeCommand(a))
	return root
}

func addProjectionFlags(cmd *cobra.Command, a *app) {
	cmd.Flags().StringVar(&a.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	cmd.Flags().IntVar(&a.horizonDays, "horizon", 0, "projection length override in days (7, 14, 30, 60, 90)")
	cmd.Flags().StringVar(&a.startDate, "start", "", "first projected day override (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&a.noCache, "no-cache", false, "skip the projection cache")
}

// loadConfig reads the planner file and builds the logger it configures. When
// required is false a missing file yields the defaults.
func (a *app) loadConfig(required bool) (*config.Configuration, *zap.Logger, error) {
	conf, err := config.LoadConfiguration(a.configPath)
	if err != nil {
		if required || !missingFile(a.configPath) {
			return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
		}
		conf = config.Defaults()
	}

	logger, err := InitializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return conf, logger, nil
}

func missingFile(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// run is one projection computed from a planner file.
type run struct {
	inputs     model.Inputs
	opts       forecast.Options
	projection model.CashflowProjection
	report     health.Report
	warnings   []string
	cached     bool
	now        time.Time
}

// project converts, validates and projects the planner's inputs, applying
// the command-line overrides.
func (a *app) project(ctx context.Context, conf *config.Configuration, logger *zap.Logger) (run, error) {
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "cli.project"),
		)
	}

	if a.horizonDays != 0 {
		conf.Projection.HorizonDays = a.horizonDays
	}
	if a.startDate != "" {
		if _, err := datetime.ParseDate(a.startDate); err != nil {
			return run{}, fmt.Errorf("--start: %w", err)
		}
		conf.Projection.StartDate = a.startDate
	}

	inputs, err := conf.ToInputs()
	if err != nil {
		return run{}, err
	}
	if err := validation.ValidateInputs(inputs); err != nil {
		return run{}, err
	}

	now := a.now()
	opts, err := conf.Options(now)
	if err != nil {
		return run{}, err
	}

	backend := conf.Cache.Backend
	if a.noCache {
		backend = constants.CacheBackendNone
	}
	repo, err := cache.New(backend, conf.Cache.RedisAddress)
	if err != nil {
		return run{}, err
	}
	defer closeRepository(repo)

	projection, cached := cache.NewMemoizer(logger, repo, conf.Cache.TTL).Projection(ctx, inputs, opts)
	logger.Debug("projection ready",
		zap.String("op", "cli.project"),
		zap.Bool("cached", cached),
	)

	return run{
		inputs:     inputs,
		opts:       opts,
		projection: projection,
		report:     health.Evaluate(projection, inputs, now, conf.Projection.StalenessDays, chart.ParseLocale(conf.Projection.Locale)),
		warnings:   warnings,
		cached:     cached,
		now:        now,
	}, nil
}

func closeRepository(repo cache.Repository) {
	if closer, ok := repo.(io.Closer); ok {
		_ = closer.Close()
	}
}
