package cli

import (
	"errors"
	"fmt"

	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/config"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/internal/snapshot"
	"github.com/iwvelando/cashflow-forecast/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSnapshotCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, list, show and compare frozen projections",
	}
	cmd.PersistentFlags().StringVar(&a.database, "db", "", "snapshot database override")

	save := &cobra.Command{
		Use:   "save",
		Short: "Project the planner file and store the result",
		Args:  cobra.NoArgs,
		RunE:  a.runSnapshotSave,
	}
	addProjectionFlags(save, a)
	save.Flags().StringVar(&a.name, "name", "", "snapshot name (default \"Projection <start date>\")")
	save.Flags().StringVar(&a.groupID, "group", "", "group the snapshot belongs to")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE:  a.runSnapshotList,
	}
	list.Flags().StringVar(&a.groupID, "group", "", "only list this group")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runSnapshotShow,
	}

	compare := &cobra.Command{
		Use:   "compare <older-id> <newer-id>",
		Short: "Compare the summary metrics of two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runSnapshotCompare,
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runSnapshotDelete,
	}

	cmd.AddCommand(save, list, show, compare, remove)
	return cmd
}

// openStore opens the snapshot database named by --db or the planner file.
func (a *app) openStore(conf *config.Configuration) (*store.Store, error) {
	path := conf.Storage.SnapshotDatabase
	if a.database != "" {
		path = a.database
	}
	return store.Open(path)
}

// withStore loads the configuration and database around fn.
func (a *app) withStore(requireConfig bool, fn func(*config.Configuration, *zap.Logger, *store.Store) error) error {
	conf, logger, err := a.loadConfig(requireConfig)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	s, err := a.openStore(conf)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	return fn(conf, logger, s)
}

func (a *app) runSnapshotSave(cmd *cobra.Command, _ []string) error {
	return a.withStore(true, func(conf *config.Configuration, logger *zap.Logger, s *store.Store) error {
		r, err := a.project(cmd.Context(), conf, logger)
		if err != nil {
			return err
		}

		snap := snapshot.Create(a.name, a.groupID, r.inputs, r.projection, r.now)
		if err := s.Save(cmd.Context(), snap); err != nil {
			return err
		}
		logger.Info("snapshot saved",
			zap.String("op", "cli.runSnapshotSave"),
			zap.String("id", snap.ID),
		)

		fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s (%s)\n", snap.ID, snap.Name)
		fmt.Fprint(cmd.OutOrStdout(), RenderHealth(r.report))
		return nil
	})
}

func (a *app) runSnapshotList(cmd *cobra.Command, _ []string) error {
	return a.withStore(false, func(_ *config.Configuration, _ *zap.Logger, s *store.Store) error {
		entries, err := s.List(cmd.Context(), a.groupID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("  No snapshots stored"))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), RenderTable(SnapshotTable(entries)))
		return nil
	})
}

func (a *app) runSnapshotShow(cmd *cobra.Command, args []string) error {
	return a.withStore(false, func(conf *config.Configuration, logger *zap.Logger, s *store.Store) error {
		snap, warnings, err := loadSnapshot(cmd, logger, s, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, warning := range warnings {
			fmt.Fprintln(out, warnStyle.Render("  "+warning))
		}
		fmt.Fprint(out, RenderTable(MetricsTable(snap)))

		// Staleness is judged as of the moment the snapshot was frozen.
		projection := snap.Data.Projection
		fmt.Fprint(out, RenderHealth(health.Evaluate(projection, snap.Data.Inputs, snap.CreatedAt, conf.Projection.StalenessDays, chart.ParseLocale(conf.Projection.Locale))))
		if !projection.Empty() {
			fmt.Fprint(out, RenderDangerRanges(projection, forecast.DangerRanges(projection.Days)))
		}
		return nil
	})
}

func (a *app) runSnapshotCompare(cmd *cobra.Command, args []string) error {
	return a.withStore(false, func(_ *config.Configuration, logger *zap.Logger, s *store.Store) error {
		older, _, err := loadSnapshot(cmd, logger, s, args[0])
		if err != nil {
			return err
		}
		newer, _, err := loadSnapshot(cmd, logger, s, args[1])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), RenderTable(ComparisonTable(snapshot.Compare(older, newer))))
		return nil
	})
}

func (a *app) runSnapshotDelete(cmd *cobra.Command, args []string) error {
	return a.withStore(false, func(_ *config.Configuration, _ *zap.Logger, s *store.Store) error {
		if err := s.Delete(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("snapshot %s not found", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s\n", args[0])
		return nil
	})
}

func loadSnapshot(cmd *cobra.Command, logger *zap.Logger, s *store.Store, id string) (model.ProjectionSnapshot, []string, error) {
	raw, err := s.Get(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.ProjectionSnapshot{}, nil, fmt.Errorf("snapshot %s not found", id)
		}
		return model.ProjectionSnapshot{}, nil, err
	}
	return snapshot.Load(logger, raw)
}
