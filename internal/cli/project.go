package cli

import (
	"fmt"

	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/output"
	"github.com/iwvelando/cashflow-forecast/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProjectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the planner file and print the daily balances",
		Args:  cobra.NoArgs,
		RunE:  a.runProject,
	}
	addProjectionFlags(cmd, a)
	return cmd
}

func (a *app) runProject(cmd *cobra.Command, _ []string) error {
	conf, logger, err := a.loadConfig(true)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config. An unknown configured format
	// was already warned about and falls back to pretty; an unknown flag fails.
	outputFormat := conf.Output.Format
	if validation.ValidateOutputFormat(outputFormat) != nil {
		outputFormat = constants.OutputFormatPretty
	}
	if a.outputFormat != "" {
		if err := validation.ValidateOutputFormat(a.outputFormat); err != nil {
			return err
		}
		outputFormat = a.outputFormat
	}

	r, err := a.project(cmd.Context(), conf, logger)
	if err != nil {
		logger.Error("failed to compute projection",
			zap.String("op", "cli.runProject"),
			zap.Error(err),
		)
		return err
	}

	out := cmd.OutOrStdout()
	result := output.Result{
		Projection: r.projection,
		Health:     r.report,
		Locale:     chart.ParseLocale(conf.Projection.Locale),
		Warnings:   r.warnings,
	}

	if outputFormat != constants.OutputFormatPretty {
		return output.Write(out, outputFormat, result)
	}

	fmt.Fprintln(out, RenderTitle(fmt.Sprintf("Cashflow forecast, %d days", len(r.projection.Days))))
	if err := output.PrettyFormat(out, result); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, RenderDangerRanges(r.projection, forecast.DangerRanges(r.projection.Days)))
	return nil
}
