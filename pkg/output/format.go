// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/mathutil"
	"golang.org/x/text/language"
)

// Result is everything printed for one projection run.
type Result struct {
	Projection model.CashflowProjection
	Health     health.Report
	Locale     language.Tag
	Warnings   []string
}

// Write prints r in the named format.
func Write(w io.Writer, format string, r Result) error {
	switch format {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, r)
	case constants.OutputFormatCSV:
		return CsvFormat(w, r)
	case constants.OutputFormatJSON:
		return JSONFormat(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
// Days where a scenario is negative are marked with "!".
func PrettyFormat(w io.Writer, r Result) error {
	money := func(cents int64) string {
		return constants.CurrencySymbol + chart.Amount(cents, r.Locale)
	}
	projection := r.Projection

	if _, err := fmt.Fprintf(w, "--- Cashflow from %s to %s ---\n",
		projection.StartDate.Format(constants.DateLayout), projection.EndDate.Format(constants.DateLayout)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Starting balance: %s | Investments: %s\n",
		money(projection.StartingBalance), money(projection.InvestmentTotal))
	fmt.Fprintf(w, "Health: %s. %s\n", r.Health.Status, r.Health.Message)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Date       | Best case       | Worst case      | Notes\n")
	fmt.Fprintf(w, "____       | _________       | __________      | _____\n")
	for _, day := range projection.Days {
		_, err := fmt.Fprintf(w, "%s | %s%s | %s%s | %s\n",
			day.Date.Format(constants.DateLayout),
			dangerMark(day.OptimisticDanger), money(day.OptimisticBalance),
			dangerMark(day.PessimisticDanger), money(day.PessimisticBalance),
			strings.Join(notes(day), ","))
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\n")
	for _, scenario := range []model.Scenario{model.ScenarioOptimistic, model.ScenarioPessimistic} {
		result := projection.Result(scenario)
		_, err := fmt.Fprintf(w, "%s: income %s, expenses %s, end %s, %d danger days\n",
			scenario, money(result.TotalIncome), money(result.TotalExpenses), money(result.EndBalance),
			result.DangerDayCount)
		if err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, r Result) error {
	if _, err := fmt.Fprintf(w, `"date","optimistic","pessimistic","optimistic danger","pessimistic danger","income","expenses","notes"`+"\n"); err != nil {
		return err
	}
	for _, day := range r.Projection.Days {
		_, err := fmt.Fprintf(w, `"%s","%.2f","%.2f","%t","%t","%.2f","%.2f","%s"`+"\n",
			day.Date.Format(constants.DateLayout),
			mathutil.ToMajorFloat(day.OptimisticBalance),
			mathutil.ToMajorFloat(day.PessimisticBalance),
			day.OptimisticDanger,
			day.PessimisticDanger,
			mathutil.ToMajorFloat(day.IncomeFor(model.ScenarioOptimistic)),
			mathutil.ToMajorFloat(day.ExpenseTotal()),
			csvEscape(strings.Join(notes(day), ",")))
		if err != nil {
			return err
		}
	}
	return nil
}

// CsvString returns CsvFormat's output as a string.
func CsvString(r Result) string {
	var buf bytes.Buffer
	_ = CsvFormat(&buf, r)
	return buf.String()
}

// Document is the JSON rendering of a Result.
type Document struct {
	Projection model.CashflowProjection `json:"projection"`
	Summary    chart.Summary            `json:"summary"`
	Points     []chart.Point            `json:"points"`
	Health     health.Report            `json:"health"`
	Warnings   []string                 `json:"warnings"`
}

// NewDocument derives the chart views for r.
func NewDocument(r Result) Document {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Document{
		Projection: r.Projection,
		Summary:    chart.Summarize(r.Projection),
		Points:     chart.Points(r.Projection, r.Locale),
		Health:     r.Health,
		Warnings:   warnings,
	}
}

// JSONFormat outputs an indented Document.
func JSONFormat(w io.Writer, r Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(r))
}

func dangerMark(danger bool) string {
	if danger {
		return "!"
	}
	return ""
}

// notes names the day's events, income first, with a sign for direction.
func notes(day model.DailySnapshot) []string {
	var out []string
	for _, event := range day.Income {
		out = append(out, "+"+event.Name)
	}
	for _, event := range day.Expenses {
		out = append(out, "-"+event.Name)
	}
	return out
}

func csvEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
