// Package forecast defines the daily balance simulation and the aggregation of
// its results into per-scenario totals.
package forecast

import (
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
	"go.uber.org/zap"
)

// Options selects the projection window.
type Options struct {
	StartDate   time.Time
	HorizonDays int
}

// Horizon returns the number of days to simulate, defaulting when unset.
func (o Options) Horizon() int {
	if o.HorizonDays <= 0 {
		return constants.DefaultHorizonDays
	}
	return o.HorizonDays
}

// Window returns the first and last simulated dates.
func (o Options) Window() (time.Time, time.Time) {
	start := datetime.Civil(o.StartDate)
	return start, start.AddDate(0, 0, o.Horizon()-1)
}

// GetProjection walks the window day by day and returns both scenarios'
// balances. Inputs must already have passed validation.ValidateInputs.
func GetProjection(logger *zap.Logger, inputs model.Inputs, opts Options) model.CashflowProjection {
	if logger == nil {
		logger = zap.NewNop()
	}

	start, end := opts.Window()
	days := opts.Horizon()
	calendar := buildCalendar(inputs, start, end)

	projection := model.CashflowProjection{
		StartDate:       start,
		EndDate:         end,
		StartingBalance: inputs.StartingBalance(),
		InvestmentTotal: inputs.InvestmentTotal(),
		Days:            make([]model.DailySnapshot, 0, days),
	}

	optimistic := projection.StartingBalance
	pessimistic := projection.StartingBalance
	for offset := 0; offset < days; offset++ {
		entry := calendar[offset]
		day := model.DailySnapshot{
			Date:      start.AddDate(0, 0, offset),
			DayOffset: offset,
			Income:    entry.income,
			Expenses:  entry.expenses,
		}

		expenses := day.ExpenseTotal()
		optimistic += day.IncomeFor(model.ScenarioOptimistic) - expenses
		pessimistic += day.IncomeFor(model.ScenarioPessimistic) - expenses

		day.OptimisticBalance = optimistic
		day.PessimisticBalance = pessimistic
		day.OptimisticDanger = optimistic < 0
		day.PessimisticDanger = pessimistic < 0

		if len(day.Income) > 0 || len(day.Expenses) > 0 {
			logger.Debug("events applied",
				zap.String("op", "forecast.GetProjection"),
				zap.String("date", day.Date.Format(constants.DateLayout)),
				zap.Int("income", len(day.Income)),
				zap.Int("expenses", len(day.Expenses)),
				zap.Int64("optimistic", optimistic),
				zap.Int64("pessimistic", pessimistic),
			)
		}
		projection.Days = append(projection.Days, day)
	}

	projection.Optimistic = Aggregate(projection.StartingBalance, projection.Days, model.ScenarioOptimistic)
	projection.Pessimistic = Aggregate(projection.StartingBalance, projection.Days, model.ScenarioPessimistic)

	logger.Debug("projection computed",
		zap.String("op", "forecast.GetProjection"),
		zap.String("start", start.Format(constants.DateLayout)),
		zap.Int("days", days),
		zap.Int("optimisticDangerDays", projection.Optimistic.DangerDayCount),
		zap.Int("pessimisticDangerDays", projection.Pessimistic.DangerDayCount),
	)
	return projection
}
