package forecast

import (
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
)

// DangerRange is a contiguous run of days sharing one danger combination.
type DangerRange struct {
	StartIndex int            `json:"startIndex"`
	EndIndex   int            `json:"endIndex"`
	Scenario   model.Scenario `json:"scenario"`
}

// Aggregate reduces a day series into one scenario's totals. With no days the
// end and lowest balances are the starting balance.
func Aggregate(startingBalance int64, days []model.DailySnapshot, scenario model.Scenario) model.ScenarioResult {
	result := model.ScenarioResult{
		EndBalance:    startingBalance,
		LowestBalance: startingBalance,
		DangerDays:    []time.Time{},
	}

	for i, day := range days {
		result.TotalIncome += day.IncomeFor(scenario)
		result.TotalExpenses += day.ExpenseTotal()

		balance := day.Balance(scenario)
		if i == 0 || balance < result.LowestBalance {
			result.LowestBalance = balance
			result.LowestBalanceDate = day.Date
		}
		if day.Danger(scenario) {
			result.DangerDays = append(result.DangerDays, day.Date)
		}
		result.EndBalance = balance
	}
	result.DangerDayCount = len(result.DangerDays)
	return result
}

// DangerRanges compresses danger flags into runs. A new run starts whenever
// the combination of flags changes between consecutive days; days with no
// danger produce no range.
func DangerRanges(days []model.DailySnapshot) []DangerRange {
	var ranges []DangerRange
	var current *DangerRange
	for i, day := range days {
		combination, inDanger := dangerCombination(day)
		if current != nil && (!inDanger || current.Scenario != combination) {
			ranges = append(ranges, *current)
			current = nil
		}
		if !inDanger {
			continue
		}
		if current == nil {
			current = &DangerRange{StartIndex: i, Scenario: combination}
		}
		current.EndIndex = i
	}
	if current != nil {
		ranges = append(ranges, *current)
	}
	return ranges
}

func dangerCombination(day model.DailySnapshot) (model.Scenario, bool) {
	switch {
	case day.OptimisticDanger && day.PessimisticDanger:
		return model.ScenarioBoth, true
	case day.PessimisticDanger:
		return model.ScenarioPessimistic, true
	case day.OptimisticDanger:
		return model.ScenarioOptimistic, true
	default:
		return "", false
	}
}
