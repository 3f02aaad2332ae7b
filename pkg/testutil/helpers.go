// Package testutil provides common utility functions for testing.
package testutil

import (
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
)

// Date parses a civil date and panics on error.
func Date(s string) time.Time {
	return datetime.MustParseTime(datetime.DateLayout, s)
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// BasicInputs is a checking account of 1000.00, a guaranteed salary of
// 500.00 on the 5th and rent of 300.00 on the 10th.
func BasicInputs() model.Inputs {
	return model.Inputs{
		Accounts: []model.BankAccount{
			{ID: "checking", Name: "Checking", Kind: model.AccountChecking, Balance: 100000},
		},
		RecurringProjects: []model.RecurringProject{
			{
				ID:        "salary",
				Name:      "Salary",
				Amount:    50000,
				Frequency: model.FrequencyMonthly,
				Schedule:  model.DayOfMonth{Day: 5},
				Certainty: model.CertaintyGuaranteed,
				Active:    true,
			},
		},
		FixedExpenses: []model.FixedExpense{
			{ID: "rent", Name: "Rent", Amount: 30000, DueDay: 10, Active: true},
		},
	}
}

// FindDay returns the projected day for date, or nil when it is outside the
// projection.
func FindDay(projection model.CashflowProjection, date time.Time) *model.DailySnapshot {
	for i := range projection.Days {
		if projection.Days[i].Date.Equal(date) {
			return &projection.Days[i]
		}
	}
	return nil
}
