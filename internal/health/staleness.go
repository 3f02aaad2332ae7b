package health

import (
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
)

// IsStale reports whether a balance last updated at updatedAt is older than
// stalenessDays as of now. A balance that was never updated is stale.
func IsStale(updatedAt, now time.Time, stalenessDays int) bool {
	if stalenessDays <= 0 {
		stalenessDays = constants.StalenessDays
	}
	if updatedAt.IsZero() {
		return true
	}
	return now.Sub(updatedAt) > time.Duration(stalenessDays)*24*time.Hour
}

// CountStale counts accounts and cards whose balance is stale.
func CountStale(inputs model.Inputs, now time.Time, stalenessDays int) int {
	count := 0
	for _, account := range inputs.Accounts {
		if IsStale(account.BalanceUpdatedAt, now, stalenessDays) {
			count++
		}
	}
	for _, card := range inputs.CreditCards {
		if IsStale(card.BalanceUpdatedAt, now, stalenessDays) {
			count++
		}
	}
	return count
}
