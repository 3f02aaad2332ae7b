// Package health classifies a projection into a tiered health status and
// explains it.
package health

import (
	"fmt"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/format"
	"github.com/iwvelando/cashflow-forecast/pkg/mathutil"
	"golang.org/x/text/language"
)

// Status is ordered danger > warning > caution > good.
type Status string

const (
	StatusGood    Status = "good"
	StatusCaution Status = "caution"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// Severity ranks a status; higher is worse.
func (s Status) Severity() int {
	switch s {
	case StatusDanger:
		return 3
	case StatusWarning:
		return 2
	case StatusCaution:
		return 1
	default:
		return 0
	}
}

// Input holds everything the classifier looks at. Amounts are cents.
type Input struct {
	OptimisticDangerDays  int
	PessimisticDangerDays int
	StartingBalance       int64
	PessimisticMinBalance int64
	PessimisticMinDate    time.Time
	StaleCount            int
	StalenessDays         int
	Locale                language.Tag
}

// Report is the classification plus the numbers behind it.
type Report struct {
	Status                Status    `json:"status"`
	Message               string    `json:"message"`
	NearDangerThreshold   int64     `json:"nearDangerThreshold"`
	NearDanger            bool      `json:"nearDanger"`
	StaleCount            int       `json:"staleCount"`
	OptimisticDangerDays  int       `json:"optimisticDangerDays"`
	PessimisticDangerDays int       `json:"pessimisticDangerDays"`
	PessimisticMinBalance int64     `json:"pessimisticMinBalance"`
	PessimisticMinDate    time.Time `json:"pessimisticMinDate"`
}

// NearDangerThreshold returns the safety margin, in major units, for a
// starting balance in major units: 5% of its magnitude, bounded to
// [NearDangerMin, NearDangerMax].
func NearDangerThreshold(startingBalance int64) int64 {
	return mathutil.Clamp(
		mathutil.PercentOf(mathutil.AbsCents(startingBalance), constants.NearDangerPercent),
		constants.NearDangerMin,
		constants.NearDangerMax,
	)
}

// NearDangerThresholdCents is NearDangerThreshold over cents.
func NearDangerThresholdCents(startingBalance int64) int64 {
	return mathutil.Clamp(
		mathutil.PercentOf(mathutil.AbsCents(startingBalance), constants.NearDangerPercent),
		mathutil.FromMajor(constants.NearDangerMin),
		mathutil.FromMajor(constants.NearDangerMax),
	)
}

// CalculateHealthStatus picks the status in priority order.
func CalculateHealthStatus(optimisticDangerDays, pessimisticDangerDays int, nearDanger, hasStale bool) Status {
	switch {
	case optimisticDangerDays > 0:
		return StatusDanger
	case pessimisticDangerDays > 0:
		return StatusWarning
	case nearDanger || hasStale:
		return StatusCaution
	default:
		return StatusGood
	}
}

// Classify builds the full report for in.
func Classify(in Input) Report {
	threshold := NearDangerThresholdCents(in.StartingBalance)
	nearDanger := in.PessimisticMinBalance >= 0 && in.PessimisticMinBalance < threshold
	status := CalculateHealthStatus(in.OptimisticDangerDays, in.PessimisticDangerDays, nearDanger, in.StaleCount > 0)

	return Report{
		Status:                status,
		Message:               Message(status, in, nearDanger),
		NearDangerThreshold:   threshold,
		NearDanger:            nearDanger,
		StaleCount:            in.StaleCount,
		OptimisticDangerDays:  in.OptimisticDangerDays,
		PessimisticDangerDays: in.PessimisticDangerDays,
		PessimisticMinBalance: in.PessimisticMinBalance,
		PessimisticMinDate:    in.PessimisticMinDate,
	}
}

// Message explains status from its supporting numbers. Near danger is reported
// ahead of staleness when both apply.
func Message(status Status, in Input, nearDanger bool) string {
	switch status {
	case StatusDanger:
		return fmt.Sprintf("Your balance goes negative on %s even in the best case.", plural(in.OptimisticDangerDays, "day"))
	case StatusWarning:
		return fmt.Sprintf("In the worst case your balance goes negative on %s.", plural(in.PessimisticDangerDays, "day"))
	case StatusCaution:
		if nearDanger {
			return fmt.Sprintf("In the worst case your balance drops to %s on %s, below the safety margin of %s.",
				format.Currency(in.PessimisticMinBalance),
				chart.DateLabel(in.PessimisticMinDate, in.Locale),
				format.Currency(NearDangerThresholdCents(in.StartingBalance)))
		}
		days := in.StalenessDays
		if days <= 0 {
			days = constants.StalenessDays
		}
		return fmt.Sprintf("%s not been updated in over %d days.", pluralHave(in.StaleCount), days)
	default:
		return "Your balance stays healthy for the whole period."
	}
}

// Evaluate classifies a projection, counting stale balances as of now. Dates
// in the message are written for locale.
func Evaluate(projection model.CashflowProjection, inputs model.Inputs, now time.Time, stalenessDays int, locale language.Tag) Report {
	return Classify(Input{
		OptimisticDangerDays:  projection.Optimistic.DangerDayCount,
		PessimisticDangerDays: projection.Pessimistic.DangerDayCount,
		StartingBalance:       projection.StartingBalance,
		PessimisticMinBalance: projection.Pessimistic.LowestBalance,
		PessimisticMinDate:    projection.Pessimistic.LowestBalanceDate,
		StaleCount:            CountStale(inputs, now, stalenessDays),
		StalenessDays:         stalenessDays,
		Locale:                locale,
	})
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func pluralHave(n int) string {
	if n == 1 {
		return "1 balance has"
	}
	return fmt.Sprintf("%d balances have", n)
}
