package health

import (
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/testutil"
	"golang.org/x/text/language"
)

func TestNearDangerThreshold(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		expected int64
	}{
		{name: "Zero balance floors to minimum", balance: 0, expected: 1000},
		{name: "Small balance floors to minimum", balance: 15000, expected: 1000},
		{name: "Mid balance scales", balance: 100_000, expected: 5_000},
		{name: "Large balance caps at maximum", balance: 1_000_000, expected: 20_000},
		{name: "Exactly at cap", balance: 400_000, expected: 20_000},
		{name: "Negative balance uses magnitude", balance: -100_000, expected: 5_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearDangerThreshold(tt.balance); got != tt.expected {
				t.Errorf("NearDangerThreshold(%d) = %d, expected %d", tt.balance, got, tt.expected)
			}
		})
	}
}

func TestNearDangerThresholdIsSymmetric(t *testing.T) {
	for _, balance := range []int64{0, 1, 999, 20_000, 123_456, 5_000_000} {
		if NearDangerThreshold(balance) != NearDangerThreshold(-balance) {
			t.Errorf("NearDangerThreshold(%d) != NearDangerThreshold(%d)", balance, -balance)
		}
		if NearDangerThresholdCents(balance*100) != NearDangerThresholdCents(-balance*100) {
			t.Errorf("NearDangerThresholdCents(%d) is not symmetric", balance*100)
		}
	}
}

func TestNearDangerThresholdCentsMatchesMajorUnits(t *testing.T) {
	for _, balance := range []int64{0, 100_000, 250_000, 1_000_000} {
		if got, expected := NearDangerThresholdCents(balance*100), NearDangerThreshold(balance)*100; got != expected {
			t.Errorf("NearDangerThresholdCents(%d) = %d, expected %d", balance*100, got, expected)
		}
	}
}

func TestCalculateHealthStatus(t *testing.T) {
	tests := []struct {
		name        string
		optimistic  int
		pessimistic int
		nearDanger  bool
		hasStale    bool
		expected    Status
	}{
		{name: "Best case fails", optimistic: 1, pessimistic: 0, expected: StatusDanger},
		{name: "Best case fails regardless of the rest", optimistic: 1, pessimistic: 9, nearDanger: true, hasStale: true, expected: StatusDanger},
		{name: "Worst case fails", optimistic: 0, pessimistic: 3, expected: StatusWarning},
		{name: "Worst case fails with stale data", optimistic: 0, pessimistic: 3, hasStale: true, expected: StatusWarning},
		{name: "Near danger", nearDanger: true, expected: StatusCaution},
		{name: "Stale balances", hasStale: true, expected: StatusCaution},
		{name: "All clear", expected: StatusGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateHealthStatus(tt.optimistic, tt.pessimistic, tt.nearDanger, tt.hasStale); got != tt.expected {
				t.Errorf("CalculateHealthStatus() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestStatusSeverityOrdering(t *testing.T) {
	ordered := []Status{StatusGood, StatusCaution, StatusWarning, StatusDanger}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Severity() <= ordered[i-1].Severity() {
			t.Errorf("%s should be more severe than %s", ordered[i], ordered[i-1])
		}
	}
}

func TestClassifyMessages(t *testing.T) {
	lowDate := testutil.Date("2025-06-10")

	tests := []struct {
		name       string
		input      Input
		status     Status
		nearDanger bool
		contains   []string
		excludes   []string
	}{
		{
			name:     "Danger counts best case days",
			input:    Input{OptimisticDangerDays: 1, PessimisticDangerDays: 4, StartingBalance: 100000, PessimisticMinBalance: -5000},
			status:   StatusDanger,
			contains: []string{"1 day", "best case"},
		},
		{
			name:     "Warning counts worst case days",
			input:    Input{PessimisticDangerDays: 4, StartingBalance: 100000, PessimisticMinBalance: -500},
			status:   StatusWarning,
			contains: []string{"4 days", "worst case"},
		},
		{
			name: "Near danger wins over staleness in the message",
			input: Input{
				StartingBalance:       10_000_000,
				PessimisticMinBalance: 250_000,
				PessimisticMinDate:    lowDate,
				StaleCount:            2,
			},
			status:     StatusCaution,
			nearDanger: true,
			contains:   []string{"R$2,500.00", "10/06", "R$5,000.00"},
			excludes:   []string{"updated"},
		},
		{
			name: "Near danger date follows an English locale",
			input: Input{
				StartingBalance:       10_000_000,
				PessimisticMinBalance: 250_000,
				PessimisticMinDate:    lowDate,
				Locale:                language.AmericanEnglish,
			},
			status:     StatusCaution,
			nearDanger: true,
			contains:   []string{"Jun 10"},
			excludes:   []string{"10/06"},
		},
		{
			name:     "Staleness alone",
			input:    Input{StartingBalance: 10_000_000, PessimisticMinBalance: 9_000_000, StaleCount: 1, StalenessDays: 7},
			status:   StatusCaution,
			contains: []string{"1 balance has", "7 days"},
		},
		{
			name:     "Healthy",
			input:    Input{StartingBalance: 10_000_000, PessimisticMinBalance: 9_000_000},
			status:   StatusGood,
			contains: []string{"healthy"},
		},
		{
			name:   "Negative minimum is not near danger",
			input:  Input{PessimisticDangerDays: 1, StartingBalance: 100000, PessimisticMinBalance: -1},
			status: StatusWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Classify(tt.input)
			if report.Status != tt.status {
				t.Errorf("Status = %s, expected %s", report.Status, tt.status)
			}
			if report.NearDanger != tt.nearDanger {
				t.Errorf("NearDanger = %t, expected %t", report.NearDanger, tt.nearDanger)
			}
			for _, s := range tt.contains {
				if !strings.Contains(report.Message, s) {
					t.Errorf("Message %q does not contain %q", report.Message, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(report.Message, s) {
					t.Errorf("Message %q should not contain %q", report.Message, s)
				}
			}
		})
	}
}

func TestIsStale(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		updatedAt time.Time
		expected  bool
	}{
		{name: "Never updated", updatedAt: time.Time{}, expected: true},
		{name: "Updated today", updatedAt: now.Add(-time.Hour), expected: false},
		{name: "Exactly seven days", updatedAt: now.AddDate(0, 0, -7), expected: false},
		{name: "Just over seven days", updatedAt: now.AddDate(0, 0, -7).Add(-time.Minute), expected: true},
		{name: "A month old", updatedAt: now.AddDate(0, -1, 0), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.updatedAt, now, 7); got != tt.expected {
				t.Errorf("IsStale() = %t, expected %t", got, tt.expected)
			}
		})
	}

	if IsStale(now.AddDate(0, 0, -6), now, 0) {
		t.Error("IsStale() with zero days should default to seven")
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	inputs := testutil.BasicInputs()
	inputs.Accounts[0].BalanceUpdatedAt = now.AddDate(0, 0, -1)
	inputs.CreditCards = []model.CreditCard{
		{ID: "visa", StatementBalance: 0, DueDay: 1, BalanceUpdatedAt: now.AddDate(0, 0, -30)},
	}

	projection := forecast.GetProjection(nil, inputs, forecast.Options{StartDate: now, HorizonDays: 30})
	report := Evaluate(projection, inputs, now, 7, language.Und)

	// Lowest pessimistic balance is 1000.00 against a 1000.00 floor, so only the
	// stale card raises a caution.
	if report.NearDanger {
		t.Errorf("NearDanger = true, lowest %d threshold %d", report.PessimisticMinBalance, report.NearDangerThreshold)
	}
	if report.StaleCount != 1 || report.Status != StatusCaution {
		t.Errorf("report = %+v, expected caution from one stale card", report)
	}

	inputs.FixedExpenses[0].Amount = 145000
	projection = forecast.GetProjection(nil, inputs, forecast.Options{StartDate: now, HorizonDays: 30})
	report = Evaluate(projection, inputs, now, 7, language.Und)
	if !report.NearDanger || report.PessimisticMinBalance != 5000 {
		t.Errorf("report = %+v, expected near danger at 5000 cents", report)
	}
	if !strings.Contains(report.Message, "safety margin") {
		t.Errorf("Message = %q, expected the near-danger reason", report.Message)
	}
}
