package model

import (
	"time"
)

// Scenario names a risk scenario.
type Scenario string

const (
	// ScenarioOptimistic counts income of every certainty tier.
	ScenarioOptimistic Scenario = "optimistic"
	// ScenarioPessimistic counts guaranteed income only.
	ScenarioPessimistic Scenario = "pessimistic"
	// ScenarioBoth marks days where both scenarios are in danger.
	ScenarioBoth Scenario = "both"
)

// IncludesIncome reports whether an income of the given certainty counts
// toward the scenario.
func (s Scenario) IncludesIncome(certainty Certainty) bool {
	switch s {
	case ScenarioOptimistic:
		return true
	case ScenarioPessimistic:
		return certainty == CertaintyGuaranteed
	default:
		return false
	}
}

// EventKind is the entity a projected event came from.
type EventKind string

const (
	EventRecurring EventKind = "recurring"
	EventSingle    EventKind = "single"
	EventFixed     EventKind = "fixed"
	EventCard      EventKind = "card"
)

// Event is one income or expense applied on a projected day. Amount is always
// positive; its direction is given by the list holding it.
type Event struct {
	SourceID  string    `json:"sourceId"`
	Name      string    `json:"name"`
	Kind      EventKind `json:"kind"`
	Amount    int64     `json:"amount"`
	Certainty Certainty `json:"certainty,omitempty"`
}

// DailySnapshot is one day of a projection.
type DailySnapshot struct {
	Date               time.Time `json:"date"`
	DayOffset          int       `json:"dayOffset"`
	OptimisticBalance  int64     `json:"optimisticBalance"`
	PessimisticBalance int64     `json:"pessimisticBalance"`
	Income             []Event   `json:"income"`
	Expenses           []Event   `json:"expenses"`
	OptimisticDanger   bool      `json:"optimisticDanger"`
	PessimisticDanger  bool      `json:"pessimisticDanger"`
}

// IncomeFor sums the day's income that counts toward the scenario.
func (d DailySnapshot) IncomeFor(scenario Scenario) int64 {
	var total int64
	for _, event := range d.Income {
		if scenario.IncludesIncome(event.Certainty) {
			total += event.Amount
		}
	}
	return total
}

// ExpenseTotal sums the day's expenses, identical for every scenario.
func (d DailySnapshot) ExpenseTotal() int64 {
	var total int64
	for _, event := range d.Expenses {
		total += event.Amount
	}
	return total
}

// Balance returns the scenario's running balance at the end of the day.
func (d DailySnapshot) Balance(scenario Scenario) int64 {
	if scenario == ScenarioPessimistic {
		return d.PessimisticBalance
	}
	return d.OptimisticBalance
}

// Danger returns the scenario's danger flag.
func (d DailySnapshot) Danger(scenario Scenario) bool {
	if scenario == ScenarioPessimistic {
		return d.PessimisticDanger
	}
	return d.OptimisticDanger
}

// ScenarioResult aggregates one scenario across the window.
type ScenarioResult struct {
	TotalIncome       int64       `json:"totalIncome"`
	TotalExpenses     int64       `json:"totalExpenses"`
	EndBalance        int64       `json:"endBalance"`
	DangerDays        []time.Time `json:"dangerDays"`
	DangerDayCount    int         `json:"dangerDayCount"`
	LowestBalance     int64       `json:"lowestBalance"`
	LowestBalanceDate time.Time   `json:"lowestBalanceDate"`
}

// CashflowProjection is the simulated forecast for a window.
type CashflowProjection struct {
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	StartingBalance int64           `json:"startingBalance"`
	InvestmentTotal int64           `json:"investmentTotal"`
	Days            []DailySnapshot `json:"days"`
	Optimistic      ScenarioResult  `json:"optimistic"`
	Pessimistic     ScenarioResult  `json:"pessimistic"`
}

// Result returns the aggregate for a scenario.
func (p CashflowProjection) Result(scenario Scenario) ScenarioResult {
	if scenario == ScenarioPessimistic {
		return p.Pessimistic
	}
	return p.Optimistic
}

// Empty reports whether the projection has no days.
func (p CashflowProjection) Empty() bool {
	return len(p.Days) == 0
}
