// Package model defines the planner entities and the projection records
// computed from them. All amounts are integer minor units (cents).
package model

import (
	"time"
)

// AccountKind classifies a bank account.
type AccountKind string

const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountInvestment AccountKind = "investment"
)

// Certainty is how sure the user is that an income will materialize.
type Certainty string

const (
	CertaintyGuaranteed Certainty = "guaranteed"
	CertaintyProbable   Certainty = "probable"
	CertaintyUncertain  Certainty = "uncertain"
)

// Frequency is how often a recurring project pays.
type Frequency string

const (
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweekly     Frequency = "biweekly"
	FrequencyTwiceMonthly Frequency = "twice-monthly"
	FrequencyMonthly      Frequency = "monthly"
)

// BankAccount is a balance the user holds.
type BankAccount struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Kind             AccountKind `json:"kind"`
	Balance          int64       `json:"balance"`
	Owner            string      `json:"owner,omitempty"`
	BalanceUpdatedAt time.Time   `json:"balanceUpdatedAt"`
}

// RecurringProject is an income source paid on a schedule.
type RecurringProject struct {
	ID        string
	Name      string
	Amount    int64
	Frequency Frequency
	Schedule  PaymentSchedule
	Certainty Certainty
	Active    bool
}

// SingleShotIncome is a one-off income on a given date.
type SingleShotIncome struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    int64     `json:"amount"`
	Date      time.Time `json:"date"`
	Certainty Certainty `json:"certainty"`
}

// SingleShotExpense is a one-off expense on a given date.
type SingleShotExpense struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Amount int64     `json:"amount"`
	Date   time.Time `json:"date"`
}

// FixedExpense is a monthly bill due on DueDay.
type FixedExpense struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	DueDay int    `json:"dueDay"`
	Active bool   `json:"active"`
}

// CreditCard is charged its statement balance every month on DueDay.
type CreditCard struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	StatementBalance int64     `json:"statementBalance"`
	DueDay           int       `json:"dueDay"`
	BalanceUpdatedAt time.Time `json:"balanceUpdatedAt"`
}

// FutureStatement overrides a card's statement amount for one month.
type FutureStatement struct {
	ID     string     `json:"id"`
	CardID string     `json:"cardId"`
	Month  time.Month `json:"month"`
	Year   int        `json:"year"`
	Amount int64      `json:"amount"`
}

// Inputs is the full entity set a projection runs over.
type Inputs struct {
	Accounts           []BankAccount       `json:"accounts"`
	RecurringProjects  []RecurringProject  `json:"recurringProjects"`
	SingleShotIncome   []SingleShotIncome  `json:"singleShotIncome"`
	FixedExpenses      []FixedExpense      `json:"fixedExpenses"`
	SingleShotExpenses []SingleShotExpense `json:"singleShotExpenses"`
	CreditCards        []CreditCard        `json:"creditCards"`
	FutureStatements   []FutureStatement   `json:"futureStatements"`
}

// StartingBalance sums every non-investment account.
func (in Inputs) StartingBalance() int64 {
	var total int64
	for _, account := range in.Accounts {
		if account.Kind == AccountInvestment {
			continue
		}
		total += account.Balance
	}
	return total
}

// InvestmentTotal sums every investment account.
func (in Inputs) InvestmentTotal() int64 {
	var total int64
	for _, account := range in.Accounts {
		if account.Kind == AccountInvestment {
			total += account.Balance
		}
	}
	return total
}

// Empty reports whether there is nothing to project.
func (in Inputs) Empty() bool {
	return len(in.Accounts) == 0 && len(in.CreditCards) == 0 &&
		len(in.RecurringProjects) == 0 && len(in.SingleShotIncome) == 0 &&
		len(in.FixedExpenses) == 0 && len(in.SingleShotExpenses) == 0
}

// StatementFor returns the amount a card charges in the given month, honoring
// any FutureStatement override.
func (in Inputs) StatementFor(card CreditCard, year int, month time.Month) (int64, bool) {
	for _, statement := range in.FutureStatements {
		if statement.CardID == card.ID && statement.Year == year && statement.Month == month {
			return statement.Amount, true
		}
	}
	return card.StatementBalance, false
}
