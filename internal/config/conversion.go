package config

import (
	"fmt"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
	"github.com/iwvelando/cashflow-forecast/pkg/mathutil"
)

// InputsConfig holds the planner entities as written in the file.
type InputsConfig struct {
	Accounts           []Account           `yaml:"accounts"`
	RecurringProjects  []RecurringProject  `yaml:"recurringProjects"`
	SingleShotIncome   []SingleShotIncome  `yaml:"singleShotIncome"`
	FixedExpenses      []FixedExpense      `yaml:"fixedExpenses"`
	SingleShotExpenses []SingleShotExpense `yaml:"singleShotExpenses"`
	CreditCards        []CreditCard        `yaml:"creditCards"`
	FutureStatements   []FutureStatement   `yaml:"futureStatements"`
}

// Account is a bank account.
type Account struct {
	ID               string
	Name             string
	Kind             string
	Balance          float64
	Owner            string
	BalanceUpdatedAt string
}

// RecurringProject is an income source. Active defaults to true.
type RecurringProject struct {
	ID        string
	Name      string
	Amount    float64
	Frequency string
	Schedule  Schedule
	Certainty string
	Active    *bool
}

// Schedule is a payment schedule discriminated by Type.
type Schedule struct {
	Type         string
	DayOfWeek    int
	AnchorDate   string
	DayOfMonth   int
	FirstDay     int
	SecondDay    int
	FirstAmount  *float64
	SecondAmount *float64
}

// SingleShotIncome is a one-off income.
type SingleShotIncome struct {
	ID        string
	Name      string
	Amount    float64
	Date      string
	Certainty string
}

// FixedExpense is a monthly bill. Active defaults to true.
type FixedExpense struct {
	ID     string
	Name   string
	Amount float64
	DueDay int
	Active *bool
}

// SingleShotExpense is a one-off expense.
type SingleShotExpense struct {
	ID     string
	Name   string
	Amount float64
	Date   string
}

// CreditCard is charged its statement balance on DueDay.
type CreditCard struct {
	ID               string
	Name             string
	StatementBalance float64
	DueDay           int
	BalanceUpdatedAt string
}

// FutureStatement overrides a card's statement for one month.
type FutureStatement struct {
	ID     string
	CardID string
	Month  int
	Year   int
	Amount float64
}

func isActive(active *bool) bool {
	return active == nil || *active
}

// ToInputs converts the file's entities into the model. It fails on dates or
// schedule types it cannot read; range and consistency checks are left to
// validation.ValidateInputs.
func (c *Configuration) ToInputs() (model.Inputs, error) {
	in := c.Inputs
	var out model.Inputs

	for _, a := range in.Accounts {
		updated, err := optionalTimestamp(a.BalanceUpdatedAt)
		if err != nil {
			return model.Inputs{}, fmt.Errorf("account %s: balanceUpdatedAt: %w", a.ID, err)
		}
		out.Accounts = append(out.Accounts, model.BankAccount{
			ID:               a.ID,
			Name:             a.Name,
			Kind:             model.AccountKind(a.Kind),
			Balance:          mathutil.FromMajorFloat(a.Balance),
			Owner:            a.Owner,
			BalanceUpdatedAt: updated,
		})
	}

	for _, p := range in.RecurringProjects {
		schedule, err := p.Schedule.toModel()
		if err != nil {
			return model.Inputs{}, fmt.Errorf("recurring project %s: %w", p.ID, err)
		}
		out.RecurringProjects = append(out.RecurringProjects, model.RecurringProject{
			ID:        p.ID,
			Name:      p.Name,
			Amount:    mathutil.FromMajorFloat(p.Amount),
			Frequency: model.Frequency(p.Frequency),
			Schedule:  schedule,
			Certainty: model.Certainty(p.Certainty),
			Active:    isActive(p.Active),
		})
	}

	for _, s := range in.SingleShotIncome {
		date, err := datetime.ParseDate(s.Date)
		if err != nil {
			return model.Inputs{}, fmt.Errorf("single-shot income %s: %w", s.ID, err)
		}
		out.SingleShotIncome = append(out.SingleShotIncome, model.SingleShotIncome{
			ID:        s.ID,
			Name:      s.Name,
			Amount:    mathutil.FromMajorFloat(s.Amount),
			Date:      date,
			Certainty: model.Certainty(s.Certainty),
		})
	}

	for _, e := range in.FixedExpenses {
		out.FixedExpenses = append(out.FixedExpenses, model.FixedExpense{
			ID:     e.ID,
			Name:   e.Name,
			Amount: mathutil.FromMajorFloat(e.Amount),
			DueDay: e.DueDay,
			Active: isActive(e.Active),
		})
	}

	for _, e := range in.SingleShotExpenses {
		date, err := datetime.ParseDate(e.Date)
		if err != nil {
			return model.Inputs{}, fmt.Errorf("single-shot expense %s: %w", e.ID, err)
		}
		out.SingleShotExpenses = append(out.SingleShotExpenses, model.SingleShotExpense{
			ID:     e.ID,
			Name:   e.Name,
			Amount: mathutil.FromMajorFloat(e.Amount),
			Date:   date,
		})
	}

	for _, card := range in.CreditCards {
		updated, err := optionalTimestamp(card.BalanceUpdatedAt)
		if err != nil {
			return model.Inputs{}, fmt.Errorf("credit card %s: balanceUpdatedAt: %w", card.ID, err)
		}
		out.CreditCards = append(out.CreditCards, model.CreditCard{
			ID:               card.ID,
			Name:             card.Name,
			StatementBalance: mathutil.FromMajorFloat(card.StatementBalance),
			DueDay:           card.DueDay,
			BalanceUpdatedAt: updated,
		})
	}

	for _, s := range in.FutureStatements {
		out.FutureStatements = append(out.FutureStatements, model.FutureStatement{
			ID:     s.ID,
			CardID: s.CardID,
			Month:  time.Month(s.Month),
			Year:   s.Year,
			Amount: mathutil.FromMajorFloat(s.Amount),
		})
	}

	return out, nil
}

func (s Schedule) toModel() (model.PaymentSchedule, error) {
	switch model.ScheduleType(s.Type) {
	case model.ScheduleDayOfWeek:
		rule := model.DayOfWeek{Day: s.DayOfWeek}
		if s.AnchorDate != "" {
			anchor, err := datetime.ParseDate(s.AnchorDate)
			if err != nil {
				return nil, fmt.Errorf("schedule.anchorDate: %w", err)
			}
			rule.AnchorDate = &anchor
		}
		return rule, nil
	case model.ScheduleDayOfMonth:
		return model.DayOfMonth{Day: s.DayOfMonth}, nil
	case model.ScheduleTwiceMonthly:
		return model.TwiceMonthly{
			FirstDay:     s.FirstDay,
			SecondDay:    s.SecondDay,
			FirstAmount:  centsPtr(s.FirstAmount),
			SecondAmount: centsPtr(s.SecondAmount),
		}, nil
	case "":
		return nil, fmt.Errorf("schedule.type is required")
	default:
		return nil, fmt.Errorf("unknown schedule type %q", s.Type)
	}
}

func centsPtr(units *float64) *int64 {
	if units == nil {
		return nil
	}
	cents := mathutil.FromMajorFloat(*units)
	return &cents
}

func optionalTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return datetime.ParseFlexible(value)
}
