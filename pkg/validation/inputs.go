package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
)

// minCollidingDay is the smallest day of month that clamps onto another in a
// non-leap February.
const minCollidingDay = 28

// FieldError describes one rejected field of one entity.
type FieldError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s: %s", e.Entity, e.ID, e.Field, e.Message)
}

// Errors collects every FieldError found in one validation pass.
type Errors []*FieldError

func (e Errors) Error() string {
	messages := make([]string, 0, len(e))
	for _, fieldErr := range e {
		messages = append(messages, fieldErr.Error())
	}
	return strings.Join(messages, "; ")
}

// Unwrap exposes the individual field errors to errors.As and errors.Is.
func (e Errors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, fieldErr := range e {
		errs = append(errs, fieldErr)
	}
	return errs
}

type collector struct {
	errs Errors
}

func (c *collector) add(entity, id, field, format string, args ...interface{}) {
	c.errs = append(c.errs, &FieldError{Entity: entity, ID: id, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

// ValidateInputs rejects every malformed entity before it can reach the
// simulator. It returns nil or an Errors value.
func ValidateInputs(in model.Inputs) error {
	c := &collector{}

	ids := make(map[string]struct{})
	for _, account := range in.Accounts {
		checkID(c, "account", account.ID, ids)
		switch account.Kind {
		case model.AccountChecking, model.AccountSavings, model.AccountInvestment:
		default:
			c.add("account", account.ID, "kind", "unknown account kind %q", account.Kind)
		}
	}

	ids = make(map[string]struct{})
	for _, project := range in.RecurringProjects {
		checkID(c, "recurring project", project.ID, ids)
		checkAmount(c, "recurring project", project.ID, project.Amount)
		checkCertainty(c, "recurring project", project.ID, project.Certainty)
		validateSchedule(c, project)
	}

	ids = make(map[string]struct{})
	for _, income := range in.SingleShotIncome {
		checkID(c, "single-shot income", income.ID, ids)
		checkAmount(c, "single-shot income", income.ID, income.Amount)
		checkCertainty(c, "single-shot income", income.ID, income.Certainty)
		checkDate(c, "single-shot income", income.ID, income.Date)
	}

	ids = make(map[string]struct{})
	for _, expense := range in.FixedExpenses {
		checkID(c, "fixed expense", expense.ID, ids)
		checkAmount(c, "fixed expense", expense.ID, expense.Amount)
		checkDayOfMonth(c, "fixed expense", expense.ID, "dueDay", expense.DueDay)
	}

	ids = make(map[string]struct{})
	for _, expense := range in.SingleShotExpenses {
		checkID(c, "single-shot expense", expense.ID, ids)
		checkAmount(c, "single-shot expense", expense.ID, expense.Amount)
		checkDate(c, "single-shot expense", expense.ID, expense.Date)
	}

	cards := make(map[string]struct{})
	for _, card := range in.CreditCards {
		checkID(c, "credit card", card.ID, cards)
		checkAmount(c, "credit card", card.ID, card.StatementBalance)
		checkDayOfMonth(c, "credit card", card.ID, "dueDay", card.DueDay)
	}

	ids = make(map[string]struct{})
	type statementKey struct {
		card  string
		year  int
		month time.Month
	}
	months := make(map[statementKey]struct{})
	for _, statement := range in.FutureStatements {
		checkID(c, "future statement", statement.ID, ids)
		checkAmount(c, "future statement", statement.ID, statement.Amount)
		if _, ok := cards[statement.CardID]; !ok {
			c.add("future statement", statement.ID, "cardId", "unknown credit card %q", statement.CardID)
		}
		if statement.Month < time.January || statement.Month > time.December {
			c.add("future statement", statement.ID, "month", "must be between 1 and 12, got %d", statement.Month)
		}
		key := statementKey{card: statement.CardID, year: statement.Year, month: statement.Month}
		if _, dup := months[key]; dup {
			c.add("future statement", statement.ID, "month", "card %q already has a statement for %d-%02d", statement.CardID, statement.Year, statement.Month)
		}
		months[key] = struct{}{}
	}

	return c.err()
}

// ValidateRecurringProject checks a single project, for use at the
// entity-creation boundary.
func ValidateRecurringProject(project model.RecurringProject) error {
	c := &collector{}
	checkAmount(c, "recurring project", project.ID, project.Amount)
	checkCertainty(c, "recurring project", project.ID, project.Certainty)
	validateSchedule(c, project)
	return c.err()
}

func validateSchedule(c *collector, project model.RecurringProject) {
	const entity = "recurring project"
	if project.Schedule == nil {
		c.add(entity, project.ID, "schedule", "is required")
		return
	}

	expected, err := model.ScheduleTypeFor(project.Frequency)
	if err != nil {
		c.add(entity, project.ID, "frequency", "%v", err)
		return
	}
	if project.Schedule.Type() != expected {
		c.add(entity, project.ID, "schedule", "frequency %s requires a %s schedule, got %s", project.Frequency, expected, project.Schedule.Type())
		return
	}

	switch s := project.Schedule.(type) {
	case model.DayOfWeek:
		if s.Day < 1 || s.Day > 7 {
			c.add(entity, project.ID, "dayOfWeek", "must be between 1 and 7, got %d", s.Day)
			return
		}
		if s.AnchorDate != nil && datetime.ISOWeekday(*s.AnchorDate) != s.Day {
			c.add(entity, project.ID, "anchorDate", "%s is not on weekday %d", s.AnchorDate.Format(datetime.DateLayout), s.Day)
		}
	case model.DayOfMonth:
		checkDayOfMonth(c, entity, project.ID, "dayOfMonth", s.Day)
	case model.TwiceMonthly:
		checkDayOfMonth(c, entity, project.ID, "firstDay", s.FirstDay)
		checkDayOfMonth(c, entity, project.ID, "secondDay", s.SecondDay)
		if s.FirstDay == s.SecondDay {
			c.add(entity, project.ID, "secondDay", "must differ from firstDay %d", s.FirstDay)
		} else if s.FirstDay >= minCollidingDay && s.SecondDay >= minCollidingDay {
			c.add(entity, project.ID, "secondDay", "days %d and %d both clamp to February 28", s.FirstDay, s.SecondDay)
		}
		if (s.FirstAmount == nil) != (s.SecondAmount == nil) {
			c.add(entity, project.ID, "amounts", "either both days carry an amount or neither does")
		}
		if s.FirstAmount != nil {
			checkAmount(c, entity, project.ID, *s.FirstAmount)
		}
		if s.SecondAmount != nil {
			checkAmount(c, entity, project.ID, *s.SecondAmount)
		}
	default:
		c.add(entity, project.ID, "schedule", "unsupported schedule %T", project.Schedule)
	}
}

func checkID(c *collector, entity, id string, seen map[string]struct{}) {
	if strings.TrimSpace(id) == "" {
		c.add(entity, id, "id", "is required")
		return
	}
	if _, dup := seen[id]; dup {
		c.add(entity, id, "id", "is not unique")
	}
	seen[id] = struct{}{}
}

func checkAmount(c *collector, entity, id string, amount int64) {
	if amount < 0 {
		c.add(entity, id, "amount", "must not be negative, got %d", amount)
	}
}

func checkCertainty(c *collector, entity, id string, certainty model.Certainty) {
	switch certainty {
	case model.CertaintyGuaranteed, model.CertaintyProbable, model.CertaintyUncertain:
	default:
		c.add(entity, id, "certainty", "unknown certainty %q", certainty)
	}
}

func checkDayOfMonth(c *collector, entity, id, field string, day int) {
	if day < 1 || day > 31 {
		c.add(entity, id, field, "must be between 1 and 31, got %d", day)
	}
}

func checkDate(c *collector, entity, id string, date time.Time) {
	if date.IsZero() {
		c.add(entity, id, "date", "is required")
	}
}
