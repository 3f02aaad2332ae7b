package forecast

import (
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/internal/schedule"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
)

type dayEntry struct {
	income   []model.Event
	expenses []model.Event
}

// buildCalendar expands every entity once and files its events under the day
// offset they land on. Event order within a day follows input order.
func buildCalendar(inputs model.Inputs, start, end time.Time) []dayEntry {
	calendar := make([]dayEntry, datetime.DaysBetween(start, end)+1)
	offsetOf := func(date time.Time) (int, bool) {
		if !datetime.InWindow(date, start, end) {
			return 0, false
		}
		return datetime.DaysBetween(start, date), true
	}

	for _, project := range inputs.RecurringProjects {
		if !project.Active {
			continue
		}
		for _, occurrence := range schedule.ExpandProject(project, start, end) {
			offset, _ := offsetOf(occurrence.Date)
			calendar[offset].income = append(calendar[offset].income, model.Event{
				SourceID:  project.ID,
				Name:      project.Name,
				Kind:      model.EventRecurring,
				Amount:    occurrence.Amount,
				Certainty: project.Certainty,
			})
		}
	}

	for _, income := range inputs.SingleShotIncome {
		if offset, ok := offsetOf(datetime.Civil(income.Date)); ok {
			calendar[offset].income = append(calendar[offset].income, model.Event{
				SourceID:  income.ID,
				Name:      income.Name,
				Kind:      model.EventSingle,
				Amount:    income.Amount,
				Certainty: income.Certainty,
			})
		}
	}

	for _, expense := range inputs.FixedExpenses {
		if !expense.Active {
			continue
		}
		for _, date := range schedule.MonthlyDates(expense.DueDay, start, end) {
			offset, _ := offsetOf(date)
			calendar[offset].expenses = append(calendar[offset].expenses, model.Event{
				SourceID: expense.ID,
				Name:     expense.Name,
				Kind:     model.EventFixed,
				Amount:   expense.Amount,
			})
		}
	}

	for _, expense := range inputs.SingleShotExpenses {
		if offset, ok := offsetOf(datetime.Civil(expense.Date)); ok {
			calendar[offset].expenses = append(calendar[offset].expenses, model.Event{
				SourceID: expense.ID,
				Name:     expense.Name,
				Kind:     model.EventSingle,
				Amount:   expense.Amount,
			})
		}
	}

	for _, card := range inputs.CreditCards {
		for _, date := range schedule.MonthlyDates(card.DueDay, start, end) {
			amount, _ := inputs.StatementFor(card, date.Year(), date.Month())
			if amount == 0 {
				continue
			}
			offset, _ := offsetOf(date)
			calendar[offset].expenses = append(calendar[offset].expenses, model.Event{
				SourceID: card.ID,
				Name:     card.Name,
				Kind:     model.EventCard,
				Amount:   amount,
			})
		}
	}

	return calendar
}
