// Package schedule turns recurrence rules into concrete dated occurrences
// within a projection window.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
)

// Occurrence is one firing of a rule.
type Occurrence struct {
	Date   time.Time
	Amount int64
}

// Expand returns every occurrence of rule within [start, end], ordered by
// date. Frequency distinguishes weekly from biweekly DayOfWeek rules and amount
// is used for every occurrence lacking its own override.
func Expand(rule model.PaymentSchedule, frequency model.Frequency, amount int64, start, end time.Time) []Occurrence {
	start, end = datetime.Civil(start), datetime.Civil(end)
	if end.Before(start) {
		return nil
	}

	var occurrences []Occurrence
	switch r := rule.(type) {
	case model.DayOfWeek:
		step := 1
		if frequency == model.FrequencyBiweekly {
			step = 2
		}
		for _, date := range weekdayDates(r, step, start, end) {
			occurrences = append(occurrences, Occurrence{Date: date, Amount: amount})
		}
	case model.DayOfMonth:
		for _, date := range MonthlyDates(r.Day, start, end) {
			occurrences = append(occurrences, Occurrence{Date: date, Amount: amount})
		}
	case model.TwiceMonthly:
		firstAmount, secondAmount := amount, amount
		if r.FirstAmount != nil {
			firstAmount = *r.FirstAmount
		}
		if r.SecondAmount != nil {
			secondAmount = *r.SecondAmount
		}
		for _, date := range MonthlyDates(r.FirstDay, start, end) {
			occurrences = append(occurrences, Occurrence{Date: date, Amount: firstAmount})
		}
		for _, date := range MonthlyDates(r.SecondDay, start, end) {
			occurrences = append(occurrences, Occurrence{Date: date, Amount: secondAmount})
		}
		sort.SliceStable(occurrences, func(i, j int) bool {
			return occurrences[i].Date.Before(occurrences[j].Date)
		})
	default:
		panic(fmt.Sprintf("schedule: unhandled payment schedule %T", rule))
	}
	return occurrences
}

// ExpandProject expands a recurring project's schedule at its base amount.
func ExpandProject(project model.RecurringProject, start, end time.Time) []Occurrence {
	return Expand(project.Schedule, project.Frequency, project.Amount, start, end)
}

// MonthlyDates returns the date with the given day of month for every month
// overlapping [start, end], clamped to each month's last day.
func MonthlyDates(day int, start, end time.Time) []time.Time {
	start, end = datetime.Civil(start), datetime.Civil(end)
	var dates []time.Time
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		date := datetime.ClampDay(cursor.Year(), cursor.Month(), day)
		if datetime.InWindow(date, start, end) {
			dates = append(dates, date)
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return dates
}

// biweeklyEpoch is the Monday unanchored biweekly rules count their weeks
// from, so a rule lands on the same dates whatever window is projected.
var biweeklyEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// BiweeklyAnchor returns the date biweekly occurrences are counted from: the
// rule's anchor when set, otherwise the first matching weekday on or after
// biweeklyEpoch.
func BiweeklyAnchor(rule model.DayOfWeek) time.Time {
	if rule.AnchorDate != nil {
		return datetime.Civil(*rule.AnchorDate)
	}
	return firstWeekday(rule.Day, biweeklyEpoch)
}

func weekdayDates(rule model.DayOfWeek, weeks int, start, end time.Time) []time.Time {
	first := firstWeekday(rule.Day, start)
	if weeks == 2 {
		anchor := BiweeklyAnchor(rule)
		offset := datetime.DaysBetween(anchor, first) / constants.DaysPerWeek
		if offset%2 != 0 {
			first = first.AddDate(0, 0, constants.DaysPerWeek)
		}
	}

	var dates []time.Time
	for date := first; !date.After(end); date = date.AddDate(0, 0, weeks*constants.DaysPerWeek) {
		dates = append(dates, date)
	}
	return dates
}

func firstWeekday(isoDay int, from time.Time) time.Time {
	delta := (isoDay - datetime.ISOWeekday(from) + constants.DaysPerWeek) % constants.DaysPerWeek
	return from.AddDate(0, 0, delta)
}
