// Package chart turns a projection into plain points and summary figures for
// a presentation layer.
package chart

import (
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Point is one charted day. Balances are in major units.
type Point struct {
	Date              time.Time `json:"date"`
	Label             string    `json:"label"`
	Optimistic        float64   `json:"optimistic"`
	Pessimistic       float64   `json:"pessimistic"`
	WithInvestments   float64   `json:"withInvestments"`
	OptimisticDanger  bool      `json:"optimisticDanger"`
	PessimisticDanger bool      `json:"pessimisticDanger"`
}

// ScenarioSummary is a ScenarioResult in major units.
type ScenarioSummary struct {
	TotalIncome       float64   `json:"totalIncome"`
	TotalExpenses     float64   `json:"totalExpenses"`
	EndBalance        float64   `json:"endBalance"`
	LowestBalance     float64   `json:"lowestBalance"`
	LowestBalanceDate time.Time `json:"lowestBalanceDate"`
	DangerDayCount    int       `json:"dangerDayCount"`
}

// Summary is the chart header.
type Summary struct {
	StartDate       time.Time              `json:"startDate"`
	EndDate         time.Time              `json:"endDate"`
	Days            int                    `json:"days"`
	StartingBalance float64                `json:"startingBalance"`
	InvestmentTotal float64                `json:"investmentTotal"`
	Optimistic      ScenarioSummary        `json:"optimistic"`
	Pessimistic     ScenarioSummary        `json:"pessimistic"`
	DangerRanges    []forecast.DangerRange `json:"dangerRanges"`
}

// ParseLocale parses a BCP 47 tag, falling back to the default locale.
func ParseLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		return language.MustParse(constants.DefaultLocale)
	}
	return tag
}

// DateLabel renders a short axis label: "Jan 2" for English and "02/01"
// (day/month) for everything else.
func DateLabel(date time.Time, tag language.Tag) string {
	if base, _ := tag.Base(); base.String() == "en" {
		return date.Format("Jan 2")
	}
	return date.Format("02/01")
}

// Points converts every projected day. The investment-inclusive series adds
// the constant investment total to the optimistic balance.
func Points(projection model.CashflowProjection, tag language.Tag) []Point {
	points := make([]Point, 0, len(projection.Days))
	for _, day := range projection.Days {
		points = append(points, Point{
			Date:              day.Date,
			Label:             DateLabel(day.Date, tag),
			Optimistic:        mathutil.ToMajorFloat(day.OptimisticBalance),
			Pessimistic:       mathutil.ToMajorFloat(day.PessimisticBalance),
			WithInvestments:   mathutil.ToMajorFloat(day.OptimisticBalance + projection.InvestmentTotal),
			OptimisticDanger:  day.OptimisticDanger,
			PessimisticDanger: day.PessimisticDanger,
		})
	}
	return points
}

// Summarize converts the projection's aggregates and danger ranges.
func Summarize(projection model.CashflowProjection) Summary {
	ranges := forecast.DangerRanges(projection.Days)
	if ranges == nil {
		ranges = []forecast.DangerRange{}
	}
	return Summary{
		StartDate:       projection.StartDate,
		EndDate:         projection.EndDate,
		Days:            len(projection.Days),
		StartingBalance: mathutil.ToMajorFloat(projection.StartingBalance),
		InvestmentTotal: mathutil.ToMajorFloat(projection.InvestmentTotal),
		Optimistic:      summarizeScenario(projection.Optimistic),
		Pessimistic:     summarizeScenario(projection.Pessimistic),
		DangerRanges:    ranges,
	}
}

func summarizeScenario(result model.ScenarioResult) ScenarioSummary {
	return ScenarioSummary{
		TotalIncome:       mathutil.ToMajorFloat(result.TotalIncome),
		TotalExpenses:     mathutil.ToMajorFloat(result.TotalExpenses),
		EndBalance:        mathutil.ToMajorFloat(result.EndBalance),
		LowestBalance:     mathutil.ToMajorFloat(result.LowestBalance),
		LowestBalanceDate: result.LowestBalanceDate,
		DangerDayCount:    result.DangerDayCount,
	}
}

// Amount prints cents with the locale's digit grouping and two decimals.
func Amount(cents int64, tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%.2f", mathutil.ToMajorFloat(cents))
}
