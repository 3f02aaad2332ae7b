package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/testutil"
	"go.uber.org/zap"
)

// largeInputs builds a planner with every kind of entity and every schedule
// variant, sized well past what a household keeps.
func largeInputs() model.Inputs {
	start := testutil.Date("2025-06-01")
	in := model.Inputs{
		Accounts: []model.BankAccount{
			{ID: "checking", Kind: model.AccountChecking, Balance: 2_500_000},
			{ID: "broker", Kind: model.AccountInvestment, Balance: 10_000_000},
		},
	}
	certainties := []model.Certainty{model.CertaintyGuaranteed, model.CertaintyProbable, model.CertaintyUncertain}

	for i := 0; i < 60; i++ {
		project := model.RecurringProject{
			ID:        fmt.Sprintf("project-%d", i),
			Name:      fmt.Sprintf("Project %d", i),
			Amount:    int64(10_000 + i*100),
			Certainty: certainties[i%len(certainties)],
			Active:    i%10 != 9,
		}
		switch i % 4 {
		case 0:
			project.Frequency = model.FrequencyWeekly
			project.Schedule = model.DayOfWeek{Day: i%7 + 1}
		case 1:
			project.Frequency = model.FrequencyBiweekly
			project.Schedule = model.DayOfWeek{Day: i%7 + 1}
		case 2:
			project.Frequency = model.FrequencyMonthly
			project.Schedule = model.DayOfMonth{Day: i%31 + 1}
		default:
			project.Frequency = model.FrequencyTwiceMonthly
			project.Schedule = model.TwiceMonthly{FirstDay: i%14 + 1, SecondDay: i%14 + 15}
		}
		in.RecurringProjects = append(in.RecurringProjects, project)
	}

	for i := 0; i < 120; i++ {
		in.FixedExpenses = append(in.FixedExpenses, model.FixedExpense{
			ID: fmt.Sprintf("bill-%d", i), Amount: int64(5_000 + i*10), DueDay: i%31 + 1, Active: true,
		})
		in.SingleShotExpenses = append(in.SingleShotExpenses, model.SingleShotExpense{
			ID: fmt.Sprintf("once-%d", i), Amount: 2_500, Date: start.AddDate(0, 0, i%90),
		})
		in.SingleShotIncome = append(in.SingleShotIncome, model.SingleShotIncome{
			ID: fmt.Sprintf("gig-%d", i), Amount: 7_500, Date: start.AddDate(0, 0, (i*7)%90),
			Certainty: certainties[i%len(certainties)],
		})
	}

	for i := 0; i < 20; i++ {
		card := model.CreditCard{ID: fmt.Sprintf("card-%d", i), StatementBalance: 40_000, DueDay: i%28 + 1}
		in.CreditCards = append(in.CreditCards, card)
		in.FutureStatements = append(in.FutureStatements, model.FutureStatement{
			ID: fmt.Sprintf("statement-%d", i), CardID: card.ID, Month: time.July, Year: 2025, Amount: 55_000,
		})
	}
	return in
}

// TestProjectionPerformance tests performance characteristics
func TestProjectionPerformance(t *testing.T) {
	inputs := largeInputs()
	logger := zap.NewNop()

	for _, horizon := range []int{7, 30, 90} {
		start := time.Now()
		projection := GetProjection(logger, inputs, Options{StartDate: testutil.Date("2025-06-01"), HorizonDays: horizon})
		elapsed := time.Since(start)

		t.Logf("%d day projection: %v", horizon, elapsed)
		if elapsed > time.Second {
			t.Errorf("%d day projection took %v, exceeding 1 second", horizon, elapsed)
		}
		if len(projection.Days) != horizon {
			t.Errorf("expected %d days, got %d", horizon, len(projection.Days))
		}
	}
}

// TestProjectionIsRepeatable runs the same planner several times; a stateless
// engine gives the same answer every time.
func TestProjectionIsRepeatable(t *testing.T) {
	inputs := largeInputs()
	opts := Options{StartDate: testutil.Date("2025-06-01"), HorizonDays: 90}
	first := GetProjection(nil, inputs, opts)

	for i := 0; i < 10; i++ {
		again := GetProjection(nil, inputs, opts)
		if again.Optimistic.EndBalance != first.Optimistic.EndBalance ||
			again.Pessimistic.EndBalance != first.Pessimistic.EndBalance ||
			again.Pessimistic.DangerDayCount != first.Pessimistic.DangerDayCount {
			t.Fatalf("iteration %d differs: %+v vs %+v", i, again.Pessimistic, first.Pessimistic)
		}
	}
}

func BenchmarkGetProjection(b *testing.B) {
	inputs := largeInputs()
	logger := zap.NewNop()

	for _, horizon := range []int{30, 90} {
		b.Run(fmt.Sprintf("%dDays", horizon), func(b *testing.B) {
			opts := Options{StartDate: testutil.Date("2025-06-01"), HorizonDays: horizon}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				GetProjection(logger, inputs, opts)
			}
		})
	}
}
