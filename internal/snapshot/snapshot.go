// Package snapshot freezes a projection run into a schema-versioned record and
// loads stored records back, tolerating older shapes.
package snapshot

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
)

// Metrics derives the headline numbers stored with a snapshot.
func Metrics(projection model.CashflowProjection) model.SnapshotSummaryMetrics {
	return model.SnapshotSummaryMetrics{
		StartingBalance:      projection.StartingBalance,
		OptimisticEndBalance: projection.Optimistic.EndBalance,
		DangerDayCount:       projection.Pessimistic.DangerDayCount,
	}
}

// Create freezes inputs and an already computed projection. The record owns
// copies of every collection so later edits by the caller do not leak in.
func Create(name, groupID string, inputs model.Inputs, projection model.CashflowProjection, now time.Time) model.ProjectionSnapshot {
	if name == "" {
		name = fmt.Sprintf("Projection %s", projection.StartDate.Format(constants.DateLayout))
	}
	return model.ProjectionSnapshot{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		Name:          name,
		SchemaVersion: constants.SchemaVersion,
		Data: model.SnapshotData{
			Inputs:         cloneInputs(inputs),
			Projection:     cloneProjection(projection),
			SummaryMetrics: Metrics(projection),
		},
		CreatedAt: now.UTC(),
	}
}

// Marshal encodes a snapshot as the stored document.
func Marshal(s model.ProjectionSnapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot %s: %w", s.ID, err)
	}
	return data, nil
}

// Comparison is the change in summary metrics from an older snapshot to a
// newer one. Positive deltas mean the newer one is higher.
type Comparison struct {
	From                      string        `json:"from"`
	To                        string        `json:"to"`
	Elapsed                   time.Duration `json:"elapsed"`
	StartingBalanceDelta      int64         `json:"startingBalanceDelta"`
	OptimisticEndBalanceDelta int64         `json:"optimisticEndBalanceDelta"`
	DangerDayCountDelta       int           `json:"dangerDayCountDelta"`
}

// Compare reports how b differs from a.
func Compare(a, b model.ProjectionSnapshot) Comparison {
	am, bm := a.Data.SummaryMetrics, b.Data.SummaryMetrics
	return Comparison{
		From:                      a.ID,
		To:                        b.ID,
		Elapsed:                   b.CreatedAt.Sub(a.CreatedAt),
		StartingBalanceDelta:      bm.StartingBalance - am.StartingBalance,
		OptimisticEndBalanceDelta: bm.OptimisticEndBalance - am.OptimisticEndBalance,
		DangerDayCountDelta:       bm.DangerDayCount - am.DangerDayCount,
	}
}

func cloneInputs(in model.Inputs) model.Inputs {
	out := model.Inputs{
		Accounts:           slices.Clone(in.Accounts),
		RecurringProjects:  slices.Clone(in.RecurringProjects),
		SingleShotIncome:   slices.Clone(in.SingleShotIncome),
		FixedExpenses:      slices.Clone(in.FixedExpenses),
		SingleShotExpenses: slices.Clone(in.SingleShotExpenses),
		CreditCards:        slices.Clone(in.CreditCards),
		FutureStatements:   slices.Clone(in.FutureStatements),
	}
	return out
}

func cloneProjection(p model.CashflowProjection) model.CashflowProjection {
	out := p
	out.Days = slices.Clone(p.Days)
	for i := range out.Days {
		out.Days[i].Income = slices.Clone(p.Days[i].Income)
		out.Days[i].Expenses = slices.Clone(p.Days[i].Expenses)
	}
	out.Optimistic.DangerDays = slices.Clone(p.Optimistic.DangerDays)
	out.Pessimistic.DangerDays = slices.Clone(p.Pessimistic.DangerDays)
	return out
}
