package model

import (
	"time"
)

// SnapshotSummaryMetrics are the headline numbers frozen with a snapshot.
// DangerDayCount is the pessimistic scenario's count.
type SnapshotSummaryMetrics struct {
	StartingBalance      int64 `json:"startingBalance"`
	OptimisticEndBalance int64 `json:"optimisticEndBalance"`
	DangerDayCount       int   `json:"dangerDayCount"`
}

// SnapshotData is the versioned payload of a ProjectionSnapshot.
type SnapshotData struct {
	Inputs         Inputs                 `json:"inputs"`
	Projection     CashflowProjection     `json:"projection"`
	SummaryMetrics SnapshotSummaryMetrics `json:"summaryMetrics"`
}

// ProjectionSnapshot is an immutable record of a projection run.
type ProjectionSnapshot struct {
	ID            string       `json:"id"`
	GroupID       string       `json:"groupId"`
	Name          string       `json:"name"`
	SchemaVersion int          `json:"schemaVersion"`
	Data          SnapshotData `json:"data"`
	CreatedAt     time.Time    `json:"createdAt"`
}
