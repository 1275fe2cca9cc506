package models

import (
	"time"
)

// SettlementRun records one pass of the settlement worker over open wagers
type SettlementRun struct {
	ID               int64          `db:"id" json:"id"`
	StartedAt        time.Time      `db:"started_at" json:"started_at"`
	FinishedAt       time.Time      `db:"finished_at" json:"finished_at"`
	WagersChecked    int            `db:"wagers_checked" json:"wagers_checked"`
	WagersSettled    int            `db:"wagers_settled" json:"wagers_settled"`
	Failures         int            `db:"failures" json:"failures"`
	ExecutionSummary map[string]any `db:"execution_summary" json:"execution_summary"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}
