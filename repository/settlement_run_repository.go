package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stakechat/database"
	"stakechat/models"
)

// SettlementRunRepository implements the SettlementRunRepository interface
type SettlementRunRepository struct {
	q queryable
}

// NewSettlementRunRepository creates a new settlement run repository
func NewSettlementRunRepository(db *database.DB) *SettlementRunRepository {
	return &SettlementRunRepository{q: db.Pool}
}

func newSettlementRunRepositoryWithTx(tx queryable) *SettlementRunRepository {
	return &SettlementRunRepository{q: tx}
}

// Create stores a finished settlement run
func (r *SettlementRunRepository) Create(ctx context.Context, run *models.SettlementRun) error {
	summary := run.ExecutionSummary
	if summary == nil {
		summary = map[string]any{}
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO settlement_runs
		(started_at, finished_at, wagers_checked, wagers_settled, failures, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err = r.q.QueryRow(ctx, query,
		run.StartedAt,
		run.FinishedAt,
		run.WagersChecked,
		run.WagersSettled,
		run.Failures,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create settlement run started at %s: %w", run.StartedAt, err)
	}
	return nil
}

// GetLatest returns the most recent settlement run, nil if none exists
func (r *SettlementRunRepository) GetLatest(ctx context.Context) (*models.SettlementRun, error) {
	query := `
		SELECT id, started_at, finished_at, wagers_checked, wagers_settled,
		       failures, execution_summary, created_at
		FROM settlement_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var run models.SettlementRun
	var summaryJSON []byte
	err := r.q.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.WagersChecked,
		&run.WagersSettled,
		&run.Failures,
		&summaryJSON,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest settlement run: %w", err)
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}
	return &run, nil
}
