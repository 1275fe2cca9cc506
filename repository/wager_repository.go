package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"stakechat/database"
	"stakechat/models"
)

// WagerRepository stores wager snapshots. Scalar fields map to columns, the
// nested records (timers, stakes, guesses, reviewer actions, cascade and
// settlement) are JSONB documents.
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `
	id, sender, recipient, group_id, content, coin_mode,
	main_timer, review_timer, reviewers, reviewer_phase_minutes,
	stakes, guesses, likes, dislikes, reviewer_actions, cascade, settlement,
	is_public, public_by, public_at, forwarded_from, created_at, updated_at
`

// GetByID loads a wager snapshot, nil if it does not exist
func (r *WagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	return r.get(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id = $1`, id)
}

// GetByIDForUpdate loads a wager and holds its row lock until the transaction ends
func (r *WagerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	return r.get(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id = $1 FOR UPDATE`, id)
}

func (r *WagerRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Wager, error) {
	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %s: %w", id, err)
	}
	return wager, nil
}

// Save writes the full snapshot, inserting the wager on first save
func (r *WagerRepository) Save(ctx context.Context, w *models.Wager) error {
	docs, err := marshalWagerDocuments(w)
	if err != nil {
		return fmt.Errorf("failed to encode wager %s: %w", w.ID, err)
	}

	query := `
		INSERT INTO wagers (` + wagerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			main_timer = EXCLUDED.main_timer,
			review_timer = EXCLUDED.review_timer,
			stakes = EXCLUDED.stakes,
			guesses = EXCLUDED.guesses,
			likes = EXCLUDED.likes,
			dislikes = EXCLUDED.dislikes,
			reviewer_actions = EXCLUDED.reviewer_actions,
			cascade = EXCLUDED.cascade,
			settlement = EXCLUDED.settlement,
			is_public = EXCLUDED.is_public,
			public_by = EXCLUDED.public_by,
			public_at = EXCLUDED.public_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.q.Exec(ctx, query,
		w.ID,
		w.Sender,
		w.Recipient,
		w.GroupID,
		w.Content,
		w.CoinMode,
		docs.mainTimer,
		docs.reviewTimer,
		nonNil(w.Reviewers),
		w.ReviewerPhaseMinutes,
		docs.stakes,
		docs.guesses,
		nonNil(w.Likes),
		nonNil(w.Dislikes),
		docs.reviewerActions,
		docs.cascade,
		docs.settlement,
		w.IsPublic,
		w.PublicBy,
		w.PublicAt,
		w.ForwardedFrom,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save wager %s: %w", w.ID, err)
	}
	return nil
}

// ListForUser returns wagers the user sent, received or reviews, newest first
func (r *WagerRepository) ListForUser(ctx context.Context, username string) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE sender = $1 OR recipient = $1 OR $1 = ANY(reviewers)
		ORDER BY created_at DESC
	`
	return r.list(ctx, "user "+username, query, username)
}

// ListForGroup returns wagers posted to a group, newest first
func (r *WagerRepository) ListForGroup(ctx context.Context, groupID string) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE group_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "group "+groupID, query, groupID)
}

// ListPublic returns wagers marked public, most recently published first
func (r *WagerRepository) ListPublic(ctx context.Context, limit int) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE is_public
		ORDER BY public_at DESC
		LIMIT $1
	`
	return r.list(ctx, "public", query, limit)
}

// ListUnsettledIDs returns the ids of wagers without a settlement, oldest first
func (r *WagerRepository) ListUnsettledIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM wagers WHERE settlement IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled wagers: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan unsettled wager ids: %w", err)
	}
	return ids, nil
}

func (r *WagerRepository) list(ctx context.Context, scope, query string, args ...any) ([]*models.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers for %s: %w", scope, err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}
	return wagers, nil
}

type wagerDocuments struct {
	mainTimer       []byte
	reviewTimer     []byte
	stakes          []byte
	guesses         []byte
	reviewerActions []byte
	cascade         []byte
	settlement      []byte
}

func marshalWagerDocuments(w *models.Wager) (*wagerDocuments, error) {
	var (
		docs wagerDocuments
		err  error
	)
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&docs.mainTimer, w.MainTimer},
		{&docs.reviewTimer, w.ReviewTimer},
		{&docs.stakes, nonNil(w.Stakes)},
		{&docs.guesses, w.Guesses},
		{&docs.reviewerActions, w.ReviewerActions},
		{&docs.cascade, w.Cascade},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return nil, err
		}
	}
	if w.Settlement != nil {
		if docs.settlement, err = json.Marshal(w.Settlement); err != nil {
			return nil, err
		}
	}
	return &docs, nil
}

func scanWager(row pgx.Row) (*models.Wager, error) {
	var (
		w    models.Wager
		docs wagerDocuments
	)
	err := row.Scan(
		&w.ID,
		&w.Sender,
		&w.Recipient,
		&w.GroupID,
		&w.Content,
		&w.CoinMode,
		&docs.mainTimer,
		&docs.reviewTimer,
		&w.Reviewers,
		&w.ReviewerPhaseMinutes,
		&docs.stakes,
		&docs.guesses,
		&w.Likes,
		&w.Dislikes,
		&docs.reviewerActions,
		&docs.cascade,
		&docs.settlement,
		&w.IsPublic,
		&w.PublicBy,
		&w.PublicAt,
		&w.ForwardedFrom,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		src []byte
		dst any
	}{
		{docs.mainTimer, &w.MainTimer},
		{docs.reviewTimer, &w.ReviewTimer},
		{docs.stakes, &w.Stakes},
		{docs.guesses, &w.Guesses},
		{docs.reviewerActions, &w.ReviewerActions},
		{docs.cascade, &w.Cascade},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode wager %s: %w", w.ID, err)
		}
	}
	if len(docs.settlement) > 0 {
		w.Settlement = &models.Settlement{}
		if err := json.Unmarshal(docs.settlement, w.Settlement); err != nil {
			return nil, fmt.Errorf("failed to decode settlement of wager %s: %w", w.ID, err)
		}
	}

	if w.Guesses == nil {
		w.Guesses = map[string]string{}
	}
	if w.ReviewerActions == nil {
		w.ReviewerActions = map[string]models.ReviewerAction{}
	}
	w.Stakes = nonNil(w.Stakes)
	w.Likes = nonNil(w.Likes)
	w.Dislikes = nonNil(w.Dislikes)
	return &w, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
