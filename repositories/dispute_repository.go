package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/matchpoint-app/matchpoint/models"
)

var (
	ErrDisputeNotFound   = errors.New("dispute not found")
	ErrDisputeConflict   = errors.New("match already has an open dispute")
	ErrDisputeInvalidRef = errors.New("dispute references an unknown match or registration")
)

type DisputeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, dispute *models.Dispute) error
	GetByID(ctx context.Context, id int) (*models.Dispute, error)
	GetOpenByMatch(ctx context.Context, matchID int) (*models.Dispute, error)
	List(ctx context.Context, status *models.DisputeStatus, limit, offset int) ([]*models.Dispute, error)
	Resolve(ctx context.Context, exec SQLExecutor, id int, note string, resolvedByUserID int) error
	CountOpen(ctx context.Context) (int, error)
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

func (r *postgresDisputeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const disputeColumns = `
	id, match_id, raised_by_registration_id,
	p1_claim_score_p1, p1_claim_score_p2, p2_claim_score_p1, p2_claim_score_p2,
	status, resolution_note, resolved_by_user_id, created_at, resolved_at`

func scanDispute(row interface{ Scan(...interface{}) error }, d *models.Dispute) error {
	return row.Scan(
		&d.ID, &d.MatchID, &d.RaisedByRegistration,
		&d.P1ClaimScoreP1, &d.P1ClaimScoreP2, &d.P2ClaimScoreP1, &d.P2ClaimScoreP2,
		&d.Status, &d.ResolutionNote, &d.ResolvedByUserID, &d.CreatedAt, &d.ResolvedAt,
	)
}

func (r *postgresDisputeRepository) Create(ctx context.Context, exec SQLExecutor, d *models.Dispute) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO disputes (
			match_id, raised_by_registration_id,
			p1_claim_score_p1, p1_claim_score_p2, p2_claim_score_p1, p2_claim_score_p2,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		d.MatchID, d.RaisedByRegistration,
		d.P1ClaimScoreP1, d.P1ClaimScoreP2, d.P2ClaimScoreP1, d.P2ClaimScoreP2,
		d.Status,
	).Scan(&d.ID, &d.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				// Partial unique index on (match_id) WHERE status = 'open'.
				return ErrDisputeConflict
			case "23503":
				return ErrDisputeInvalidRef
			}
		}
		return fmt.Errorf("failed to insert dispute: %w", err)
	}
	return nil
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	query := `SELECT` + disputeColumns + ` FROM disputes WHERE id = $1`

	d := &models.Dispute{}
	err := scanDispute(r.db.QueryRowContext(ctx, query, id), d)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute %d: %w", id, err)
	}
	return d, nil
}

func (r *postgresDisputeRepository) GetOpenByMatch(ctx context.Context, matchID int) (*models.Dispute, error) {
	query := `SELECT` + disputeColumns + ` FROM disputes WHERE match_id = $1 AND status = $2`

	d := &models.Dispute{}
	err := scanDispute(r.db.QueryRowContext(ctx, query, matchID, models.DisputeOpen), d)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan open dispute for match %d: %w", matchID, err)
	}
	return d, nil
}

func (r *postgresDisputeRepository) List(ctx context.Context, status *models.DisputeStatus, limit, offset int) ([]*models.Dispute, error) {
	query := `SELECT` + disputeColumns + ` FROM disputes WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *status)
		argID++
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		var d models.Dispute
		if scanErr := scanDispute(rows, &d); scanErr != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", scanErr)
		}
		disputes = append(disputes, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return disputes, nil
}

func (r *postgresDisputeRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, note string, resolvedByUserID int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE disputes SET
			status = $1,
			resolution_note = $2,
			resolved_by_user_id = $3,
			resolved_at = NOW()
		WHERE id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query,
		models.DisputeResolved, note, resolvedByUserID, id, models.DisputeOpen,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve dispute %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrDisputeNotFound)
}

func (r *postgresDisputeRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM disputes WHERE status = $1`, models.DisputeOpen,
	).Scan(&count)
	return count, err
}
