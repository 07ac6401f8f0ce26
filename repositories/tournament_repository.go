package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/matchpoint-app/matchpoint/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this organizer")
	ErrTournamentInUse        = errors.New("tournament is in use (registrations or matches exist)")
	ErrTournamentInvalidOrg   = errors.New("invalid organizer reference")
)

type ListTournamentsFilter struct {
	Status      *models.TournamentStatus
	Game        *string
	OrganizerID *int
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetByShareToken(ctx context.Context, token string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateWinner(ctx context.Context, exec SQLExecutor, id int, winnerRegistrationID *int) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
	UpdateAccessCodeHash(ctx context.Context, id int, hash *string) error
	Delete(ctx context.Context, id int) error
	// ListDateExpired returns tournaments the scheduler should complete:
	// ongoing, with an end date in the past.
	ListDateExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, description, game, format, status, organizer_id,
	capacity, entry_fee, registration_deadline, start_date, end_date,
	share_token, access_code_hash, banner_key, winner_registration_id, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Game, &t.Format, &t.Status, &t.OrganizerID,
		&t.Capacity, &t.EntryFee, &t.RegistrationDeadline, &t.StartDate, &t.EndDate,
		&t.ShareToken, &t.AccessCodeHash, &t.BannerKey, &t.WinnerRegistrationID, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, game, format, status, organizer_id,
			capacity, entry_fee, registration_deadline, start_date, end_date,
			share_token, access_code_hash, banner_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.Game, t.Format, t.Status, t.OrganizerID,
		t.Capacity, t.EntryFee, t.RegistrationDeadline, t.StartDate, t.EndDate,
		t.ShareToken, t.AccessCodeHash, t.BannerKey,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByShareToken(ctx context.Context, token string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE share_token = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, token), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Game != nil {
		query += fmt.Sprintf(" AND game = $%d", argID)
		args = append(args, *filter.Game)
		argID++
	}
	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			game = $3,
			capacity = $4,
			entry_fee = $5,
			registration_deadline = $6,
			start_date = $7,
			end_date = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.Game, t.Capacity, t.EntryFee,
		t.RegistrationDeadline, t.StartDate, t.EndDate,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateWinner(ctx context.Context, exec SQLExecutor, id int, winnerRegistrationID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET winner_registration_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, winnerRegistrationID, id)
	if err != nil {
		return fmt.Errorf("failed to update winner for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateAccessCodeHash(ctx context.Context, id int, hash *string) error {
	query := `UPDATE tournaments SET access_code_hash = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament access code: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListDateExpired(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1 AND end_date IS NOT NULL AND end_date <= $2`

	rows, err := executor.QueryContext(ctx, query, models.StatusOngoing, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query date-expired tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan date-expired tournament: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_organizer_id_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503":
			if pqErr.Constraint == "tournaments_organizer_id_fkey" {
				return ErrTournamentInvalidOrg
			}
			// FK violations from registrations or matches pointing at the
			// tournament surface here on delete.
			return ErrTournamentInUse
		}
	}
	return err
}
