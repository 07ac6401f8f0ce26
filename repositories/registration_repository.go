package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/matchpoint-app/matchpoint/models"
)

var (
	ErrRegistrationNotFound   = errors.New("registration not found")
	ErrRegistrationConflict   = errors.New("player is already registered for this tournament")
	ErrRegistrationInvalidRef = errors.New("registration references an unknown tournament or user")
)

type RegistrationRepository interface {
	Create(ctx context.Context, registration *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.RegistrationStatus, withUsers bool) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed int) error
	CountActiveByTournament(ctx context.Context, tournamentID int) (int, error)
	Count(ctx context.Context) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (tournament_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.TournamentID, reg.UserID, reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "registrations_tournament_id_user_id_key" {
					return ErrRegistrationConflict
				}
			case "23503":
				return ErrRegistrationInvalidRef
			}
		}
		return err
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT id, tournament_id, user_id, status, seed, created_at
		FROM registrations
		WHERE id = $1`

	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.TournamentID, &reg.UserID, &reg.Status, &reg.Seed, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration %d: %w", id, err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Registration, error) {
	query := `
		SELECT id, tournament_id, user_id, status, seed, created_at
		FROM registrations
		WHERE tournament_id = $1 AND user_id = $2`

	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(
		&reg.ID, &reg.TournamentID, &reg.UserID, &reg.Status, &reg.Seed, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.RegistrationStatus, withUsers bool) ([]*models.Registration, error) {
	var queryBuilder strings.Builder
	if withUsers {
		queryBuilder.WriteString(`
		SELECT r.id, r.tournament_id, r.user_id, r.status, r.seed, r.created_at,
		       u.display_name, u.email, u.role, u.avatar_key, u.created_at
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.tournament_id = $1`)
	} else {
		queryBuilder.WriteString(`
		SELECT r.id, r.tournament_id, r.user_id, r.status, r.seed, r.created_at
		FROM registrations r
		WHERE r.tournament_id = $1`)
	}

	args := []interface{}{tournamentID}
	if status != nil {
		queryBuilder.WriteString(" AND r.status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY r.created_at ASC, r.id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if withUsers {
			var user models.User
			if scanErr := rows.Scan(
				&reg.ID, &reg.TournamentID, &reg.UserID, &reg.Status, &reg.Seed, &reg.CreatedAt,
				&user.DisplayName, &user.Email, &user.Role, &user.AvatarKey, &user.CreatedAt,
			); scanErr != nil {
				return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
			}
			user.ID = reg.UserID
			reg.User = &user
		} else {
			if scanErr := rows.Scan(
				&reg.ID, &reg.TournamentID, &reg.UserID, &reg.Status, &reg.Seed, &reg.CreatedAt,
			); scanErr != nil {
				return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
			}
		}
		registrations = append(registrations, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `UPDATE registrations SET seed = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, seed, id)
	if err != nil {
		return fmt.Errorf("failed to update seed for registration %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

// CountActiveByTournament counts non-withdrawn registrations, which is
// what capacity checks care about.
func (r *postgresRegistrationRepository) CountActiveByTournament(ctx context.Context, tournamentID int) (int, error) {
	query := `
		SELECT COUNT(*) FROM registrations
		WHERE tournament_id = $1 AND status <> $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, tournamentID, models.RegistrationWithdrawn).Scan(&count)
	return count, err
}

func (r *postgresRegistrationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&count)
	return count, err
}
