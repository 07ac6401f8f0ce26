package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/matchpoint-app/matchpoint/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	// UpsertFromIdentity creates the profile row on first sight of an
	// identity-provider subject, or refreshes the email on conflict.
	UpsertFromIdentity(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateDisplayName(ctx context.Context, id int, displayName string) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
	Count(ctx context.Context) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) UpsertFromIdentity(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, display_name, email, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.DisplayName, user.Email, user.Role,
	).Scan(&user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, display_name, email, role, avatar_key, created_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.Role, &user.AvatarKey, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argID := 1

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(display_name ILIKE $%d OR email ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}
	if filter.Role != nil {
		where = append(where, fmt.Sprintf("role = $%d", argID))
		args = append(args, *filter.Role)
		argID++
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT id, display_name, email, role, avatar_key, created_at
		FROM users
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, whereClause, argID, argID+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role, &u.AvatarKey, &u.CreatedAt); scanErr != nil {
			return nil, 0, scanErr
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *postgresUserRepository) UpdateDisplayName(ctx context.Context, id int, displayName string) error {
	query := `UPDATE users SET display_name = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, displayName, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
