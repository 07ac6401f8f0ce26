package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchpoint-app/matchpoint/models"
)

var ErrSettingNotFound = errors.New("setting not found")

type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Upsert(ctx context.Context, setting *models.SystemSetting) error
	Delete(ctx context.Context, key string) error
}

type postgresSettingRepository struct {
	db *sql.DB
}

func NewPostgresSettingRepository(db *sql.DB) SettingRepository {
	return &postgresSettingRepository{db: db}
}

func (r *postgresSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	query := `
		SELECT key, value, updated_by_user_id, updated_at
		FROM system_settings
		WHERE key = $1`

	s := &models.SystemSetting{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&s.Key, &s.Value, &s.UpdatedByUserID, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to scan setting %q: %w", key, err)
	}
	return s, nil
}

func (r *postgresSettingRepository) List(ctx context.Context) ([]*models.SystemSetting, error) {
	query := `
		SELECT key, value, updated_by_user_id, updated_at
		FROM system_settings
		ORDER BY key ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make([]*models.SystemSetting, 0)
	for rows.Next() {
		var s models.SystemSetting
		if scanErr := rows.Scan(&s.Key, &s.Value, &s.UpdatedByUserID, &s.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", scanErr)
		}
		settings = append(settings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *postgresSettingRepository) Upsert(ctx context.Context, s *models.SystemSetting) error {
	query := `
		INSERT INTO system_settings (key, value, updated_by_user_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_by_user_id = EXCLUDED.updated_by_user_id,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, s.Key, s.Value, s.UpdatedByUserID).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %q: %w", s.Key, err)
	}
	return nil
}

func (r *postgresSettingRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM system_settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return checkAffectedRows(result, ErrSettingNotFound)
}
