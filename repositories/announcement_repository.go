package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matchpoint-app/matchpoint/models"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, status *models.AnnouncementStatus, limit, offset int) ([]*models.Announcement, error)
	Update(ctx context.Context, announcement *models.Announcement) error
	// ListDue returns scheduled announcements whose publish time has
	// arrived, for the background publisher.
	ListDue(ctx context.Context, now time.Time) ([]*models.Announcement, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type postgresAnnouncementRepository struct {
	db *sql.DB
}

func NewPostgresAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: db}
}

const announcementColumns = `
	id, title, body, audience, status, scheduled_at, sent_at, created_by_user_id, created_at`

func scanAnnouncement(row interface{ Scan(...interface{}) error }, a *models.Announcement) error {
	return row.Scan(
		&a.ID, &a.Title, &a.Body, &a.Audience, &a.Status,
		&a.ScheduledAt, &a.SentAt, &a.CreatedByUserID, &a.CreatedAt,
	)
}

func (r *postgresAnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	query := `
		INSERT INTO announcements (id, title, body, audience, status, scheduled_at, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Title, a.Body, a.Audience, a.Status, a.ScheduledAt, a.CreatedByUserID,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert announcement: %w", err)
	}
	return nil
}

func (r *postgresAnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `SELECT` + announcementColumns + ` FROM announcements WHERE id = $1`

	a := &models.Announcement{}
	err := scanAnnouncement(r.db.QueryRowContext(ctx, query, id), a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("failed to scan announcement %s: %w", id, err)
	}
	return a, nil
}

func (r *postgresAnnouncementRepository) List(ctx context.Context, status *models.AnnouncementStatus, limit, offset int) ([]*models.Announcement, error) {
	query := `SELECT` + announcementColumns + ` FROM announcements WHERE 1=1`
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
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	announcements := make([]*models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		if scanErr := scanAnnouncement(rows, &a); scanErr != nil {
			return nil, fmt.Errorf("failed to scan announcement row: %w", scanErr)
		}
		announcements = append(announcements, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (r *postgresAnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	query := `
		UPDATE announcements SET
			title = $1,
			body = $2,
			audience = $3,
			status = $4,
			scheduled_at = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		a.Title, a.Body, a.Audience, a.Status, a.ScheduledAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update announcement %s: %w", a.ID, err)
	}
	return checkAffectedRows(result, ErrAnnouncementNotFound)
}

func (r *postgresAnnouncementRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Announcement, error) {
	query := `SELECT` + announcementColumns + `
		FROM announcements
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.AnnouncementScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due announcements: %w", err)
	}
	defer rows.Close()

	announcements := make([]*models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		if scanErr := scanAnnouncement(rows, &a); scanErr != nil {
			return nil, fmt.Errorf("failed to scan due announcement: %w", scanErr)
		}
		announcements = append(announcements, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (r *postgresAnnouncementRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	// Guarded on status so two publisher ticks cannot both claim the row.
	query := `
		UPDATE announcements SET status = $1, sent_at = $2
		WHERE id = $3 AND status <> $1`

	result, err := r.db.ExecContext(ctx, query, models.AnnouncementSent, sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark announcement %s sent: %w", id, err)
	}
	return checkAffectedRows(result, ErrAnnouncementNotFound)
}

func (r *postgresAnnouncementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrAnnouncementNotFound)
}
