package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matchpoint-app/matchpoint/models"
)

var ErrMessageNotFound = errors.New("inbox message not found")

type InboxRepository interface {
	Create(ctx context.Context, message *models.InboxMessage) error
	GetByID(ctx context.Context, id int) (*models.InboxMessage, error)
	List(ctx context.Context, status *models.MessageStatus, limit, offset int) ([]*models.InboxMessage, error)
	MarkRead(ctx context.Context, id int) error
	SaveReply(ctx context.Context, id int, replyBody string, repliedAt time.Time) error
	CountUnread(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresInboxRepository struct {
	db *sql.DB
}

func NewPostgresInboxRepository(db *sql.DB) InboxRepository {
	return &postgresInboxRepository{db: db}
}

const inboxColumns = `
	id, sender_name, sender_email, subject, body, status, reply_body, replied_at, created_at`

func scanInboxMessage(row interface{ Scan(...interface{}) error }, m *models.InboxMessage) error {
	return row.Scan(
		&m.ID, &m.SenderName, &m.SenderEmail, &m.Subject, &m.Body,
		&m.Status, &m.ReplyBody, &m.RepliedAt, &m.CreatedAt,
	)
}

func (r *postgresInboxRepository) Create(ctx context.Context, m *models.InboxMessage) error {
	query := `
		INSERT INTO inbox_messages (sender_name, sender_email, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.SenderName, m.SenderEmail, m.Subject, m.Body, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert inbox message: %w", err)
	}
	return nil
}

func (r *postgresInboxRepository) GetByID(ctx context.Context, id int) (*models.InboxMessage, error) {
	query := `SELECT` + inboxColumns + ` FROM inbox_messages WHERE id = $1`

	m := &models.InboxMessage{}
	err := scanInboxMessage(r.db.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to scan inbox message %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresInboxRepository) List(ctx context.Context, status *models.MessageStatus, limit, offset int) ([]*models.InboxMessage, error) {
	query := `SELECT` + inboxColumns + ` FROM inbox_messages WHERE 1=1`
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
		return nil, fmt.Errorf("failed to query inbox messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.InboxMessage, 0)
	for rows.Next() {
		var m models.InboxMessage
		if scanErr := scanInboxMessage(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan inbox message row: %w", scanErr)
		}
		messages = append(messages, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *postgresInboxRepository) MarkRead(ctx context.Context, id int) error {
	// Only an unread message moves to read; a replied one stays replied.
	query := `UPDATE inbox_messages SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, models.MessageRead, id, models.MessageUnread)
	if err != nil {
		return fmt.Errorf("failed to mark inbox message %d read: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Already read or replied; confirm the row exists at all.
		_, getErr := r.GetByID(ctx, id)
		return getErr
	}
	return nil
}

func (r *postgresInboxRepository) SaveReply(ctx context.Context, id int, replyBody string, repliedAt time.Time) error {
	query := `
		UPDATE inbox_messages SET status = $1, reply_body = $2, replied_at = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, models.MessageReplied, replyBody, repliedAt, id)
	if err != nil {
		return fmt.Errorf("failed to save reply for inbox message %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMessageNotFound)
}

func (r *postgresInboxRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inbox_messages WHERE status = $1`, models.MessageUnread,
	).Scan(&count)
	return count, err
}

func (r *postgresInboxRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inbox_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inbox message %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMessageNotFound)
}
