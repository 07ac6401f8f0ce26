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
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchInvalidRef      = errors.New("match references an unknown tournament or registration")
	ErrResultReportConflict = errors.New("registration has already reported a result for this match")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// SetAdvancementLinks wires the winner/loser forward pointers after
	// the whole bracket has been inserted and real IDs exist.
	SetAdvancementLinks(ctx context.Context, exec SQLExecutor, id int, winnerNext, winnerSlot, loserNext, loserSlot *int) error
	SetParticipant(ctx context.Context, exec SQLExecutor, id int, slot int, registrationID int) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, scoreP1, scoreP2 int, winnerRegistrationID int, status models.MatchStatus) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	CountIncompleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	Count(ctx context.Context) (int, error)

	CreateResultReport(ctx context.Context, exec SQLExecutor, report *models.ResultReport) error
	ListResultReports(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.ResultReport, error)
	DeleteResultReports(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round, slot_label, bracket,
	p1_registration_id, p2_registration_id,
	status, score_p1, score_p2, winner_registration_id,
	winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot,
	created_at`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.SlotLabel, &m.Bracket,
		&m.P1RegistrationID, &m.P2RegistrationID,
		&m.Status, &m.ScoreP1, &m.ScoreP2, &m.WinnerRegistrationID,
		&m.WinnerNextMatchID, &m.WinnerNextSlot, &m.LoserNextMatchID, &m.LoserNextSlot,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			tournament_id, round, slot_label, bracket,
			p1_registration_id, p2_registration_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.SlotLabel, m.Bracket,
		m.P1RegistrationID, m.P2RegistrationID, m.Status,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMatchInvalidRef
		}
		return fmt.Errorf("failed to insert match %s: %w", m.SlotLabel, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY bracket, round, id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetAdvancementLinks(ctx context.Context, exec SQLExecutor, id int, winnerNext, winnerSlot, loserNext, loserSlot *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			winner_next_match_id = $1,
			winner_next_slot = $2,
			loser_next_match_id = $3,
			loser_next_slot = $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, winnerNext, winnerSlot, loserNext, loserSlot, id)
	if err != nil {
		return fmt.Errorf("failed to set advancement links for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetParticipant(ctx context.Context, exec SQLExecutor, id int, slot int, registrationID int) error {
	executor := r.getExecutor(exec)

	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET p1_registration_id = $1 WHERE id = $2`
	case 2:
		query = `UPDATE matches SET p2_registration_id = $1 WHERE id = $2`
	default:
		return fmt.Errorf("invalid participant slot %d", slot)
	}

	result, err := executor.ExecContext(ctx, query, registrationID, id)
	if err != nil {
		return fmt.Errorf("failed to set participant on match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, scoreP1, scoreP2 int, winnerRegistrationID int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			score_p1 = $1,
			score_p2 = $2,
			winner_registration_id = $3,
			status = $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, scoreP1, scoreP2, winnerRegistrationID, status, id)
	if err != nil {
		return fmt.Errorf("failed to record result for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountIncompleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COUNT(*) FROM matches
		WHERE tournament_id = $1 AND status NOT IN ($2, $3)`

	var count int
	err := executor.QueryRowContext(ctx, query, tournamentID, models.MatchCompleted, models.MatchCancelled).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) CreateResultReport(ctx context.Context, exec SQLExecutor, report *models.ResultReport) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_result_reports (match_id, registration_id, score_p1, score_p2)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		report.MatchID, report.RegistrationID, report.ScoreP1, report.ScoreP2,
	).Scan(&report.ID, &report.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrResultReportConflict
			case "23503":
				return ErrMatchInvalidRef
			}
		}
		return fmt.Errorf("failed to insert result report: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) ListResultReports(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.ResultReport, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, registration_id, score_p1, score_p2, created_at
		FROM match_result_reports
		WHERE match_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query result reports for match %d: %w", matchID, err)
	}
	defer rows.Close()

	reports := make([]*models.ResultReport, 0)
	for rows.Next() {
		var rep models.ResultReport
		if scanErr := rows.Scan(
			&rep.ID, &rep.MatchID, &rep.RegistrationID, &rep.ScoreP1, &rep.ScoreP2, &rep.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan result report: %w", scanErr)
		}
		reports = append(reports, &rep)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *postgresMatchRepository) DeleteResultReports(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM match_result_reports WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete result reports for match %d: %w", matchID, err)
	}
	return nil
}
