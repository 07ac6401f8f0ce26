package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/matchpoint-app/matchpoint/models"
)

// AnalyticsRepository runs the aggregate queries behind the admin
// dashboard. It reads across several tables, so it is kept apart from
// the per-entity repositories.
type AnalyticsRepository interface {
	CountActiveTournaments(ctx context.Context) (int, error)
	RegistrationsPerDay(ctx context.Context, from, to time.Time) ([]models.DailyCount, error)
	TournamentStatusCounts(ctx context.Context) (map[models.TournamentStatus]int, error)
	TournamentSummary(ctx context.Context, tournamentID int) (*models.TournamentSummary, error)
}

type postgresAnalyticsRepository struct {
	db *sql.DB
}

func NewPostgresAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &postgresAnalyticsRepository{db: db}
}

func (r *postgresAnalyticsRepository) CountActiveTournaments(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM tournaments WHERE status IN ($1, $2)`

	var count int
	err := r.db.QueryRowContext(ctx, query, models.StatusOngoing, models.StatusPaused).Scan(&count)
	return count, err
}

func (r *postgresAnalyticsRepository) RegistrationsPerDay(ctx context.Context, from, to time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT to_char(created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM registrations
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day ASC`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations per day: %w", err)
	}
	defer rows.Close()

	counts := make([]models.DailyCount, 0)
	for rows.Next() {
		var c models.DailyCount
		if scanErr := rows.Scan(&c.Date, &c.Count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", scanErr)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *postgresAnalyticsRepository) TournamentStatusCounts(ctx context.Context) (map[models.TournamentStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tournaments GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TournamentStatus]int)
	for rows.Next() {
		var status models.TournamentStatus
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", scanErr)
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *postgresAnalyticsRepository) TournamentSummary(ctx context.Context, tournamentID int) (*models.TournamentSummary, error) {
	query := `
		SELECT
			t.id,
			t.capacity,
			t.entry_fee,
			(SELECT COUNT(*) FROM registrations r
				WHERE r.tournament_id = t.id AND r.status = $2) AS registered,
			(SELECT COUNT(*) FROM matches m
				WHERE m.tournament_id = t.id) AS matches_total,
			(SELECT COUNT(*) FROM matches m
				WHERE m.tournament_id = t.id AND m.status = $3) AS matches_completed,
			(SELECT COUNT(*) FROM disputes d
				JOIN matches m ON m.id = d.match_id
				WHERE m.tournament_id = t.id) AS disputes_total
		FROM tournaments t
		WHERE t.id = $1`

	var (
		summary  models.TournamentSummary
		entryFee int
	)
	err := r.db.QueryRowContext(ctx, query,
		tournamentID, models.RegistrationConfirmed, models.MatchCompleted,
	).Scan(
		&summary.TournamentID, &summary.Capacity, &entryFee,
		&summary.RegisteredCount, &summary.MatchesTotal, &summary.MatchesCompleted,
		&summary.DisputesTotal,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament summary %d: %w", tournamentID, err)
	}

	if summary.Capacity > 0 {
		summary.FillRate = float64(summary.RegisteredCount) / float64(summary.Capacity)
	}
	if summary.MatchesTotal > 0 {
		summary.CompletionRate = float64(summary.MatchesCompleted) / float64(summary.MatchesTotal)
		summary.DisputeRate = float64(summary.DisputesTotal) / float64(summary.MatchesTotal)
	}
	summary.ProjectedRevenue = entryFee * summary.RegisteredCount

	return &summary, nil
}
