package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type countingUserRepo struct {
	repositories.UserRepository
	count int
}

func (r *countingUserRepo) Count(context.Context) (int, error) { return r.count, nil }

type countingRegistrationRepo struct {
	repositories.RegistrationRepository
	count int
}

func (r *countingRegistrationRepo) Count(context.Context) (int, error) { return r.count, nil }

type countingMatchRepo struct {
	repositories.MatchRepository
	count int
}

func (r *countingMatchRepo) Count(context.Context) (int, error) { return r.count, nil }

type countingDisputeRepo struct {
	repositories.DisputeRepository
	open int
}

func (r *countingDisputeRepo) CountOpen(context.Context) (int, error) { return r.open, nil }

type countingInboxRepo struct {
	repositories.InboxRepository
	unread int
}

func (r *countingInboxRepo) CountUnread(context.Context) (int, error) { return r.unread, nil }

type dashboardAnalyticsRepo struct {
	repositories.AnalyticsRepository
	statusCounts map[models.TournamentStatus]int
	active       int
}

func (r *dashboardAnalyticsRepo) TournamentStatusCounts(context.Context) (map[models.TournamentStatus]int, error) {
	return r.statusCounts, nil
}

func (r *dashboardAnalyticsRepo) CountActiveTournaments(context.Context) (int, error) {
	return r.active, nil
}

func TestDashboardStatsAggregatesAllCounters(t *testing.T) {
	svc := NewAnalyticsService(
		&dashboardAnalyticsRepo{
			statusCounts: map[models.TournamentStatus]int{
				models.StatusRegistration: 3,
				models.StatusOngoing:      2,
				models.StatusCompleted:    5,
			},
			active: 2,
		},
		&countingUserRepo{count: 120},
		nil,
		&countingRegistrationRepo{count: 64},
		&countingMatchRepo{count: 48},
		&countingDisputeRepo{open: 3},
		&countingInboxRepo{unread: 7},
	)

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.PlayersTotal)
	assert.Equal(t, 10, stats.TournamentsTotal)
	assert.Equal(t, 2, stats.ActiveTournaments)
	assert.Equal(t, 64, stats.RegistrationsTotal)
	assert.Equal(t, 48, stats.MatchesTotal)
	assert.Equal(t, 3, stats.OpenDisputes)
	assert.Equal(t, 7, stats.UnreadMessages)
}

func TestRegistrationsPerDayZeroFillsGaps(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)
	repo := &fakeAnalyticsRepo{daily: []models.DailyCount{
		{Date: yesterday.Format("2006-01-02"), Count: 4},
		{Date: today.Format("2006-01-02"), Count: 2},
	}}
	svc := NewAnalyticsService(repo, nil, nil, nil, nil, nil, nil)

	series, err := svc.RegistrationsPerDay(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, series, 7)

	// Continuous, ascending, one bucket per day.
	for i := 1; i < len(series); i++ {
		prev, err := time.Parse("2006-01-02", series[i-1].Date)
		require.NoError(t, err)
		cur, err := time.Parse("2006-01-02", series[i].Date)
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 0, 1), cur)
	}

	byDate := make(map[string]int, len(series))
	for _, bucket := range series {
		byDate[bucket.Date] = bucket.Count
	}
	assert.Equal(t, 4, byDate[yesterday.Format("2006-01-02")])
	assert.Equal(t, 2, byDate[today.Format("2006-01-02")])
	// Days without signups are present with zero.
	assert.Equal(t, 0, byDate[today.AddDate(0, 0, -3).Format("2006-01-02")])
}

func TestRegistrationsPerDayClampsWindow(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := NewAnalyticsService(repo, nil, nil, nil, nil, nil, nil)

	series, err := svc.RegistrationsPerDay(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, series, 30)

	series, err = svc.RegistrationsPerDay(context.Background(), 9999)
	require.NoError(t, err)
	assert.Len(t, series, 365)
}

func TestTournamentStatusBreakdownPercentages(t *testing.T) {
	repo := &fakeAnalyticsRepo{statusCounts: map[models.TournamentStatus]int{
		models.StatusCompleted:    6,
		models.StatusOngoing:      3,
		models.StatusRegistration: 1,
	}}
	svc := NewAnalyticsService(repo, nil, nil, nil, nil, nil, nil)

	shares, err := svc.TournamentStatusBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, shares, 3)

	// Sorted by count, largest first.
	assert.Equal(t, models.StatusCompleted, shares[0].Status)
	assert.InDelta(t, 60.0, shares[0].Percentage, 0.001)
	assert.Equal(t, models.StatusOngoing, shares[1].Status)
	assert.InDelta(t, 30.0, shares[1].Percentage, 0.001)
	assert.Equal(t, models.StatusRegistration, shares[2].Status)
	assert.InDelta(t, 10.0, shares[2].Percentage, 0.001)
}

func TestTournamentStatusBreakdownEmpty(t *testing.T) {
	repo := &fakeAnalyticsRepo{statusCounts: map[models.TournamentStatus]int{}}
	svc := NewAnalyticsService(repo, nil, nil, nil, nil, nil, nil)

	shares, err := svc.TournamentStatusBreakdown(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shares)
}
