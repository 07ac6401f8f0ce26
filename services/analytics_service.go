package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type AnalyticsService interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	// RegistrationsPerDay returns one bucket per day for the trailing
	// window, zero-filled so charts get a continuous series.
	RegistrationsPerDay(ctx context.Context, days int) ([]models.DailyCount, error)
	TournamentStatusBreakdown(ctx context.Context) ([]models.StatusShare, error)
	TournamentSummary(ctx context.Context, tournamentID int) (*models.TournamentSummary, error)
}

type analyticsService struct {
	analyticsRepo    repositories.AnalyticsRepository
	userRepo         repositories.UserRepository
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	disputeRepo      repositories.DisputeRepository
	inboxRepo        repositories.InboxRepository
}

func NewAnalyticsService(
	analyticsRepo repositories.AnalyticsRepository,
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	disputeRepo repositories.DisputeRepository,
	inboxRepo repositories.InboxRepository,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo:    analyticsRepo,
		userRepo:         userRepo,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		disputeRepo:      disputeRepo,
		inboxRepo:        inboxRepo,
	}
}

func (s *analyticsService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.PlayersTotal, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err := s.analyticsRepo.TournamentStatusCounts(gctx)
		if err != nil {
			return err
		}
		for _, count := range counts {
			stats.TournamentsTotal += count
		}
		return nil
	})
	g.Go(func() (err error) {
		stats.ActiveTournaments, err = s.analyticsRepo.CountActiveTournaments(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RegistrationsTotal, err = s.registrationRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.MatchesTotal, err = s.matchRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OpenDisputes, err = s.disputeRepo.CountOpen(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.UnreadMessages, err = s.inboxRepo.CountUnread(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *analyticsService) RegistrationsPerDay(ctx context.Context, days int) ([]models.DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	now := time.Now().UTC()
	to := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -days)

	raw, err := s.analyticsRepo.RegistrationsPerDay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]int, len(raw))
	for _, bucket := range raw {
		byDate[bucket.Date] = bucket.Count
	}

	series := make([]models.DailyCount, 0, days)
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		series = append(series, models.DailyCount{Date: date, Count: byDate[date]})
	}
	return series, nil
}

func (s *analyticsService) TournamentStatusBreakdown(ctx context.Context) ([]models.StatusShare, error) {
	counts, err := s.analyticsRepo.TournamentStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	shares := make([]models.StatusShare, 0, len(counts))
	for status, count := range counts {
		share := models.StatusShare{Status: status, Count: count}
		if total > 0 {
			share.Percentage = float64(count) / float64(total) * 100
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Status < shares[j].Status
	})
	return shares, nil
}

func (s *analyticsService) TournamentSummary(ctx context.Context, tournamentID int) (*models.TournamentSummary, error) {
	return s.analyticsRepo.TournamentSummary(ctx, tournamentID)
}
