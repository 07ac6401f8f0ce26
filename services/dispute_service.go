package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type ResolveDisputeInput struct {
	DisputeID    int
	AdminID      int
	FinalScoreP1 int
	FinalScoreP2 int
	Note         string
}

type DisputeService interface {
	GetByID(ctx context.Context, id int) (*models.Dispute, error)
	List(ctx context.Context, status *models.DisputeStatus, limit, offset int) ([]*models.Dispute, error)
	// Resolve closes the dispute with an admin-decided final score. The
	// disputed match completes with that score and advancement runs as
	// if the players had agreed.
	Resolve(ctx context.Context, input ResolveDisputeInput) (*models.Dispute, error)
}

type disputeService struct {
	db             *sql.DB
	disputeRepo    repositories.DisputeRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	hub            *realtime.Hub
	logger         *slog.Logger
}

func NewDisputeService(
	db *sql.DB,
	disputeRepo repositories.DisputeRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) DisputeService {
	return &disputeService{
		db:             db,
		disputeRepo:    disputeRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *disputeService) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	return s.disputeRepo.GetByID(ctx, id)
}

func (s *disputeService) List(ctx context.Context, status *models.DisputeStatus, limit, offset int) ([]*models.Dispute, error) {
	return s.disputeRepo.List(ctx, status, limit, offset)
}

func (s *disputeService) Resolve(ctx context.Context, input ResolveDisputeInput) (*models.Dispute, error) {
	if input.FinalScoreP1 < 0 || input.FinalScoreP2 < 0 || input.FinalScoreP1 == input.FinalScoreP2 {
		return nil, ErrInvalidScoreline
	}
	if strings.TrimSpace(input.Note) == "" {
		return nil, fmt.Errorf("%w: resolution note is required", ErrValidationFailed)
	}

	dispute, err := s.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != models.DisputeOpen {
		return nil, ErrDisputeAlreadyResolved
	}

	match, err := s.matchRepo.GetByID(ctx, dispute.MatchID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	if txErr = s.disputeRepo.Resolve(ctx, tx, dispute.ID, input.Note, input.AdminID); txErr != nil {
		return nil, txErr
	}
	if txErr = s.matchRepo.DeleteResultReports(ctx, tx, match.ID); txErr != nil {
		return nil, txErr
	}
	if txErr = applyMatchResult(ctx, tx, s.matchRepo, s.tournamentRepo, match, input.FinalScoreP1, input.FinalScoreP2); txErr != nil {
		return nil, txErr
	}
	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit dispute resolution: %w", txErr)
	}

	s.logger.Info("dispute resolved",
		slog.Int("dispute_id", dispute.ID),
		slog.Int("match_id", match.ID),
		slog.Int("admin_id", input.AdminID))
	s.hub.BroadcastToRoom(realtime.TournamentRoom(match.TournamentID), realtime.EventMatchUpdated, match)

	return s.disputeRepo.GetByID(ctx, dispute.ID)
}
