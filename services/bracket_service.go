package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/matchpoint-app/matchpoint/brackets"
	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type BracketService interface {
	// GenerateAndSave seeds the confirmed registrations, generates the
	// bracket for the tournament's format and persists it, flipping the
	// tournament to ongoing. Everything happens in one transaction.
	GenerateAndSave(ctx context.Context, tournament *models.Tournament) ([]*models.Match, error)
	GetBracket(ctx context.Context, tournamentID int) ([]*models.Match, error)
}

type bracketService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	logger           *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		logger:           logger,
	}
}

func (s *bracketService) GenerateAndSave(ctx context.Context, tournament *models.Tournament) ([]*models.Match, error) {
	statusConfirmed := models.RegistrationConfirmed
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournament.ID, &statusConfirmed, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed registrations for tournament %d: %w", tournament.ID, err)
	}
	if len(registrations) < 2 {
		return nil, ErrNotEnoughRegistrations
	}

	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return nil, err
	}

	generated, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament:    tournament,
		Registrations: registrations,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s bracket for tournament %d: %w",
			generator.Name(), tournament.ID, err)
	}
	if len(generated) == 0 {
		return nil, fmt.Errorf("bracket generation produced no matches for %d registrations", len(registrations))
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
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("bracket transaction rollback failed",
					slog.Int("tournament_id", tournament.ID), slog.Any("error", rbErr))
			}
		}
	}()

	// Signup order is the seed order.
	for i, reg := range registrations {
		if txErr = s.registrationRepo.UpdateSeed(ctx, tx, reg.ID, i+1); txErr != nil {
			return nil, txErr
		}
	}

	// First pass: insert every match and remember its database ID.
	idByUID := make(map[string]int, len(generated))
	persisted := make([]*models.Match, 0, len(generated))
	for _, gm := range generated {
		match := &models.Match{
			TournamentID:     tournament.ID,
			Round:            gm.Round,
			SlotLabel:        gm.UID,
			Bracket:          gm.Bracket,
			P1RegistrationID: gm.Registration1ID,
			P2RegistrationID: gm.Registration2ID,
			Status:           models.MatchScheduled,
		}
		if txErr = s.matchRepo.Create(ctx, tx, match); txErr != nil {
			return nil, txErr
		}
		idByUID[gm.UID] = match.ID
		persisted = append(persisted, match)
	}

	// Second pass: translate UID links into row references.
	for i, gm := range generated {
		if gm.WinnerToUID == nil && gm.LoserToUID == nil {
			continue
		}
		match := persisted[i]
		var winnerNext, loserNext *int
		if gm.WinnerToUID != nil {
			id, ok := idByUID[*gm.WinnerToUID]
			if !ok {
				txErr = fmt.Errorf("generated bracket references unknown match %q", *gm.WinnerToUID)
				return nil, txErr
			}
			winnerNext = &id
		}
		if gm.LoserToUID != nil {
			id, ok := idByUID[*gm.LoserToUID]
			if !ok {
				txErr = fmt.Errorf("generated bracket references unknown match %q", *gm.LoserToUID)
				return nil, txErr
			}
			loserNext = &id
		}
		if txErr = s.matchRepo.SetAdvancementLinks(ctx, tx, match.ID, winnerNext, gm.WinnerToSlot, loserNext, gm.LoserToSlot); txErr != nil {
			return nil, txErr
		}
		match.WinnerNextMatchID = winnerNext
		match.WinnerNextSlot = gm.WinnerToSlot
		match.LoserNextMatchID = loserNext
		match.LoserNextSlot = gm.LoserToSlot
	}

	if txErr = s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.StatusOngoing); txErr != nil {
		return nil, txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit bracket for tournament %d: %w", tournament.ID, txErr)
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("generator", generator.Name()),
		slog.Int("matches", len(persisted)))

	return persisted, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}
