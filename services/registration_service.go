package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type RegistrationService interface {
	// Register signs the player up. Free tournaments confirm instantly;
	// a tournament with an entry fee leaves the registration pending
	// until an organizer confirms payment was received.
	Register(ctx context.Context, tournamentID, userID int) (*models.Registration, error)
	Confirm(ctx context.Context, registrationID int, actorID int, isAdmin bool) (*models.Registration, error)
	Withdraw(ctx context.Context, registrationID int, actorID int, isAdmin bool) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.RegistrationStatus) ([]*models.Registration, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	hub              *realtime.Hub
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		hub:              hub,
		logger:           logger,
	}
}

func (s *registrationService) Register(ctx context.Context, tournamentID, userID int) (*models.Registration, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusRegistration {
		return nil, ErrRegistrationNotOpen
	}
	if time.Now().After(tournament.RegistrationDeadline) {
		return nil, ErrRegistrationClosed
	}

	active, err := s.registrationRepo.CountActiveByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if active >= tournament.Capacity {
		return nil, ErrTournamentFull
	}

	status := models.RegistrationConfirmed
	if tournament.EntryFee > 0 {
		status = models.RegistrationPending
	}

	registration := &models.Registration{
		TournamentID: tournamentID,
		UserID:       userID,
		Status:       status,
	}
	if err := s.registrationRepo.Create(ctx, registration); err != nil {
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, err
	}

	s.logger.Info("player registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID),
		slog.String("status", string(status)))
	s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.EventRegistrationUpdate, registration)

	return registration, nil
}

func (s *registrationService) Confirm(ctx context.Context, registrationID int, actorID int, isAdmin bool) (*models.Registration, error) {
	registration, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOrganizer(ctx, registration.TournamentID, actorID, isAdmin); err != nil {
		return nil, err
	}
	if registration.Status != models.RegistrationPending {
		return nil, ErrRegistrationNotPending
	}

	if err := s.registrationRepo.UpdateStatus(ctx, registrationID, models.RegistrationConfirmed); err != nil {
		return nil, err
	}
	registration.Status = models.RegistrationConfirmed

	s.hub.BroadcastToRoom(realtime.TournamentRoom(registration.TournamentID), realtime.EventRegistrationUpdate, registration)
	return registration, nil
}

func (s *registrationService) Withdraw(ctx context.Context, registrationID int, actorID int, isAdmin bool) (*models.Registration, error) {
	registration, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && registration.UserID != actorID {
		return nil, ErrRegistrationNotOwn
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, registration.TournamentID)
	if err != nil {
		return nil, err
	}
	// Once the bracket exists a withdrawal would tear a hole in it;
	// losses are then recorded through match results instead.
	if tournament.Status != models.StatusRegistration {
		return nil, ErrWithdrawalNotAllowed
	}
	if registration.Status == models.RegistrationWithdrawn {
		return registration, nil
	}

	if err := s.registrationRepo.UpdateStatus(ctx, registrationID, models.RegistrationWithdrawn); err != nil {
		return nil, err
	}
	registration.Status = models.RegistrationWithdrawn

	s.logger.Info("player withdrew",
		slog.Int("tournament_id", registration.TournamentID),
		slog.Int("registration_id", registrationID))
	s.hub.BroadcastToRoom(realtime.TournamentRoom(registration.TournamentID), realtime.EventRegistrationUpdate, registration)

	return registration, nil
}

func (s *registrationService) ListByTournament(ctx context.Context, tournamentID int, status *models.RegistrationStatus) ([]*models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.registrationRepo.ListByTournament(ctx, tournamentID, status, true)
}

func (s *registrationService) authorizeOrganizer(ctx context.Context, tournamentID, actorID int, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.OrganizerID != actorID {
		return ErrForbiddenOperation
	}
	return nil
}
