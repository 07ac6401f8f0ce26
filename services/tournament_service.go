package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
	"github.com/matchpoint-app/matchpoint/storage"
)

// allowedTournamentTransitions encodes the lifecycle state machine.
var allowedTournamentTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusRegistration: {models.StatusOngoing, models.StatusCancelled},
	models.StatusOngoing:      {models.StatusPaused, models.StatusCompleted, models.StatusCancelled},
	models.StatusPaused:       {models.StatusOngoing, models.StatusCancelled},
	models.StatusCompleted:    {},
	models.StatusCancelled:    {},
}

func transitionAllowed(from, to models.TournamentStatus) bool {
	for _, allowed := range allowedTournamentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type CreateTournamentInput struct {
	Name                 string
	Description          *string
	Game                 string
	Format               models.TournamentFormat
	Capacity             int
	EntryFee             int
	RegistrationDeadline time.Time
	StartDate            time.Time
	EndDate              *time.Time
	AccessCode           *string
}

type UpdateTournamentInput struct {
	Name                 *string
	Description          *string
	Game                 *string
	Capacity             *int
	EntryFee             *int
	RegistrationDeadline *time.Time
	StartDate            *time.Time
	EndDate              *time.Time
	// Non-nil rotates the share-link access code; an empty string
	// removes the code and makes the link open again.
	AccessCode *string
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetByShareToken(ctx context.Context, token string, accessCode string) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, id int, actorID int, isAdmin bool, input UpdateTournamentInput) (*models.Tournament, error)
	Start(ctx context.Context, id int, actorID int, isAdmin bool) (*models.Tournament, error)
	ChangeStatus(ctx context.Context, id int, actorID int, isAdmin bool, status models.TournamentStatus) (*models.Tournament, error)
	// Delete removes a tournament that has not produced any matches.
	Delete(ctx context.Context, id int, actorID int, isAdmin bool) error
	UploadBanner(ctx context.Context, id int, actorID int, isAdmin bool, contentType string, file io.Reader) (*models.Tournament, error)
	// CompleteExpired is called by the scheduler. It completes every
	// ongoing tournament whose end date has passed and returns how many
	// it touched.
	CompleteExpired(ctx context.Context, now time.Time) (int, error)
}

type tournamentService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	userRepo         repositories.UserRepository
	bracketService   BracketService
	settingService   SettingService
	uploader         storage.FileUploader
	hub              *realtime.Hub
	logger           *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	bracketService BracketService,
	settingService SettingService,
	uploader storage.FileUploader,
	hub *realtime.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		bracketService:   bracketService,
		settingService:   settingService,
		uploader:         uploader,
		hub:              hub,
		logger:           logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.Format != models.FormatSingleElimination && input.Format != models.FormatDoubleElimination {
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidationFailed, input.Format)
	}

	capacity := input.Capacity
	if capacity == 0 {
		capacity = s.settingService.DefaultCapacity(ctx)
	}
	if capacity < 2 {
		return nil, ErrTournamentInvalidCapacity
	}
	if input.EntryFee < 0 {
		return nil, fmt.Errorf("%w: entry fee must not be negative", ErrValidationFailed)
	}
	if !input.RegistrationDeadline.Before(input.StartDate) {
		return nil, ErrTournamentInvalidRegDeadline
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	tournament := &models.Tournament{
		Name:                 strings.TrimSpace(input.Name),
		Description:          input.Description,
		Game:                 strings.TrimSpace(input.Game),
		Format:               input.Format,
		Status:               models.StatusRegistration,
		OrganizerID:          organizerID,
		Capacity:             capacity,
		EntryFee:             input.EntryFee,
		RegistrationDeadline: input.RegistrationDeadline,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		ShareToken:           uuid.NewString(),
	}

	if input.AccessCode != nil && *input.AccessCode != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.AccessCode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash access code: %w", err)
		}
		hashStr := string(hash)
		tournament.AccessCodeHash = &hashStr
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}
	s.decorate(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, tournament)
	return tournament, nil
}

// GetByShareToken resolves a public share link. When the tournament is
// protected by an access code, the caller must supply the plain code.
func (s *tournamentService) GetByShareToken(ctx context.Context, token string, accessCode string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if tournament.AccessCodeHash != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*tournament.AccessCodeHash), []byte(accessCode)); err != nil {
			return nil, ErrTournamentAccessCodeInvalid
		}
	}
	s.decorate(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.fillBannerURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, actorID int, isAdmin bool, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusRegistration {
		return nil, ErrTournamentNotEditable
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrTournamentNameRequired
		}
		tournament.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.Game != nil {
		tournament.Game = strings.TrimSpace(*input.Game)
	}
	if input.Capacity != nil {
		if *input.Capacity < 2 {
			return nil, ErrTournamentInvalidCapacity
		}
		active, countErr := s.registrationRepo.CountActiveByTournament(ctx, id)
		if countErr != nil {
			return nil, countErr
		}
		if *input.Capacity < active {
			return nil, fmt.Errorf("%w: capacity below current registration count", ErrValidationFailed)
		}
		tournament.Capacity = *input.Capacity
	}
	if input.EntryFee != nil {
		if *input.EntryFee < 0 {
			return nil, fmt.Errorf("%w: entry fee must not be negative", ErrValidationFailed)
		}
		tournament.EntryFee = *input.EntryFee
	}
	if input.RegistrationDeadline != nil {
		tournament.RegistrationDeadline = *input.RegistrationDeadline
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = input.EndDate
	}

	if !tournament.RegistrationDeadline.Before(tournament.StartDate) {
		return nil, ErrTournamentInvalidRegDeadline
	}
	if tournament.EndDate != nil && !tournament.EndDate.After(tournament.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}

	if input.AccessCode != nil {
		var hash *string
		if *input.AccessCode != "" {
			hashed, hashErr := bcrypt.GenerateFromPassword([]byte(*input.AccessCode), bcrypt.DefaultCost)
			if hashErr != nil {
				return nil, fmt.Errorf("failed to hash access code: %w", hashErr)
			}
			hashStr := string(hashed)
			hash = &hashStr
		}
		if err := s.tournamentRepo.UpdateAccessCodeHash(ctx, id, hash); err != nil {
			return nil, err
		}
		tournament.AccessCodeHash = hash
	}

	s.hub.BroadcastToRoom(realtime.TournamentRoom(id), realtime.EventTournamentUpdated, tournament)
	s.decorate(ctx, tournament)
	return tournament, nil
}

// Start moves the tournament into play: confirmed registrations are
// seeded in signup order, the bracket is generated and persisted, and
// the status flips to ongoing, all in one transaction.
func (s *tournamentService) Start(ctx context.Context, id int, actorID int, isAdmin bool) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(tournament.Status, models.StatusOngoing) || tournament.Status != models.StatusRegistration {
		return nil, ErrTournamentInvalidStatusTransition
	}

	if _, err := s.bracketService.GenerateAndSave(ctx, tournament); err != nil {
		return nil, err
	}
	tournament.Status = models.StatusOngoing

	s.logger.Info("tournament started",
		slog.Int("tournament_id", id),
		slog.String("format", string(tournament.Format)))

	s.hub.BroadcastToRoom(realtime.TournamentRoom(id), realtime.EventBracketUpdated, tournament)
	s.hub.BroadcastToRoom(realtime.LobbyRoom, realtime.EventTournamentUpdated, tournament)
	s.decorate(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) ChangeStatus(ctx context.Context, id int, actorID int, isAdmin bool, status models.TournamentStatus) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if status == tournament.Status {
		// Same-status requests are a no-op, not an error.
		s.decorate(ctx, tournament)
		return tournament, nil
	}
	if status == models.StatusOngoing && tournament.Status == models.StatusRegistration {
		// Starting requires bracket generation; use Start.
		return s.Start(ctx, id, actorID, isAdmin)
	}
	if !transitionAllowed(tournament.Status, status) {
		return nil, ErrTournamentInvalidStatusTransition
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, err
	}
	tournament.Status = status

	s.hub.BroadcastToRoom(realtime.TournamentRoom(id), realtime.EventTournamentUpdated, tournament)
	s.decorate(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int, actorID int, isAdmin bool) error {
	tournament, err := s.authorize(ctx, id, actorID, isAdmin)
	if err != nil {
		return err
	}

	matches, err := s.bracketService.GetBracket(ctx, id)
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		return ErrTournamentHasMatches
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("tournament deleted",
		slog.Int("tournament_id", id),
		slog.Int("actor_id", actorID))
	s.hub.BroadcastToRoom(realtime.LobbyRoom, realtime.EventTournamentUpdated, tournament)
	return nil
}

const maxBannerSize = 5 << 20 // 5 MiB

var bannerExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (s *tournamentService) UploadBanner(ctx context.Context, id int, actorID int, isAdmin bool, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrUploadsUnavailable
	}

	ext, ok := bannerExtensions[contentType]
	if !ok {
		return nil, ErrInvalidFileType
	}

	key := path.Join("tournaments", "banners", fmt.Sprintf("%d", id), uuid.NewString()+ext)
	limited := io.LimitReader(file, maxBannerSize+1)
	result, err := s.uploader.Upload(ctx, key, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	oldKey := tournament.BannerKey
	if err := s.tournamentRepo.UpdateBannerKey(ctx, id, &result.Key); err != nil {
		// Best effort cleanup of the orphaned object.
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned banner",
				slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, err
	}
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	tournament.BannerKey = &result.Key
	s.decorate(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.tournamentRepo.ListDateExpired(ctx, nil, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, tournament := range expired {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournament.ID, models.StatusCompleted); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				continue
			}
			return completed, err
		}
		completed++
		tournament.Status = models.StatusCompleted
		s.logger.Info("tournament auto-completed", slog.Int("tournament_id", tournament.ID))
		s.hub.BroadcastToRoom(realtime.TournamentRoom(tournament.ID), realtime.EventTournamentUpdated, tournament)
	}
	return completed, nil
}

// authorize loads the tournament and checks that the actor is its
// organizer or an admin.
func (s *tournamentService) authorize(ctx context.Context, id, actorID int, isAdmin bool) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && tournament.OrganizerID != actorID {
		return nil, ErrForbiddenOperation
	}
	return tournament, nil
}

// decorate fills derived and related fields for API responses.
func (s *tournamentService) decorate(ctx context.Context, tournament *models.Tournament) {
	s.fillBannerURL(tournament)

	if organizer, err := s.userRepo.GetByID(ctx, tournament.OrganizerID); err == nil {
		view := &models.Organizer{ID: organizer.ID, DisplayName: organizer.DisplayName}
		if organizer.AvatarKey != nil && s.uploader != nil {
			url := s.uploader.GetPublicURL(*organizer.AvatarKey)
			view.AvatarURL = &url
		}
		tournament.Organizer = view
	}

	if count, err := s.registrationRepo.CountActiveByTournament(ctx, tournament.ID); err == nil {
		tournament.RegistrationCount = &count
	}
}

func (s *tournamentService) fillBannerURL(tournament *models.Tournament) {
	if tournament.BannerKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*tournament.BannerKey)
		tournament.BannerURL = &url
	}
}
