package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
)

const tournamentAudiencePrefix = "tournament:"

type CreateAnnouncementInput struct {
	Title    string
	Body     string
	Audience string
	// A future time schedules the announcement; nil or a past time
	// publishes it right away unless Draft is set.
	ScheduledAt *time.Time
	// Draft keeps the announcement unpublished regardless of schedule.
	Draft bool
}

type UpdateAnnouncementInput struct {
	Title       *string
	Body        *string
	Audience    *string
	ScheduledAt *time.Time
	// ClearSchedule turns a scheduled announcement back into a draft.
	ClearSchedule bool
}

type AnnouncementService interface {
	Create(ctx context.Context, creatorID int, input CreateAnnouncementInput) (*models.Announcement, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, status *models.AnnouncementStatus, limit, offset int) ([]*models.Announcement, error)
	Update(ctx context.Context, id string, input UpdateAnnouncementInput) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
	// PublishNow sends a draft or scheduled announcement immediately.
	PublishNow(ctx context.Context, id string) (*models.Announcement, error)
	// PublishDue is the scheduler entry point: it sends every scheduled
	// announcement whose time has come and reports how many went out.
	PublishDue(ctx context.Context, now time.Time) (int, error)
}

type announcementService struct {
	announcementRepo repositories.AnnouncementRepository
	registrationRepo repositories.RegistrationRepository
	settingService   SettingService
	emailSender      EmailSender
	hub              *realtime.Hub
	logger           *slog.Logger
}

func NewAnnouncementService(
	announcementRepo repositories.AnnouncementRepository,
	registrationRepo repositories.RegistrationRepository,
	settingService SettingService,
	emailSender EmailSender,
	hub *realtime.Hub,
	logger *slog.Logger,
) AnnouncementService {
	return &announcementService{
		announcementRepo: announcementRepo,
		registrationRepo: registrationRepo,
		settingService:   settingService,
		emailSender:      emailSender,
		hub:              hub,
		logger:           logger,
	}
}

func (s *announcementService) Create(ctx context.Context, creatorID int, input CreateAnnouncementInput) (*models.Announcement, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrAnnouncementTitleRequired
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, ErrAnnouncementBodyRequired
	}
	audience := input.Audience
	if audience == "" {
		audience = models.AnnouncementAudienceAll
	}
	if _, err := parseAudience(audience); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(input.Title),
		Body:            input.Body,
		Audience:        audience,
		Status:          models.AnnouncementDraft,
		ScheduledAt:     input.ScheduledAt,
		CreatedByUserID: creatorID,
	}
	if !input.Draft && input.ScheduledAt != nil && input.ScheduledAt.After(time.Now()) {
		announcement.Status = models.AnnouncementScheduled
	}
	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	// Without a draft flag or a future schedule the announcement goes
	// out immediately.
	if !input.Draft && announcement.Status == models.AnnouncementDraft {
		if err := s.send(ctx, announcement, time.Now()); err != nil {
			return nil, err
		}
	}
	return announcement, nil
}

func (s *announcementService) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	return s.announcementRepo.GetByID(ctx, id)
}

func (s *announcementService) List(ctx context.Context, status *models.AnnouncementStatus, limit, offset int) ([]*models.Announcement, error) {
	return s.announcementRepo.List(ctx, status, limit, offset)
}

func (s *announcementService) Update(ctx context.Context, id string, input UpdateAnnouncementInput) (*models.Announcement, error) {
	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if announcement.Status == models.AnnouncementSent {
		return nil, ErrAnnouncementNotEditable
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrAnnouncementTitleRequired
		}
		announcement.Title = strings.TrimSpace(*input.Title)
	}
	if input.Body != nil {
		if strings.TrimSpace(*input.Body) == "" {
			return nil, ErrAnnouncementBodyRequired
		}
		announcement.Body = *input.Body
	}
	if input.Audience != nil {
		if _, err := parseAudience(*input.Audience); err != nil {
			return nil, err
		}
		announcement.Audience = *input.Audience
	}
	if input.ClearSchedule {
		announcement.ScheduledAt = nil
		announcement.Status = models.AnnouncementDraft
	} else if input.ScheduledAt != nil {
		if !input.ScheduledAt.After(time.Now()) {
			return nil, ErrAnnouncementScheduleInPast
		}
		announcement.ScheduledAt = input.ScheduledAt
		announcement.Status = models.AnnouncementScheduled
	}

	if err := s.announcementRepo.Update(ctx, announcement); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *announcementService) Delete(ctx context.Context, id string) error {
	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if announcement.Status == models.AnnouncementSent {
		return ErrAnnouncementNotEditable
	}
	return s.announcementRepo.Delete(ctx, id)
}

func (s *announcementService) PublishNow(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if announcement.Status == models.AnnouncementSent {
		return nil, ErrAnnouncementNotEditable
	}
	if err := s.send(ctx, announcement, time.Now()); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *announcementService) PublishDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.announcementRepo.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, announcement := range due {
		if err := s.send(ctx, announcement, now); err != nil {
			// One failed announcement should not block the rest.
			s.logger.Error("failed to publish scheduled announcement",
				slog.String("announcement_id", announcement.ID), slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *announcementService) send(ctx context.Context, announcement *models.Announcement, now time.Time) error {
	if err := s.announcementRepo.MarkSent(ctx, announcement.ID, now); err != nil {
		return err
	}
	announcement.Status = models.AnnouncementSent
	announcement.SentAt = &now

	tournamentID, err := parseAudience(announcement.Audience)
	if err != nil {
		return err
	}

	room := realtime.LobbyRoom
	if tournamentID != 0 {
		room = realtime.TournamentRoom(tournamentID)
	}
	s.hub.BroadcastToRoom(room, realtime.EventAnnouncement, announcement)

	if tournamentID != 0 && s.emailSender != nil && s.settingService.AnnouncementEmailEnabled(ctx) {
		s.emailParticipants(ctx, tournamentID, announcement)
	}

	s.logger.Info("announcement published",
		slog.String("announcement_id", announcement.ID),
		slog.String("audience", announcement.Audience))
	return nil
}

func (s *announcementService) emailParticipants(ctx context.Context, tournamentID int, announcement *models.Announcement) {
	statusConfirmed := models.RegistrationConfirmed
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID, &statusConfirmed, true)
	if err != nil {
		s.logger.Error("failed to load recipients for announcement email",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	recipients := make([]string, 0, len(registrations))
	for _, reg := range registrations {
		if reg.User != nil && reg.User.Email != "" {
			recipients = append(recipients, reg.User.Email)
		}
	}
	if len(recipients) == 0 {
		return
	}

	body := fmt.Sprintf("<h2>%s</h2><p>%s</p>", announcement.Title, announcement.Body)
	if err := s.emailSender.SendEmail(recipients, announcement.Title, body); err != nil {
		s.logger.Error("failed to send announcement email",
			slog.String("announcement_id", announcement.ID), slog.Any("error", err))
	}
}

// parseAudience validates the audience string and returns the target
// tournament ID, or 0 for the global audience.
func parseAudience(audience string) (int, error) {
	if audience == models.AnnouncementAudienceAll {
		return 0, nil
	}
	if !strings.HasPrefix(audience, tournamentAudiencePrefix) {
		return 0, ErrAnnouncementBadAudience
	}
	id, err := strconv.Atoi(strings.TrimPrefix(audience, tournamentAudiencePrefix))
	if err != nil || id <= 0 {
		return 0, ErrAnnouncementBadAudience
	}
	return id, nil
}
