package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint/models"
)

func newTestAnnouncementService(repo *fakeAnnouncementRepo, registrationRepo *fakeRegistrationRepo, emailSender EmailSender, settings *fakeSettingRepo) AnnouncementService {
	if registrationRepo == nil {
		registrationRepo = newFakeRegistrationRepo()
	}
	if settings == nil {
		settings = newFakeSettingRepo()
	}
	return NewAnnouncementService(repo, registrationRepo, NewSettingService(settings), emailSender, testHub(), testLogger())
}

func TestCreateAnnouncementWithoutSchedulePublishesImmediately(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	announcement, err := svc.Create(context.Background(), 1, CreateAnnouncementInput{
		Title: "  Server maintenance  ",
		Body:  "Back in an hour.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementSent, announcement.Status)
	assert.NotNil(t, announcement.SentAt)
	assert.Equal(t, "Server maintenance", announcement.Title)
	assert.Equal(t, models.AnnouncementAudienceAll, announcement.Audience)
	assert.NotEmpty(t, announcement.ID)
	assert.Equal(t, models.AnnouncementSent, repo.announcements[announcement.ID].Status)
}

func TestCreateAnnouncementWithPastSchedulePublishesImmediately(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	past := time.Now().Add(-time.Minute)
	announcement, err := svc.Create(context.Background(), 1, CreateAnnouncementInput{
		Title: "t", Body: "b", ScheduledAt: &past,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementSent, announcement.Status)
	assert.NotNil(t, announcement.SentAt)
}

func TestCreateAnnouncementExplicitDraftStaysUnsent(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	announcement, err := svc.Create(context.Background(), 1, CreateAnnouncementInput{
		Title: "t", Body: "b", Draft: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementDraft, announcement.Status)
	assert.Nil(t, announcement.SentAt)
}

func TestCreateAnnouncementValidation(t *testing.T) {
	svc := newTestAnnouncementService(newFakeAnnouncementRepo(), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateAnnouncementInput{Title: " ", Body: "b"})
	assert.ErrorIs(t, err, ErrAnnouncementTitleRequired)

	_, err = svc.Create(ctx, 1, CreateAnnouncementInput{Title: "t", Body: ""})
	assert.ErrorIs(t, err, ErrAnnouncementBodyRequired)

	_, err = svc.Create(ctx, 1, CreateAnnouncementInput{Title: "t", Body: "b", Audience: "team:4"})
	assert.ErrorIs(t, err, ErrAnnouncementBadAudience)
}

func TestUpdateRejectsPastSchedule(t *testing.T) {
	repo := newFakeAnnouncementRepo(&models.Announcement{
		ID: "a1", Title: "t", Body: "b", Audience: "all", Status: models.AnnouncementDraft,
	})
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	past := time.Now().Add(-time.Minute)
	_, err := svc.Update(context.Background(), "a1", UpdateAnnouncementInput{ScheduledAt: &past})
	assert.ErrorIs(t, err, ErrAnnouncementScheduleInPast)
}

func TestCreateAnnouncementWithFutureTimeIsScheduled(t *testing.T) {
	svc := newTestAnnouncementService(newFakeAnnouncementRepo(), nil, nil, nil)

	at := time.Now().Add(time.Hour)
	announcement, err := svc.Create(context.Background(), 1, CreateAnnouncementInput{
		Title: "t", Body: "b", Audience: "tournament:7", ScheduledAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementScheduled, announcement.Status)
}

func TestUpdateSentAnnouncementRejected(t *testing.T) {
	repo := newFakeAnnouncementRepo(&models.Announcement{
		ID: "a1", Title: "t", Body: "b", Audience: "all", Status: models.AnnouncementSent,
	})
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	title := "new title"
	_, err := svc.Update(context.Background(), "a1", UpdateAnnouncementInput{Title: &title})
	assert.ErrorIs(t, err, ErrAnnouncementNotEditable)

	err = svc.Delete(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrAnnouncementNotEditable)
}

func TestUpdateClearScheduleReturnsToDraft(t *testing.T) {
	at := time.Now().Add(time.Hour)
	repo := newFakeAnnouncementRepo(&models.Announcement{
		ID: "a1", Title: "t", Body: "b", Audience: "all",
		Status: models.AnnouncementScheduled, ScheduledAt: &at,
	})
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	announcement, err := svc.Update(context.Background(), "a1", UpdateAnnouncementInput{ClearSchedule: true})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementDraft, announcement.Status)
	assert.Nil(t, announcement.ScheduledAt)
}

func TestPublishDueSendsOnlyRipeAnnouncements(t *testing.T) {
	now := time.Now()
	ripe := now.Add(-time.Minute)
	unripe := now.Add(time.Hour)
	repo := newFakeAnnouncementRepo(
		&models.Announcement{ID: "due", Title: "t", Body: "b", Audience: "all", Status: models.AnnouncementScheduled, ScheduledAt: &ripe},
		&models.Announcement{ID: "later", Title: "t", Body: "b", Audience: "all", Status: models.AnnouncementScheduled, ScheduledAt: &unripe},
		&models.Announcement{ID: "draft", Title: "t", Body: "b", Audience: "all", Status: models.AnnouncementDraft},
	)
	svc := newTestAnnouncementService(repo, nil, nil, nil)

	sent, err := svc.PublishDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, models.AnnouncementSent, repo.announcements["due"].Status)
	assert.NotNil(t, repo.announcements["due"].SentAt)
	assert.Equal(t, models.AnnouncementScheduled, repo.announcements["later"].Status)
	assert.Equal(t, models.AnnouncementDraft, repo.announcements["draft"].Status)
}

func TestPublishNowEmailsConfirmedParticipants(t *testing.T) {
	repo := newFakeAnnouncementRepo(&models.Announcement{
		ID: "a1", Title: "Round 2 delayed", Body: "Check the bracket.",
		Audience: "tournament:7", Status: models.AnnouncementDraft,
	})
	registrationRepo := newFakeRegistrationRepo(
		&models.Registration{ID: 1, TournamentID: 7, UserID: 101, Status: models.RegistrationConfirmed,
			User: &models.User{ID: 101, Email: "p1@example.com"}},
		&models.Registration{ID: 2, TournamentID: 7, UserID: 102, Status: models.RegistrationConfirmed,
			User: &models.User{ID: 102, Email: "p2@example.com"}},
		&models.Registration{ID: 3, TournamentID: 7, UserID: 103, Status: models.RegistrationWithdrawn,
			User: &models.User{ID: 103, Email: "gone@example.com"}},
	)
	emailSender := &fakeEmailSender{}
	settings := newFakeSettingRepo()
	settings.settings[models.SettingAnnouncementEmailEnabled] = &models.SystemSetting{
		Key: models.SettingAnnouncementEmailEnabled, Value: "true",
	}
	svc := newTestAnnouncementService(repo, registrationRepo, emailSender, settings)

	announcement, err := svc.PublishNow(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementSent, announcement.Status)

	require.Len(t, emailSender.sent, 1)
	assert.ElementsMatch(t, []string{"p1@example.com", "p2@example.com"}, emailSender.sent[0].to)
	assert.Equal(t, "Round 2 delayed", emailSender.sent[0].subject)
}

func TestPublishNowSkipsEmailWhenDisabled(t *testing.T) {
	repo := newFakeAnnouncementRepo(&models.Announcement{
		ID: "a1", Title: "t", Body: "b", Audience: "tournament:7", Status: models.AnnouncementDraft,
	})
	registrationRepo := newFakeRegistrationRepo(
		&models.Registration{ID: 1, TournamentID: 7, UserID: 101, Status: models.RegistrationConfirmed,
			User: &models.User{ID: 101, Email: "p1@example.com"}},
	)
	emailSender := &fakeEmailSender{}
	svc := newTestAnnouncementService(repo, registrationRepo, emailSender, nil)

	_, err := svc.PublishNow(context.Background(), "a1")
	require.NoError(t, err)
	assert.Empty(t, emailSender.sent)
}

func TestParseAudience(t *testing.T) {
	id, err := parseAudience("all")
	require.NoError(t, err)
	assert.Zero(t, id)

	id, err = parseAudience("tournament:42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, bad := range []string{"", "tournament:", "tournament:0", "tournament:-3", "tournament:abc", "lobby"} {
		_, err := parseAudience(bad)
		assert.ErrorIs(t, err, ErrAnnouncementBadAudience, "audience=%q", bad)
	}
}
