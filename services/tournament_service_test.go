package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint/models"
)

type tournamentServiceFixture struct {
	svc              TournamentService
	tournamentRepo   *fakeTournamentRepo
	registrationRepo *fakeRegistrationRepo
	bracketService   *fakeBracketService
	settingRepo      *fakeSettingRepo
}

func newTournamentServiceFixture(tournaments ...*models.Tournament) *tournamentServiceFixture {
	f := &tournamentServiceFixture{
		tournamentRepo:   newFakeTournamentRepo(tournaments...),
		registrationRepo: newFakeRegistrationRepo(),
		bracketService:   &fakeBracketService{},
		settingRepo:      newFakeSettingRepo(),
	}
	f.svc = NewTournamentService(
		f.tournamentRepo,
		f.registrationRepo,
		newFakeUserRepo(&models.User{ID: 50, DisplayName: "Org"}),
		f.bracketService,
		NewSettingService(f.settingRepo),
		nil,
		testHub(),
		testLogger(),
	)
	return f
}

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Name:                 "Spring Open",
		Game:                 "table tennis",
		Format:               models.FormatSingleElimination,
		Capacity:             8,
		RegistrationDeadline: time.Now().Add(24 * time.Hour),
		StartDate:            time.Now().Add(48 * time.Hour),
	}
}

func TestTournamentTransitionMatrix(t *testing.T) {
	cases := []struct {
		from, to models.TournamentStatus
		allowed  bool
	}{
		{models.StatusRegistration, models.StatusOngoing, true},
		{models.StatusRegistration, models.StatusCancelled, true},
		{models.StatusRegistration, models.StatusPaused, false},
		{models.StatusRegistration, models.StatusCompleted, false},
		{models.StatusOngoing, models.StatusPaused, true},
		{models.StatusOngoing, models.StatusCompleted, true},
		{models.StatusOngoing, models.StatusCancelled, true},
		{models.StatusOngoing, models.StatusRegistration, false},
		{models.StatusPaused, models.StatusOngoing, true},
		{models.StatusPaused, models.StatusCancelled, true},
		{models.StatusPaused, models.StatusCompleted, false},
		{models.StatusCompleted, models.StatusOngoing, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusRegistration, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, transitionAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newTournamentServiceFixture()
	ctx := context.Background()

	input := validCreateInput()
	input.Name = "   "
	_, err := f.svc.Create(ctx, 50, input)
	assert.ErrorIs(t, err, ErrTournamentNameRequired)

	input = validCreateInput()
	input.Format = "round_robin"
	_, err = f.svc.Create(ctx, 50, input)
	assert.ErrorIs(t, err, ErrValidationFailed)

	input = validCreateInput()
	input.Capacity = 1
	_, err = f.svc.Create(ctx, 50, input)
	assert.ErrorIs(t, err, ErrTournamentInvalidCapacity)

	input = validCreateInput()
	input.EntryFee = -100
	_, err = f.svc.Create(ctx, 50, input)
	assert.ErrorIs(t, err, ErrValidationFailed)

	input = validCreateInput()
	input.RegistrationDeadline = input.StartDate.Add(time.Hour)
	_, err = f.svc.Create(ctx, 50, input)
	assert.ErrorIs(t, err, ErrTournamentInvalidRegDeadline)

	input = validCreateInput()
	earlyEnd := input.StartDate.Add(-time.Hour)
	input.EndDate = &earlyEnd
	_, err = f.svc.Create(ctx, 50, input)
	assert.ErrorIs(t, err, ErrTournamentInvalidDateRange)
}

func TestCreateTournamentUsesConfiguredDefaultCapacity(t *testing.T) {
	f := newTournamentServiceFixture()
	f.settingRepo.settings[models.SettingDefaultCapacity] = &models.SystemSetting{
		Key: models.SettingDefaultCapacity, Value: "32",
	}

	input := validCreateInput()
	input.Capacity = 0
	tournament, err := f.svc.Create(context.Background(), 50, input)
	require.NoError(t, err)
	assert.Equal(t, 32, tournament.Capacity)
}

func TestCreateTournamentIssuesShareToken(t *testing.T) {
	f := newTournamentServiceFixture()

	tournament, err := f.svc.Create(context.Background(), 50, validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, models.StatusRegistration, tournament.Status)
	assert.NotEmpty(t, tournament.ShareToken)
	assert.Nil(t, tournament.AccessCodeHash)
	assert.Equal(t, 50, tournament.OrganizerID)
}

func TestShareLinkAccessCode(t *testing.T) {
	f := newTournamentServiceFixture()
	ctx := context.Background()

	code := "friends-only"
	input := validCreateInput()
	input.AccessCode = &code
	created, err := f.svc.Create(ctx, 50, input)
	require.NoError(t, err)
	require.NotNil(t, created.AccessCodeHash)
	// The plain code is never stored.
	assert.NotContains(t, *created.AccessCodeHash, code)

	_, err = f.svc.GetByShareToken(ctx, created.ShareToken, "wrong")
	assert.ErrorIs(t, err, ErrTournamentAccessCodeInvalid)

	shared, err := f.svc.GetByShareToken(ctx, created.ShareToken, code)
	require.NoError(t, err)
	assert.Equal(t, created.ID, shared.ID)
}

func TestShareLinkWithoutCodeIsOpen(t *testing.T) {
	f := newTournamentServiceFixture()
	created, err := f.svc.Create(context.Background(), 50, validCreateInput())
	require.NoError(t, err)

	shared, err := f.svc.GetByShareToken(context.Background(), created.ShareToken, "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, shared.ID)
}

func TestStartGeneratesBracket(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusRegistration, OrganizerID: 50,
		Format: models.FormatSingleElimination,
	})

	tournament, err := f.svc.Start(context.Background(), 7, 50, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, tournament.Status)
	assert.Equal(t, []int{7}, f.bracketService.generated)
}

func TestStartRequiresOrganizer(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusRegistration, OrganizerID: 50,
	})

	_, err := f.svc.Start(context.Background(), 7, 99, false)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
	assert.Empty(t, f.bracketService.generated)

	// Admins may start any tournament.
	_, err = f.svc.Start(context.Background(), 7, 99, true)
	assert.NoError(t, err)
}

func TestStartRejectsNonRegistrationStatus(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusOngoing, OrganizerID: 50,
	})

	_, err := f.svc.Start(context.Background(), 7, 50, false)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestChangeStatusEnforcesTransitions(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusOngoing, OrganizerID: 50,
	})
	ctx := context.Background()

	tournament, err := f.svc.ChangeStatus(ctx, 7, 50, false, models.StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, tournament.Status)

	tournament, err = f.svc.ChangeStatus(ctx, 7, 50, false, models.StatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, tournament.Status)

	_, err = f.svc.ChangeStatus(ctx, 7, 50, false, models.StatusRegistration)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestChangeStatusSameStatusIsNoOp(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusPaused, OrganizerID: 50,
	})

	tournament, err := f.svc.ChangeStatus(context.Background(), 7, 50, false, models.StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, tournament.Status)

	// Terminal states accept their own status too.
	f = newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusCompleted, OrganizerID: 50,
	})
	tournament, err = f.svc.ChangeStatus(context.Background(), 7, 50, false, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, tournament.Status)
}

func TestChangeStatusFromCompletedRejected(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusCompleted, OrganizerID: 50,
	})

	_, err := f.svc.ChangeStatus(context.Background(), 7, 50, false, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestUpdateLockedOnceStarted(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusOngoing, OrganizerID: 50,
	})

	name := "renamed"
	_, err := f.svc.Update(context.Background(), 7, 50, false, UpdateTournamentInput{Name: &name})
	assert.ErrorIs(t, err, ErrTournamentNotEditable)
}

func TestDeleteTournament(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusRegistration, OrganizerID: 50,
	})

	err := f.svc.Delete(context.Background(), 7, 50, false)
	require.NoError(t, err)
	assert.NotContains(t, f.tournamentRepo.tournaments, 7)
}

func TestDeleteTournamentRequiresOrganizer(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusRegistration, OrganizerID: 50,
	})

	err := f.svc.Delete(context.Background(), 7, 99, false)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
	assert.Contains(t, f.tournamentRepo.tournaments, 7)
}

func TestDeleteTournamentWithMatchesRejected(t *testing.T) {
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusOngoing, OrganizerID: 50,
	})
	f.bracketService.bracket = []*models.Match{{ID: 1, TournamentID: 7}}

	err := f.svc.Delete(context.Background(), 7, 50, false)
	assert.ErrorIs(t, err, ErrTournamentHasMatches)
	assert.Contains(t, f.tournamentRepo.tournaments, 7)
}

func TestUpdateRotatesAccessCode(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	start := time.Now().Add(48 * time.Hour)
	f := newTournamentServiceFixture(&models.Tournament{
		ID: 7, Status: models.StatusRegistration, OrganizerID: 50,
		RegistrationDeadline: deadline, StartDate: start,
	})
	ctx := context.Background()

	code := "new-code"
	tournament, err := f.svc.Update(ctx, 7, 50, false, UpdateTournamentInput{AccessCode: &code})
	require.NoError(t, err)
	require.NotNil(t, tournament.AccessCodeHash)
	assert.NotContains(t, *tournament.AccessCodeHash, code)
	require.NotNil(t, f.tournamentRepo.tournaments[7].AccessCodeHash)

	// An empty code opens the share link again.
	empty := ""
	tournament, err = f.svc.Update(ctx, 7, 50, false, UpdateTournamentInput{AccessCode: &empty})
	require.NoError(t, err)
	assert.Nil(t, tournament.AccessCodeHash)
	assert.Nil(t, f.tournamentRepo.tournaments[7].AccessCodeHash)
}

func TestCompleteExpiredSweepsOverdueTournaments(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	f := newTournamentServiceFixture(
		&models.Tournament{ID: 1, Status: models.StatusOngoing, OrganizerID: 50, EndDate: &past},
		&models.Tournament{ID: 2, Status: models.StatusOngoing, OrganizerID: 50, EndDate: &future},
		&models.Tournament{ID: 3, Status: models.StatusRegistration, OrganizerID: 50, EndDate: &past},
	)

	completed, err := f.svc.CompleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, models.StatusCompleted, f.tournamentRepo.tournaments[1].Status)
	assert.Equal(t, models.StatusOngoing, f.tournamentRepo.tournaments[2].Status)
	assert.Equal(t, models.StatusRegistration, f.tournamentRepo.tournaments[3].Status)
}
