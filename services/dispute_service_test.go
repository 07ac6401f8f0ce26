package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint/models"
)

func disputedMatchFixture() (*fakeMatchRepo, *fakeTournamentRepo, *fakeDisputeRepo) {
	match := &models.Match{
		ID:               1,
		TournamentID:     7,
		Round:            2,
		SlotLabel:        "WR2M1",
		Bracket:          models.BracketWinners,
		P1RegistrationID: intPtr(11),
		P2RegistrationID: intPtr(12),
		Status:           models.MatchDisputed,
	}
	matchRepo := newFakeMatchRepo(match)
	matchRepo.reports[1] = []*models.ResultReport{
		{ID: 1, MatchID: 1, RegistrationID: 11, ScoreP1: 2, ScoreP2: 1},
		{ID: 2, MatchID: 1, RegistrationID: 12, ScoreP1: 0, ScoreP2: 2},
	}

	tournamentRepo := newFakeTournamentRepo(&models.Tournament{ID: 7, Status: models.StatusOngoing})
	disputeRepo := newFakeDisputeRepo(&models.Dispute{
		ID:                   5,
		MatchID:              1,
		RaisedByRegistration: 12,
		P1ClaimScoreP1:       2,
		P1ClaimScoreP2:       1,
		P2ClaimScoreP1:       0,
		P2ClaimScoreP2:       2,
		Status:               models.DisputeOpen,
	})
	return matchRepo, tournamentRepo, disputeRepo
}

func TestResolveDisputeValidatesInput(t *testing.T) {
	matchRepo, tournamentRepo, disputeRepo := disputedMatchFixture()
	svc := NewDisputeService(newStubDB(t), disputeRepo, matchRepo, tournamentRepo, testHub(), testLogger())

	_, err := svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: 5, AdminID: 1, FinalScoreP1: 2, FinalScoreP2: 2, Note: "tie is impossible",
	})
	assert.ErrorIs(t, err, ErrInvalidScoreline)

	_, err = svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: 5, AdminID: 1, FinalScoreP1: 2, FinalScoreP2: 0, Note: "   ",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestResolveDisputeFinalizesMatch(t *testing.T) {
	matchRepo, tournamentRepo, disputeRepo := disputedMatchFixture()
	svc := NewDisputeService(newStubDB(t), disputeRepo, matchRepo, tournamentRepo, testHub(), testLogger())

	dispute, err := svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: 5, AdminID: 42, FinalScoreP1: 0, FinalScoreP2: 2, Note: "screenshot confirmed p2 won",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DisputeResolved, dispute.Status)
	require.NotNil(t, dispute.ResolvedByUserID)
	assert.Equal(t, 42, *dispute.ResolvedByUserID)
	require.NotNil(t, dispute.ResolutionNote)
	assert.Equal(t, "screenshot confirmed p2 won", *dispute.ResolutionNote)

	match := matchRepo.matches[1]
	assert.Equal(t, models.MatchCompleted, match.Status)
	require.NotNil(t, match.WinnerRegistrationID)
	assert.Equal(t, 12, *match.WinnerRegistrationID)

	// The conflicting reports are cleared once resolved.
	assert.Empty(t, matchRepo.reports[1])

	// A final with no forward link settles the champion.
	tournament := tournamentRepo.tournaments[7]
	require.NotNil(t, tournament.WinnerRegistrationID)
	assert.Equal(t, 12, *tournament.WinnerRegistrationID)
	assert.Equal(t, models.StatusCompleted, tournament.Status)
}

func TestResolveDisputeTwiceFails(t *testing.T) {
	matchRepo, tournamentRepo, disputeRepo := disputedMatchFixture()
	svc := NewDisputeService(newStubDB(t), disputeRepo, matchRepo, tournamentRepo, testHub(), testLogger())

	_, err := svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: 5, AdminID: 42, FinalScoreP1: 2, FinalScoreP2: 0, Note: "first ruling",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), ResolveDisputeInput{
		DisputeID: 5, AdminID: 42, FinalScoreP1: 0, FinalScoreP2: 2, Note: "second ruling",
	})
	assert.ErrorIs(t, err, ErrDisputeAlreadyResolved)
}
