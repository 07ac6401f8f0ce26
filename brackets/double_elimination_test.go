package brackets

import (
	"context"
	"testing"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleEliminationMatchCount(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	for _, n := range []int{2, 3, 4, 5, 6, 7, 8, 12, 16} {
		matches, err := gen.Generate(context.Background(), GenerateParams{
			Registrations: makeRegistrations(n),
		})
		require.NoError(t, err, "n=%d", n)
		// Without a bracket reset the structure always plays 2n-2
		// matches: every eliminated player loses twice, except that the
		// grand final distributes its single loss between the two
		// finalists.
		assert.Len(t, matches, 2*n-2, "n=%d", n)
	}
}

func TestDoubleEliminationTwoEntrants(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{
		Registrations: makeRegistrations(2),
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	opener, final := matches[0], matches[1]
	assert.Equal(t, "WR1M1", opener.UID)
	assert.Equal(t, grandFinalUID, final.UID)
	assert.Equal(t, models.BracketGrandFinal, final.Bracket)

	// Both the winner and the loser of the opener feed the grand final.
	require.NotNil(t, opener.WinnerToUID)
	assert.Equal(t, grandFinalUID, *opener.WinnerToUID)
	assert.Equal(t, 1, *opener.WinnerToSlot)
	require.NotNil(t, opener.LoserToUID)
	assert.Equal(t, grandFinalUID, *opener.LoserToUID)
	assert.Equal(t, 2, *opener.LoserToSlot)
}

func TestDoubleEliminationFourEntrants(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{
		Registrations: makeRegistrations(4),
	})
	require.NoError(t, err)
	require.Len(t, matches, 6)

	byUID := make(map[string]*BracketMatch)
	for _, m := range matches {
		byUID[m.UID] = m
	}
	for _, uid := range []string{"WR1M1", "WR1M2", "WR2M1", "LR1M1", "LR2M1", "GF"} {
		require.Contains(t, byUID, uid)
	}

	// Winners round 1 losers pair up in the losers bracket.
	w1 := byUID["WR1M1"]
	require.NotNil(t, w1.LoserToUID)
	assert.Equal(t, "LR1M1", *w1.LoserToUID)
	assert.Equal(t, 1, *w1.LoserToSlot)
	w2 := byUID["WR1M2"]
	require.NotNil(t, w2.LoserToUID)
	assert.Equal(t, "LR1M1", *w2.LoserToUID)
	assert.Equal(t, 2, *w2.LoserToSlot)

	// The winners final loser drops into the losers final.
	wf := byUID["WR2M1"]
	require.NotNil(t, wf.LoserToUID)
	assert.Equal(t, "LR2M1", *wf.LoserToUID)
	require.NotNil(t, wf.WinnerToUID)
	assert.Equal(t, "GF", *wf.WinnerToUID)

	// Losers bracket champion reaches the grand final; nobody leaves it.
	lf := byUID["LR2M1"]
	require.NotNil(t, lf.WinnerToUID)
	assert.Equal(t, "GF", *lf.WinnerToUID)
	assert.Nil(t, lf.LoserToUID)

	gf := byUID["GF"]
	assert.Nil(t, gf.WinnerToUID)
	assert.Nil(t, gf.LoserToUID)
}

func TestDoubleEliminationWithByes(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	regs := makeRegistrations(3)
	matches, err := gen.Generate(context.Background(), GenerateParams{Registrations: regs})
	require.NoError(t, err)
	// s2 vs s3, winner vs s1, consolation, grand final.
	require.Len(t, matches, 4)

	byUID := make(map[string]*BracketMatch)
	for _, m := range matches {
		byUID[m.UID] = m
	}
	require.Contains(t, byUID, "WR1M2")
	require.Contains(t, byUID, "WR2M1")
	require.Contains(t, byUID, "LR2M1")
	require.Contains(t, byUID, "GF")

	// Seed 1 had the bye and waits in the winners final.
	wf := byUID["WR2M1"]
	require.NotNil(t, wf.Registration1ID)
	assert.Equal(t, regs[0].ID, *wf.Registration1ID)

	// With the trivial losers round collapsed away, both real losers
	// meet directly in the last losers round.
	opener := byUID["WR1M2"]
	require.NotNil(t, opener.LoserToUID)
	assert.Equal(t, "LR2M1", *opener.LoserToUID)
	require.NotNil(t, wf.LoserToUID)
	assert.Equal(t, "LR2M1", *wf.LoserToUID)
}

func TestDoubleEliminationPlayThrough(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	for _, n := range []int{2, 3, 4, 5, 6, 7, 8, 12, 16} {
		regs := makeRegistrations(n)
		matches, err := gen.Generate(context.Background(), GenerateParams{Registrations: regs})
		require.NoError(t, err, "n=%d", n)

		champion := playThrough(t, matches)
		assert.Equal(t, regs[0].ID, champion, "n=%d", n)
	}
}

func TestDoubleEliminationEveryWinnersMatchHasDropLink(t *testing.T) {
	gen := NewDoubleEliminationGenerator()
	matches, err := gen.Generate(context.Background(), GenerateParams{
		Registrations: makeRegistrations(8),
	})
	require.NoError(t, err)

	for _, m := range matches {
		switch m.Bracket {
		case models.BracketWinners:
			assert.NotNil(t, m.LoserToUID, "winners match %s must drop its loser", m.UID)
			assert.NotNil(t, m.WinnerToUID, "%s", m.UID)
		case models.BracketLosers:
			assert.Nil(t, m.LoserToUID, "losers match %s eliminates its loser", m.UID)
			assert.NotNil(t, m.WinnerToUID, "%s", m.UID)
		case models.BracketGrandFinal:
			assert.Nil(t, m.WinnerToUID)
			assert.Nil(t, m.LoserToUID)
		}
	}
}
