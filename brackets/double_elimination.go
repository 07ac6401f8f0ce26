package brackets

import (
	"context"
	"errors"

	"github.com/matchpoint-app/matchpoint/models"
)

const grandFinalUID = "GF"

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string {
	return "DoubleElimination"
}

// Generate lays down a winners bracket, the standard alternating
// minor/major losers bracket, and a grand final. The loser of winners
// round r drops into losers round 2(r-1); drop order is reversed every
// other round to delay rematches. The grand final is played once: no
// bracket reset if the losers-bracket champion wins it.
func (g *DoubleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error) {
	if len(params.Registrations) < 2 {
		return nil, errors.New("double elimination requires at least 2 participants")
	}

	graph := newGraph()
	rounds := buildWinnersBracket(graph, params.Registrations)
	size := 1 << rounds

	if rounds == 1 {
		// Two entrants: the loser of the opening match gets their second
		// chance directly in the grand final.
		graph.add(grandFinalUID, models.BracketGrandFinal, 1, 1,
			winnerOf(winnersUID(1, 1)),
			loserOf(winnersUID(1, 1)))
		return graph.resolve()
	}

	for i := 1; i <= rounds-1; i++ {
		count := size / (1 << (i + 1))
		minor := 2*i - 1
		major := 2 * i

		if i == 1 {
			for m := 1; m <= count; m++ {
				graph.add(losersUID(1, m), models.BracketLosers, 1, m,
					loserOf(winnersUID(1, 2*m-1)),
					loserOf(winnersUID(1, 2*m)))
			}
		} else {
			for m := 1; m <= count; m++ {
				graph.add(losersUID(minor, m), models.BracketLosers, minor, m,
					winnerOf(losersUID(minor-1, 2*m-1)),
					winnerOf(losersUID(minor-1, 2*m)))
			}
		}

		for m := 1; m <= count; m++ {
			drop := m
			if i%2 == 1 {
				drop = count + 1 - m
			}
			graph.add(losersUID(major, m), models.BracketLosers, major, m,
				loserOf(winnersUID(i+1, drop)),
				winnerOf(losersUID(minor, m)))
		}
	}

	lastLosersRound := 2 * (rounds - 1)
	graph.add(grandFinalUID, models.BracketGrandFinal, 1, 1,
		winnerOf(winnersUID(rounds, 1)),
		winnerOf(losersUID(lastLosersRound, 1)))

	return graph.resolve()
}
