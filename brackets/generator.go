package brackets

import (
	"context"
	"fmt"

	"github.com/matchpoint-app/matchpoint/models"
)

type GenerateParams struct {
	Tournament *models.Tournament
	// Registrations must be confirmed entries ordered by seed
	// (best seed first).
	Registrations []*models.Registration
}

// BracketMatch is one playable fixture of a generated bracket. Structural
// byes and walkovers are resolved at generation time, so every returned
// match expects two real participants (already known, or fed by the
// winner/loser of an earlier match).
type BracketMatch struct {
	UID          string
	Bracket      models.BracketKind
	Round        int
	OrderInRound int

	// Set when the participant is known at generation time; nil slots are
	// filled later through the advancement links of earlier matches.
	Registration1ID *int
	Registration2ID *int

	// Forward advancement links, expressed against other UIDs in the same
	// generated set. Nil for the last match of the bracket.
	WinnerToUID  *string
	WinnerToSlot *int
	LoserToUID   *string
	LoserToSlot  *int
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error)
	Name() string
}

// ForFormat returns the generator matching a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament format %q", format)
	}
}
