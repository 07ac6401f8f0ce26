package brackets

import (
	"context"
	"errors"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*BracketMatch, error) {
	if len(params.Registrations) < 2 {
		return nil, errors.New("single elimination requires at least 2 participants")
	}

	graph := newGraph()
	buildWinnersBracket(graph, params.Registrations)
	return graph.resolve()
}
