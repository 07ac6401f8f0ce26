package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type SubmitResultInput struct {
	MatchID int
	UserID  int
	ScoreP1 int
	ScoreP2 int
}

// SubmitResultOutcome tells the caller what the report led to.
type SubmitResultOutcome string

const (
	OutcomeAwaitingOpponent SubmitResultOutcome = "awaiting_opponent"
	OutcomeCompleted        SubmitResultOutcome = "completed"
	OutcomeDisputed         SubmitResultOutcome = "disputed"
)

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// SubmitResult records one side's scoreline. The first report parks
	// the match in awaiting_verification; a matching second report
	// completes it, a conflicting one opens a dispute.
	SubmitResult(ctx context.Context, input SubmitResultInput) (SubmitResultOutcome, *models.Match, error)
	// OverrideResult lets an admin set the final score directly,
	// bypassing verification. Used for no-shows and manual corrections.
	OverrideResult(ctx context.Context, matchID int, adminID int, scoreP1, scoreP2 int) (*models.Match, error)
}

type matchService struct {
	db               *sql.DB
	matchRepo        repositories.MatchRepository
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	disputeRepo      repositories.DisputeRepository
	hub              *realtime.Hub
	logger           *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	disputeRepo repositories.DisputeRepository,
	hub *realtime.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:               db,
		matchRepo:        matchRepo,
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		disputeRepo:      disputeRepo,
		hub:              hub,
		logger:           logger,
	}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, id)
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}

func (s *matchService) SubmitResult(ctx context.Context, input SubmitResultInput) (SubmitResultOutcome, *models.Match, error) {
	if input.ScoreP1 < 0 || input.ScoreP2 < 0 || input.ScoreP1 == input.ScoreP2 {
		return "", nil, ErrInvalidScoreline
	}

	match, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return "", nil, err
	}
	if match.Status != models.MatchScheduled && match.Status != models.MatchAwaitingVerification {
		return "", nil, ErrMatchNotReportable
	}
	if match.P1RegistrationID == nil || match.P2RegistrationID == nil {
		return "", nil, ErrMatchMissingOpponent
	}

	reg, err := s.registrationRepo.GetByTournamentAndUser(ctx, match.TournamentID, input.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return "", nil, ErrNotMatchParticipant
		}
		return "", nil, err
	}
	if reg.ID != *match.P1RegistrationID && reg.ID != *match.P2RegistrationID {
		return "", nil, ErrNotMatchParticipant
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	report := &models.ResultReport{
		MatchID:        match.ID,
		RegistrationID: reg.ID,
		ScoreP1:        input.ScoreP1,
		ScoreP2:        input.ScoreP2,
	}
	if txErr = s.matchRepo.CreateResultReport(ctx, tx, report); txErr != nil {
		if errors.Is(txErr, repositories.ErrResultReportConflict) {
			txErr = ErrDuplicateReport
		}
		return "", nil, txErr
	}

	reports, listErr := s.matchRepo.ListResultReports(ctx, tx, match.ID)
	if listErr != nil {
		txErr = listErr
		return "", nil, txErr
	}

	reportBySide := make(map[int]*models.ResultReport, 2)
	for _, r := range reports {
		reportBySide[r.RegistrationID] = r
	}
	p1Report := reportBySide[*match.P1RegistrationID]
	p2Report := reportBySide[*match.P2RegistrationID]

	var outcome SubmitResultOutcome
	switch {
	case p1Report == nil || p2Report == nil:
		// First report in; wait for the opponent.
		if txErr = s.matchRepo.UpdateStatus(ctx, tx, match.ID, models.MatchAwaitingVerification); txErr != nil {
			return "", nil, txErr
		}
		match.Status = models.MatchAwaitingVerification
		outcome = OutcomeAwaitingOpponent

	case p1Report.ScoreP1 == p2Report.ScoreP1 && p1Report.ScoreP2 == p2Report.ScoreP2:
		if txErr = applyMatchResult(ctx, tx, s.matchRepo, s.tournamentRepo, match, p1Report.ScoreP1, p1Report.ScoreP2); txErr != nil {
			return "", nil, txErr
		}
		outcome = OutcomeCompleted

	default:
		dispute := &models.Dispute{
			MatchID:              match.ID,
			RaisedByRegistration: reg.ID,
			P1ClaimScoreP1:       p1Report.ScoreP1,
			P1ClaimScoreP2:       p1Report.ScoreP2,
			P2ClaimScoreP1:       p2Report.ScoreP1,
			P2ClaimScoreP2:       p2Report.ScoreP2,
			Status:               models.DisputeOpen,
		}
		if txErr = s.disputeRepo.Create(ctx, tx, dispute); txErr != nil {
			return "", nil, txErr
		}
		if txErr = s.matchRepo.UpdateStatus(ctx, tx, match.ID, models.MatchDisputed); txErr != nil {
			return "", nil, txErr
		}
		match.Status = models.MatchDisputed
		outcome = OutcomeDisputed
	}

	if txErr = tx.Commit(); txErr != nil {
		return "", nil, fmt.Errorf("failed to commit result submission: %w", txErr)
	}

	s.logger.Info("match result reported",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.String("outcome", string(outcome)))
	s.hub.BroadcastToRoom(realtime.TournamentRoom(match.TournamentID), realtime.EventMatchUpdated, match)

	return outcome, match, nil
}

func (s *matchService) OverrideResult(ctx context.Context, matchID int, adminID int, scoreP1, scoreP2 int) (*models.Match, error) {
	if scoreP1 < 0 || scoreP2 < 0 || scoreP1 == scoreP2 {
		return nil, ErrInvalidScoreline
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted || match.Status == models.MatchCancelled {
		return nil, ErrMatchNotReportable
	}
	if match.P1RegistrationID == nil || match.P2RegistrationID == nil {
		return nil, ErrMatchMissingOpponent
	}

	// A disputed match carries an open dispute; the override settles it.
	var openDispute *models.Dispute
	if match.Status == models.MatchDisputed {
		openDispute, err = s.disputeRepo.GetOpenByMatch(ctx, match.ID)
		if err != nil && !errors.Is(err, repositories.ErrDisputeNotFound) {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	if txErr = s.matchRepo.DeleteResultReports(ctx, tx, match.ID); txErr != nil {
		return nil, txErr
	}
	if openDispute != nil {
		if txErr = s.disputeRepo.Resolve(ctx, tx, openDispute.ID, "settled by admin score override", adminID); txErr != nil {
			return nil, txErr
		}
	}
	if txErr = applyMatchResult(ctx, tx, s.matchRepo, s.tournamentRepo, match, scoreP1, scoreP2); txErr != nil {
		return nil, txErr
	}
	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit result override: %w", txErr)
	}

	s.logger.Info("match result overridden",
		slog.Int("match_id", match.ID),
		slog.Int("admin_id", adminID))
	s.hub.BroadcastToRoom(realtime.TournamentRoom(match.TournamentID), realtime.EventMatchUpdated, match)

	return match, nil
}

// applyMatchResult finalizes a match inside the caller's transaction:
// the score is recorded, the winner and loser advance along their
// links, and a final without a winner link crowns the tournament
// champion. The passed match is mutated to reflect the new state.
func applyMatchResult(
	ctx context.Context,
	tx repositories.SQLExecutor,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	match *models.Match,
	scoreP1, scoreP2 int,
) error {
	winnerID := *match.P1RegistrationID
	loserID := *match.P2RegistrationID
	if scoreP2 > scoreP1 {
		winnerID, loserID = loserID, winnerID
	}

	if err := matchRepo.UpdateResult(ctx, tx, match.ID, scoreP1, scoreP2, winnerID, models.MatchCompleted); err != nil {
		return err
	}
	match.ScoreP1 = &scoreP1
	match.ScoreP2 = &scoreP2
	match.WinnerRegistrationID = &winnerID
	match.Status = models.MatchCompleted

	if match.WinnerNextMatchID != nil {
		if err := matchRepo.SetParticipant(ctx, tx, *match.WinnerNextMatchID, *match.WinnerNextSlot, winnerID); err != nil {
			return fmt.Errorf("failed to advance winner of match %d: %w", match.ID, err)
		}
	}
	if match.LoserNextMatchID != nil {
		if err := matchRepo.SetParticipant(ctx, tx, *match.LoserNextMatchID, *match.LoserNextSlot, loserID); err != nil {
			return fmt.Errorf("failed to advance loser of match %d: %w", match.ID, err)
		}
	}

	if match.WinnerNextMatchID == nil {
		// Last match of the bracket: record the champion, and complete
		// the tournament once nothing is left to play.
		if err := tournamentRepo.UpdateWinner(ctx, tx, match.TournamentID, &winnerID); err != nil {
			return err
		}
		remaining, err := matchRepo.CountIncompleteByTournament(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := tournamentRepo.UpdateStatus(ctx, tx, match.TournamentID, models.StatusCompleted); err != nil {
				return err
			}
		}
	}

	return nil
}
