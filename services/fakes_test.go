package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/realtime"
	"github.com/matchpoint-app/matchpoint/repositories"
)

// The tx-driven services only need Begin/Commit/Rollback from the
// database handle; the fake repositories ignore the executor entirely.
// A stub driver keeps those tests off a real postgres instance.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("stub", stubDriver{})
}

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("stub", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub() *realtime.Hub {
	return realtime.NewHub(testLogger())
}

// fakeMatchRepo keeps matches and result reports in memory. Unused
// interface methods panic through the embedded nil.
type fakeMatchRepo struct {
	repositories.MatchRepository
	matches    map[int]*models.Match
	reports    map[int][]*models.ResultReport
	incomplete int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	repo := &fakeMatchRepo{
		matches: make(map[int]*models.Match),
		reports: make(map[int][]*models.ResultReport),
	}
	for _, m := range matches {
		repo.matches[m.ID] = m
	}
	return repo
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, scoreP1, scoreP2 int, winnerRegistrationID int, status models.MatchStatus) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ScoreP1 = &scoreP1
	m.ScoreP2 = &scoreP2
	m.WinnerRegistrationID = &winnerRegistrationID
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) SetParticipant(_ context.Context, _ repositories.SQLExecutor, id int, slot int, registrationID int) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == 1 {
		m.P1RegistrationID = &registrationID
	} else {
		m.P2RegistrationID = &registrationID
	}
	return nil
}

func (r *fakeMatchRepo) CountIncompleteByTournament(context.Context, repositories.SQLExecutor, int) (int, error) {
	return r.incomplete, nil
}

func (r *fakeMatchRepo) CreateResultReport(_ context.Context, _ repositories.SQLExecutor, report *models.ResultReport) error {
	for _, existing := range r.reports[report.MatchID] {
		if existing.RegistrationID == report.RegistrationID {
			return repositories.ErrResultReportConflict
		}
	}
	report.ID = len(r.reports[report.MatchID]) + 1
	r.reports[report.MatchID] = append(r.reports[report.MatchID], report)
	return nil
}

func (r *fakeMatchRepo) ListResultReports(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.ResultReport, error) {
	return r.reports[matchID], nil
}

func (r *fakeMatchRepo) DeleteResultReports(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	delete(r.reports, matchID)
	return nil
}

type fakeTournamentRepo struct {
	repositories.TournamentRepository
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	repo := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
	for _, tournament := range tournaments {
		repo.tournaments[tournament.ID] = tournament
		if tournament.ID >= repo.nextID {
			repo.nextID = tournament.ID + 1
		}
	}
	return repo
}

func (r *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	for _, existing := range r.tournaments {
		if existing.OrganizerID == tournament.OrganizerID && existing.Name == tournament.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	tournament.ID = r.nextID
	tournament.CreatedAt = time.Now()
	r.nextID++
	r.tournaments[tournament.ID] = tournament
	return nil
}

func (r *fakeTournamentRepo) GetByShareToken(_ context.Context, token string) (*models.Tournament, error) {
	for _, tournament := range r.tournaments {
		if tournament.ShareToken == token {
			copied := *tournament
			return &copied, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) Update(_ context.Context, tournament *models.Tournament) error {
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.tournaments[tournament.ID] = tournament
	return nil
}

func (r *fakeTournamentRepo) ListDateExpired(_ context.Context, _ repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	var expired []*models.Tournament
	for _, tournament := range r.tournaments {
		if tournament.Status == models.StatusOngoing && tournament.EndDate != nil && !tournament.EndDate.After(now) {
			expired = append(expired, tournament)
		}
	}
	return expired, nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateWinner(_ context.Context, _ repositories.SQLExecutor, id int, winnerRegistrationID *int) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.WinnerRegistrationID = winnerRegistrationID
	return nil
}

func (r *fakeTournamentRepo) UpdateAccessCodeHash(_ context.Context, id int, hash *string) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.AccessCodeHash = hash
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeRegistrationRepo struct {
	repositories.RegistrationRepository
	registrations map[int]*models.Registration
	nextID        int
}

func newFakeRegistrationRepo(registrations ...*models.Registration) *fakeRegistrationRepo {
	repo := &fakeRegistrationRepo{registrations: make(map[int]*models.Registration), nextID: 1}
	for _, reg := range registrations {
		repo.registrations[reg.ID] = reg
		if reg.ID >= repo.nextID {
			repo.nextID = reg.ID + 1
		}
	}
	return repo
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	for _, existing := range r.registrations {
		if existing.TournamentID == reg.TournamentID && existing.UserID == reg.UserID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = r.nextID
	reg.CreatedAt = time.Now()
	r.nextID++
	r.registrations[reg.ID] = reg
	return nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id int) (*models.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) GetByTournamentAndUser(_ context.Context, tournamentID, userID int) (*models.Registration, error) {
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.UserID == userID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListByTournament(_ context.Context, tournamentID int, status *models.RegistrationStatus, _ bool) ([]*models.Registration, error) {
	var out []*models.Registration
	for _, reg := range r.registrations {
		if reg.TournamentID != tournamentID {
			continue
		}
		if status != nil && reg.Status != *status {
			continue
		}
		out = append(out, reg)
	}
	return out, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, id int, status models.RegistrationStatus) error {
	reg, ok := r.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) CountActiveByTournament(_ context.Context, tournamentID int) (int, error) {
	count := 0
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.Status != models.RegistrationWithdrawn {
			count++
		}
	}
	return count, nil
}

type fakeDisputeRepo struct {
	repositories.DisputeRepository
	disputes map[int]*models.Dispute
	nextID   int
}

func newFakeDisputeRepo(disputes ...*models.Dispute) *fakeDisputeRepo {
	repo := &fakeDisputeRepo{disputes: make(map[int]*models.Dispute), nextID: 1}
	for _, d := range disputes {
		repo.disputes[d.ID] = d
		if d.ID >= repo.nextID {
			repo.nextID = d.ID + 1
		}
	}
	return repo
}

func (r *fakeDisputeRepo) Create(_ context.Context, _ repositories.SQLExecutor, dispute *models.Dispute) error {
	for _, existing := range r.disputes {
		if existing.MatchID == dispute.MatchID && existing.Status == models.DisputeOpen {
			return repositories.ErrDisputeConflict
		}
	}
	dispute.ID = r.nextID
	r.nextID++
	r.disputes[dispute.ID] = dispute
	return nil
}

func (r *fakeDisputeRepo) GetByID(_ context.Context, id int) (*models.Dispute, error) {
	dispute, ok := r.disputes[id]
	if !ok {
		return nil, repositories.ErrDisputeNotFound
	}
	copied := *dispute
	return &copied, nil
}

func (r *fakeDisputeRepo) GetOpenByMatch(_ context.Context, matchID int) (*models.Dispute, error) {
	for _, dispute := range r.disputes {
		if dispute.MatchID == matchID && dispute.Status == models.DisputeOpen {
			copied := *dispute
			return &copied, nil
		}
	}
	return nil, repositories.ErrDisputeNotFound
}

func (r *fakeDisputeRepo) Resolve(_ context.Context, _ repositories.SQLExecutor, id int, note string, resolvedByUserID int) error {
	dispute, ok := r.disputes[id]
	if !ok || dispute.Status != models.DisputeOpen {
		return repositories.ErrDisputeNotFound
	}
	now := time.Now()
	dispute.Status = models.DisputeResolved
	dispute.ResolutionNote = &note
	dispute.ResolvedByUserID = &resolvedByUserID
	dispute.ResolvedAt = &now
	return nil
}

type fakeAnnouncementRepo struct {
	repositories.AnnouncementRepository
	announcements map[string]*models.Announcement
}

func newFakeAnnouncementRepo(announcements ...*models.Announcement) *fakeAnnouncementRepo {
	repo := &fakeAnnouncementRepo{announcements: make(map[string]*models.Announcement)}
	for _, a := range announcements {
		repo.announcements[a.ID] = a
	}
	return repo
}

func (r *fakeAnnouncementRepo) Create(_ context.Context, a *models.Announcement) error {
	a.CreatedAt = time.Now()
	r.announcements[a.ID] = a
	return nil
}

func (r *fakeAnnouncementRepo) GetByID(_ context.Context, id string) (*models.Announcement, error) {
	a, ok := r.announcements[id]
	if !ok {
		return nil, repositories.ErrAnnouncementNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAnnouncementRepo) Update(_ context.Context, a *models.Announcement) error {
	if _, ok := r.announcements[a.ID]; !ok {
		return repositories.ErrAnnouncementNotFound
	}
	r.announcements[a.ID] = a
	return nil
}

func (r *fakeAnnouncementRepo) ListDue(_ context.Context, now time.Time) ([]*models.Announcement, error) {
	var due []*models.Announcement
	for _, a := range r.announcements {
		if a.Status == models.AnnouncementScheduled && a.ScheduledAt != nil && !a.ScheduledAt.After(now) {
			due = append(due, a)
		}
	}
	return due, nil
}

func (r *fakeAnnouncementRepo) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	a, ok := r.announcements[id]
	if !ok {
		return repositories.ErrAnnouncementNotFound
	}
	if a.Status == models.AnnouncementSent {
		return nil
	}
	a.Status = models.AnnouncementSent
	a.SentAt = &sentAt
	return nil
}

func (r *fakeAnnouncementRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.announcements[id]; !ok {
		return repositories.ErrAnnouncementNotFound
	}
	delete(r.announcements, id)
	return nil
}

type fakeSettingRepo struct {
	repositories.SettingRepository
	settings map[string]*models.SystemSetting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: make(map[string]*models.SystemSetting)}
}

func (r *fakeSettingRepo) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	setting, ok := r.settings[key]
	if !ok {
		return nil, repositories.ErrSettingNotFound
	}
	copied := *setting
	return &copied, nil
}

func (r *fakeSettingRepo) List(_ context.Context) ([]*models.SystemSetting, error) {
	out := make([]*models.SystemSetting, 0, len(r.settings))
	for _, setting := range r.settings {
		out = append(out, setting)
	}
	return out, nil
}

func (r *fakeSettingRepo) Upsert(_ context.Context, setting *models.SystemSetting) error {
	setting.UpdatedAt = time.Now()
	r.settings[setting.Key] = setting
	return nil
}

func (r *fakeSettingRepo) Delete(_ context.Context, key string) error {
	if _, ok := r.settings[key]; !ok {
		return repositories.ErrSettingNotFound
	}
	delete(r.settings, key)
	return nil
}

// fakeAnalyticsRepo answers from canned data.
type fakeAnalyticsRepo struct {
	repositories.AnalyticsRepository
	daily        []models.DailyCount
	statusCounts map[models.TournamentStatus]int
}

func (r *fakeAnalyticsRepo) RegistrationsPerDay(context.Context, time.Time, time.Time) ([]models.DailyCount, error) {
	return r.daily, nil
}

func (r *fakeAnalyticsRepo) TournamentStatusCounts(context.Context) (map[models.TournamentStatus]int, error) {
	return r.statusCounts, nil
}

type fakeUserRepo struct {
	repositories.UserRepository
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// fakeBracketService records whether a bracket generation was asked for.
type fakeBracketService struct {
	generated []int
	bracket   []*models.Match
	err       error
}

func (s *fakeBracketService) GenerateAndSave(_ context.Context, tournament *models.Tournament) ([]*models.Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.generated = append(s.generated, tournament.ID)
	return nil, nil
}

func (s *fakeBracketService) GetBracket(context.Context, int) ([]*models.Match, error) {
	return s.bracket, nil
}

type fakeEmailSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to      []string
	subject string
	body    string
}

func (s *fakeEmailSender) SendEmail(to []string, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func intPtr(v int) *int { return &v }
