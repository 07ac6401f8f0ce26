package models

type DashboardStats struct {
	PlayersTotal       int `json:"players_total"`
	TournamentsTotal   int `json:"tournaments_total"`
	ActiveTournaments  int `json:"active_tournaments"`
	RegistrationsTotal int `json:"registrations_total"`
	MatchesTotal       int `json:"matches_total"`
	OpenDisputes       int `json:"open_disputes"`
	UnreadMessages     int `json:"unread_messages"`
}

// DailyCount is one bucket of a per-day time series.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// StatusShare is one slice of the tournament status breakdown.
type StatusShare struct {
	Status     TournamentStatus `json:"status"`
	Count      int              `json:"count"`
	Percentage float64          `json:"percentage"`
}

// TournamentSummary aggregates a single tournament for the analytics
// dashboard. Revenue is projected from the entry fee and confirmed
// registrations; no payments are processed here.
type TournamentSummary struct {
	TournamentID     int     `json:"tournament_id"`
	RegisteredCount  int     `json:"registered_count"`
	Capacity         int     `json:"capacity"`
	FillRate         float64 `json:"fill_rate"`
	MatchesTotal     int     `json:"matches_total"`
	MatchesCompleted int     `json:"matches_completed"`
	CompletionRate   float64 `json:"completion_rate"`
	DisputesTotal    int     `json:"disputes_total"`
	DisputeRate      float64 `json:"dispute_rate"`
	ProjectedRevenue int     `json:"projected_revenue"`
}
