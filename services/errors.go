package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Authorization
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Tournament lifecycle
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity         = errors.New("tournament capacity must be positive")
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidRegDeadline      = errors.New("registration deadline must be before the start date")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotEditable             = errors.New("tournament can only be edited before it starts")
	ErrTournamentAccessCodeInvalid       = errors.New("invalid tournament access code")
	ErrTournamentHasMatches              = errors.New("tournament with matches cannot be deleted")
	ErrNotEnoughRegistrations            = errors.New("at least two confirmed registrations are required to start")

	// Registrations
	ErrRegistrationNotOpen    = errors.New("tournament registration is not open")
	ErrRegistrationClosed     = errors.New("registration deadline has passed")
	ErrTournamentFull         = errors.New("tournament registration is full")
	ErrRegistrationConflict   = errors.New("player is already registered for this tournament")
	ErrRegistrationNotPending = errors.New("registration is not pending confirmation")
	ErrRegistrationNotOwn     = errors.New("registration belongs to another player")
	ErrWithdrawalNotAllowed   = errors.New("withdrawal is only possible before the tournament starts")

	// Matches and results
	ErrMatchNotReportable   = errors.New("match is not accepting result reports")
	ErrNotMatchParticipant  = errors.New("player is not a participant of this match")
	ErrMatchMissingOpponent = errors.New("match does not have both participants yet")
	ErrInvalidScoreline     = errors.New("scores must be non-negative and not tied")
	ErrDuplicateReport      = errors.New("result already reported for this match")

	// Disputes
	ErrDisputeAlreadyResolved = errors.New("dispute is already resolved")

	// Announcements
	ErrAnnouncementTitleRequired  = errors.New("announcement title is required")
	ErrAnnouncementBodyRequired   = errors.New("announcement body is required")
	ErrAnnouncementBadAudience    = errors.New("announcement audience must be \"all\" or \"tournament:<id>\"")
	ErrAnnouncementScheduleInPast = errors.New("announcement schedule time must be in the future")
	ErrAnnouncementNotEditable    = errors.New("a sent announcement cannot be modified")

	// Inbox
	ErrInboxSenderRequired  = errors.New("sender name and email are required")
	ErrInboxSubjectRequired = errors.New("message subject and body are required")
	ErrInboxAlreadyReplied  = errors.New("message has already been replied to")

	// Settings
	ErrSettingUnknownKey   = errors.New("unknown setting key")
	ErrSettingInvalidValue = errors.New("invalid setting value")

	// Media
	ErrInvalidFileType    = errors.New("unsupported file type")
	ErrFileTooLarge       = errors.New("file exceeds the maximum allowed size")
	ErrUploadsUnavailable = errors.New("file uploads are not configured")
)
