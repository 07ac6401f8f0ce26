package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matchpoint-app/matchpoint/repositories"
	"github.com/matchpoint-app/matchpoint/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// formFile pulls a single uploaded file out of a multipart form,
// bounding the parse buffer at maxSize bytes.
func formFile(r *http.Request, field string, maxSize int64) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("missing %q file field", field)
	}
	if header.Size > maxSize {
		file.Close()
		return nil, nil, services.ErrFileTooLarge
	}
	return file, header, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// mapServiceErrorToHTTP translates service and repository sentinels
// into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Not found
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrRegistrationNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrDisputeNotFound),
		errors.Is(err, repositories.ErrAnnouncementNotFound),
		errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrSettingNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		notFoundResponse(w, r)

	// Conflicts
	case errors.Is(err, services.ErrRegistrationConflict),
		errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, services.ErrTournamentHasMatches),
		errors.Is(err, services.ErrDuplicateReport),
		errors.Is(err, services.ErrInboxAlreadyReplied),
		errors.Is(err, services.ErrDisputeAlreadyResolved),
		errors.Is(err, repositories.ErrTournamentNameConflict),
		errors.Is(err, repositories.ErrDisputeConflict),
		errors.Is(err, repositories.ErrUserEmailConflict):
		conflictResponse(w, r, err.Error())

	// Validation and business rules
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrTournamentNameRequired),
		errors.Is(err, services.ErrTournamentInvalidCapacity),
		errors.Is(err, services.ErrTournamentInvalidDateRange),
		errors.Is(err, services.ErrTournamentInvalidRegDeadline),
		errors.Is(err, services.ErrTournamentInvalidStatusTransition),
		errors.Is(err, services.ErrTournamentNotEditable),
		errors.Is(err, services.ErrNotEnoughRegistrations),
		errors.Is(err, services.ErrRegistrationNotPending),
		errors.Is(err, services.ErrWithdrawalNotAllowed),
		errors.Is(err, services.ErrMatchNotReportable),
		errors.Is(err, services.ErrMatchMissingOpponent),
		errors.Is(err, services.ErrInvalidScoreline),
		errors.Is(err, services.ErrAnnouncementTitleRequired),
		errors.Is(err, services.ErrAnnouncementBodyRequired),
		errors.Is(err, services.ErrAnnouncementBadAudience),
		errors.Is(err, services.ErrAnnouncementScheduleInPast),
		errors.Is(err, services.ErrAnnouncementNotEditable),
		errors.Is(err, services.ErrInboxSenderRequired),
		errors.Is(err, services.ErrInboxSubjectRequired),
		errors.Is(err, services.ErrSettingUnknownKey),
		errors.Is(err, services.ErrSettingInvalidValue),
		errors.Is(err, services.ErrInvalidFileType),
		errors.Is(err, services.ErrFileTooLarge):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrUploadsUnavailable):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	// Access control
	case errors.Is(err, services.ErrTournamentAccessCodeInvalid):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrRegistrationNotOwn),
		errors.Is(err, services.ErrNotMatchParticipant),
		errors.Is(err, services.ErrRegistrationNotOpen),
		errors.Is(err, services.ErrRegistrationClosed):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
