package engine

import (
	"errors"

	"github.com/geerteltink/mezzio-skeleton/internal/aggregator"
	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/lock"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
)

// Validation errors. The call made no change; the caller may retry.
var (
	// ErrUnknownQuestion indicates a question id that is not in the catalog.
	ErrUnknownQuestion = catalog.ErrUnknownQuestion

	// ErrInvalidOption indicates a code that is not an option of the question.
	ErrInvalidOption = planner.ErrInvalidOption

	// ErrIncompatibleSelection indicates a cross-question constraint is not met.
	ErrIncompatibleSelection = planner.ErrIncompatibleSelection

	// ErrOrderViolation indicates install-type was not answered first.
	ErrOrderViolation = planner.ErrOrderViolation

	// ErrIncomplete indicates finalize was called with required questions unanswered.
	ErrIncomplete = planner.ErrIncomplete
)

var (
	// ErrConflict indicates an answer would overwrite a file the session does not manage.
	ErrConflict = errors.New("conflict detected")

	// ErrValidation indicates a malformed request or project.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates there is no session for the project root.
	ErrNotFound = errors.New("not found")

	// ErrFinalized indicates the session is complete and takes no more answers.
	ErrFinalized = errors.New("session already finalized")
)

// Session-fatal errors. The project tree may be inconsistent; the session
// is marked broken and must be reset.
var (
	// ErrIOFailure indicates a project file could not be read or written.
	ErrIOFailure = errors.New("io failure")

	// ErrDuplicateInsertion indicates the managed provider block no longer
	// matches the session's records.
	ErrDuplicateInsertion = aggregator.ErrDuplicateInsertion

	// ErrStateDrift indicates a file the session wrote was changed outside the installer.
	ErrStateDrift = errors.New("state drift detected")

	// ErrSessionBroken is returned for any call on a session that hit a fatal error.
	ErrSessionBroken = errors.New("session is broken")
)

// IsRecoverable reports whether err left the session usable. Validation
// errors, conflicts and lock contention are recoverable; IO failures and
// invariant violations are not.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var locked *lock.ErrLocked
	switch {
	case errors.Is(err, ErrUnknownQuestion),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrIncompatibleSelection),
		errors.Is(err, ErrOrderViolation),
		errors.Is(err, ErrIncomplete),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.As(err, &locked):
		return true
	}
	return false
}

// isFatal reports whether an error raised while mutating the tree breaks the session.
func isFatal(err error) bool {
	return errors.Is(err, ErrIOFailure) ||
		errors.Is(err, ErrDuplicateInsertion) ||
		errors.Is(err, ErrStateDrift)
}
