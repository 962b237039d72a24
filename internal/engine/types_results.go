package engine

import (
	"time"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// InitResult represents the result of starting a session.
type InitResult struct {
	// SessionID is the computed session ID
	SessionID string

	// Root is the absolute project root
	Root string

	// Seeded lists the skeleton files written (empty for an existing project)
	Seeded []string

	// Resumed is true if a session already existed for the root
	Resumed bool

	// Phase is the session phase
	Phase state.Phase
}

// AnswerResult represents the result of processing an answer.
type AnswerResult struct {
	// Plan is the generated plan
	Plan *planner.AnswerPlan

	// Option is the accepted option
	Option catalog.Option

	// Replaced is the code of the answer this one replaced (empty if none)
	Replaced string

	// Written lists the project files written, relative to the root
	Written []string

	// Removed lists the project files removed, relative to the root
	Removed []string

	// Phase is the session phase after the answer
	Phase state.Phase

	// SessionID is the computed session ID
	SessionID string
}

// AnswerInfo describes a recorded answer.
type AnswerInfo struct {
	Question   catalog.QuestionID
	Code       string
	Name       string
	Provider   string
	AnsweredAt time.Time
}

// StatusResult represents the current session status.
type StatusResult struct {
	// SessionID is the session ID
	SessionID string

	// Root is the absolute project root
	Root string

	// Exists is false if there is no session for the root
	Exists bool

	// StateFile is where the session record is persisted
	StateFile string

	// Phase is the session phase
	Phase state.Phase

	// Layout is the chosen install layout
	Layout catalog.Layout

	// Answers are the recorded answers in the order last given
	Answers []AnswerInfo

	// Providers is the managed aggregator block in file order
	Providers []string

	// Pending lists unanswered questions in prompt order
	Pending []catalog.QuestionID

	// Drifted lists files written by the session that changed on disk
	Drifted []string

	// Broken is set if the session hit a fatal error
	Broken       bool
	BrokenReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OptionInfo is an option with its availability for a session.
type OptionInfo struct {
	catalog.Option

	// Available is false if selecting the option would be rejected
	Available bool

	// Reason explains why the option is unavailable
	Reason string

	// Selected is true if the option is the current answer
	Selected bool
}

// OptionsResult lists the options of a question.
type OptionsResult struct {
	Question catalog.Question
	Options  []OptionInfo
}

// FinalizeResult represents the result of finalizing a session.
type FinalizeResult struct {
	SessionID string
	Answers   []AnswerInfo
}

// ResetResult represents the result of discarding a session.
type ResetResult struct {
	SessionID string

	// Reverted lists the answers undone, most recent first
	Reverted []catalog.QuestionID

	// Written and Removed list the files touched by the revert
	Written []string
	Removed []string
}
