package engine

import "github.com/geerteltink/mezzio-skeleton/internal/catalog"

// InitRequest represents a request to start an install session.
type InitRequest struct {
	// Root is the project root (created and seeded if it has no composer.json)
	Root string
}

// AnswerRequest represents a request to process one answer.
type AnswerRequest struct {
	// Root is the project root of the session
	Root string

	// Question is the question being answered
	Question catalog.QuestionID

	// Code is the selected option code
	Code string

	// Force allows overwriting files the session does not manage
	Force bool

	// DryRun performs validation and planning only without making changes
	DryRun bool
}

// StatusRequest represents a request for session status.
type StatusRequest struct {
	// Root is the project root of the session
	Root string
}

// OptionsRequest represents a request for the options of a question.
type OptionsRequest struct {
	// Root is an optional project root; when set, availability reflects its answers
	Root string

	// Question is the question to list
	Question catalog.QuestionID
}

// FinalizeRequest represents the install complete signal.
type FinalizeRequest struct {
	// Root is the project root of the session
	Root string
}

// ResetRequest represents a request to discard a session.
type ResetRequest struct {
	// Root is the project root of the session
	Root string

	// Revert undoes every answer before discarding the session record
	Revert bool
}
