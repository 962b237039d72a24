package planner

import "github.com/geerteltink/mezzio-skeleton/internal/catalog"

// AnswerPlan represents the edits needed to apply one answer.
type AnswerPlan struct {
	// Question is the question being answered
	Question catalog.QuestionID

	// Option is the accepted option
	Option catalog.Option

	// Operations is the ordered list of operations to execute
	Operations []Operation

	// Conflicts is a list of detected conflicts (empty if no conflicts)
	Conflicts []Conflict
}

// Operation represents a single edit to the project tree.
type Operation struct {
	// Type is the operation type: "require", "provider", "write_file", "autoload"
	Type string

	// Section is the manifest section for require operations
	Section string

	// Package is the package added by require operations
	Package catalog.Package

	// Reference is the config provider added by provider operations
	Reference string

	// RelPath is the project-relative path written by write_file operations
	RelPath string

	// Content is the file content written by write_file operations
	Content []byte `json:"-"`

	// Namespace and AutoloadPath are the psr-4 mapping set by autoload operations
	Namespace    string
	AutoloadPath string
}

// Conflict represents a conflict detected during planning.
type Conflict struct {
	// Path is the project-relative path where the conflict was detected
	Path string

	// Reason is a human-readable explanation of the conflict
	Reason string

	// Existing describes what currently exists at the path
	Existing string
}

// Operation type constants
const (
	OpRequire   = "require"
	OpProvider  = "provider"
	OpWriteFile = "write_file"
	OpAutoload  = "autoload"
)

// NewAnswerPlan creates a new empty AnswerPlan.
func NewAnswerPlan(question catalog.QuestionID, opt catalog.Option) *AnswerPlan {
	return &AnswerPlan{
		Question:   question,
		Option:     opt,
		Operations: []Operation{},
		Conflicts:  []Conflict{},
	}
}

// HasConflicts returns true if the plan has any conflicts.
func (p *AnswerPlan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// AddOperation adds an operation to the plan.
func (p *AnswerPlan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// AddConflict adds a conflict to the plan.
func (p *AnswerPlan) AddConflict(conflict Conflict) {
	p.Conflicts = append(p.Conflicts, conflict)
}

// Provider returns the provider reference the plan inserts, if any.
func (p *AnswerPlan) Provider() string {
	for _, op := range p.Operations {
		if op.Type == OpProvider {
			return op.Reference
		}
	}
	return ""
}
