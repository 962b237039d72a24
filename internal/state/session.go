package state

import "time"

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLayoutChosen  Phase = "layout-chosen"
	PhaseAnswering     Phase = "answering"
	PhaseFinalized     Phase = "finalized"
)

// SessionState is the persisted record of one install session.
type SessionState struct {
	// ProjectRoot is the absolute path of the project being scaffolded
	ProjectRoot string `json:"projectRoot"`

	// CatalogVersion is the version of the catalog the codes refer to
	CatalogVersion int `json:"catalogVersion"`

	// Phase is the current lifecycle phase
	Phase Phase `json:"phase"`

	// Layout is the accepted install-type code ("" until answered)
	Layout string `json:"layout,omitempty"`

	// Answers holds the accepted answers, in the order they were last given
	Answers []Answer `json:"answers"`

	// Providers is the managed block of the config aggregator, in file order
	Providers []ProviderEntry `json:"providers"`

	// Broken is set after a fatal error; the tree may be inconsistent
	Broken bool `json:"broken,omitempty"`

	// BrokenReason describes the fatal error
	BrokenReason string `json:"brokenReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Answer is an accepted answer and the edits it made.
type Answer struct {
	Question   string    `json:"question"`
	Code       string    `json:"code"`
	AnsweredAt time.Time `json:"answeredAt"`
	Undo       Undo      `json:"undo"`
}

// Undo lists the edits an answer made, so it can be reverted exactly.
type Undo struct {
	// Provider is the aggregator reference inserted for this answer
	Provider string `json:"provider,omitempty"`

	// Packages are the manifest entries this answer added
	Packages []PackageRecord `json:"packages,omitempty"`

	// Files are the files this answer wrote, relative to the project root
	Files []FileRecord `json:"files,omitempty"`

	// Autoload is the psr-4 mapping this answer replaced
	Autoload *AutoloadRecord `json:"autoload,omitempty"`
}

// IsEmpty reports whether the answer changed nothing.
func (u Undo) IsEmpty() bool {
	return u.Provider == "" && len(u.Packages) == 0 && len(u.Files) == 0 && u.Autoload == nil
}

// PackageRecord is a manifest entry added by an answer.
type PackageRecord struct {
	Section string `json:"section"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FileRecord is a file written by an answer.
type FileRecord struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`

	// Previous holds the content the file had before, if it existed
	Previous *string `json:"previous,omitempty"`
}

// AutoloadRecord is a psr-4 mapping replaced by an answer.
type AutoloadRecord struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Previous  string `json:"previous,omitempty"`
}

// ProviderEntry is one line of the managed aggregator block.
type ProviderEntry struct {
	Question  string `json:"question"`
	Reference string `json:"reference"`
}

// NewSessionState creates an empty session for a project root.
func NewSessionState(projectRoot string, catalogVersion int, now time.Time) *SessionState {
	return &SessionState{
		ProjectRoot:    projectRoot,
		CatalogVersion: catalogVersion,
		Phase:          PhaseUninitialized,
		Answers:        []Answer{},
		Providers:      []ProviderEntry{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// GetAnswer returns the answer recorded for question.
func (s *SessionState) GetAnswer(question string) (Answer, bool) {
	for _, a := range s.Answers {
		if a.Question == question {
			return a, true
		}
	}
	return Answer{}, false
}

// SetAnswer records a, replacing any earlier answer to the same question.
// The answer moves to the end so Answers stays in the order last given.
func (s *SessionState) SetAnswer(a Answer) {
	s.RemoveAnswer(a.Question)
	s.Answers = append(s.Answers, a)
}

// RemoveAnswer drops the answer to question, if any.
func (s *SessionState) RemoveAnswer(question string) {
	for i, a := range s.Answers {
		if a.Question == question {
			s.Answers = append(s.Answers[:i], s.Answers[i+1:]...)
			return
		}
	}
}

// Codes maps each answered question to its code.
func (s *SessionState) Codes() map[string]string {
	codes := make(map[string]string, len(s.Answers))
	for _, a := range s.Answers {
		codes[a.Question] = a.Code
	}
	return codes
}

// ProviderRefs returns the managed aggregator references in file order.
func (s *SessionState) ProviderRefs() []string {
	refs := make([]string, 0, len(s.Providers))
	for _, p := range s.Providers {
		refs = append(refs, p.Reference)
	}
	return refs
}

// ProvidersWithout returns the managed block minus the entry owned by question.
func (s *SessionState) ProvidersWithout(question string) []ProviderEntry {
	out := make([]ProviderEntry, 0, len(s.Providers))
	for _, p := range s.Providers {
		if p.Question != question {
			out = append(out, p)
		}
	}
	return out
}
