// Package catalog holds the static table of installer questions and the
// options selectable for each of them.
//
// The catalog is declarative: it is parsed once from an embedded YAML
// document and never changes while the process runs. Every option carries
// the data the rest of the installer needs to wire it into a project:
//   - Human metadata: name and documentation URL
//   - Target class and optional config-provider reference
//   - Composer packages added to require / require-dev
//   - Constraints over the answers given to other questions
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownQuestion indicates a question id that is not registered.
var ErrUnknownQuestion = errors.New("unknown question")

// QuestionID identifies a question.
type QuestionID string

// Registered questions, in prompt order.
const (
	QuestionInstallType    QuestionID = "install-type"
	QuestionContainer      QuestionID = "container"
	QuestionRouter         QuestionID = "router"
	QuestionTemplateEngine QuestionID = "template-engine"
	QuestionErrorHandler   QuestionID = "error-handler"
)

// NoneCode is the option code meaning "install nothing" on optional questions.
const NoneCode = "n"

// Stage says when a constraint is evaluated.
type Stage string

const (
	// StageAnswer constraints are checked when the option is answered.
	// The referenced question must already be answered.
	StageAnswer Stage = "answer"

	// StageFinalize constraints are checked when the install completes.
	// They are also checked at answer time once the referenced question has an answer.
	StageFinalize Stage = "finalize"
)

// Package is a composer package requirement.
type Package struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Constraint restricts an option to projects where Question was answered
// with one of AnyOf.
type Constraint struct {
	Question QuestionID `yaml:"question"`
	AnyOf    []string   `yaml:"any_of"`
	Stage    Stage      `yaml:"stage"`
	Reason   string     `yaml:"reason"`
}

// Allows reports whether code satisfies the constraint.
func (c Constraint) Allows(code string) bool {
	for _, allowed := range c.AnyOf {
		if allowed == code {
			return true
		}
	}
	return false
}

// Option is one selectable answer to a question.
type Option struct {
	Code        string       `yaml:"code"`
	Slug        string       `yaml:"slug"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Docs        string       `yaml:"docs"`
	Class       string       `yaml:"class"`
	Provider    string       `yaml:"provider"`
	Require     []Package    `yaml:"require"`
	RequireDev  []Package    `yaml:"require-dev"`
	Constraints []Constraint `yaml:"constraints"`
}

// IsNone reports whether the option installs nothing.
func (o Option) IsNone() bool {
	return o.Code == NoneCode
}

// Question is a single installer question with its ordered options.
type Question struct {
	ID       QuestionID `yaml:"id"`
	Prompt   string     `yaml:"prompt"`
	Required bool       `yaml:"required"`
	Default  string     `yaml:"default"`
	Options  []Option   `yaml:"options"`
}

// Option returns the option with the given code.
func (q Question) Option(code string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Code == code {
			return opt, true
		}
	}
	return Option{}, false
}

// Catalog is the read-only registry of questions.
type Catalog struct {
	version   int
	questions []Question
	index     map[QuestionID]int
}

// Version returns the catalog document version.
func (c *Catalog) Version() int {
	return c.version
}

// Questions returns all questions in prompt order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Question returns the question registered under id.
func (c *Catalog) Question(id QuestionID) (Question, error) {
	i, ok := c.index[id]
	if !ok {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
	}
	return c.questions[i], nil
}

// OptionsFor returns the ordered options of a question.
func (c *Catalog) OptionsFor(id QuestionID) ([]Option, error) {
	q, err := c.Question(id)
	if err != nil {
		return nil, err
	}
	out := make([]Option, len(q.Options))
	copy(out, q.Options)
	return out, nil
}

// OptionByPackage finds the option of a question that requires the named
// composer package. Used to map an installed tree back onto the catalog.
func (c *Catalog) OptionByPackage(id QuestionID, pkg string) (Option, bool) {
	q, err := c.Question(id)
	if err != nil {
		return Option{}, false
	}
	for _, opt := range q.Options {
		for _, p := range opt.Require {
			if p.Name == pkg {
				return opt, true
			}
		}
	}
	return Option{}, false
}
