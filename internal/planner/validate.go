package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
)

var (
	// ErrInvalidOption indicates a code that is not an option of the question.
	ErrInvalidOption = errors.New("invalid option")

	// ErrIncompatibleSelection indicates a cross-question constraint is not met.
	ErrIncompatibleSelection = errors.New("incompatible selection")

	// ErrOrderViolation indicates the install-type ordering rule was broken.
	ErrOrderViolation = errors.New("order violation")

	// ErrIncomplete indicates a required question has no answer.
	ErrIncomplete = errors.New("install incomplete")
)

// Answers maps each answered question to its option code.
type Answers map[catalog.QuestionID]string

// Validate checks that code is a legal answer to question given the answers
// accepted so far, and returns the selected option.
//
// An existing answer to question itself is ignored: re-answering is
// validated as if the question had never been answered. Validate is pure.
func Validate(cat *catalog.Catalog, question catalog.QuestionID, code string, prior Answers) (catalog.Option, error) {
	q, err := cat.Question(question)
	if err != nil {
		return catalog.Option{}, err
	}

	opt, ok := q.Option(code)
	if !ok {
		return catalog.Option{}, fmt.Errorf("%w: %q is not an option of %s (valid: %s)",
			ErrInvalidOption, code, question, strings.Join(codes(q), ", "))
	}

	if err := checkOrder(question, code, prior); err != nil {
		return catalog.Option{}, err
	}

	// The option's own constraints.
	for _, c := range opt.Constraints {
		answered, ok := prior[c.Question]
		if c.Question == question {
			continue
		}
		switch {
		case !ok && c.Stage == catalog.StageAnswer:
			return catalog.Option{}, incompatible(question, opt, c, "")
		case ok && !c.Allows(answered):
			return catalog.Option{}, incompatible(question, opt, c, answered)
		}
	}

	// Constraints of already accepted options that reference question.
	for other, otherCode := range prior {
		if other == question {
			continue
		}
		otherOpt, err := optionOf(cat, other, otherCode)
		if err != nil {
			return catalog.Option{}, err
		}
		for _, c := range otherOpt.Constraints {
			if c.Question == question && !c.Allows(code) {
				return catalog.Option{}, fmt.Errorf("%w: %s %q conflicts with %s %q: %s",
					ErrIncompatibleSelection, question, opt.Name, other, otherOpt.Name, c.Reason)
			}
		}
	}

	return opt, nil
}

// ValidateFinal checks that answers form a complete install: every required
// question is answered and every constraint of every accepted option holds.
func ValidateFinal(cat *catalog.Catalog, answers Answers) error {
	var missing []string
	for _, q := range cat.Questions() {
		if _, ok := answers[q.ID]; !ok && q.Required {
			missing = append(missing, string(q.ID))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unanswered required questions: %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	// Prompt order keeps the reported error stable.
	for _, q := range cat.Questions() {
		code, ok := answers[q.ID]
		if !ok {
			continue
		}
		opt, err := optionOf(cat, q.ID, code)
		if err != nil {
			return err
		}
		for _, c := range opt.Constraints {
			answered, ok := answers[c.Question]
			if !ok || !c.Allows(answered) {
				return incompatible(q.ID, opt, c, answered)
			}
		}
	}
	return nil
}

// checkOrder enforces that install-type is answered first and only changed
// while nothing else has been answered.
func checkOrder(question catalog.QuestionID, code string, prior Answers) error {
	if question == catalog.QuestionInstallType {
		if current, ok := prior[question]; ok && current == code {
			return nil
		}
		for other := range prior {
			if other != catalog.QuestionInstallType {
				return fmt.Errorf("%w: %s cannot change after %s has been answered",
					ErrOrderViolation, catalog.QuestionInstallType, other)
			}
		}
		return nil
	}
	if _, ok := prior[catalog.QuestionInstallType]; !ok {
		return fmt.Errorf("%w: %s must be answered before %s",
			ErrOrderViolation, catalog.QuestionInstallType, question)
	}
	return nil
}

func optionOf(cat *catalog.Catalog, question catalog.QuestionID, code string) (catalog.Option, error) {
	q, err := cat.Question(question)
	if err != nil {
		return catalog.Option{}, err
	}
	opt, ok := q.Option(code)
	if !ok {
		return catalog.Option{}, fmt.Errorf("%w: recorded answer %q is not an option of %s", ErrInvalidOption, code, question)
	}
	return opt, nil
}

func incompatible(question catalog.QuestionID, opt catalog.Option, c catalog.Constraint, answered string) error {
	got := "no answer"
	if answered != "" {
		got = fmt.Sprintf("%q", answered)
	}
	return fmt.Errorf("%w: %s %q requires %s to be one of [%s], got %s: %s",
		ErrIncompatibleSelection, question, opt.Name, c.Question, strings.Join(c.AnyOf, ", "), got, c.Reason)
}

func codes(q catalog.Question) []string {
	out := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		out = append(out, o.Code)
	}
	return out
}
