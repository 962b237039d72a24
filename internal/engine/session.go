package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/geerteltink/mezzio-skeleton/internal/aggregator"
	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/manifest"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
	"github.com/geerteltink/mezzio-skeleton/internal/skeleton"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// Session drives the install session of one project root.
type Session struct {
	engine *Engine
	root   string
}

// Root returns the project root the session was opened for.
func (s *Session) Root() string {
	return s.root
}

// Init starts or resumes the session.
func (s *Session) Init(ctx context.Context) (*InitResult, error) {
	return s.engine.Init(ctx, &InitRequest{Root: s.root})
}

// ProcessAnswer answers one question. It returns true if the answer was
// accepted and applied; otherwise false and the reason.
func (s *Session) ProcessAnswer(ctx context.Context, question catalog.QuestionID, code string) (bool, error) {
	if _, err := s.engine.ProcessAnswer(ctx, &AnswerRequest{Root: s.root, Question: question, Code: code}); err != nil {
		return false, err
	}
	return true, nil
}

// Status reports the session state.
func (s *Session) Status(ctx context.Context) (*StatusResult, error) {
	return s.engine.Status(ctx, &StatusRequest{Root: s.root})
}

// Finalize signals that the install is complete.
func (s *Session) Finalize(ctx context.Context) error {
	_, err := s.engine.Finalize(ctx, &FinalizeRequest{Root: s.root})
	return err
}

// Algorithm steps:
// 1. Resolve the project root and lock the session
// 2. Resume the session if one exists
// 3. Seed the skeleton into a root without composer.json
// 4. Check the project has a manifest and a config aggregator
// 5. Persist the new session
func (e *Engine) Init(ctx context.Context, req *InitRequest) (*InitResult, error) {
	root, sessionID, err := e.resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lockSession(ctx, sessionID, "init")
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := e.stateStore.LoadSession(sessionID)
	if err == nil {
		return &InitResult{
			SessionID: sessionID,
			Root:      root,
			Seeded:    []string{},
			Resumed:   true,
			Phase:     existing.Phase,
		}, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	if err := e.fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create project root: %v", ErrIOFailure, err)
	}

	seeded, err := skeleton.Seed(e.fs, root)
	if err != nil && !errors.Is(err, skeleton.ErrNotEmpty) {
		return nil, fmt.Errorf("%w: failed to seed project: %v", ErrIOFailure, err)
	}
	if seeded == nil {
		seeded = []string{}
	}

	if err := e.checkProject(root); err != nil {
		return nil, err
	}

	st := state.NewSessionState(root, e.catalog.Version(), e.clock.Now())
	if err := e.saveSession(sessionID, st); err != nil {
		return nil, err
	}

	return &InitResult{
		SessionID: sessionID,
		Root:      root,
		Seeded:    seeded,
		Phase:     st.Phase,
	}, nil
}

// checkProject verifies an existing project can be managed.
func (e *Engine) checkProject(root string) error {
	t := newTree(e.fs, root)

	data, ok, err := t.read(manifest.FileName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s not found in %s", ErrValidation, manifest.FileName, root)
	}
	if _, err := manifest.Parse(data); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Both layouts share the aggregator path
	paths, err := skeleton.LayoutFor(catalog.LayoutFlat)
	if err != nil {
		return err
	}
	data, ok, err = t.read(paths.Aggregator)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s not found in %s", ErrValidation, paths.Aggregator, root)
	}
	if _, err := aggregator.References(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrValidation, paths.Aggregator, err)
	}
	return nil
}

// Algorithm steps:
// 1. Resolve the project root and lock the session
// 2. Load the session (must exist, not broken, not finalized)
// 3. Validate the answer against the catalog and prior answers
// 4. Build the plan and check for conflicts
// 5. Undo the previous answer to the question and apply the plan in memory
// 6. Flush the edited files with atomic writes
// 7. Record the answer and persist the session
//
// Steps 3 and 4 fail without side effects. Any failure from step 5 on is
// session-fatal: the session is marked broken.
func (e *Engine) ProcessAnswer(ctx context.Context, req *AnswerRequest) (*AnswerResult, error) {
	root, sessionID, err := e.resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lockSession(ctx, sessionID, "answer "+string(req.Question))
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.loadActiveSession(sessionID)
	if err != nil {
		return nil, err
	}

	opt, err := planner.Validate(e.catalog, req.Question, req.Code, answers(st))
	if err != nil {
		return nil, err
	}

	question := string(req.Question)
	previous, hadPrevious := st.GetAnswer(question)

	layout := catalog.Layout(st.Layout)
	if req.Question == catalog.QuestionInstallType {
		layout = catalog.Layout(req.Code)
	}
	paths, err := skeleton.LayoutFor(layout)
	if err != nil {
		return nil, err
	}

	checker := planner.NewConflictChecker(e.fs, root, filePaths(previous.Undo), filesOfOthers(st, question), req.Force).
		WithAggregator(paths.Aggregator, st.ProviderRefs())
	plan, err := planner.BuildAnswerPlan(layout, req.Question, opt, checker)
	if err != nil {
		return nil, fmt.Errorf("failed to build answer plan: %w", err)
	}

	result := &AnswerResult{
		Plan:      plan,
		Option:    opt,
		Written:   []string{},
		Removed:   []string{},
		Phase:     st.Phase,
		SessionID: sessionID,
	}
	if hadPrevious {
		result.Replaced = previous.Code
	}

	if plan.HasConflicts() {
		return result, fmt.Errorf("%w: %d conflicts detected", ErrConflict, len(plan.Conflicts))
	}

	// Same answer again: the tree already reflects it
	if req.DryRun || (hadPrevious && previous.Code == req.Code) {
		return result, nil
	}

	mut, err := e.newMutation(root, paths.Aggregator, st)
	if err != nil {
		return nil, e.fail(sessionID, st, err)
	}
	if hadPrevious {
		if err := mut.undo(question, previous.Undo); err != nil {
			return nil, e.fail(sessionID, st, err)
		}
	}
	undo, err := mut.apply(plan)
	if err != nil {
		return nil, e.fail(sessionID, st, err)
	}
	written, removed, err := mut.commit()
	if err != nil {
		return nil, e.fail(sessionID, st, err)
	}

	st.SetAnswer(state.Answer{
		Question:   question,
		Code:       req.Code,
		AnsweredAt: e.clock.Now(),
		Undo:       undo,
	})
	st.Providers = mut.providers
	if req.Question == catalog.QuestionInstallType {
		st.Layout = req.Code
		st.Phase = state.PhaseLayoutChosen
	} else {
		st.Phase = state.PhaseAnswering
	}

	if err := e.saveSession(sessionID, st); err != nil {
		return nil, e.markBroken(sessionID, st, err)
	}

	result.Written = written
	result.Removed = removed
	result.Phase = st.Phase
	return result, nil
}

// fail marks the session broken for errors raised while mutating the tree.
func (e *Engine) fail(sessionID string, st *state.SessionState, err error) error {
	if !isFatal(err) {
		err = fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return e.markBroken(sessionID, st, err)
}

func filePaths(u state.Undo) []string {
	paths := make([]string, 0, len(u.Files))
	for _, f := range u.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// filesOfOthers maps files written by answers to other questions to their question.
func filesOfOthers(st *state.SessionState, question string) map[string]string {
	out := map[string]string{}
	for _, a := range st.Answers {
		if a.Question == question {
			continue
		}
		for _, f := range a.Undo.Files {
			out[f.Path] = a.Question
		}
	}
	return out
}
