package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
	"github.com/geerteltink/mezzio-skeleton/internal/skeleton"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// Finalize is the install complete signal. It checks that every required
// question is answered and every constraint holds, then closes the session
// to further answers.
func (e *Engine) Finalize(ctx context.Context, req *FinalizeRequest) (*FinalizeResult, error) {
	_, sessionID, err := e.resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lockSession(ctx, sessionID, "finalize")
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.loadActiveSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := planner.ValidateFinal(e.catalog, answers(st)); err != nil {
		return nil, err
	}

	st.Phase = state.PhaseFinalized
	if err := e.saveSession(sessionID, st); err != nil {
		return nil, err
	}

	return &FinalizeResult{
		SessionID: sessionID,
		Answers:   e.answerInfos(st),
	}, nil
}

// Reset discards the session record of a project root. With Revert, every
// answer is undone first, newest first, restoring the tree the session
// started from. A broken session can only be discarded, not reverted.
func (e *Engine) Reset(ctx context.Context, req *ResetRequest) (*ResetResult, error) {
	root, sessionID, err := e.resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	unlock, err := e.lockSession(ctx, sessionID, "reset")
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.stateStore.LoadSession(sessionID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no install session for this project", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	result := &ResetResult{
		SessionID: sessionID,
		Reverted:  []catalog.QuestionID{},
		Written:   []string{},
		Removed:   []string{},
	}

	if req.Revert && len(st.Answers) > 0 {
		if st.Broken {
			return nil, fmt.Errorf("%w: cannot revert, reset without revert and restore the project by hand: %s",
				ErrSessionBroken, st.BrokenReason)
		}

		paths, err := skeleton.LayoutFor(catalog.Layout(st.Layout))
		if err != nil {
			return nil, err
		}
		mut, err := e.newMutation(root, paths.Aggregator, st)
		if err != nil {
			return nil, e.fail(sessionID, st, err)
		}
		for i := len(st.Answers) - 1; i >= 0; i-- {
			a := st.Answers[i]
			if err := mut.undo(a.Question, a.Undo); err != nil {
				return nil, e.fail(sessionID, st, err)
			}
			result.Reverted = append(result.Reverted, catalog.QuestionID(a.Question))
		}
		written, removed, err := mut.commit()
		if err != nil {
			return nil, e.fail(sessionID, st, err)
		}
		result.Written = written
		result.Removed = removed
	}

	if err := e.stateStore.DeleteSession(sessionID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	return result, nil
}
