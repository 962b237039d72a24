package engine

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/planner"
	"github.com/geerteltink/mezzio-skeleton/internal/state"
)

// Status returns the session state of a project root.
// A root without a session is reported with Exists false, not as an error.
func (e *Engine) Status(ctx context.Context, req *StatusRequest) (*StatusResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, sessionID, err := e.resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		SessionID: sessionID,
		Root:      root,
		StateFile: filepath.Join(e.configPaths.Sessions, sessionID+".json"),
		Answers:   []AnswerInfo{},
		Providers: []string{},
		Pending:   []catalog.QuestionID{},
		Drifted:   []string{},
	}

	st, err := e.loadSession(sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return result, nil
		}
		return nil, err
	}

	result.Exists = true
	result.Phase = st.Phase
	result.Layout = catalog.Layout(st.Layout)
	result.Providers = st.ProviderRefs()
	result.Broken = st.Broken
	result.BrokenReason = st.BrokenReason
	result.CreatedAt = st.CreatedAt
	result.UpdatedAt = st.UpdatedAt
	result.Answers = e.answerInfos(st)

	answered := answers(st)
	for _, q := range e.catalog.Questions() {
		if _, ok := answered[q.ID]; !ok {
			result.Pending = append(result.Pending, q.ID)
		}
	}

	for _, a := range st.Answers {
		for _, f := range a.Undo.Files {
			data, err := e.fs.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
			if err != nil || e.hasher.HashBytes(data) != f.Checksum {
				result.Drifted = append(result.Drifted, f.Path)
			}
		}
	}

	return result, nil
}

// Options lists the options of a question. When req.Root has a session,
// each option reports whether it could be selected now.
func (e *Engine) Options(ctx context.Context, req *OptionsRequest) (*OptionsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := e.catalog.Question(req.Question)
	if err != nil {
		return nil, err
	}

	var prior planner.Answers
	if req.Root != "" {
		_, sessionID, err := e.resolveRoot(req.Root)
		if err != nil {
			return nil, err
		}
		st, err := e.loadSession(sessionID)
		switch {
		case err == nil:
			prior = answers(st)
		case errors.Is(err, ErrNotFound):
		default:
			return nil, err
		}
	}

	result := &OptionsResult{Question: q, Options: make([]OptionInfo, 0, len(q.Options))}
	for _, opt := range q.Options {
		info := OptionInfo{Option: opt, Available: true}
		if prior != nil {
			info.Selected = prior[q.ID] == opt.Code
			if _, err := planner.Validate(e.catalog, q.ID, opt.Code, prior); err != nil {
				info.Available = false
				info.Reason = err.Error()
			}
		}
		result.Options = append(result.Options, info)
	}
	return result, nil
}

func (e *Engine) answerInfos(st *state.SessionState) []AnswerInfo {
	infos := make([]AnswerInfo, 0, len(st.Answers))
	for _, a := range st.Answers {
		info := AnswerInfo{
			Question:   catalog.QuestionID(a.Question),
			Code:       a.Code,
			Provider:   a.Undo.Provider,
			AnsweredAt: a.AnsweredAt,
		}
		if q, err := e.catalog.Question(info.Question); err == nil {
			if opt, ok := q.Option(a.Code); ok {
				info.Name = opt.Name
			}
		}
		infos = append(infos, info)
	}
	return infos
}
