package planner

import (
	"fmt"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/manifest"
	"github.com/geerteltink/mezzio-skeleton/internal/skeleton"
)

// BuildAnswerPlan generates a deterministic plan to apply an accepted option.
//
// layout is the session's install layout; for the install-type question it
// is ignored and the layout being chosen is used instead. checker may be nil
// when the caller does not need conflict detection.
func BuildAnswerPlan(
	layout catalog.Layout,
	question catalog.QuestionID,
	opt catalog.Option,
	checker *ConflictChecker,
) (*AnswerPlan, error) {
	plan := NewAnswerPlan(question, opt)

	if question == catalog.QuestionInstallType {
		layout = catalog.Layout(opt.Code)
	}
	paths, err := skeleton.LayoutFor(layout)
	if err != nil {
		return nil, err
	}

	// Manifest first, so a failure leaves no partially wired provider
	for _, pkg := range opt.Require {
		plan.AddOperation(Operation{Type: OpRequire, Section: manifest.SectionRequire, Package: pkg})
	}
	for _, pkg := range opt.RequireDev {
		plan.AddOperation(Operation{Type: OpRequire, Section: manifest.SectionRequireDev, Package: pkg})
	}

	if question == catalog.QuestionInstallType {
		plan.AddOperation(Operation{
			Type:         OpAutoload,
			Namespace:    skeleton.AppNamespace,
			AutoloadPath: paths.SourceDir,
		})
	}

	files, err := skeleton.FilesFor(paths, question, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to render files for %s %q: %w", question, opt.Code, err)
	}
	for _, f := range files {
		if checker != nil {
			if conflict := checker.CheckPath(f.Path); conflict != nil {
				plan.AddConflict(*conflict)
				continue
			}
		}
		plan.AddOperation(Operation{Type: OpWriteFile, RelPath: f.Path, Content: f.Content})
	}

	if opt.Provider != "" {
		if checker != nil {
			if conflict := checker.CheckProvider(opt.Provider); conflict != nil {
				plan.AddConflict(*conflict)
				return plan, nil
			}
		}
		plan.AddOperation(Operation{Type: OpProvider, Reference: opt.Provider})
	}

	return plan, nil
}
