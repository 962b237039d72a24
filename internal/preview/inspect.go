// Package preview answers the home page of an installed project.
//
// It stands in for booting the generated application: it reads the
// composer manifest and the config aggregator, maps what they wire back
// onto the option catalog, and renders the information the skeleton's
// home page handler would show. It never executes PHP.
package preview

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/geerteltink/mezzio-skeleton/internal/aggregator"
	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
	"github.com/geerteltink/mezzio-skeleton/internal/manifest"
	"github.com/geerteltink/mezzio-skeleton/internal/skeleton"
)

var (
	// ErrNoContainer indicates no catalog container package is required.
	ErrNoContainer = errors.New("no container installed")

	// ErrNoRouter indicates no router config provider is aggregated.
	ErrNoRouter = errors.New("no router configured")
)

// Project is what an installed tree wires together.
type Project struct {
	Layout    skeleton.Layout
	Container catalog.Option
	Router    catalog.Option

	// Renderer is set when a renderer provider is aggregated and its home
	// page template exists
	Renderer *catalog.Option
}

// Inspect reads the project under root.
func Inspect(fs fsops.FS, root string, cat *catalog.Catalog) (*Project, error) {
	data, err := fs.ReadFile(filepath.Join(root, manifest.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", manifest.FileName, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}

	p := &Project{}

	autoload, ok, err := m.Autoload(skeleton.AppNamespace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no autoload mapping for %s", skeleton.AppNamespace)
	}
	if p.Layout, ok = skeleton.LayoutForAutoload(autoload); !ok {
		return nil, fmt.Errorf("unrecognized App module path %q", autoload)
	}

	packages, err := m.Packages(manifest.SectionRequire)
	if err != nil {
		return nil, err
	}
	found := false
	for _, pkg := range packages {
		if p.Container, found = cat.OptionByPackage(catalog.QuestionContainer, pkg.Name); found {
			break
		}
	}
	if !found {
		return nil, ErrNoContainer
	}

	config, err := fs.ReadFile(filepath.Join(root, filepath.FromSlash(p.Layout.Aggregator)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Layout.Aggregator, err)
	}
	refs, err := aggregator.References(config)
	if err != nil {
		return nil, err
	}
	aggregated := make(map[string]bool, len(refs))
	for _, r := range refs {
		aggregated[r] = true
	}

	routers, err := cat.OptionsFor(catalog.QuestionRouter)
	if err != nil {
		return nil, err
	}
	found = false
	for _, opt := range routers {
		if opt.Provider != "" && aggregated[opt.Provider] {
			p.Router, found = opt, true
			break
		}
	}
	if !found {
		return nil, ErrNoRouter
	}

	renderers, err := cat.OptionsFor(catalog.QuestionTemplateEngine)
	if err != nil {
		return nil, err
	}
	for _, opt := range renderers {
		if opt.Provider == "" || !aggregated[opt.Provider] {
			continue
		}
		tmpl, ok := skeleton.HomePageTemplate(p.Layout, opt)
		if !ok {
			continue
		}
		exists, err := fs.Exists(filepath.Join(root, filepath.FromSlash(tmpl)))
		if err != nil {
			return nil, err
		}
		if exists {
			r := opt
			p.Renderer = &r
			break
		}
	}

	return p, nil
}
