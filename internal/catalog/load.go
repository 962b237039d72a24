package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type catalogDoc struct {
	Version   int        `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded document.
// It is parsed once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultCatalogYAML)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded catalog
// as a programming error.
func MustDefault() *Catalog {
	cat, err := Default()
	if err != nil {
		panic(err)
	}
	return cat
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("catalog: no questions defined")
	}

	cat := &Catalog{
		version:   doc.Version,
		questions: doc.Questions,
		index:     make(map[QuestionID]int, len(doc.Questions)),
	}

	for i := range cat.questions {
		q := &cat.questions[i]
		q.ID = QuestionID(strings.TrimSpace(string(q.ID)))
		if q.ID == "" {
			return nil, fmt.Errorf("catalog: question %d has no id", i)
		}
		if _, dup := cat.index[q.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate question %q", q.ID)
		}
		cat.index[q.ID] = i

		if len(q.Options) == 0 {
			return nil, fmt.Errorf("catalog: question %q has no options", q.ID)
		}
		seen := make(map[string]bool, len(q.Options))
		for j := range q.Options {
			opt := &q.Options[j]
			if opt.Code == "" {
				return nil, fmt.Errorf("catalog: question %q option %d has no code", q.ID, j)
			}
			if seen[opt.Code] {
				return nil, fmt.Errorf("catalog: question %q has duplicate code %q", q.ID, opt.Code)
			}
			seen[opt.Code] = true
			for k := range opt.Constraints {
				if opt.Constraints[k].Stage == "" {
					opt.Constraints[k].Stage = StageAnswer
				}
			}
		}
		if q.Default != "" && !seen[q.Default] {
			return nil, fmt.Errorf("catalog: question %q default %q is not an option", q.ID, q.Default)
		}
	}

	if err := cat.checkConstraints(); err != nil {
		return nil, err
	}

	return cat, nil
}

// checkConstraints verifies every constraint references a known question and codes.
func (c *Catalog) checkConstraints() error {
	for _, q := range c.questions {
		for _, opt := range q.Options {
			for _, con := range opt.Constraints {
				target, err := c.Question(con.Question)
				if err != nil {
					return fmt.Errorf("catalog: %s/%s constraint: %w", q.ID, opt.Code, err)
				}
				if con.Question == q.ID {
					return fmt.Errorf("catalog: %s/%s constraint references its own question", q.ID, opt.Code)
				}
				if con.Stage != StageAnswer && con.Stage != StageFinalize {
					return fmt.Errorf("catalog: %s/%s constraint has unknown stage %q", q.ID, opt.Code, con.Stage)
				}
				if len(con.AnyOf) == 0 {
					return fmt.Errorf("catalog: %s/%s constraint allows nothing", q.ID, opt.Code)
				}
				for _, code := range con.AnyOf {
					if _, ok := target.Option(code); !ok {
						return fmt.Errorf("catalog: %s/%s constraint references unknown %s code %q", q.ID, opt.Code, con.Question, code)
					}
				}
			}
		}
	}
	return nil
}
