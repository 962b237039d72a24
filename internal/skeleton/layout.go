package skeleton

import (
	"fmt"
	"strings"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
)

// AppNamespace is the psr-4 namespace of the default module.
const AppNamespace = `App\`

// Layout resolves project-relative paths for an install layout.
// All paths use forward slashes.
type Layout struct {
	Name catalog.Layout

	// Aggregator is the config aggregator file
	Aggregator string

	// Container is the container bootstrap file
	Container string

	// SourceDir is the App module source directory (trailing slash)
	SourceDir string

	// TemplatesDir is the App template root (trailing slash)
	TemplatesDir string
}

var layouts = map[catalog.Layout]Layout{
	catalog.LayoutFlat: {
		Name:         catalog.LayoutFlat,
		Aggregator:   "config/config.php",
		Container:    "config/container.php",
		SourceDir:    "src/App/",
		TemplatesDir: "templates/",
	},
	catalog.LayoutModular: {
		Name:         catalog.LayoutModular,
		Aggregator:   "config/config.php",
		Container:    "config/container.php",
		SourceDir:    "src/App/src/",
		TemplatesDir: "src/App/templates/",
	},
}

// LayoutFor returns the path layout for an install-type code.
func LayoutFor(name catalog.Layout) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown install layout %q", name)
	}
	return l, nil
}

// LayoutForAutoload maps an App psr-4 path back onto its layout.
func LayoutForAutoload(path string) (Layout, bool) {
	for _, l := range layouts {
		if l.SourceDir == path {
			return l, true
		}
	}
	return Layout{}, false
}

// ConfigProvider is the App module's config provider file.
func (l Layout) ConfigProvider() string {
	return l.SourceDir + "ConfigProvider.php"
}

// templatesFromSource is TemplatesDir relative to SourceDir.
func (l Layout) templatesFromSource() string {
	common := commonPrefix(l.SourceDir, l.TemplatesDir)
	up := strings.Repeat("../", strings.Count(strings.TrimPrefix(l.SourceDir, common), "/"))
	return up + strings.TrimPrefix(l.TemplatesDir, common)
}

func commonPrefix(a, b string) string {
	as := strings.SplitAfter(a, "/")
	bs := strings.SplitAfter(b, "/")
	var out strings.Builder
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] || !strings.HasSuffix(as[i], "/") {
			break
		}
		out.WriteString(as[i])
	}
	return out.String()
}
