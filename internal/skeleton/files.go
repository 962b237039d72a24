package skeleton

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
)

// homePages maps a renderer slug to its skeleton source and the name of the
// home page template under the layout's template root.
var homePages = map[string]struct {
	source string
	target string
}{
	"plates":       {source: "templates/plates-home-page.phtml", target: "app/home-page.phtml"},
	"twig":         {source: "templates/twig-home-page.html.twig", target: "app/home-page.html.twig"},
	"laminas-view": {source: "templates/laminas-view-home-page.phtml", target: "app/home-page.phtml"},
}

// DevelopmentConfig is the development-mode config written for Whoops.
const DevelopmentConfig = "config/autoload/development.local.php.dist"

// HomePageTemplate returns the home page template path a renderer option
// installs under l, or false if the option installs none.
func HomePageTemplate(l Layout, renderer catalog.Option) (string, bool) {
	hp, ok := homePages[renderer.Slug]
	if !ok {
		return "", false
	}
	return l.TemplatesDir + hp.target, true
}

// FilesFor returns the files an answer writes under layout l.
// For the install-type question l must be the layout being chosen.
func FilesFor(l Layout, question catalog.QuestionID, opt catalog.Option) ([]File, error) {
	if opt.IsNone() {
		return nil, nil
	}

	switch question {
	case catalog.QuestionInstallType:
		content, err := renderConfigProvider(l)
		if err != nil {
			return nil, err
		}
		return []File{{Path: l.ConfigProvider(), Content: content}}, nil

	case catalog.QuestionContainer:
		content, err := readFile("containers/" + opt.Slug + ".php")
		if err != nil {
			return nil, err
		}
		return []File{{Path: l.Container, Content: content}}, nil

	case catalog.QuestionTemplateEngine:
		hp, ok := homePages[opt.Slug]
		if !ok {
			return nil, fmt.Errorf("no home page template for renderer %q", opt.Slug)
		}
		content, err := readFile(hp.source)
		if err != nil {
			return nil, err
		}
		return []File{{Path: l.TemplatesDir + hp.target, Content: content}}, nil

	case catalog.QuestionErrorHandler:
		content, err := readFile("app/development.local.php.dist")
		if err != nil {
			return nil, err
		}
		return []File{{Path: DevelopmentConfig, Content: content}}, nil
	}

	return nil, nil
}

var configProviderTmpl = template.Must(template.ParseFS(filesFS, "files/app/ConfigProvider.php.tmpl"))

func renderConfigProvider(l Layout) ([]byte, error) {
	data := struct {
		Namespace           string
		TemplatesFromSource string
	}{
		Namespace:           "App",
		TemplatesFromSource: l.templatesFromSource(),
	}

	var buf bytes.Buffer
	if err := configProviderTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render App config provider: %w", err)
	}
	return buf.Bytes(), nil
}
