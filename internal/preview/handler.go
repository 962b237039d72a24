package preview

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log"
	"net/http"

	"github.com/geerteltink/mezzio-skeleton/internal/catalog"
	"github.com/geerteltink/mezzio-skeleton/internal/fsops"
)

// HomePage is the data the skeleton's home page shows.
type HomePage struct {
	Welcome       string `json:"welcome"`
	DocsURL       string `json:"docsUrl"`
	ContainerName string `json:"containerName"`
	ContainerDocs string `json:"containerDocs"`
	RouterName    string `json:"routerName"`
	RouterDocs    string `json:"routerDocs"`
	TemplateName  string `json:"templateName,omitempty"`
	TemplateDocs  string `json:"templateDocs,omitempty"`
}

// NewHomePage builds the home page data for an inspected project.
func NewHomePage(p *Project) HomePage {
	hp := HomePage{
		Welcome:       "Congratulations! You have installed the mezzio skeleton application.",
		DocsURL:       "https://docs.mezzio.dev/mezzio/",
		ContainerName: p.Container.Name,
		ContainerDocs: p.Container.Docs,
		RouterName:    p.Router.Name,
		RouterDocs:    p.Router.Docs,
	}
	if p.Renderer != nil {
		hp.TemplateName = p.Renderer.Name
		hp.TemplateDocs = p.Renderer.Docs
	}
	return hp
}

var homePageTmpl = template.Must(template.New("home-page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Home - mezzio</title>
</head>
<body>
<div class="jumbotron">
    <h1>Welcome to <span class="mezzio">mezzio</span></h1>
    <p>{{ .Welcome }}</p>
</div>
<div class="row">
    <div class="col-md-4">
        <h2><a href="{{ .ContainerDocs }}" target="_blank">Get started with {{ .ContainerName }}</a></h2>
    </div>
    <div class="col-md-4">
        <h2><a href="{{ .RouterDocs }}" target="_blank">Routing with {{ .RouterName }}</a></h2>
    </div>
    <div class="col-md-4">
        <h2><a href="{{ .TemplateDocs }}" target="_blank">Templating with {{ .TemplateName }}</a></h2>
    </div>
</div>
</body>
</html>
`))

// Handler serves GET / for one project root.
type Handler struct {
	root    string
	catalog *catalog.Catalog
	fs      fsops.FS
}

// NewHandler creates a home page handler for the project at root.
func NewHandler(root string, cat *catalog.Catalog) *Handler {
	return &Handler{
		root:    root,
		catalog: cat,
		fs:      fsops.NewRealFS(),
	}
}

// ServeHTTP answers the home page: HTML when a renderer is installed,
// JSON otherwise.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	project, err := Inspect(h.fs, h.root, h.catalog)
	if err != nil {
		log.Printf("Preview error: %v", err)
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := NewHomePage(project)
	if project.Renderer == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
		return
	}

	var buf bytes.Buffer
	if err := homePageTmpl.Execute(&buf, page); err != nil {
		log.Printf("Template error: %v", err)
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
