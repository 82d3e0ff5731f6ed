package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"chillerdash/domain/core"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates static content
var embeddedFiles embed.FS

// Renderer executes the embedded page and fragment templates
type Renderer struct {
	templates *template.Template
	static    fs.FS
	versions  map[string]string // static path -> content hash
	printer   *message.Printer
}

// NewRenderer parses the embedded templates and fingerprints the static assets
func NewRenderer() (*Renderer, error) {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}

	r := &Renderer{
		static:   staticFS,
		versions: make(map[string]string),
		printer:  message.NewPrinter(language.English),
	}

	err = fs.WalkDir(staticFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := fs.ReadFile(staticFS, p)
		if err != nil {
			return err
		}
		r.versions[p] = core.NewHash(content).Short()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint static assets: %w", err)
	}

	funcMap := template.FuncMap{
		"static":   r.StaticPath,
		"kb":       func(size int64) string { return fmt.Sprintf("%.2f KB", float64(size)/1024) },
		"comma":    func(n int) string { return r.printer.Sprintf("%d", n) },
		"fmtFloat": func(v float64) string { return r.printer.Sprintf("%.2f", v) },
		"markdown": renderMarkdown,
	}

	r.templates, err = template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return r, nil
}

// StaticPath returns the URL of a static asset with a cache-busting version
func (r *Renderer) StaticPath(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	url := "/static/" + p
	if v, ok := r.versions[p]; ok {
		url += "?v=" + v
	}
	return url
}

// Static exposes the embedded static directory
func (r *Renderer) Static() fs.FS {
	return r.static
}

// Render executes a template into w. Output is buffered so a failing template
// never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// renderMarkdown turns trusted embedded markdown into HTML
func renderMarkdown(source string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return template.HTML(markdown.ToHTML([]byte(source), p, renderer))
}

// troubleshooting returns the embedded upload troubleshooting tips
func troubleshooting() string {
	content, err := embeddedFiles.ReadFile("content/troubleshooting.md")
	if err != nil {
		return ""
	}
	return string(content)
}
