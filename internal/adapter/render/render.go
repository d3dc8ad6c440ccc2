package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"text/template"

	_ "embed"

	"github.com/dustin/go-humanize"
	"github.com/jgivc/versiontracker/internal/adapter/mdadapter"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	defaultTitle = "Minecraft Server Versions"
	unknownSize  = "download"
	dateLayout   = "2006-01-02"
)

var (
	//go:embed templates/README.md.tmpl
	defaultReadmeTemplate []byte

	//go:embed templates/description.md
	defaultDescription []byte

	//go:embed templates/page.html
	defaultPageTemplate []byte
)

// Document is one rendered output file.
type Document struct {
	Name    string
	Content []byte
}

type ReadmeContext struct {
	Fingerprint string
	Versions    []*entity.Version
}

type PageContext struct {
	Title       string
	Fingerprint string
	Count       int
	Content     htmltemplate.HTML
}

type Meta struct {
	Title string `yaml:"title"`
}

type Renderer struct {
	fs  afero.Fs
	cfg *config.RendererConfig
	log *slog.Logger
}

func NewRenderer(fs afero.Fs, cfg *config.RendererConfig, log *slog.Logger) *Renderer {
	return &Renderer{
		fs:  fs,
		cfg: cfg,
		log: log.With(slog.String("item", "Renderer")),
	}
}

// Render produces the README and, unless disabled, the HTML page for m.
func (r *Renderer) Render(m *entity.Manifest) ([]Document, error) {
	readme, err := r.renderReadme(m)
	if err != nil {
		return nil, fmt.Errorf("cannot render readme: %w", err)
	}

	docs := []Document{{Name: r.cfg.ReadmeFileName, Content: readme}}

	if !r.cfg.DisablePage && r.cfg.PageFileName != "" {
		page, err := r.renderPage(m)
		if err != nil {
			return nil, fmt.Errorf("cannot render page: %w", err)
		}

		docs = append(docs, Document{Name: r.cfg.PageFileName, Content: page})
	}

	r.log.Info("Rendered", slog.String("fingerprint", m.Fingerprint), slog.Int("versions", len(m.Versions)), slog.Int("documents", len(docs)))

	return docs, nil
}

func (r *Renderer) renderReadme(m *entity.Manifest) ([]byte, error) {
	src, err := r.readOrDefault(r.cfg.ReadmeTemplate, defaultReadmeTemplate)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("readme").Funcs(template.FuncMap(funcMap())).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("cannot parse readme template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, &ReadmeContext{Fingerprint: m.Fingerprint, Versions: m.Versions}); err != nil {
		return nil, fmt.Errorf("cannot execute readme template: %w", err)
	}

	return buf.Bytes(), nil
}

func (r *Renderer) renderPage(m *entity.Manifest) ([]byte, error) {
	desc, err := r.readOrDefault(r.cfg.PageDescription, defaultDescription)
	if err != nil {
		return nil, err
	}

	tmpl, err := htmltemplate.New("page").Funcs(htmltemplate.FuncMap(funcMap())).Parse(string(defaultPageTemplate))
	if err != nil {
		return nil, fmt.Errorf("cannot parse page template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
			mdadapter.NewVersionsExtension(mdadapter.NewVersionResolver(m.Versions), tmpl, r.log),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	pc := parser.NewContext()

	var content bytes.Buffer
	if err := md.Convert(desc, &content, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("cannot convert markdown: %w", err)
	}

	meta := Meta{Title: defaultTitle}
	if fm := frontmatter.Get(pc); fm != nil {
		if err := fm.Decode(&meta); err != nil {
			return nil, fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	var page bytes.Buffer
	if err := tmpl.Execute(&page, &PageContext{
		Title:       meta.Title,
		Fingerprint: m.Fingerprint,
		Count:       len(m.Versions),
		Content:     htmltemplate.HTML(content.String()),
	}); err != nil {
		return nil, fmt.Errorf("cannot execute page template: %w", err)
	}

	return page.Bytes(), nil
}

func (r *Renderer) readOrDefault(fileName string, def []byte) ([]byte, error) {
	if fileName == "" {
		return def, nil
	}

	data, err := afero.ReadFile(r.fs, fileName)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", fileName, err)
	}

	return data, nil
}

func funcMap() map[string]any {
	return map[string]any{
		"size": formatSize,
		"date": formatDate,
	}
}

func formatSize(size *int64) string {
	if size == nil || *size < 0 {
		return unknownSize
	}

	return humanize.Bytes(uint64(*size))
}

func formatDate(v *entity.Version) string {
	t, err := v.ReleasedAt()
	if err != nil {
		return v.ReleaseTime
	}

	return t.UTC().Format(dateLayout)
}
