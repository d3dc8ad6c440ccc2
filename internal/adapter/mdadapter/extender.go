package mdadapter

import (
	"html/template"
	"log/slog"

	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

type VersionResolver interface {
	GetVersion(id string) (*entity.Version, error)
	GetVersions() []*entity.Version
}

type VersionsExtension struct {
	r    VersionResolver
	tmpl *template.Template
	log  *slog.Logger
}

// NewVersionsExtension expands [[id]], [[id|label]] and [[VERSIONS]] with
// the VERSION and VERSIONS templates defined in tmpl.
// An unknown id is rendered as its label and logged.
func NewVersionsExtension(r VersionResolver, tmpl *template.Template, log *slog.Logger) goldmark.Extender {
	return &VersionsExtension{r: r, tmpl: tmpl, log: log}
}

func (e *VersionsExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewVersionDirectiveParser(), 199),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewVersionDirectiveRenderer(e.r, e.tmpl, e.log), 199),
		),
	)
}
