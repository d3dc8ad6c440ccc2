package mdadapter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/jgivc/versiontracker/internal/entity"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

const (
	TmplNameVersion  = "VERSION"
	TmplNameVersions = "VERSIONS"
)

// VersionLink is the data of the VERSION template.
type VersionLink struct {
	Label string
	*entity.Version
}

type VersionDirectiveRenderer struct {
	r    VersionResolver
	tmpl *template.Template
	log  *slog.Logger
}

func NewVersionDirectiveRenderer(r VersionResolver, tmpl *template.Template, log *slog.Logger) renderer.NodeRenderer {
	return &VersionDirectiveRenderer{
		r:    r,
		tmpl: tmpl,
		log:  log.With(slog.String("item", "VersionDirectiveRenderer")),
	}
}

func (r *VersionDirectiveRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindVersionDirective, r.renderVersionDirective)
}

func (r *VersionDirectiveRenderer) renderVersionDirective(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	directive, ok := n.(*VersionDirective)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *VersionDirective", n)
	}

	if directive.AllVersions {
		data, err := r.renderTemplate(TmplNameVersions, r.r.GetVersions())
		if err != nil {
			return ast.WalkStop, err
		}

		w.Write(data)

		return ast.WalkContinue, nil
	}

	label := directive.Label
	if label == "" {
		label = directive.VersionID
	}

	// A version skipped by this run keeps its text so the page still renders.
	v, err := r.r.GetVersion(directive.VersionID)
	if err != nil {
		r.log.Warn("Version not found, rendering as text", slog.String("id", directive.VersionID), slog.Any("error", err))
		w.WriteString(template.HTMLEscapeString(label))

		return ast.WalkContinue, nil
	}

	data, err := r.renderTemplate(TmplNameVersion, &VersionLink{Label: label, Version: v})
	if err != nil {
		return ast.WalkStop, err
	}

	w.Write(data)

	return ast.WalkContinue, nil
}

func (r *VersionDirectiveRenderer) renderTemplate(tmplName string, data any) ([]byte, error) {
	tmpl := r.tmpl.Lookup(tmplName)
	if tmpl == nil {
		return nil, fmt.Errorf("template with name %s must be defined", tmplName)
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}
