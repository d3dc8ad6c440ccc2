package mdadapter

import (
	"github.com/yuin/goldmark/ast"
)

var KindVersionDirective = ast.NewNodeKind("VersionDirective")

type VersionDirective struct {
	ast.BaseInline
	VersionID   string
	Label       string
	AllVersions bool
}

func (n *VersionDirective) Kind() ast.NodeKind {
	return KindVersionDirective
}

func (n *VersionDirective) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"VersionID": n.VersionID,
		"Label":     n.Label,
	}, nil)
}
