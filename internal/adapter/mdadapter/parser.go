package mdadapter

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	startSeq    = []byte{'[', '['}
	endSeq      = []byte{']', ']'}
	labelSeq    = []byte{'|'}
	allVersions = []byte("VERSIONS")
)

/*
 * Wiki link
 * [[1.20.1]]
 * [[1.20.1|Trails & Tales]]
 * [[VERSIONS]] - all versions
 */
type VersionDirectiveParser struct{}

func NewVersionDirectiveParser() parser.InlineParser {
	return &VersionDirectiveParser{}
}

func (s *VersionDirectiveParser) Trigger() []byte {
	return []byte{'['}
}

func (s *VersionDirectiveParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	b, _ := block.PeekLine()
	if !bytes.HasPrefix(b, startSeq) {
		return nil
	}

	end := bytes.Index(b, endSeq)
	if end < 0 {
		return nil
	}

	line := bytes.TrimSpace(b[len(startSeq):end])
	if len(line) == 0 {
		return nil
	}

	block.Advance(end + len(endSeq))

	if bytes.Equal(line, allVersions) {
		return &VersionDirective{AllVersions: true}
	}

	if id, label, found := bytes.Cut(line, labelSeq); found {
		return &VersionDirective{
			VersionID: string(bytes.TrimSpace(id)),
			Label:     string(bytes.TrimSpace(label)),
		}
	}

	return &VersionDirective{
		VersionID: string(line),
	}
}
