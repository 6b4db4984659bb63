package pipeline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New().Parser()

// firstFencedBlock returns the contents of the first fenced code block in
// src. An unterminated fence runs to the end of the input.
func firstFencedBlock(src []byte) (string, bool) {
	doc := markdownParser.Parse(text.NewReader(src))

	var (
		out   bytes.Buffer
		found bool
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		writeLines(&out, block, src)
		found = true
		return ast.WalkStop, nil
	})
	return out.String(), found
}

// trimFence removes a leading ``` or ```json and a trailing ```, for
// replies whose fences share a line with the payload.
func trimFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// flattenMarkdown renders markdown as plain text: inline markup is dropped,
// code is kept verbatim and blocks are separated by newlines.
func flattenMarkdown(src []byte) string {
	doc := markdownParser.Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				var buf bytes.Buffer
				writeLines(&buf, n, src)
				b.Write(buf.Bytes())
				return ast.WalkSkipChildren, nil
			}
			b.WriteByte('\n')
		default:
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func writeLines(buf *bytes.Buffer, n ast.Node, src []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
}

// normalizeSpace collapses every whitespace run to a single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
