// Package render turns document bodies into HTML and executes page layouts.
//
// Raw HTML inside Markdown is escaped and shown as text unless the document
// sets raw_html: true or the site enables markup.raw_html. Body directives
// ({{< name >}}) are expanded around the Markdown conversion.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	escapingMarkdown    = newMarkdown(false)
	passthroughMarkdown = newMarkdown(true)
)

func newMarkdown(allowRaw bool) goldmark.Markdown {
	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	var rendererOpts []renderer.Option
	if allowRaw {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	} else {
		parserOpts = append(parserOpts, parser.WithASTTransformers(util.Prioritized(rawHTMLEscaper{}, 100)))
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(util.Prioritized(escapedHTMLRenderer{}, 500)))
	}
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// Markdown converts a body to HTML. The input is normalised first.
func Markdown(src []byte, allowRaw bool) ([]byte, error) {
	md := escapingMarkdown
	if allowRaw {
		md = passthroughMarkdown
	}
	var buf bytes.Buffer
	if err := md.Convert(Normalize(src), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	kindEscapedHTML      = ast.NewNodeKind("EscapedHTML")
	kindEscapedHTMLBlock = ast.NewNodeKind("EscapedHTMLBlock")
)

// escapedHTML replaces an inline raw HTML node.
type escapedHTML struct {
	ast.BaseInline
	raw []byte
}

func (n *escapedHTML) Kind() ast.NodeKind { return kindEscapedHTML }

func (n *escapedHTML) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Raw": string(n.raw)}, nil)
}

// escapedHTMLBlock replaces a raw HTML block.
type escapedHTMLBlock struct {
	ast.BaseBlock
	raw []byte
}

func (n *escapedHTMLBlock) Kind() ast.NodeKind { return kindEscapedHTMLBlock }

func (n *escapedHTMLBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Raw": string(n.raw)}, nil)
}

// rawHTMLEscaper swaps raw HTML nodes for nodes that render their source
// as escaped text.
type rawHTMLEscaper struct{}

func (rawHTMLEscaper) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var targets []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindRawHTML, ast.KindHTMLBlock:
			targets = append(targets, n)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, n := range targets {
		parent := n.Parent()
		if parent == nil {
			continue
		}
		var buf bytes.Buffer
		switch node := n.(type) {
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(source))
			}
			parent.ReplaceChild(parent, node, &escapedHTML{raw: buf.Bytes()})
		case *ast.HTMLBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(source))
			}
			parent.ReplaceChild(parent, node, &escapedHTMLBlock{raw: buf.Bytes()})
		}
	}
}

type escapedHTMLRenderer struct{}

func (r escapedHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindEscapedHTML, r.renderInline)
	reg.Register(kindEscapedHTMLBlock, r.renderBlock)
}

func (escapedHTMLRenderer) renderInline(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.Write(util.EscapeHTML(n.(*escapedHTML).raw))
	}
	return ast.WalkContinue, nil
}

func (escapedHTMLRenderer) renderBlock(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		raw := bytes.TrimRight(n.(*escapedHTMLBlock).raw, "\n")
		_, _ = w.WriteString("<p>")
		_, _ = w.Write(util.EscapeHTML(raw))
		_, _ = w.WriteString("</p>\n")
	}
	return ast.WalkContinue, nil
}
