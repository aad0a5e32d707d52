package telegram

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// markdown renders issue Markdown into the HTML subset the gotd HTML parser
// turns into message entities. Tags outside that subset are never emitted.
var markdown = goldmark.New(
	goldmark.WithRenderer(renderer.NewRenderer(
		renderer.WithNodeRenderers(util.Prioritized(entityRenderer{}, 1000)),
	)),
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
)

// messageText is the title in bold, a blank line and the rendered body
func messageText(title, body string) []styling.StyledTextOption {
	return []styling.StyledTextOption{
		styling.Bold(title),
		styling.Plain("\n\n"),
		html.String(nil, renderMarkdown(body)),
	}
}

// plainText is messageText without any body formatting
func plainText(title, body string) []styling.StyledTextOption {
	return []styling.StyledTextOption{
		styling.Bold(title),
		styling.Plain("\n\n" + body),
	}
}

func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		slog.Warn("failed to render markdown, sending it escaped", "error", err)
		return escapeHTML(md)
	}
	return buf.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

type entityRenderer struct{}

func (r entityRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	// blocks
	reg.Register(ast.KindParagraph, r.block("", ""))
	reg.Register(ast.KindTextBlock, r.block("", ""))
	reg.Register(ast.KindHeading, r.block("<b>", "</b>"))
	reg.Register(ast.KindBlockquote, r.block("<blockquote>", "</blockquote>"))
	reg.Register(ast.KindList, r.block("", ""))
	reg.Register(ast.KindListItem, r.renderListItem)
	reg.Register(ast.KindThematicBreak, r.renderThematicBreak)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)

	// inlines
	reg.Register(ast.KindText, r.renderText)
	reg.Register(ast.KindString, r.renderString)
	reg.Register(ast.KindCodeSpan, r.inline("<code>", "</code>"))
	reg.Register(ast.KindEmphasis, r.renderEmphasis)
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
}

// closeBlock separates a block from the next one. Telegram keeps newlines
// as they are, so paragraphs get a blank line and list items a single one.
func closeBlock(w util.BufWriter, n ast.Node) {
	if n.NextSibling() == nil {
		return
	}
	if n.Kind() == ast.KindListItem || n.Parent().Kind() == ast.KindListItem {
		_ = w.WriteByte('\n')
		return
	}
	_, _ = w.WriteString("\n\n")
}

func (r entityRenderer) block(openTag, closeTag string) renderer.NodeRendererFunc {
	return func(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(openTag)
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(closeTag)
		closeBlock(w, n)
		return ast.WalkContinue, nil
	}
}

func (r entityRenderer) inline(openTag, closeTag string) renderer.NodeRendererFunc {
	return func(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(openTag)
		} else {
			_, _ = w.WriteString(closeTag)
		}
		return ast.WalkContinue, nil
	}
}

func (r entityRenderer) renderListItem(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		closeBlock(w, n)
		return ast.WalkContinue, nil
	}

	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindListItem {
			depth++
		}
	}
	_, _ = w.WriteString(strings.Repeat("  ", depth))

	list, ok := n.Parent().(*ast.List)
	if ok && list.IsOrdered() {
		index := list.Start
		for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
			index++
		}
		_, _ = fmt.Fprintf(w, "%d. ", index)
	} else {
		_, _ = w.WriteString("• ")
	}
	return ast.WalkContinue, nil
}

func (r entityRenderer) renderThematicBreak(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("---")
		return ast.WalkContinue, nil
	}
	closeBlock(w, n)
	return ast.WalkContinue, nil
}

func (r entityRenderer) renderCodeBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		closeBlock(w, n)
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString("<pre>")
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		if lang := fenced.Language(source); len(lang) > 0 {
			_, _ = fmt.Fprintf(w, `<code class="language-%s">`, escapeHTML(string(lang)))
		} else {
			_, _ = w.WriteString("<code>")
		}
	} else {
		_, _ = w.WriteString("<code>")
	}

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	_, _ = w.WriteString(escapeHTML(strings.TrimRight(code.String(), "\n")))
	_, _ = w.WriteString("</code></pre>")
	return ast.WalkSkipChildren, nil
}

// renderHTMLBlock shows raw HTML as text
func (r entityRenderer) renderHTMLBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		closeBlock(w, n)
		return ast.WalkContinue, nil
	}

	var raw strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(source))
	}
	if block, ok := n.(*ast.HTMLBlock); ok && block.HasClosure() {
		raw.Write(block.ClosureLine.Value(source))
	}
	_, _ = w.WriteString(escapeHTML(strings.TrimRight(raw.String(), "\n")))
	return ast.WalkSkipChildren, nil
}

func (r entityRenderer) renderText(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	text := n.(*ast.Text)
	value := text.Segment.Value(source)
	if n.Parent().Kind() != ast.KindCodeSpan {
		value = util.UnescapePunctuations(value)
		value = util.ResolveNumericReferences(value)
		value = util.ResolveEntityNames(value)
	}
	_, _ = w.WriteString(escapeHTML(string(value)))

	if text.HardLineBreak() || text.SoftLineBreak() {
		_ = w.WriteByte('\n')
	}
	return ast.WalkContinue, nil
}

func (r entityRenderer) renderString(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(escapeHTML(string(n.(*ast.String).Value)))
	}
	return ast.WalkContinue, nil
}

func (r entityRenderer) renderEmphasis(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	tag := "i"
	if n.(*ast.Emphasis).Level >= 2 {
		tag = "b"
	}
	if entering {
		_, _ = fmt.Fprintf(w, "<%s>", tag)
	} else {
		_, _ = fmt.Fprintf(w, "</%s>", tag)
	}
	return ast.WalkContinue, nil
}

func (r entityRenderer) renderLink(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = fmt.Fprintf(w, `<a href="%s">`, escapeHTML(string(n.(*ast.Link).Destination)))
	} else {
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}

// renderImage links the image under its alt text. The photo itself is
// sent as a separate message.
func (r entityRenderer) renderImage(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	dest := escapeHTML(string(n.(*ast.Image).Destination))
	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}
	_, _ = fmt.Fprintf(w, `<a href="%s">`, dest)
	if n.ChildCount() == 0 {
		_, _ = w.WriteString(dest)
	}
	return ast.WalkContinue, nil
}

func (r entityRenderer) renderAutoLink(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	link := n.(*ast.AutoLink)
	_, _ = fmt.Fprintf(w, `<a href="%s">%s</a>`,
		escapeHTML(string(link.URL(source))),
		escapeHTML(string(link.Label(source))))
	return ast.WalkSkipChildren, nil
}

func (r entityRenderer) renderRawHTML(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	segs := n.(*ast.RawHTML).Segments
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		_, _ = w.WriteString(escapeHTML(string(seg.Value(source))))
	}
	return ast.WalkSkipChildren, nil
}
