package parsing

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/frustra/bbcode"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns post and forum text into the HTML fragment WordPress stores
// as post content. A Renderer is safe for concurrent use once built.
type Renderer struct {
	dialect config.Dialect

	md        goldmark.Markdown
	bbcode    bbcode.Compiler
	sanitizer *bluemonday.Policy // nil unless sanitizing
}

func NewRenderer(opts config.RenderSettings) *Renderer {
	r := &Renderer{
		dialect: opts.Dialect,
		md:      newMarkdown(opts),
		bbcode:  newBBCodeCompiler(opts.Highlight),
	}
	if opts.Sanitize {
		r.sanitizer = newSanitizer()
	}
	return r
}

// Render converts source text to HTML. It never fails; text the converter
// cannot make sense of comes out as escaped text.
func (r *Renderer) Render(text string) string {
	var out string
	switch r.dialect {
	case config.DialectBBCode:
		out = r.bbcode.Compile(text)
	default:
		out = renderMarkdown(text, r.md)
	}

	if r.sanitizer != nil {
		out = r.sanitizer.Sanitize(out)
	}
	return out
}

func ParseMarkdown(source string, md goldmark.Markdown) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		panic(err)
	}

	return buf.String()
}

func newMarkdown(opts config.RenderSettings) goldmark.Markdown {
	extensions := []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
	}
	if opts.Linkify {
		extensions = append(extensions, linkifyExtension)
	}
	if opts.Highlight {
		extensions = append(extensions, highlightExtension)
	}

	return goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
}

// Raw markup in posts is shown as text, never interpreted.
var escapeMarkup = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var reEscapedQuoteMarker = regexp.MustCompile(`(?m)^&gt;`)

var unwrapParagraphs = strings.NewReplacer(
	"</p>\n<p>", "\n\n",
	"<p>", "",
	"</p>", "",
)

var tightenBlockquotes = strings.NewReplacer(
	"<blockquote>\n", "<blockquote>",
	"\n</blockquote>", "</blockquote>",
)

// WordPress wraps paragraphs itself (wpautop), so paragraph tags are stripped
// and paragraphs are separated by blank lines instead.
func renderMarkdown(text string, md goldmark.Markdown) string {
	source := escapeMarkup.Replace(text)
	// Escaping must not break blockquotes.
	source = reEscapedQuoteMarker.ReplaceAllString(source, ">")

	out := ParseMarkdown(source, md)
	out = unwrapParagraphs.Replace(out)
	out = tightenBlockquotes.Replace(out)
	return strings.TrimRight(out, "\n")
}
