package parsing

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var markdownRenderer = NewRenderer(config.RenderSettings{Dialect: config.DialectMarkdown})

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestMarkdown(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"single paragraph", "hello", "hello"},
		{"paragraphs", "first\n\nsecond", "first\n\nsecond"},
		{"emphasis", "*very* **important**", "<em>very</em> <strong>important</strong>"},
		{"hard line break", "one  \ntwo", "one<br />\ntwo"},
		{"markup is escaped", "<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"ampersands", "Tom & Jerry", "Tom &amp; Jerry"},
		{"blockquote", "> quoted\n\nafter", "<blockquote>quoted</blockquote>\nafter"},
		{"strikethrough", "~~gone~~", "<del>gone</del>"},
		{"bare urls stay text", "see https://example.com/", "see https://example.com/"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, markdownRenderer.Render(c.input))
		})
	}

	t.Run("nested blockquote marker is only unescaped once", func(t *testing.T) {
		html := markdownRenderer.Render(">> deeper")
		doc := parseHTML(t, html)
		assert.Equal(t, 1, doc.Find("blockquote").Length())
		assert.Equal(t, "> deeper", doc.Find("blockquote").Text())
	})
	t.Run("tables", func(t *testing.T) {
		html := markdownRenderer.Render("| a | b |\n|---|---|\n| 1 | 2 |")
		doc := parseHTML(t, html)
		assert.Equal(t, 2, doc.Find("table td").Length())
		assert.Equal(t, "a", doc.Find("table th").First().Text())
	})
	t.Run("no trailing newline", func(t *testing.T) {
		html := markdownRenderer.Render("    indented code\n")
		assert.False(t, strings.HasSuffix(html, "\n"))
		assert.Contains(t, html, "<pre><code>indented code")
	})
}

func TestLinkify(t *testing.T) {
	r := NewRenderer(config.RenderSettings{Dialect: config.DialectMarkdown, Linkify: true})
	doc := parseHTML(t, r.Render("see https://example.com/x for details"))
	href, ok := doc.Find("a").Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/x", href)
}

func TestHighlight(t *testing.T) {
	t.Run("fenced code with language", func(t *testing.T) {
		r := NewRenderer(config.RenderSettings{Dialect: config.DialectMarkdown, Highlight: true})
		html := r.Render("```go\nfunc main() {\n\tfmt.Println(\"Hello, world!\")\n}\n```")
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, `class="code"`)
		assert.Contains(t, html, "Println")
	})
	t.Run("off by default", func(t *testing.T) {
		html := markdownRenderer.Render("```go\nfunc main() {}\n```")
		assert.Contains(t, html, `<pre><code class="language-go">`)
	})
}

func TestBBCode(t *testing.T) {
	r := NewRenderer(config.RenderSettings{Dialect: config.DialectBBCode})

	t.Run("inline tags", func(t *testing.T) {
		assert.Contains(t, r.Render("[b]bold[/b]"), "<b>bold</b>")
	})
	t.Run("markup is escaped", func(t *testing.T) {
		assert.NotContains(t, r.Render("<script>alert(1)</script>"), "<script>")
	})
	t.Run("quote with author", func(t *testing.T) {
		doc := parseHTML(t, r.Render("[quote=alice]hi there[/quote]"))
		assert.Equal(t, "alice", doc.Find("blockquote cite").Text())
		assert.Contains(t, doc.Find("blockquote").Text(), "hi there")
	})
	t.Run("multiline code", func(t *testing.T) {
		html := r.Render("[code]\nMultiline code\n\twith an indent\n[/code]")
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, `class="code"`)
		assert.Contains(t, html, "Multiline code\n\twith an indent")
		assert.NotContains(t, html, "<br")
	})
	t.Run("highlighted code", func(t *testing.T) {
		r := NewRenderer(config.RenderSettings{Dialect: config.DialectBBCode, Highlight: true})
		html := r.Render("[code language=go]\nfunc main() {\n\tfmt.Println(\"Hello, world!\")\n}\n[/code]")
		t.Log(html)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, "Println")
		assert.Contains(t, html, "<span")
	})
}

func TestSanitize(t *testing.T) {
	t.Run("drops script urls", func(t *testing.T) {
		r := NewRenderer(config.RenderSettings{Dialect: config.DialectBBCode, Sanitize: true})
		assert.NotContains(t, r.Render("[url=javascript:alert(1)]click[/url]"), "javascript:")
	})
	t.Run("keeps highlighting classes", func(t *testing.T) {
		r := NewRenderer(config.RenderSettings{Dialect: config.DialectMarkdown, Highlight: true, Sanitize: true})
		doc := parseHTML(t, r.Render("```go\nfunc main() {}\n```"))
		assert.True(t, doc.Find("pre").HasClass("code"))
		assert.NotZero(t, doc.Find("pre span[class]").Length())
	})
}

func TestPostContent(t *testing.T) {
	edited := "2015-08-13 11:00:00.5"
	post := &models.Post{Author: "janedoe", Text: "hey", LastEdited: &edited}

	content := markdownRenderer.PostContent(post, "reply")
	assert.True(t, strings.HasPrefix(content, "hey\n<ul class=\"bbp-reply-revision-log\">"))
	assert.Contains(t, content, "\t\tThis reply was modified on 2015-08-13 11:00:00 by janedoe.\n")
	assert.True(t, strings.HasSuffix(content, "</ul>"))

	post.LastEdited = nil
	assert.Equal(t, "hey", markdownRenderer.PostContent(post, "topic"))

	empty := ""
	post.LastEdited = &empty
	assert.Equal(t, "hey", markdownRenderer.PostContent(post, "topic"))
}
