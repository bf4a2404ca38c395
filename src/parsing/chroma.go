package parsing

import (
	"bytes"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/util"
)

// Highlighted code carries chroma's CSS classes; the theme decides colors.
var ChromaOptions = []html.Option{
	html.WithClasses(true),
	html.WithPreWrapper(nopPreWrapper{}),
}

const codeBlockClass = "code"

type nopPreWrapper struct{}

var _ html.PreWrapper = nopPreWrapper{}

func (w nopPreWrapper) Start(code bool, styleAttr string) string {
	return ""
}

func (w nopPreWrapper) End(code bool) string {
	return ""
}

var highlightExtension = highlighting.NewHighlighting(
	highlighting.WithFormatOptions(ChromaOptions...),
	highlighting.WithWrapperRenderer(func(w util.BufWriter, context highlighting.CodeBlockContext, entering bool) {
		if entering {
			w.WriteString(`<pre class="` + codeBlockClass + `">`)
		} else {
			w.WriteString(`</pre>`)
		}
	}),
)

// highlightCode formats code the same way fenced markdown blocks are. An
// empty lang asks chroma to guess.
func highlightCode(code, lang string) (string, error) {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	var result bytes.Buffer
	formatter := html.New(ChromaOptions...)
	if err := formatter.Format(&result, styles.Fallback, iterator); err != nil {
		return "", err
	}
	return result.String(), nil
}
