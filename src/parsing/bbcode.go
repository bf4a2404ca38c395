package parsing

import (
	"github.com/fhoech/allura2wpxml/src/logging"
	"github.com/frustra/bbcode"
)

// newBBCodeCompiler builds a compiler for forums whose posts were written in
// BBCode. Besides frustra's built-in tags it knows headings, lists, tables
// and a code tag that keeps line breaks.
func newBBCodeCompiler(highlight bool) bbcode.Compiler {
	compiler := bbcode.NewCompiler(false, false)

	type attr struct {
		Name, Value string
	}

	addSimpleTag := func(name, tag string, notext bool, attrs ...attr) {
		compiler.SetTag(name, func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
			if notext {
				var newChildren []*bbcode.BBCodeNode
				for _, child := range bn.Children {
					if child.ID != bbcode.TEXT {
						newChildren = append(newChildren, child)
					}
				}
				bn.Children = newChildren
			}

			out := bbcode.NewHTMLTag("")
			out.Name = tag
			for _, a := range attrs {
				out.Attrs[a.Name] = a.Value
			}
			return out, true
		})
	}

	addSimpleTag("h1", "h1", false)
	addSimpleTag("h2", "h2", false)
	addSimpleTag("h3", "h3", false)
	addSimpleTag("m", "code", false)
	addSimpleTag("ol", "ol", true)
	addSimpleTag("ul", "ul", true)
	addSimpleTag("li", "li", false)
	addSimpleTag("table", "table", true)
	addSimpleTag("tr", "tr", true)
	addSimpleTag("th", "th", false)
	addSimpleTag("td", "td", false)

	compiler.SetTag("quote", func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		out := bbcode.NewHTMLTag("")
		out.Name = "blockquote"

		if who := bn.GetOpeningTag().Value; who != "" {
			cite := bbcode.NewHTMLTag("")
			cite.Name = "cite"
			cite.AppendChild(bbcode.NewHTMLTag(who))
			out.AppendChild(cite)
		}

		return out, true
	})

	compiler.SetTag("code", func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		lang := ""
		if tagvalue := bn.GetOpeningTag().Value; tagvalue != "" {
			lang = tagvalue
		} else if arglang, ok := bn.GetOpeningTag().Args["language"]; ok {
			lang = arglang
		}

		text := bbcode.CompileText(bn)

		out := bbcode.NewHTMLTag("")
		out.Name = "pre"
		out.Attrs["class"] = codeBlockClass

		if highlight {
			formatted, err := highlightCode(text, lang)
			if err == nil {
				child := bbcode.NewHTMLTag(formatted)
				child.Raw = true
				out.AppendChild(child)
				return out, false
			}
			logging.Warn().Err(err).Str("language", lang).Msg("failed to highlight code, leaving it plain")
		}

		// Escaped, but unlike ordinary text without <br> for each newline.
		child := bbcode.NewHTMLTag(escapeMarkup.Replace(text))
		child.Raw = true
		out.AppendChild(child)
		return out, false
	})

	return compiler
}
