package wxr

import (
	"bufio"
	_ "embed"
	"io"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/fhoech/allura2wpxml/src/oops"
)

//go:embed wxr.xml.tmpl
var documentSource string

var documentTemplate = template.Must(
	template.New("wxr").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{
			"esc":   EscapeText,
			"cdata": CDATA,
		}).
		Parse(documentSource),
)

var escapeText = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func EscapeText(s string) string {
	return escapeText.Replace(s)
}

// CDATA wraps s in a CDATA section. A "]]>" inside s is split across two
// sections. The empty string stays empty.
func CDATA(s string) string {
	if s == "" {
		return ""
	}
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

// WriteDocument writes a complete WXR 1.2 document containing items, in order.
func WriteDocument(w io.Writer, items []*Item) error {
	bw := bufio.NewWriter(w)
	err := documentTemplate.Execute(bw, struct {
		Items []*Item
	}{
		Items: items,
	})
	if err != nil {
		return oops.New(err, "failed to render WXR document")
	}
	if err := bw.Flush(); err != nil {
		return oops.New(err, "failed to write WXR document")
	}
	return nil
}
