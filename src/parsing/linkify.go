package parsing

import (
	"regexp"

	"github.com/yuin/goldmark/extension"
	"mvdan.cc/xurls/v2"
)

// goldmark matches at the current position, so the pattern is anchored.
var reLinkifyURL = regexp.MustCompile(`^(?:` + xurls.Strict().String() + `)`)

var linkifyExtension = extension.NewLinkify(
	extension.WithLinkifyAllowedProtocols([][]byte{
		[]byte("http:"),
		[]byte("https:"),
		[]byte("ftp:"),
		[]byte("mailto:"),
	}),
	extension.WithLinkifyURLRegexp(reLinkifyURL),
)
