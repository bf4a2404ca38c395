package parsing

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var reClassNames = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

// newSanitizer allows what forum posts legitimately contain, plus the class
// names highlighted code depends on.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(reClassNames).OnElements("pre", "code", "span")
	p.AllowElements("cite")
	return p
}
