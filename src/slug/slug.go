package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reDisallowed = regexp.MustCompile(`[^0-9A-Za-z_ \t\n\r\f\v.-]`)
var reSeparators = regexp.MustCompile(`[ \t\n\r\f\v.-]+`)

// Decomposes accented letters and drops whatever is still not ASCII afterwards.
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Normalize turns a title into a URL-safe slug without checking uniqueness.
func Normalize(title string) string {
	folded, _, err := transform.String(asciiFold, title)
	if err != nil {
		// Only possible with invalid UTF-8 at the end of the input; keep the
		// ASCII characters we can see.
		folded = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, title)
	}
	s := reDisallowed.ReplaceAllString(folded, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = reSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Registry hands out slugs that are unique within one conversion run.
type Registry struct {
	issued map[string]struct{}
	logger zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		issued: make(map[string]struct{}),
		logger: logger,
	}
}

// Make normalizes title and appends -2, -3, ... if the result was issued before.
func (r *Registry) Make(title string) string {
	original := Normalize(title)
	slug := original
	for num := 2; r.Issued(slug); num++ {
		slug = original + "-" + strconv.Itoa(num)
	}
	if slug != original {
		r.logger.Info().Str("original", original).Str("slug", slug).Msg("Resolved slug collision")
	}
	r.issued[slug] = struct{}{}
	return slug
}

func (r *Registry) Issued(slug string) bool {
	_, ok := r.issued[slug]
	return ok
}
