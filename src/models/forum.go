package models

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/fhoech/allura2wpxml/src/oops"
)

// Layout of every timestamp in an Allura export. Fractional seconds, if
// present, are cut off before parsing.
const TimestampLayout = "2006-01-02 15:04:05"

// Export is the part of an Allura forum export this tool understands. Other
// top-level keys are ignored.
type Export struct {
	Forums []*Forum `json:"forums"`
}

type Forum struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	ShortName   string `json:"shortname"`
	Description string `json:"description"`

	Threads []*Thread `json:"threads"`
}

type Thread struct {
	ID      string `json:"_id"`
	Subject string `json:"subject"`

	// Storage order, not reply order. Posts[0] opens the topic.
	Posts []*Post `json:"posts"`
}

type Post struct {
	ID         string  `json:"_id"`
	Slug       string  `json:"slug"` // ancestors' slugs joined by "/"
	Subject    string  `json:"subject"`
	Author     string  `json:"author"`
	Timestamp  string  `json:"timestamp"`
	LastEdited *string `json:"last_edited"`
	Text       string  `json:"text"`

	Attachments []*Attachment `json:"attachments"`
}

type Attachment struct {
	URL   string `json:"url"`
	Bytes int64  `json:"bytes"`
}

// ParentSlug is the slug path without its last segment, or "" for a top-level post.
func (p *Post) ParentSlug() string {
	i := strings.LastIndexByte(p.Slug, '/')
	if i < 0 {
		return ""
	}
	return p.Slug[:i]
}

func (p *Post) IsEdited() bool {
	return p.LastEdited != nil && *p.LastEdited != ""
}

// LastPost is the post whose timestamp decides whether a thread is in the
// configured date range.
func (t *Thread) LastPost() *Post {
	if len(t.Posts) == 0 {
		return nil
	}
	return t.Posts[len(t.Posts)-1]
}

// DecodeExport reads a whole export document. The "forums" key is required.
func DecodeExport(r io.Reader) (*Export, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, oops.New(err, "failed to read export")
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, oops.Input(err, "export is not a JSON object")
	}
	rawForums, ok := root["forums"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawForums), []byte("null")) {
		return nil, oops.Input(nil, `export has no "forums" list`)
	}

	var export Export
	if err := json.Unmarshal(rawForums, &export.Forums); err != nil {
		return nil, oops.Input(err, `malformed "forums" list`)
	}
	for i, forum := range export.Forums {
		if forum == nil {
			return nil, oops.Input(nil, "forum #%d is null", i)
		}
		for j, thread := range forum.Threads {
			if thread == nil {
				return nil, oops.Input(nil, "thread #%d of forum %s is null", j, forum.ID)
			}
			for k, post := range thread.Posts {
				if post == nil {
					return nil, oops.Input(nil, "post #%d of thread %s is null", k, thread.ID)
				}
				for l, attachment := range post.Attachments {
					if attachment == nil {
						return nil, oops.Input(nil, "attachment #%d of post %s is null", l, post.Slug)
					}
				}
			}
		}
	}

	return &export, nil
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS[.ffffff]" as a wall time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = TruncateTimestamp(s)
	t, err := time.ParseInLocation(TimestampLayout, s, loc)
	if err != nil {
		return time.Time{}, oops.Input(err, "malformed timestamp %q", s)
	}
	return t, nil
}

// TruncateTimestamp drops fractional seconds without parsing.
func TruncateTimestamp(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}
