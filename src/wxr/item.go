package wxr

import (
	"regexp"
	"strconv"
	"time"

	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/slug"
	"github.com/fhoech/allura2wpxml/src/utils"
	"github.com/fhoech/allura2wpxml/src/wpurl"
)

type PostType string

const (
	PostTypeForum      PostType = "forum"
	PostTypeTopic      PostType = "topic"
	PostTypeReply      PostType = "reply"
	PostTypeAttachment PostType = "attachment"
)

const (
	StatusPublish = "publish"
	StatusInherit = "inherit"

	Open   = "open"
	Closed = "closed"
)

const (
	postDateLayout = models.TimestampLayout
	pubDateLayout  = "Mon, 02 Jan 2006 15:04:05 +0000"
)

// Item is one <item> of a WXR document. Everything except Meta is set by the
// Builder and not touched afterwards.
type Item struct {
	ID       int
	PostType PostType
	Title    string
	Link     string
	GUID     string
	Date     time.Time // in the run's time zone
	Creator  string
	Slug     string

	Content string
	Excerpt string

	Status        string
	CommentStatus string
	PingStatus    string
	ParentID      int
	MenuOrder     int
	Password      string
	Sticky        bool

	AttachmentURL string

	Meta *Meta
}

func (i *Item) PostDate() string {
	return i.Date.Format(postDateLayout)
}

func (i *Item) PostDateGMT() string {
	return i.Date.UTC().Format(postDateLayout)
}

func (i *Item) PubDate() string {
	return i.Date.UTC().Format(pubDateLayout)
}

func (i *Item) IsAttachment() bool {
	return i.PostType == PostTypeAttachment
}

type ItemParams struct {
	Parent *Item // nil for top-level items
	Key    any   // allocator key

	PostType PostType
	Template wpurl.Template
	Title    string

	// YYYY-MM-DD HH:MM:SS[.ffffff] in the run's time zone. Empty means the
	// run clock.
	Timestamp string
	Creator   string

	GUID string // defaults to the link
	Slug string // defaults to a slug of the title, or the id

	Content string
	Excerpt string

	Status        string // defaults to "publish"
	CommentStatus string // defaults to "open"
	PingStatus    string // defaults to "open"
	MenuOrder     int
	Password      string
	Sticky        bool

	AttachmentURL string
}

// XML 1.0 forbids these even when escaped.
var reControlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]+`)

func StripControlChars(s string) string {
	return reControlChars.ReplaceAllString(s, "")
}

// Builder turns ItemParams into Items for one conversion run.
type Builder struct {
	BaseUrl  string
	Location *time.Location
	Clock    time.Time // date of items without a timestamp

	ids   *Allocator
	slugs *slug.Registry
}

func NewBuilder(baseUrl string, loc *time.Location, clock time.Time, ids *Allocator, slugs *slug.Registry) *Builder {
	return &Builder{
		BaseUrl:  baseUrl,
		Location: loc,
		Clock:    clock.In(loc),
		ids:      ids,
		slugs:    slugs,
	}
}

func (b *Builder) Build(p ItemParams) (*Item, error) {
	date := b.Clock
	if p.Timestamp != "" {
		var err error
		date, err = models.ParseTimestamp(p.Timestamp, b.Location)
		if err != nil {
			return nil, oops.Input(err, "bad timestamp for %s %q", p.PostType, p.Title)
		}
	}

	id := b.ids.ID(p.Key)

	postName := p.Slug
	if postName == "" {
		// Titles without a single ASCII letter or digit would make empty
		// slugs. The id is unique already and is not registered.
		if slug.Normalize(p.Title) == "" {
			postName = strconv.Itoa(id)
		} else {
			postName = b.slugs.Make(p.Title)
		}
	}

	link := wpurl.Build(p.Template, wpurl.Params{
		BaseUrl:       b.BaseUrl,
		PostType:      string(p.PostType),
		ID:            id,
		PostName:      postName,
		AttachmentUrl: p.AttachmentURL,
	})

	parentID := 0
	if p.Parent != nil {
		parentID = p.Parent.ID
	}

	return &Item{
		ID:       id,
		PostType: p.PostType,
		Title:    StripControlChars(p.Title),
		Link:     link,
		GUID:     utils.OrDefault(p.GUID, link),
		Date:     date,
		Creator:  p.Creator,
		Slug:     postName,

		Content: StripControlChars(p.Content),
		Excerpt: StripControlChars(p.Excerpt),

		Status:        utils.OrDefault(p.Status, StatusPublish),
		CommentStatus: utils.OrDefault(p.CommentStatus, Open),
		PingStatus:    utils.OrDefault(p.PingStatus, Open),
		ParentID:      parentID,
		MenuOrder:     p.MenuOrder,
		Password:      p.Password,
		Sticky:        p.Sticky,

		AttachmentURL: p.AttachmentURL,

		Meta: NewMeta(),
	}, nil
}
