// Package sample generates random but well-formed Allura forum exports, for
// trying out the converter without a real project export.
package sample

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	lorem "github.com/HandmadeNetwork/golorem"
	"github.com/fhoech/allura2wpxml/src/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Options struct {
	Project string

	Forums  int
	Threads int // per forum
	Replies int // at most, per thread

	// Percentage of posts that carry attachments.
	AttachmentPercent int

	Seed  int64
	Start time.Time
}

func DefaultOptions() Options {
	return Options{
		Project:           "sample",
		Forums:            3,
		Threads:           5,
		Replies:           8,
		AttachmentPercent: 20,
		Seed:              1,
		Start:             time.Date(2015, time.January, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Generator keeps its own random source for the shape of the export (ids,
// slugs, timestamps, attachments). Prose comes from golorem.
type Generator struct {
	opts Options
	rnd  *rand.Rand
	now  time.Time

	title cases.Caser
}

func NewGenerator(opts Options) *Generator {
	return &Generator{
		opts: opts,
		rnd:  rand.New(rand.NewSource(opts.Seed)),
		now:  opts.Start,

		title: cases.Title(language.English),
	}
}

func (g *Generator) Export() *models.Export {
	export := &models.Export{}
	for i := 0; i < g.opts.Forums; i++ {
		export.Forums = append(export.Forums, g.forum(i))
	}
	return export
}

func (g *Generator) forum(i int) *models.Forum {
	name := g.title.String(lorem.Word(4, 10) + " " + lorem.Word(4, 10))
	f := &models.Forum{
		ID:          g.objectID(),
		Name:        name,
		ShortName:   fmt.Sprintf("forum%d", i+1),
		Description: lorem.Sentence(6, 14),
	}
	for t := 0; t < g.opts.Threads; t++ {
		f.Threads = append(f.Threads, g.thread(f))
	}
	return f
}

func (g *Generator) thread(f *models.Forum) *models.Thread {
	t := &models.Thread{
		ID:      g.hexID(8),
		Subject: strings.TrimSuffix(lorem.Sentence(3, 8), "."),
	}

	opener := g.post(f, t, "")
	t.Posts = append(t.Posts, opener)

	replies := 0
	if g.opts.Replies > 0 {
		replies = g.rnd.Intn(g.opts.Replies + 1)
	}
	for r := 0; r < replies; r++ {
		// Reply to an earlier post, or start a new top-level branch.
		parent := ""
		if g.rnd.Intn(4) > 0 {
			parent = t.Posts[g.rnd.Intn(len(t.Posts))].Slug
		}
		t.Posts = append(t.Posts, g.post(f, t, parent))
	}
	return t
}

func (g *Generator) post(f *models.Forum, t *models.Thread, parentSlug string) *models.Post {
	g.now = g.now.Add(time.Duration(1+g.rnd.Intn(24*60)) * time.Minute).Add(time.Duration(g.rnd.Intn(1000000)) * time.Microsecond)

	segment := g.hexID(4)
	slug := segment
	if parentSlug != "" {
		slug = parentSlug + "/" + segment
	}

	p := &models.Post{
		ID:        t.ID + "." + segment,
		Slug:      slug,
		Subject:   t.Subject,
		Author:    strings.ToLower(lorem.Word(4, 10)),
		Timestamp: g.now.Format("2006-01-02 15:04:05.000000"),
		Text:      g.text(),
	}
	if g.rnd.Intn(5) == 0 {
		edited := g.now.Add(time.Duration(1+g.rnd.Intn(120)) * time.Minute).Format("2006-01-02 15:04:05.000000")
		p.LastEdited = &edited
	}
	if g.opts.AttachmentPercent > 0 && g.rnd.Intn(100) < g.opts.AttachmentPercent {
		n := 1 + g.rnd.Intn(2)
		for a := 0; a < n; a++ {
			p.Attachments = append(p.Attachments, &models.Attachment{
				URL: fmt.Sprintf("https://sourceforge.net/p/%s/discussion/%s/thread/%s/%s/attachment/%s",
					g.opts.Project, f.ShortName, t.ID, segment, g.fileName(a)),
				Bytes: int64(100 + g.rnd.Intn(100000)),
			})
		}
	} else {
		p.Attachments = []*models.Attachment{}
	}
	return p
}

var fileExtensions = []string{"png", "jpg", "txt", "zip", "log"}

func (g *Generator) fileName(n int) string {
	ext := fileExtensions[g.rnd.Intn(len(fileExtensions))]
	if n > 0 {
		return fmt.Sprintf("%s%%20%d.%s", lorem.Word(4, 8), n+1, ext)
	}
	return lorem.Word(4, 8) + "." + ext
}

// Post texts mix plain paragraphs with the markdown the converter handles.
func (g *Generator) text() string {
	var paragraphs []string
	for i := 0; i <= g.rnd.Intn(3); i++ {
		switch g.rnd.Intn(6) {
		case 0:
			paragraphs = append(paragraphs, "> "+lorem.Sentence(4, 12))
		case 1:
			paragraphs = append(paragraphs, "    "+strings.ToLower(lorem.Word(3, 8))+"()")
		case 2:
			paragraphs = append(paragraphs, "* "+lorem.Sentence(2, 6)+"\n* "+lorem.Sentence(2, 6))
		default:
			paragraphs = append(paragraphs, lorem.Paragraph(1, 3))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func (g *Generator) hexID(bytes int) string {
	b := make([]byte, bytes)
	g.rnd.Read(b)
	return fmt.Sprintf("%x", b)
}

// Allura ids are MongoDB object ids: 12 bytes, hex encoded.
func (g *Generator) objectID() string {
	return g.hexID(12)
}
