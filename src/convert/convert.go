package convert

import (
	"time"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/parsing"
	"github.com/fhoech/allura2wpxml/src/slug"
	"github.com/fhoech/allura2wpxml/src/wpurl"
	"github.com/fhoech/allura2wpxml/src/wxr"
	"github.com/rs/zerolog"
)

// Summary counts what a run produced and what it left out.
type Summary struct {
	Forums      int
	Topics      int
	Replies     int
	Attachments int

	EmptyThreads         int
	OutOfRangeThreads    int
	DanglingReplies      int
	DuplicateSlugs       int
	DuplicateAttachments int
}

var _ zerolog.LogObjectMarshaler = Summary{}

func (s Summary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("forums", s.Forums).
		Int("topics", s.Topics).
		Int("replies", s.Replies).
		Int("attachments", s.Attachments).
		Int("emptyThreads", s.EmptyThreads).
		Int("outOfRangeThreads", s.OutOfRangeThreads).
		Int("danglingReplies", s.DanglingReplies).
		Int("duplicateSlugs", s.DuplicateSlugs).
		Int("duplicateAttachments", s.DuplicateAttachments)
}

// Run holds everything one conversion needs: the id allocator, the slug
// registry, the renderer and the items produced so far. A Run converts one
// export and must not be shared between goroutines.
type Run struct {
	Settings config.Settings
	Clock    time.Time

	logger   zerolog.Logger
	ids      *wxr.Allocator
	slugs    *slug.Registry
	renderer *parsing.Renderer
	builder  *wxr.Builder

	items   []*wxr.Item
	summary Summary
}

// NewRun prepares a conversion. Items without a source timestamp (forums) are
// dated with settings.Now if set, otherwise with wallClock.
func NewRun(settings config.Settings, wallClock time.Time, logger zerolog.Logger) *Run {
	clock := wallClock
	if !settings.Now.IsZero() {
		clock = settings.Now
	}

	ids := wxr.NewAllocator(settings.StartID)
	slugs := slug.NewRegistry(logger)

	return &Run{
		Settings: settings,
		Clock:    clock,

		logger:   logger,
		ids:      ids,
		slugs:    slugs,
		renderer: parsing.NewRenderer(settings.Render),
		builder:  wxr.NewBuilder(settings.BaseUrl, settings.Location, clock, ids, slugs),
	}
}

// Convert walks the export once and returns every item in document order:
// each forum, then for each of its threads the topic, the topic's
// attachments, and each reply followed by its attachments.
func (r *Run) Convert(export *models.Export) ([]*wxr.Item, error) {
	for _, forum := range export.Forums {
		if err := r.convertForum(forum); err != nil {
			return nil, err
		}
	}
	return r.items, nil
}

func (r *Run) Summary() Summary {
	return r.summary
}

func (r *Run) emit(item *wxr.Item) {
	r.items = append(r.items, item)
}

func (r *Run) convertForum(forum *models.Forum) error {
	forumItem, err := r.builder.Build(wxr.ItemParams{
		Key:           forum.ID,
		PostType:      wxr.PostTypeForum,
		Template:      wpurl.Forum,
		Title:         forum.Name,
		Creator:       r.Settings.Creator,
		Content:       r.renderer.Render(forum.Description),
		CommentStatus: wxr.Closed,
	})
	if err != nil {
		return err
	}
	r.emit(forumItem)
	r.summary.Forums++

	stats := newForumStats(r.Settings.Location)
	for _, thread := range forum.Threads {
		if err := r.convertThread(forumItem, thread, stats); err != nil {
			return oops.New(err, "failed to convert thread %s of forum %s", thread.ID, forum.ID)
		}
	}
	stats.writeMeta(forumItem)

	return nil
}

func (r *Run) convertThread(forumItem *wxr.Item, thread *models.Thread, forumStats *forumStats) error {
	logger := r.logger.With().Str("thread", thread.ID).Logger()

	last := thread.LastPost()
	if last == nil {
		logger.Debug().Msg("Skipping thread without posts")
		r.summary.EmptyThreads++
		return nil
	}
	lastPosted, err := models.ParseTimestamp(last.Timestamp, r.Settings.Location)
	if err != nil {
		return err
	}
	if !r.Settings.PostDateRange.Contains(lastPosted) {
		logger.Debug().
			Str("lastPost", last.Timestamp).
			Stringer("range", r.Settings.PostDateRange).
			Msg("Skipping thread outside the post date range")
		r.summary.OutOfRangeThreads++
		return nil
	}

	tree := models.BuildPostTree(thread.Posts)
	for _, i := range tree.Dangling {
		logger.Debug().Str("slug", thread.Posts[i].Slug).Msg("Reply to a missing post, treating it as top-level")
	}
	duplicates := make(map[int]bool, len(tree.Duplicates))
	for _, i := range tree.Duplicates {
		logger.Warn().Str("slug", thread.Posts[i].Slug).Msg("Post slug used twice in thread")
		duplicates[i] = true
	}
	r.summary.DanglingReplies += len(tree.Dangling)
	r.summary.DuplicateSlugs += len(tree.Duplicates)

	opener := thread.Posts[0]
	topic, err := r.builder.Build(wxr.ItemParams{
		Parent:        forumItem,
		Key:           thread.ID,
		PostType:      wxr.PostTypeTopic,
		Template:      wpurl.Topic,
		Title:         thread.Subject,
		Timestamp:     opener.Timestamp,
		Creator:       opener.Author,
		Slug:          r.slugs.Make(thread.Subject + "-" + thread.ID),
		Content:       r.renderer.PostContent(opener, "topic"),
		CommentStatus: wxr.Closed,
	})
	if err != nil {
		return err
	}
	r.emit(topic)
	r.summary.Topics++

	stats := newTopicStats(r.Settings.Location)
	stats.touch(topic)
	forumStats.touchTopic(topic)

	if err := r.addAttachments(opener, topic); err != nil {
		return err
	}

	for n, i := range tree.Order()[1:] {
		post := thread.Posts[i]

		key := wxr.ReplyKey{ThreadID: thread.ID, Slug: post.Slug}
		if duplicates[i] {
			key.Duplicate = i
		}

		reply, err := r.builder.Build(wxr.ItemParams{
			Parent:        topic,
			Key:           key,
			PostType:      wxr.PostTypeReply,
			Template:      wpurl.Reply,
			Timestamp:     post.Timestamp,
			Creator:       post.Author,
			Content:       r.renderer.PostContent(post, "reply"),
			CommentStatus: wxr.Closed,
			PingStatus:    wxr.Closed,
			MenuOrder:     n + 1,
		})
		if err != nil {
			return err
		}
		r.emit(reply)
		r.summary.Replies++

		stats.touch(reply)
		forumStats.touchReply(reply, topic)
		stats.addReply(reply, post.Author)

		reply.Meta.Set("_bbp_author_ip", authorIP)
		reply.Meta.SetInt("_bbp_forum_id", forumItem.ID)
		reply.Meta.SetInt("_bbp_topic_id", topic.ID)
		// Only replies to other replies are threaded; the opener is the topic.
		if parent := tree.Parent[i]; parent > 0 {
			replyTo := r.ids.ID(wxr.ReplyKey{ThreadID: thread.ID, Slug: thread.Posts[parent].Slug})
			reply.Meta.SetInt("_bbp_reply_to", replyTo)
		}

		if err := r.addAttachments(post, reply); err != nil {
			return err
		}
	}

	forumStats.addTopic(stats)
	stats.writeMeta(topic, forumItem)

	return nil
}
