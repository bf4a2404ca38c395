package convert

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/wxr"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wallClock = time.Date(2016, time.January, 1, 12, 0, 0, 0, time.UTC)

func testSettings(t *testing.T, mutate ...func(cfg *config.ExportConfig)) config.Settings {
	t.Helper()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.BaseUrl = "http://example.com/"
	cfg.Now = "2015-09-18 15:45:19"
	for _, m := range mutate {
		m(&cfg)
	}
	settings, err := cfg.Resolve(wallClock)
	require.NoError(t, err)
	return settings
}

func post(slug, author, timestamp string, attachmentURLs ...string) *models.Post {
	p := &models.Post{
		Slug:      slug,
		Author:    author,
		Timestamp: timestamp,
		Text:      "Post " + slug,
	}
	for _, u := range attachmentURLs {
		p.Attachments = append(p.Attachments, &models.Attachment{URL: u})
	}
	return p
}

func forum(id, name string, threads ...*models.Thread) *models.Forum {
	return &models.Forum{ID: id, Name: name, Description: "About " + name, Threads: threads}
}

func thread(id, subject string, posts ...*models.Post) *models.Thread {
	return &models.Thread{ID: id, Subject: subject, Posts: posts}
}

func convert(t *testing.T, settings config.Settings, forums ...*models.Forum) ([]*wxr.Item, *Run) {
	t.Helper()
	run := NewRun(settings, wallClock, zerolog.Nop())
	items, err := run.Convert(&models.Export{Forums: forums})
	require.NoError(t, err)
	return items, run
}

func meta(t *testing.T, item *wxr.Item, key string) string {
	t.Helper()
	v, ok := item.Meta.Get(key)
	require.True(t, ok, "missing meta %s on item %d", key, item.ID)
	return v
}

func describe(items []*wxr.Item) []string {
	var out []string
	for _, item := range items {
		out = append(out, string(item.PostType)+":"+item.Slug)
	}
	return out
}

func TestConvertAggregation(t *testing.T) {
	items, run := convert(t, testSettings(t),
		forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:22:03.123000"),
				post("a/b", "bob", "2015-08-13 10:00:00"),
				post("a/b/c", "alice", "2015-08-14 09:00:00"),
				post("d", "bob", "2015-08-13 12:00:00"),
			),
		),
	)

	if diff := cmp.Diff([]string{
		"forum:general",
		"topic:hello-t1",
		"reply:3",
		"reply:4",
		"reply:5",
	}, describe(items)); diff != "" {
		t.Errorf("unexpected items (-want +got):\n%s", diff)
	}
	forumItem, topic := items[0], items[1]
	replies := items[2:]

	assert.Equal(t, 1, forumItem.ID)
	assert.Equal(t, 2, topic.ID)
	assert.Equal(t, forumItem.ID, topic.ParentID)
	assert.Equal(t, "alice", topic.Creator)
	for n, reply := range replies {
		assert.Equal(t, topic.ID, reply.ParentID)
		assert.Equal(t, n+1, reply.MenuOrder)
		assert.Equal(t, wxr.Closed, reply.CommentStatus)
		assert.Equal(t, wxr.Closed, reply.PingStatus)
	}

	assert.Equal(t, []string{
		"_bbp_last_active_time", "_bbp_reply_count", "_bbp_reply_count_hidden",
		"_bbp_last_reply_id", "_bbp_last_active_id", "_bbp_author_ip",
		"_bbp_forum_id", "_bbp_topic_id", "_bbp_voice_count",
	}, topic.Meta.Keys())
	assert.Equal(t, "2015-08-14 09:00:00", meta(t, topic, "_bbp_last_active_time"))
	assert.Equal(t, "3", meta(t, topic, "_bbp_reply_count"))
	assert.Equal(t, "5", meta(t, topic, "_bbp_last_reply_id"), "last reply in thread order")
	assert.Equal(t, "4", meta(t, topic, "_bbp_last_active_id"), "most recent reply")
	assert.Equal(t, "1", meta(t, topic, "_bbp_forum_id"))
	assert.Equal(t, "2", meta(t, topic, "_bbp_topic_id"))
	assert.Equal(t, "2", meta(t, topic, "_bbp_voice_count"))

	assert.Equal(t, []string{
		"_bbp_last_active_time", "_bbp_forum_subforum_count", "_bbp_reply_count",
		"_bbp_total_reply_count", "_bbp_topic_count", "_bbp_total_topic_count",
		"_bbp_topic_count_hidden", "_bbp_last_topic_id", "_bbp_last_reply_id",
		"_bbp_last_active_id",
	}, forumItem.Meta.Keys())
	assert.Equal(t, "2015-08-14 09:00:00", meta(t, forumItem, "_bbp_last_active_time"))
	assert.Equal(t, "0", meta(t, forumItem, "_bbp_forum_subforum_count"))
	assert.Equal(t, "3", meta(t, forumItem, "_bbp_reply_count"))
	assert.Equal(t, "3", meta(t, forumItem, "_bbp_total_reply_count"))
	assert.Equal(t, "1", meta(t, forumItem, "_bbp_topic_count"))
	assert.Equal(t, "2", meta(t, forumItem, "_bbp_last_topic_id"))
	assert.Equal(t, "4", meta(t, forumItem, "_bbp_last_reply_id"))
	assert.Equal(t, "4", meta(t, forumItem, "_bbp_last_active_id"))

	summary := run.Summary()
	assert.Equal(t, 1, summary.Forums)
	assert.Equal(t, 1, summary.Topics)
	assert.Equal(t, 3, summary.Replies)
}

func TestConvertReplyMeta(t *testing.T) {
	items, _ := convert(t, testSettings(t),
		forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00"),
				post("a/b", "bob", "2015-08-12 01:00:00"),
				post("a/b/c", "carol", "2015-08-12 02:00:00"),
				post("x/y", "dave", "2015-08-12 03:00:00"),
			),
		),
	)
	replyToParent, replyToReply, dangling := items[2], items[3], items[4]

	assert.Equal(t, []string{"_bbp_author_ip", "_bbp_forum_id", "_bbp_topic_id"}, replyToParent.Meta.Keys(),
		"replies to the opener are not threaded")
	assert.Equal(t, "0.0.0.0", meta(t, replyToParent, "_bbp_author_ip"))
	assert.Equal(t, "1", meta(t, replyToParent, "_bbp_forum_id"))
	assert.Equal(t, "2", meta(t, replyToParent, "_bbp_topic_id"))

	assert.Equal(t, []string{"_bbp_author_ip", "_bbp_forum_id", "_bbp_topic_id", "_bbp_reply_to"}, replyToReply.Meta.Keys())
	assert.Equal(t, "3", meta(t, replyToReply, "_bbp_reply_to"))

	_, ok := dangling.Meta.Get("_bbp_reply_to")
	assert.False(t, ok)
}

func TestConvertCounts(t *testing.T) {
	items, _ := convert(t, testSettings(t),
		forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00"),
				post("a/b", "bob", "2015-08-12 01:00:00"),
				post("a/c", "bob", "2015-08-12 02:00:00"),
			),
		),
	)
	forumItem, topic := items[0], items[1]
	assert.Equal(t, "2", meta(t, topic, "_bbp_reply_count"))
	assert.Equal(t, "1", meta(t, topic, "_bbp_voice_count"), "the opener's author is not a voice")
	assert.Equal(t, "1", meta(t, forumItem, "_bbp_topic_count"))
	assert.Equal(t, "2", meta(t, forumItem, "_bbp_total_reply_count"))
}

func TestConvertForumLastActive(t *testing.T) {
	items, _ := convert(t, testSettings(t),
		forum("f1", "General",
			thread("t1", "Newer topic",
				post("a", "alice", "2015-08-20 00:00:00"),
			),
			thread("t2", "Older topic, newer reply",
				post("b", "bob", "2015-08-10 00:00:00"),
				post("b/c", "carol", "2015-08-25 00:00:00"),
			),
			thread("t3", "Old topic",
				post("d", "dave", "2015-08-01 00:00:00"),
				post("d/e", "erin", "2015-08-02 00:00:00"),
			),
		),
	)
	byType := map[wxr.PostType][]*wxr.Item{}
	for _, item := range items {
		byType[item.PostType] = append(byType[item.PostType], item)
	}
	forumItem := items[0]
	topics, replies := byType[wxr.PostTypeTopic], byType[wxr.PostTypeReply]
	require.Len(t, topics, 3)
	require.Len(t, replies, 2)

	assert.Equal(t, "2015-08-25 00:00:00", meta(t, forumItem, "_bbp_last_active_time"))
	assert.Equal(t, strconv.Itoa(replies[0].ID), meta(t, forumItem, "_bbp_last_active_id"))
	assert.Equal(t, strconv.Itoa(topics[1].ID), meta(t, forumItem, "_bbp_last_topic_id"))
	assert.Equal(t, strconv.Itoa(replies[0].ID), meta(t, forumItem, "_bbp_last_reply_id"))
	assert.Equal(t, "3", meta(t, forumItem, "_bbp_topic_count"))
	assert.Equal(t, "2", meta(t, forumItem, "_bbp_total_reply_count"))

	lone := topics[0]
	assert.Equal(t, "0", meta(t, lone, "_bbp_reply_count"))
	assert.Equal(t, "0", meta(t, lone, "_bbp_last_reply_id"))
	assert.Equal(t, strconv.Itoa(lone.ID), meta(t, lone, "_bbp_last_active_id"), "the topic itself is activity")
	assert.Equal(t, "0", meta(t, lone, "_bbp_voice_count"))

	t.Run("empty forum", func(t *testing.T) {
		items, _ := convert(t, testSettings(t), forum("f1", "Empty"))
		require.Len(t, items, 1)
		assert.Equal(t, "1970-01-01 00:00:00", meta(t, items[0], "_bbp_last_active_time"))
		assert.Equal(t, "0", meta(t, items[0], "_bbp_last_active_id"))
		assert.Equal(t, "0", meta(t, items[0], "_bbp_topic_count"))
	})
}

func TestConvertSkipsThreads(t *testing.T) {
	settings := testSettings(t, func(cfg *config.ExportConfig) {
		cfg.PostDateRange = "2015-08-01_2015-08-31"
	})
	items, run := convert(t, settings,
		forum("f1", "General",
			thread("empty", "Nothing here"),
			thread("before", "Too old",
				post("a", "alice", "2015-07-30 00:00:00"),
			),
			thread("inside", "Just right",
				post("a", "alice", "2015-07-30 00:00:00"),
				post("a/b", "bob", "2015-08-31 23:59:59"),
			),
			thread("after", "Too new",
				post("a", "alice", "2015-08-31 00:00:00"),
				post("a/b", "bob", "2015-09-01 00:00:00"),
			),
		),
	)

	if diff := cmp.Diff([]string{
		"forum:general",
		"topic:just-right-inside",
		"reply:3",
	}, describe(items)); diff != "" {
		t.Errorf("unexpected items (-want +got):\n%s", diff)
	}
	assert.Equal(t, "1", meta(t, items[0], "_bbp_topic_count"))
	assert.Equal(t, "1", meta(t, items[0], "_bbp_total_reply_count"))

	summary := run.Summary()
	assert.Equal(t, 1, summary.EmptyThreads)
	assert.Equal(t, 2, summary.OutOfRangeThreads)
}

func TestConvertAttachments(t *testing.T) {
	logo := "https://sf.net/p/x/discussion/general/thread/t1/a/attachment/logo%20v2.png"
	trace := "https://sf.net/p/x/discussion/general/thread/t1/a/b/attachment/trace.txt"
	export := func() *models.Forum {
		return forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00", logo),
				post("a/b", "bob", "2015-08-12 01:00:00", trace),
			),
		)
	}

	t.Run("placed after their post", func(t *testing.T) {
		items, run := convert(t, testSettings(t), export())
		if diff := cmp.Diff([]string{
			"forum:general",
			"topic:hello-t1",
			"attachment:logo-v2-png-a",
			"reply:4",
			"attachment:trace-txt-ab",
		}, describe(items)); diff != "" {
			t.Errorf("unexpected items (-want +got):\n%s", diff)
		}

		topic, attachment := items[1], items[2]
		assert.Equal(t, "logo v2.png", attachment.Title)
		assert.Equal(t, logo, attachment.Link)
		assert.Equal(t, logo, attachment.AttachmentURL)
		assert.Equal(t, topic.ID, attachment.ParentID)
		assert.Equal(t, strconv.Itoa(topic.ID), attachment.Excerpt)
		assert.Equal(t, wxr.StatusInherit, attachment.Status)
		assert.Equal(t, "alice", attachment.Creator, "falls back to the post author")
		assert.Equal(t, topic.Date, attachment.Date)

		reply, replyAttachment := items[3], items[4]
		assert.Equal(t, reply.ID, replyAttachment.ParentID)
		assert.Equal(t, 2, run.Summary().Attachments)
	})
	t.Run("creator takes precedence", func(t *testing.T) {
		settings := testSettings(t, func(cfg *config.ExportConfig) { cfg.Creator = "admin" })
		items, _ := convert(t, settings, export())
		assert.Equal(t, "admin", items[0].Creator)
		assert.Equal(t, "alice", items[1].Creator)
		assert.Equal(t, "admin", items[2].Creator)
	})
	t.Run("a file is exported once", func(t *testing.T) {
		items, run := convert(t, testSettings(t),
			forum("f1", "General",
				thread("t1", "Hello",
					post("a", "alice", "2015-08-12 00:00:00", logo),
					post("a/b", "bob", "2015-08-12 01:00:00", logo),
				),
			),
		)
		assert.Len(t, items, 4)
		assert.Equal(t, 1, run.Summary().DuplicateAttachments)
	})
}

func TestFilter(t *testing.T) {
	logo := "https://example.com/attachment/logo.png"
	items, _ := convert(t, testSettings(t),
		forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00", logo),
				post("a/b", "bob", "2015-08-12 01:00:00"),
			),
		),
	)
	require.Len(t, items, 4)

	assert.Len(t, Filter(items, config.AttachmentsAll), 4)
	for _, item := range Filter(items, config.AttachmentsNone) {
		assert.NotEqual(t, wxr.PostTypeAttachment, item.PostType)
	}
	assert.Len(t, Filter(items, config.AttachmentsNone), 3)
	only := Filter(items, config.AttachmentsOnly)
	require.Len(t, only, 1)
	assert.Equal(t, wxr.PostTypeAttachment, only[0].PostType)
}

func TestAssembleIsDeterministic(t *testing.T) {
	export := func() *models.Forum {
		return forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00", "https://example.com/attachment/a.png"),
				post("a/b", "bob", "2015-08-12 01:00:00"),
				post("a/c", "carol", "2015-08-12 02:00:00"),
				post("a/b/d", "dave", "2015-08-12 03:00:00"),
			),
			thread("t2", "Hello",
				post("a", "alice", "2015-08-13 00:00:00"),
			),
		)
	}
	render := func(wall time.Time) string {
		run := NewRun(testSettings(t), wall, zerolog.Nop())
		items, err := run.Convert(&models.Export{Forums: []*models.Forum{export()}})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, Assemble(&buf, items, config.AttachmentsAll))
		return buf.String()
	}

	first := render(wallClock)
	second := render(wallClock.Add(time.Hour))
	assert.Equal(t, first, second, "a fixed clock makes reruns byte-identical")
	assert.Contains(t, first, "<wp:post_date><![CDATA[2015-09-18 15:45:19]]></wp:post_date>")
}

func TestConvertClock(t *testing.T) {
	settings := testSettings(t, func(cfg *config.ExportConfig) { cfg.Now = "" })
	items, _ := convert(t, settings, forum("f1", "General"))
	assert.Equal(t, wallClock, items[0].Date, "forums have no timestamp of their own")
}

func TestConvertControlCharacters(t *testing.T) {
	opener := post("a", "alice", "2015-08-12 00:00:00")
	opener.Text = "bell\x07 and esc\x1b and\vtab\tkept\x00"
	items, _ := convert(t, testSettings(t), forum("f1", "General", thread("t1", "Hello", opener)))

	var buf bytes.Buffer
	require.NoError(t, Assemble(&buf, items, config.AttachmentsAll))
	out := buf.String()
	for _, c := range []string{"\x07", "\x1b", "\x00", "\v"} {
		assert.NotContains(t, out, c)
	}
	assert.Contains(t, items[1].Content, "bell and esc andtab\tkept")
}

func TestConvertDuplicateSlugs(t *testing.T) {
	items, run := convert(t, testSettings(t),
		forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00"),
				post("a/b", "bob", "2015-08-12 01:00:00"),
				post("a/b", "bob", "2015-08-12 01:00:00"),
			),
		),
	)
	require.Len(t, items, 4)
	assert.NotEqual(t, items[2].ID, items[3].ID)
	assert.Equal(t, 1, run.Summary().DuplicateSlugs)
}

func TestConvertBadTimestamp(t *testing.T) {
	run := NewRun(testSettings(t), wallClock, zerolog.Nop())
	_, err := run.Convert(&models.Export{Forums: []*models.Forum{
		forum("f1", "General",
			thread("t1", "Hello",
				post("a", "alice", "2015-08-12 00:00:00"),
				post("a/b", "bob", "12.08.2015"),
			),
		),
	}})
	assert.Error(t, err)
	assert.True(t, oops.IsInput(err), "the timestamp error further down the chain decides")
	assert.Contains(t, err.Error(), "t1")

	var outer *oops.Error
	require.True(t, errors.As(err, &outer))
	assert.False(t, outer.Input)
}

func TestConvertEscapesMarkup(t *testing.T) {
	f := forum("f1", "General")
	f.Description = "Cats & dogs"
	opener := post("a", "alice", "2015-08-12 00:00:00")
	opener.Text = "Tom & Jerry wrote <b>bold</b>"
	reply := post("a/b", "bob", "2015-08-12 01:00:00")
	reply.Text = "> quoted\n> > twice\n\n5 > 3"
	f.Threads = []*models.Thread{thread("t1", "Hello", opener, reply)}

	items, _ := convert(t, testSettings(t), f)
	require.Len(t, items, 3)

	assert.Equal(t, "Cats &amp; dogs", items[0].Content)
	assert.Equal(t, "Tom &amp; Jerry wrote &lt;b&gt;bold&lt;/b&gt;", items[1].Content)
	assert.Contains(t, items[2].Content, "<blockquote>")
	assert.Contains(t, items[2].Content, "&gt; twice")
	assert.Contains(t, items[2].Content, "5 &gt; 3")
	for _, item := range items {
		assert.NotContains(t, item.Content, "\u200c")
	}
}

func TestAttachmentTitle(t *testing.T) {
	assert.Equal(t, "logo v2.png", AttachmentTitle("https://sf.net/p/x/attachment/logo%20v2.png"))
	assert.Equal(t, "a+b.txt", AttachmentTitle("https://sf.net/p/x/attachment/a+b.txt"))
	assert.Equal(t, "100%.txt", AttachmentTitle("https://sf.net/p/x/attachment/100%.txt"))
	assert.True(t, strings.HasSuffix(AttachmentTitle("https://sf.net/%C3%BCber.txt"), "über.txt"))
}
