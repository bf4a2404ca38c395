package convert

import (
	"time"

	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/fhoech/allura2wpxml/src/wxr"
)

const authorIP = "0.0.0.0"

// Nothing has been active before the epoch.
var neverActive = time.Unix(0, 0)

// topicStats accumulates while one thread is converted. It is written to the
// topic item's meta once the thread's last reply is done.
type topicStats struct {
	lastActive   time.Time
	lastActiveID int
	lastReplyID  int
	replyCount   int
	voices       map[string]struct{}
}

func newTopicStats(loc *time.Location) *topicStats {
	return &topicStats{
		lastActive: neverActive.In(loc),
		voices:     make(map[string]struct{}),
	}
}

// touch records item as the latest activity if it is newer than what the
// topic has seen so far.
func (s *topicStats) touch(item *wxr.Item) bool {
	if !item.Date.After(s.lastActive) {
		return false
	}
	s.lastActive = item.Date
	s.lastActiveID = item.ID
	return true
}

func (s *topicStats) addReply(reply *wxr.Item, author string) {
	s.voices[author] = struct{}{}
	s.lastReplyID = reply.ID
	s.replyCount++
}

func (s *topicStats) writeMeta(topic, forum *wxr.Item) {
	m := topic.Meta
	m.Set("_bbp_last_active_time", s.lastActive.Format(models.TimestampLayout))
	m.SetInt("_bbp_reply_count", s.replyCount)
	m.SetInt("_bbp_reply_count_hidden", 0)
	m.SetInt("_bbp_last_reply_id", s.lastReplyID)
	m.SetInt("_bbp_last_active_id", s.lastActiveID)
	m.Set("_bbp_author_ip", authorIP)
	m.SetInt("_bbp_forum_id", forum.ID)
	m.SetInt("_bbp_topic_id", topic.ID)
	m.SetInt("_bbp_voice_count", len(s.voices))
}

// forumStats accumulates over all threads of one forum. The last topic and
// last reply pointers only move together with the last active time.
type forumStats struct {
	lastActive      time.Time
	lastActiveID    int
	lastTopicID     int
	lastReplyID     int
	topicCount      int
	totalReplyCount int
}

func newForumStats(loc *time.Location) *forumStats {
	return &forumStats{lastActive: neverActive.In(loc)}
}

func (s *forumStats) touchTopic(topic *wxr.Item) {
	if !topic.Date.After(s.lastActive) {
		return
	}
	s.lastActive = topic.Date
	s.lastActiveID = topic.ID
	s.lastTopicID = topic.ID
}

func (s *forumStats) touchReply(reply, topic *wxr.Item) {
	if !reply.Date.After(s.lastActive) {
		return
	}
	s.lastActive = reply.Date
	s.lastActiveID = reply.ID
	s.lastTopicID = topic.ID
	s.lastReplyID = reply.ID
}

func (s *forumStats) addTopic(topic *topicStats) {
	s.topicCount++
	s.totalReplyCount += topic.replyCount
}

func (s *forumStats) writeMeta(forum *wxr.Item) {
	m := forum.Meta
	m.Set("_bbp_last_active_time", s.lastActive.Format(models.TimestampLayout))
	m.SetInt("_bbp_forum_subforum_count", 0)
	m.SetInt("_bbp_reply_count", s.totalReplyCount)
	m.SetInt("_bbp_total_reply_count", s.totalReplyCount)
	m.SetInt("_bbp_topic_count", s.topicCount)
	m.SetInt("_bbp_total_topic_count", s.topicCount)
	m.SetInt("_bbp_topic_count_hidden", 0)
	m.SetInt("_bbp_last_topic_id", s.lastTopicID)
	m.SetInt("_bbp_last_reply_id", s.lastReplyID)
	m.SetInt("_bbp_last_active_id", s.lastActiveID)
}
