package wpurl

import (
	"strconv"
	"strings"

	"github.com/fhoech/allura2wpxml/src/oops"
)

// Template picks the permalink shape of an item. bbPress serves forums and
// topics by slug and replies by id.
type Template int

const (
	Default Template = iota
	Forum
	Topic
	Reply
	Attachment
)

func (t Template) String() string {
	switch t {
	case Default:
		return "default"
	case Forum:
		return "forum"
	case Topic:
		return "topic"
	case Reply:
		return "reply"
	case Attachment:
		return "attachment"
	}
	return "template(" + strconv.Itoa(int(t)) + ")"
}

type Params struct {
	BaseUrl  string
	PostType string
	ID       int
	PostName string

	// Attachments link straight to the uploaded file.
	AttachmentUrl string
}

func Build(t Template, p Params) string {
	switch t {
	case Default:
		return BuildDefault(p)
	case Forum:
		return BuildForum(p)
	case Topic:
		return BuildTopic(p)
	case Reply:
		return BuildReply(p)
	case Attachment:
		return BuildAttachment(p)
	}
	panic(oops.New(nil, "unknown permalink template %d", int(t)))
}

func BuildDefault(p Params) string {
	var builder strings.Builder
	builder.WriteString(p.BaseUrl)
	builder.WriteString("?post_type=")
	builder.WriteString(p.PostType)
	builder.WriteString("&p=")
	builder.WriteString(strconv.Itoa(p.ID))
	return builder.String()
}

func BuildForum(p Params) string {
	return forumsPath(p.BaseUrl, "forum", p.PostName)
}

func BuildTopic(p Params) string {
	return forumsPath(p.BaseUrl, "topic", p.PostName)
}

func BuildReply(p Params) string {
	return forumsPath(p.BaseUrl, "reply", strconv.Itoa(p.ID))
}

func BuildAttachment(p Params) string {
	return p.AttachmentUrl
}

func forumsPath(baseUrl, kind, name string) string {
	var builder strings.Builder
	builder.WriteString(baseUrl)
	builder.WriteString("forums/")
	builder.WriteString(kind)
	builder.WriteRune('/')
	builder.WriteString(name)
	builder.WriteRune('/')
	return builder.String()
}
