package parsing

import (
	"fmt"
	"html"

	"github.com/fhoech/allura2wpxml/src/models"
)

// bbPress shows this list under a post that was edited after publishing.
const revisionLogTemplate = "\n<ul class=\"bbp-reply-revision-log\">\n\t<li class=\"bbp-reply-revision-log-item\">\n\t\tThis %s was modified on %s by %s.\n\t</li>\n</ul>"

// PostContent renders a post's text and, for edited posts, appends a revision
// log entry naming the edit time and the post's author. label is the word the
// log uses for the post, "topic" or "reply".
func (r *Renderer) PostContent(post *models.Post, label string) string {
	content := r.Render(post.Text)
	if post.IsEdited() {
		content += fmt.Sprintf(revisionLogTemplate,
			label,
			models.TruncateTimestamp(*post.LastEdited),
			html.EscapeString(post.Author),
		)
	}
	return content
}
