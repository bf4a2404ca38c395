package convert

import (
	"net/url"
	"path"
	"strconv"

	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/fhoech/allura2wpxml/src/utils"
	"github.com/fhoech/allura2wpxml/src/wpurl"
	"github.com/fhoech/allura2wpxml/src/wxr"
)

// AttachmentTitle is the unescaped file name at the end of an attachment URL.
func AttachmentTitle(rawURL string) string {
	name := path.Base(rawURL)
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// addAttachments emits one attachment item per file of post, right after the
// post's own item. WordPress wants the parent id in the excerpt.
func (r *Run) addAttachments(post *models.Post, parent *wxr.Item) error {
	for _, attachment := range post.Attachments {
		if attachment.URL == "" {
			r.logger.Warn().Str("post", post.Slug).Msg("Skipping attachment without URL")
			continue
		}
		if _, seen := r.ids.Lookup(attachment.URL); seen {
			r.logger.Warn().Str("url", attachment.URL).Msg("Skipping attachment that was already exported")
			r.summary.DuplicateAttachments++
			continue
		}

		title := AttachmentTitle(attachment.URL)
		item, err := r.builder.Build(wxr.ItemParams{
			Parent:        parent,
			Key:           attachment.URL,
			PostType:      wxr.PostTypeAttachment,
			Template:      wpurl.Attachment,
			Title:         title,
			Timestamp:     post.Timestamp,
			Creator:       utils.OrDefault(r.Settings.Creator, post.Author),
			Slug:          r.slugs.Make(title + "-" + post.Slug),
			Excerpt:       strconv.Itoa(parent.ID),
			Status:        wxr.StatusInherit,
			AttachmentURL: attachment.URL,
		})
		if err != nil {
			return err
		}
		r.emit(item)
		r.summary.Attachments++
	}
	return nil
}
