package convert

import (
	"io"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/wxr"
)

// Filter applies the attachment policy, keeping document order.
func Filter(items []*wxr.Item, mode config.AttachmentMode) []*wxr.Item {
	kept := make([]*wxr.Item, 0, len(items))
	for _, item := range items {
		if include(item, mode) {
			kept = append(kept, item)
		}
	}
	return kept
}

func include(item *wxr.Item, mode config.AttachmentMode) bool {
	if item.IsAttachment() {
		return mode == config.AttachmentsAll || mode == config.AttachmentsOnly
	}
	return mode != config.AttachmentsOnly
}

// Assemble writes the WXR document for items under the attachment policy.
func Assemble(w io.Writer, items []*wxr.Item, mode config.AttachmentMode) error {
	return wxr.WriteDocument(w, Filter(items, mode))
}
