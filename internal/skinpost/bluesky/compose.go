package bluesky

import (
	"time"

	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"

	"github.com/skinmuseum/skinpost/internal/skinpost"
)

// composePost builds the feed post document: caption text, one link facet
// spanning the skin name, and the screenshot embed with its post-transform
// aspect ratio. Facet offsets are byte offsets into the UTF-8 text, not rune
// offsets; the two differ for any non-ASCII skin name. createdAt is stamped
// here, at composition time.
func composePost(draft skinpost.Draft, blob *lexutil.LexBlob, now time.Time) *bsky.FeedPost {
	text := draft.Caption()

	nameFacet := &bsky.RichtextFacet{
		Index: &bsky.RichtextFacet_ByteSlice{
			ByteStart: 0,
			ByteEnd:   int64(len(draft.Name)),
		},
		Features: []*bsky.RichtextFacet_Features_Elem{
			{
				RichtextFacet_Link: &bsky.RichtextFacet_Link{Uri: draft.Link},
			},
		},
	}

	return &bsky.FeedPost{
		Text:      text,
		CreatedAt: now.Format(time.RFC3339),
		Facets:    []*bsky.RichtextFacet{nameFacet},
		Embed: &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{
				Images: []*bsky.EmbedImages_Image{
					{
						Alt:   draft.Alt,
						Image: blob,
						AspectRatio: &bsky.EmbedDefs_AspectRatio{
							Width:  int64(draft.Image.Width),
							Height: int64(draft.Image.Height),
						},
					},
				},
			},
		},
	}
}
