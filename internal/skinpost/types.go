package skinpost

import (
	"context"

	"github.com/skinmuseum/skinpost/internal/imaging"
)

// SourceLabel names the canonical origin credited in every published post.
const SourceLabel = "the Winamp Skin Museum"

// Draft describes one skin ready to publish, independent of platform.
type Draft struct {
	Name  string
	Link  string // canonical museum page for the skin
	Alt   string
	Image *imaging.Asset
}

// Caption returns the display text shared by every platform.
func (d Draft) Caption() string {
	return d.Name + " via " + SourceLabel
}

// Outcome is the platform-assigned identity of a published post.
type Outcome struct {
	ID  string
	URL string
}

// Platform abstracts a social network that can publish a skin.
type Platform interface {
	Name() string
	Publish(ctx context.Context, draft Draft) (Outcome, error)
}
