package skinpost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skinmuseum/skinpost/internal/imaging"
	"github.com/skinmuseum/skinpost/internal/logutil"
	"github.com/skinmuseum/skinpost/internal/museum"
)

const defaultStageTimeout = 30 * time.Second

// Store is the subset of the museum store the publisher needs.
type Store interface {
	PickUnpublished(ctx context.Context, platform string) (*museum.Skin, error)
	Skin(ctx context.Context, md5 string) (*museum.Skin, error)
	Published(ctx context.Context, platform, md5 string) (*museum.Post, error)
	MarkPublished(ctx context.Context, platform, md5, postID, postURL string) error
}

// ScreenshotSource fetches the raw screenshot bytes for a skin.
type ScreenshotSource interface {
	Screenshot(ctx context.Context, skin *museum.Skin) ([]byte, error)
}

// Notifier relays a line of text into a chat channel.
type Notifier interface {
	Announce(ctx context.Context, text string) error
}

// Result is the outcome of one publish cycle. Skipped means there was
// nothing to publish, which is a success, not a failure.
type Result struct {
	Skipped bool
	Skin    *museum.Skin
	Outcome Outcome
}

// Publisher drives one publish cycle: select a skin, transform its
// screenshot, publish it to a platform and record the result. Each stage runs
// only after the previous one succeeded; a stage failure aborts the rest of
// the cycle. Nothing is rolled back on partial failure, so a blob uploaded
// before a failed submission stays orphaned on the platform.
type Publisher struct {
	Store       Store
	Screenshots ScreenshotSource
	Platform    Platform
	Notifier    Notifier // optional; failures are logged, never propagated
	// StageTimeout bounds each store and network stage. Zero means the
	// default of 30s.
	StageTimeout time.Duration
}

// Run executes one publish cycle. When md5 is empty the store picks an
// unpublished skin; with an explicit md5 the cycle publishes that skin unless
// it is already recorded for this platform, in which case the run is a no-op.
func (p *Publisher) Run(ctx context.Context, md5 string) (Result, error) {
	platform := p.Platform.Name()

	skin, err := p.selectSkin(ctx, platform, md5)
	if err != nil {
		return Result{}, &StageError{Stage: StageSelecting, Err: err}
	}
	if skin == nil {
		logutil.Infof("nothing to publish on %s", platform)
		return Result{Skipped: true}, nil
	}
	logutil.Debugf("selected skin %s (%s)", skin.MD5, skin.Name)

	asset, err := p.transform(ctx, skin)
	if err != nil {
		return Result{}, &StageError{Stage: StageTransforming, Err: err}
	}
	logutil.Debugf("transformed screenshot to %dx%d (%d bytes)", asset.Width, asset.Height, len(asset.Data))

	draft := Draft{
		Name:  skin.Name,
		Link:  skin.PageURL,
		Alt:   fmt.Sprintf("Screenshot of the Winamp skin %q", skin.Name),
		Image: asset,
	}

	outcome, err := p.Platform.Publish(ctx, draft)
	if err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			return Result{}, err
		}
		return Result{}, &StageError{Stage: StageSubmitting, Err: err}
	}
	logutil.Infof("published %s to %s: %s", skin.MD5, platform, outcome.URL)

	if err := p.record(ctx, platform, skin.MD5, outcome); err != nil {
		// The post already exists publicly; the store just doesn't know.
		// Surface this distinctly so the caller can reconcile instead of
		// re-running the whole cycle and double-posting.
		return Result{}, &StageError{
			Stage: StageRecording,
			Err:   fmt.Errorf("post %s exists on %s but was not recorded: %w", outcome.URL, platform, err),
		}
	}

	p.announce(ctx, fmt.Sprintf("%s %s", draft.Caption(), outcome.URL))

	return Result{Skin: skin, Outcome: outcome}, nil
}

func (p *Publisher) selectSkin(ctx context.Context, platform, md5 string) (*museum.Skin, error) {
	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	if md5 == "" {
		return p.Store.PickUnpublished(ctx, platform)
	}

	skin, err := p.Store.Skin(ctx, md5)
	if err != nil {
		return nil, err
	}
	post, err := p.Store.Published(ctx, platform, md5)
	if err != nil {
		return nil, err
	}
	if post != nil {
		logutil.Infof("skin %s already published to %s: %s", md5, platform, post.PostURL)
		return nil, nil
	}
	return skin, nil
}

func (p *Publisher) transform(ctx context.Context, skin *museum.Skin) (*imaging.Asset, error) {
	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	raw, err := p.Screenshots.Screenshot(ctx, skin)
	if err != nil {
		return nil, err
	}
	return imaging.Upscale(raw)
}

func (p *Publisher) record(ctx context.Context, platform, md5 string, outcome Outcome) error {
	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	return p.Store.MarkPublished(ctx, platform, md5, outcome.ID, outcome.URL)
}

func (p *Publisher) announce(ctx context.Context, text string) {
	if p.Notifier == nil {
		return
	}
	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	if err := p.Notifier.Announce(ctx, text); err != nil {
		logutil.Warnf("notification failed (publish already succeeded): %v", err)
	}
}

func (p *Publisher) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := p.StageTimeout
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
