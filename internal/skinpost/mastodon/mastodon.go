package mastodon

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	mastodonapi "github.com/mattn/go-mastodon"

	"github.com/skinmuseum/skinpost/internal/skinpost"
)

const (
	envServer       = "SKINPOST_MASTODON_SERVER"
	envAccessToken  = "SKINPOST_MASTODON_ACCESS_TOKEN"
	envClientID     = "SKINPOST_MASTODON_CLIENT_ID"
	envClientSecret = "SKINPOST_MASTODON_CLIENT_SECRET"

	platformName   = "mastodon"
	requestTimeout = 30 * time.Second
)

// Config contains the settings needed to reach a Mastodon server.
type Config struct {
	Server       string
	AccessToken  string
	ClientID     string
	ClientSecret string
}

// Client wraps the Mastodon API client with skinpost semantics.
type Client struct {
	client *mastodonapi.Client
}

// New constructs a Mastodon platform client based on environment configuration.
func New(ctx context.Context) (skinpost.Platform, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       cfg.Server,
		AccessToken:  cfg.AccessToken,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient}, nil
}

// Name identifies the platform.
func (c *Client) Name() string { return platformName }

// Publish uploads the skin screenshot and posts a new status referencing it.
// Mastodon has no facet mechanism, so the museum link rides on its own line.
func (c *Client) Publish(ctx context.Context, draft skinpost.Draft) (skinpost.Outcome, error) {
	if draft.Image == nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageUploading,
			Err:   skinpost.ValidationError{Platform: platformName, Reason: "draft carries no image"},
		}
	}

	attachment, err := c.client.UploadMediaFromMedia(ctx, &mastodonapi.Media{
		File:        bytes.NewReader(draft.Image.Data),
		Description: draft.Alt,
	})
	if err != nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageUploading,
			Err:   skinpost.UploadError{Platform: platformName, Reason: err.Error()},
		}
	}

	status, err := c.client.PostStatus(ctx, &mastodonapi.Toot{
		Status:   draft.Caption() + "\n\n" + draft.Link,
		MediaIDs: []mastodonapi.ID{attachment.ID},
	})
	if err != nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageSubmitting,
			Err:   skinpost.SubmitError{Platform: platformName, Err: err},
		}
	}

	return skinpost.Outcome{ID: string(status.ID), URL: status.URL}, nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Server:       strings.TrimSpace(os.Getenv(envServer)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
	}

	var missing []string
	if cfg.Server == "" {
		missing = append(missing, envServer)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}

	if len(missing) > 0 {
		return Config{}, skinpost.MissingEnvError{Platform: platformName, Variables: missing}
	}

	return cfg, nil
}
