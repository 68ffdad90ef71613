package bluesky

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/skinmuseum/skinpost/internal/skinpost"
)

const (
	envHandle      = "SKINPOST_BLUESKY_HANDLE"
	envAppPassword = "SKINPOST_BLUESKY_APP_PASSWORD"
	envPDSURL      = "SKINPOST_BLUESKY_PDS_URL"

	platformName   = "bluesky"
	requestTimeout = 30 * time.Second

	feedPostCollection = "app.bsky.feed.post"
	appBaseURL         = "https://bsky.app"
)

// Config allows the caller to supply defaults prior to reading environment variables.
type Config struct {
	PDSURL string
}

// Client implements the skinpost.Platform interface for Bluesky.
type Client struct {
	client *xrpc.Client
}

// New constructs a Bluesky platform client, establishing a fresh session.
// Sessions are never reused across publish cycles.
func New(ctx context.Context, base Config) (skinpost.Platform, error) {
	cfg, err := loadConfig(base)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	userAgent := "skinpost/1"
	xrpcClient := &xrpc.Client{
		Client:    httpClient,
		Host:      cfg.PDSURL,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: cfg.Handle,
		Password:   cfg.AppPassword,
	})
	if err != nil {
		return nil, skinpost.AuthError{Platform: platformName, Err: err}
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	return &Client{client: xrpcClient}, nil
}

// Name identifies the platform.
func (c *Client) Name() string { return platformName }

// Publish uploads the skin screenshot as a blob, composes the feed post
// around it and submits the record. The blob must exist before composition,
// so the two cannot be reordered or pipelined.
func (c *Client) Publish(ctx context.Context, draft skinpost.Draft) (skinpost.Outcome, error) {
	if draft.Image == nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageUploading,
			Err:   skinpost.ValidationError{Platform: platformName, Reason: "draft carries no image"},
		}
	}

	blob, err := c.uploadBlob(ctx, draft.Image.Data)
	if err != nil {
		return skinpost.Outcome{}, &skinpost.StageError{Stage: skinpost.StageUploading, Err: err}
	}

	post := composePost(draft, blob, time.Now().UTC())

	out, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Collection: feedPostCollection,
		Repo:       c.client.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{
			Val: post,
		},
	})
	if err != nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageSubmitting,
			Err:   skinpost.SubmitError{Platform: platformName, Err: err},
		}
	}

	return skinpost.Outcome{ID: out.Uri, URL: c.postURL(out.Uri)}, nil
}

func (c *Client) uploadBlob(ctx context.Context, data []byte) (*lexutil.LexBlob, error) {
	resp, err := atproto.RepoUploadBlob(ctx, c.client, bytes.NewReader(data))
	if err != nil {
		return nil, skinpost.UploadError{Platform: platformName, Reason: err.Error()}
	}

	// The transport can succeed while the envelope carries no blob; callers
	// must never compose a post without a reference.
	if resp.Blob == nil {
		return nil, skinpost.UploadError{Platform: platformName, Reason: "response carried no blob reference"}
	}

	return resp.Blob, nil
}

// postURL converts an at:// record URI into a public web link.
func (c *Client) postURL(uri string) string {
	rkey := uri[strings.LastIndex(uri, "/")+1:]
	return fmt.Sprintf("%s/profile/%s/post/%s", appBaseURL, c.client.Auth.Handle, rkey)
}

// ProviderConfig merges defaults with environment-defined values.
type ProviderConfig struct {
	Handle      string
	AppPassword string
	PDSURL      string
}

func loadConfig(base Config) (ProviderConfig, error) {
	cfg := ProviderConfig{
		Handle:      strings.TrimSpace(os.Getenv(envHandle)),
		AppPassword: strings.TrimSpace(os.Getenv(envAppPassword)),
		PDSURL:      strings.TrimSpace(os.Getenv(envPDSURL)),
	}

	if cfg.PDSURL == "" {
		cfg.PDSURL = strings.TrimSpace(base.PDSURL)
	}
	if cfg.PDSURL == "" {
		cfg.PDSURL = "https://bsky.social"
	}

	var missing []string
	if cfg.Handle == "" {
		missing = append(missing, envHandle)
	}
	if cfg.AppPassword == "" {
		missing = append(missing, envAppPassword)
	}

	if len(missing) > 0 {
		return ProviderConfig{}, skinpost.MissingEnvError{Platform: platformName, Variables: missing}
	}

	return cfg, nil
}
