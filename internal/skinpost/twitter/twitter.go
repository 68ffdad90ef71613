package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/media/upload"
	uploadtypes "github.com/michimani/gotwi/media/upload/types"
	"github.com/michimani/gotwi/resources"
	"github.com/michimani/gotwi/tweet/managetweet"
	managetweettypes "github.com/michimani/gotwi/tweet/managetweet/types"

	"github.com/skinmuseum/skinpost/internal/logutil"
	"github.com/skinmuseum/skinpost/internal/skinpost"
)

const (
	envAPIKey       = "SKINPOST_TWITTER_CONSUMER_KEY"
	envAPISecret    = "SKINPOST_TWITTER_CONSUMER_SECRET"
	envAccessToken  = "SKINPOST_TWITTER_ACCESS_TOKEN"
	envAccessSecret = "SKINPOST_TWITTER_ACCESS_TOKEN_SECRET"

	platformName = "twitter"

	statusBaseURL    = "https://x.com/i/web/status/"
	metadataEndpoint = "https://upload.twitter.com/1.1/media/metadata/create.json"
)

var httpTimeout = 30 * time.Second

// Config captures the credentials required for OAuth 1.0a user-context requests.
type Config struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Client implements the skinpost.Platform interface for X (Twitter).
type Client struct {
	api *gotwi.Client
}

// New constructs a Twitter platform client using gotwi and OAuth 1.0a credentials.
func New(ctx context.Context) (skinpost.Platform, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: httpTimeout}

	client, err := gotwi.NewClient(&gotwi.NewClientInput{
		HTTPClient:           httpClient,
		AuthenticationMethod: gotwi.AuthenMethodOAuth1UserContext,
		OAuthToken:           cfg.AccessToken,
		OAuthTokenSecret:     cfg.AccessSecret,
		APIKey:               cfg.APIKey,
		APIKeySecret:         cfg.APISecret,
		Debug:                logutil.Verbose(),
	})
	if err != nil {
		return nil, skinpost.AuthError{Platform: platformName, Err: err}
	}

	if !client.IsReady() {
		return nil, skinpost.AuthError{Platform: platformName, Err: errors.New("client not ready")}
	}

	return &Client{api: client}, nil
}

// Name returns the platform identifier.
func (c *Client) Name() string { return platformName }

// Publish uploads the skin screenshot and posts a tweet referencing it.
func (c *Client) Publish(ctx context.Context, draft skinpost.Draft) (skinpost.Outcome, error) {
	if draft.Image == nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageUploading,
			Err:   skinpost.ValidationError{Platform: platformName, Reason: "draft carries no image"},
		}
	}

	mediaID, err := c.uploadMedia(ctx, draft.Image.Data, draft.Alt)
	if err != nil {
		return skinpost.Outcome{}, &skinpost.StageError{Stage: skinpost.StageUploading, Err: err}
	}
	logutil.Debugf("media uploaded: media_id=%s", mediaID)

	input := &managetweettypes.CreateInput{
		Text:  gotwi.String(draft.Caption() + " " + draft.Link),
		Media: &managetweettypes.CreateInputMedia{MediaIDs: []string{mediaID}},
	}

	res, err := managetweet.Create(ctx, c.api, input)
	if err != nil {
		return skinpost.Outcome{}, &skinpost.StageError{
			Stage: skinpost.StageSubmitting,
			Err:   skinpost.SubmitError{Platform: platformName, Err: unwrapGotwiError(err)},
		}
	}

	id := gotwi.StringValue(res.Data.ID)
	return skinpost.Outcome{ID: id, URL: statusBaseURL + id}, nil
}

// uploadMedia pushes the encoded screenshot through the chunked upload flow.
// Screenshots are always PNG after the transform stage.
func (c *Client) uploadMedia(ctx context.Context, data []byte, altText string) (string, error) {
	logutil.Debugf("initialize upload: bytes=%d", len(data))
	initRes, err := upload.Initialize(ctx, c.api, &uploadtypes.InitializeInput{
		MediaType:     uploadtypes.MediaTypePNG,
		TotalBytes:    len(data),
		MediaCategory: uploadtypes.MediaCategoryTweetImage,
	})
	if err != nil {
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("initialize: %s", unwrapGotwiError(err))}
	}
	if err := partialError(initRes.Errors); err != nil {
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("initialize: %s", err)}
	}

	mediaID := initRes.Data.MediaID

	appendIn := &uploadtypes.AppendInput{
		MediaID:      mediaID,
		Media:        bytes.NewReader(data),
		SegmentIndex: 0,
	}
	appendIn.GenerateBoundary()

	appendRes, err := upload.Append(ctx, c.api, appendIn)
	if err != nil {
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("append: %s", unwrapGotwiError(err))}
	}
	if err := partialError(appendRes.Errors); err != nil {
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("append: %s", err)}
	}

	finalizeRes, err := upload.Finalize(ctx, c.api, &uploadtypes.FinalizeInput{MediaID: mediaID})
	if err != nil {
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("finalize: %s", unwrapGotwiError(err))}
	}
	if err := partialError(finalizeRes.Errors); err != nil {
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("finalize: %s", err)}
	}

	state := finalizeRes.Data.ProcessingInfo.State
	switch state {
	case "", resources.ProcessingInfoStateSucceeded:
		// no-op
	case resources.ProcessingInfoStateInProgress, resources.ProcessingInfoStatePending:
		wait := time.Duration(finalizeRes.Data.ProcessingInfo.CheckAfterSecs) * time.Second
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
			// images usually succeed within the advertised window
		}
	default:
		return "", skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("media processing failed: state=%s", state)}
	}

	if alt := strings.TrimSpace(altText); alt != "" {
		if err := c.setAltText(ctx, mediaID, alt); err != nil {
			return "", err
		}
	}

	return mediaID, nil
}

// setAltText attaches image alt text through the v1.1 metadata endpoint,
// which the v2 media upload flow still depends on.
func (c *Client) setAltText(ctx context.Context, mediaID, altText string) error {
	params := &metadataParameters{
		mediaID: mediaID,
		altText: altText,
	}

	ctx = context.WithValue(ctx, "Content-Type", "application/json;charset=UTF-8")

	if err := c.api.CallAPI(ctx, metadataEndpoint, http.MethodPost, params, &metadataResponse{}); err != nil {
		return skinpost.UploadError{Platform: platformName, Reason: fmt.Sprintf("set alt text: %s", unwrapGotwiError(err))}
	}
	logutil.Debugf("alt text set: media_id=%s", mediaID)

	return nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		APIKey:       strings.TrimSpace(os.Getenv(envAPIKey)),
		APISecret:    strings.TrimSpace(os.Getenv(envAPISecret)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		AccessSecret: strings.TrimSpace(os.Getenv(envAccessSecret)),
	}

	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, envAPIKey)
	}
	if cfg.APISecret == "" {
		missing = append(missing, envAPISecret)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}
	if cfg.AccessSecret == "" {
		missing = append(missing, envAccessSecret)
	}

	if len(missing) > 0 {
		return Config{}, skinpost.MissingEnvError{Platform: platformName, Variables: missing}
	}

	return cfg, nil
}

func partialError(partials []resources.PartialError) error {
	if len(partials) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(partials))
	for _, pe := range partials {
		switch {
		case pe.Detail != nil && *pe.Detail != "":
			msgs = append(msgs, *pe.Detail)
		case pe.Title != nil && *pe.Title != "":
			msgs = append(msgs, *pe.Title)
		case pe.ResourceType != nil:
			msgs = append(msgs, fmt.Sprintf("%s", *pe.ResourceType))
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "unknown error")
	}
	return errors.New(strings.Join(msgs, "; "))
}

func unwrapGotwiError(err error) error {
	var gwErr *gotwi.GotwiError
	if errors.As(err, &gwErr) && gwErr != nil {
		return errors.New(summarizeGotwiError(gwErr))
	}
	return err
}

func summarizeGotwiError(err *gotwi.GotwiError) string {
	if err == nil {
		return "unknown X API error"
	}

	parts := make([]string, 0, 4)
	if err.Title != "" {
		parts = append(parts, err.Title)
	}
	if err.Detail != "" {
		parts = append(parts, err.Detail)
	}
	for _, apiErr := range err.APIErrors {
		if apiErr.Message != "" {
			parts = append(parts, apiErr.Message)
		}
	}
	if len(parts) == 0 {
		if msg := err.Error(); msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "X API request failed")
	}

	return strings.Join(parts, "; ")
}

type metadataParameters struct {
	mediaID     string
	altText     string
	accessToken string
}

func (p *metadataParameters) SetAccessToken(token string) {
	p.accessToken = token
}

func (p *metadataParameters) AccessToken() string {
	return p.accessToken
}

func (p *metadataParameters) ResolveEndpoint(endpointBase string) string {
	return endpointBase
}

func (p *metadataParameters) Body() (io.Reader, error) {
	body := struct {
		MediaID string `json:"media_id"`
		AltText struct {
			Text string `json:"text"`
		} `json:"alt_text"`
	}{}
	body.MediaID = p.mediaID
	body.AltText.Text = p.altText

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

func (p *metadataParameters) ParameterMap() map[string]string {
	return map[string]string{}
}

type metadataResponse struct{}

func (metadataResponse) HasPartialError() bool { return false }
