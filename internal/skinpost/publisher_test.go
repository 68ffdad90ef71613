package skinpost

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/skinmuseum/skinpost/internal/imaging"
	"github.com/skinmuseum/skinpost/internal/museum"
)

const testMD5 = "5e4f10275dcb1fb211d4a8b4f1bfe0a4"

func testSkin() *museum.Skin {
	return &museum.Skin{
		MD5:           testMD5,
		Name:          "Foo Skin",
		PageURL:       "https://skins.webamp.org/skin/" + testMD5,
		ScreenshotURL: "https://cdn.webampskins.org/screenshots/" + testMD5 + ".png",
	}
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 0xff})
		}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

type markCall struct {
	platform, md5, postID, postURL string
}

type fakeStore struct {
	next      *museum.Skin
	skins     map[string]*museum.Skin
	published map[string]*museum.Post
	marks     []markCall
	markErr   error
}

func (s *fakeStore) PickUnpublished(ctx context.Context, platform string) (*museum.Skin, error) {
	return s.next, nil
}

func (s *fakeStore) Skin(ctx context.Context, md5 string) (*museum.Skin, error) {
	skin, ok := s.skins[md5]
	if !ok {
		return nil, errors.New("skin not in index")
	}
	return skin, nil
}

func (s *fakeStore) Published(ctx context.Context, platform, md5 string) (*museum.Post, error) {
	return s.published[platform+"/"+md5], nil
}

func (s *fakeStore) MarkPublished(ctx context.Context, platform, md5, postID, postURL string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marks = append(s.marks, markCall{platform, md5, postID, postURL})
	return nil
}

type fakePlatform struct {
	outcome Outcome
	err     error
	calls   int
	last    Draft
}

func (f *fakePlatform) Name() string { return "bluesky" }

func (f *fakePlatform) Publish(ctx context.Context, draft Draft) (Outcome, error) {
	f.calls++
	f.last = draft
	if f.err != nil {
		return Outcome{}, f.err
	}
	return f.outcome, nil
}

type fakeScreenshots struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeScreenshots) Screenshot(ctx context.Context, skin *museum.Skin) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Announce(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func stageOf(t *testing.T, err error) Stage {
	t.Helper()
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *StageError, got %T: %v", err, err)
	}
	return stageErr.Stage
}

func TestPublisher_HappyPath(t *testing.T) {
	store := &fakeStore{next: testSkin()}
	shots := &fakeScreenshots{data: testPNG(t, 64, 64)}
	platform := &fakePlatform{outcome: Outcome{ID: "p1", URL: "https://bsky.app/profile/museum/post/p1"}}
	notifier := &fakeNotifier{}

	pub := &Publisher{Store: store, Screenshots: shots, Platform: platform, Notifier: notifier}
	result, err := pub.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Skipped {
		t.Fatal("run should not be skipped")
	}
	if result.Outcome.URL != platform.outcome.URL {
		t.Errorf("outcome URL = %q, want %q", result.Outcome.URL, platform.outcome.URL)
	}

	if platform.calls != 1 {
		t.Fatalf("platform called %d times, want 1", platform.calls)
	}
	draft := platform.last
	if draft.Name != "Foo Skin" || draft.Link != store.next.PageURL {
		t.Errorf("draft = %+v, want name/link from the selected skin", draft)
	}
	if draft.Caption() != "Foo Skin via the Winamp Skin Museum" {
		t.Errorf("caption = %q", draft.Caption())
	}
	if draft.Image == nil || draft.Image.Width != 128 || draft.Image.Height != 128 {
		t.Errorf("draft image should carry the 2x transformed asset, got %+v", draft.Image)
	}

	if len(store.marks) != 1 {
		t.Fatalf("MarkPublished called %d times, want 1", len(store.marks))
	}
	mark := store.marks[0]
	if mark.platform != "bluesky" || mark.md5 != testMD5 || mark.postID != "p1" || mark.postURL != platform.outcome.URL {
		t.Errorf("recorded %+v", mark)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], platform.outcome.URL) {
		t.Errorf("notification %q does not carry the post URL", notifier.messages[0])
	}
}

func TestPublisher_NothingToDo(t *testing.T) {
	store := &fakeStore{next: nil}
	shots := &fakeScreenshots{data: testPNG(t, 8, 8)}
	platform := &fakePlatform{}
	notifier := &fakeNotifier{}

	pub := &Publisher{Store: store, Screenshots: shots, Platform: platform, Notifier: notifier}
	result, err := pub.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("an empty selection is not an error: %v", err)
	}

	if !result.Skipped {
		t.Error("result should be marked skipped")
	}
	if shots.calls != 0 || platform.calls != 0 {
		t.Errorf("no transform or publish should happen, got %d fetches and %d publishes", shots.calls, platform.calls)
	}
	if len(store.marks) != 0 || len(notifier.messages) != 0 {
		t.Error("no recording or notification should happen")
	}
}

func TestPublisher_UploadFailureHaltsPipeline(t *testing.T) {
	store := &fakeStore{next: testSkin()}
	platform := &fakePlatform{err: &StageError{
		Stage: StageUploading,
		Err:   UploadError{Platform: "bluesky", Reason: "response carried no blob reference"},
	}}
	notifier := &fakeNotifier{}

	pub := &Publisher{
		Store:       store,
		Screenshots: &fakeScreenshots{data: testPNG(t, 8, 8)},
		Platform:    platform,
		Notifier:    notifier,
	}
	_, err := pub.Run(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}

	if stage := stageOf(t, err); stage != StageUploading {
		t.Errorf("failed stage = %s, want %s", stage, StageUploading)
	}
	var uploadErr UploadError
	if !errors.As(err, &uploadErr) {
		t.Errorf("cause should be an UploadError, got %v", err)
	}
	if len(store.marks) != 0 || len(notifier.messages) != 0 {
		t.Error("no recording or notification after an upload failure")
	}
}

func TestPublisher_RecordingFailureSurfacedDistinctly(t *testing.T) {
	store := &fakeStore{next: testSkin(), markErr: errors.New("disk full")}
	platform := &fakePlatform{outcome: Outcome{ID: "p1", URL: "https://bsky.app/profile/museum/post/p1"}}
	notifier := &fakeNotifier{}

	pub := &Publisher{
		Store:       store,
		Screenshots: &fakeScreenshots{data: testPNG(t, 8, 8)},
		Platform:    platform,
		Notifier:    notifier,
	}
	_, err := pub.Run(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}

	// The post already exists publicly at this point. The failure must be
	// attributed to recording, not to any pre-submission stage, so the
	// caller knows a blind retry risks a duplicate public post.
	if stage := stageOf(t, err); stage != StageRecording {
		t.Errorf("failed stage = %s, want %s", stage, StageRecording)
	}
	if platform.calls != 1 {
		t.Errorf("the post was submitted %d times, want 1", platform.calls)
	}
	if !strings.Contains(err.Error(), platform.outcome.URL) {
		t.Errorf("error %q should reference the live post", err)
	}
	if len(notifier.messages) != 0 {
		t.Error("no notification for an unrecorded publish")
	}
}

func TestPublisher_TransformFailure(t *testing.T) {
	store := &fakeStore{next: testSkin()}
	platform := &fakePlatform{}

	pub := &Publisher{
		Store:       store,
		Screenshots: &fakeScreenshots{data: []byte("definitely not a PNG")},
		Platform:    platform,
	}
	_, err := pub.Run(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}

	if stage := stageOf(t, err); stage != StageTransforming {
		t.Errorf("failed stage = %s, want %s", stage, StageTransforming)
	}
	var decodeErr imaging.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("cause should be a DecodeError, got %v", err)
	}
	if platform.calls != 0 {
		t.Error("no publish after a transform failure")
	}
}

func TestPublisher_ExplicitSkinAlreadyPublished(t *testing.T) {
	skin := testSkin()
	store := &fakeStore{
		skins: map[string]*museum.Skin{skin.MD5: skin},
		published: map[string]*museum.Post{
			"bluesky/" + skin.MD5: {Platform: "bluesky", MD5: skin.MD5, PostID: "p1"},
		},
	}
	platform := &fakePlatform{}

	pub := &Publisher{
		Store:       store,
		Screenshots: &fakeScreenshots{data: testPNG(t, 8, 8)},
		Platform:    platform,
	}
	result, err := pub.Run(context.Background(), skin.MD5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Skipped {
		t.Error("already-published skin should be a no-op, not a republish")
	}
	if platform.calls != 0 {
		t.Errorf("platform called %d times for an already-published skin", platform.calls)
	}
}

func TestPublisher_NotificationFailureDoesNotFailPublish(t *testing.T) {
	store := &fakeStore{next: testSkin()}
	platform := &fakePlatform{outcome: Outcome{ID: "p1", URL: "https://bsky.app/profile/museum/post/p1"}}

	pub := &Publisher{
		Store:       store,
		Screenshots: &fakeScreenshots{data: testPNG(t, 8, 8)},
		Platform:    platform,
		Notifier:    &fakeNotifier{err: errors.New("channel gone")},
	}
	result, err := pub.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("notification failure must not fail a successful publish: %v", err)
	}

	if result.Skipped || result.Outcome.ID != "p1" {
		t.Errorf("result = %+v", result)
	}
	if len(store.marks) != 1 {
		t.Errorf("publish should still be recorded, got %d marks", len(store.marks))
	}
}
