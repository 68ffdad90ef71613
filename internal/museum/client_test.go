package museum

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScreenshot(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient()
	skin := &Skin{MD5: md5A, ScreenshotURL: server.URL + "/screenshots/" + md5A + ".png"}

	data, err := client.Screenshot(context.Background(), skin)
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("got %v, want %v", data, payload)
	}
}

func TestScreenshot_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient()
	skin := &Skin{MD5: md5A, ScreenshotURL: server.URL + "/missing.png"}

	if _, err := client.Screenshot(context.Background(), skin); err == nil {
		t.Error("expected error for missing screenshot")
	}
}

func TestURLHelpers(t *testing.T) {
	if got := PageURL(md5A); got != "https://skins.webamp.org/skin/"+md5A {
		t.Errorf("PageURL = %q", got)
	}
	if got := ScreenshotURL(md5A); got != "https://cdn.webampskins.org/screenshots/"+md5A+".png" {
		t.Errorf("ScreenshotURL = %q", got)
	}
}
