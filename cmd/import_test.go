package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skinmuseum/skinpost/internal/museum"
)

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "skinpost.db")
	indexPath := filepath.Join(dir, "skins.json")

	index := `[
		{"md5": "5e4f10275dcb1fb211d4a8b4f1bfe0a4", "name": "Foo Skin"},
		{"md5": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "name": "Bar Skin"},
		{"md5": "not-a-digest", "name": "Broken Entry"}
	]`
	if err := os.WriteFile(indexPath, []byte(index), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	out := &bytes.Buffer{}
	root := newRootCommand()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"import", indexPath, "--db", dbPath})

	if err := root.Execute(); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 new skins") {
		t.Errorf("unexpected output: %q", out.String())
	}

	store, err := museum.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	skin, err := store.Skin(context.Background(), "5e4f10275dcb1fb211d4a8b4f1bfe0a4")
	if err != nil {
		t.Fatalf("load imported skin: %v", err)
	}
	if skin.Name != "Foo Skin" {
		t.Errorf("name = %q, want %q", skin.Name, "Foo Skin")
	}
	if skin.PageURL == "" || skin.ScreenshotURL == "" {
		t.Errorf("derived URLs missing: %+v", skin)
	}
}
