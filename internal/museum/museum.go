// Package museum keeps the local index of Winamp Skin Museum entries, their
// per-platform publication status, and fetches skin screenshots from the
// museum CDN.
package museum

import (
	"time"
)

const (
	museumBaseURL = "https://skins.webamp.org"
	cdnBaseURL    = "https://cdn.webampskins.org"
)

// Skin is one museum entry, identified by the md5 digest of its skin archive.
type Skin struct {
	MD5           string
	Name          string
	PageURL       string
	ScreenshotURL string
}

// Post records where a skin went on one platform. A skin has at most one
// post per platform.
type Post struct {
	Platform string
	MD5      string
	PostID   string
	PostURL  string
	PostedAt time.Time
}

// PageURL returns the canonical museum page for a skin.
func PageURL(md5 string) string {
	return museumBaseURL + "/skin/" + md5
}

// ScreenshotURL returns the CDN location of a skin's screenshot.
func ScreenshotURL(md5 string) string {
	return cdnBaseURL + "/screenshots/" + md5 + ".png"
}

// IsMD5 reports whether s looks like a 32-character hex digest.
func IsMD5(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
