package museum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the skin index and per-platform publication status in a
// local sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows a single writer; avoid SQLITE_BUSY from pooled conns.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PickUnpublished returns one skin that has not yet been posted to the given
// platform, or nil when every indexed skin has been. A nil skin is not an
// error, it means there is nothing to do.
func (s *Store) PickUnpublished(ctx context.Context, platform string) (*Skin, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT md5, name, page_url, screenshot_url
		FROM skins s
		WHERE NOT EXISTS (
			SELECT 1 FROM posts p WHERE p.md5 = s.md5 AND p.platform = ?
		)
		ORDER BY RANDOM()
		LIMIT 1`, platform)

	skin, err := scanSkin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pick unpublished skin: %w", err)
	}
	return skin, nil
}

// Skin looks up one skin by md5.
func (s *Store) Skin(ctx context.Context, md5 string) (*Skin, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT md5, name, page_url, screenshot_url
		FROM skins
		WHERE md5 = ?`, md5)

	skin, err := scanSkin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("skin %s is not in the index", md5)
	}
	if err != nil {
		return nil, fmt.Errorf("load skin: %w", err)
	}
	return skin, nil
}

// Published returns the recorded post for a skin on a platform, or nil when
// the skin has not been posted there.
func (s *Store) Published(ctx context.Context, platform, md5 string) (*Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT platform, md5, post_id, post_url, posted_at
		FROM posts
		WHERE platform = ? AND md5 = ?`, platform, md5)

	var post Post
	err := row.Scan(&post.Platform, &post.MD5, &post.PostID, &post.PostURL, &post.PostedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	return &post, nil
}

// MarkPublished records the platform's post id and url for a skin. The write
// is idempotent: marking an already-recorded (platform, md5) pair again is a
// no-op, never an error.
func (s *Store) MarkPublished(ctx context.Context, platform, md5, postID, postURL string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (platform, md5, post_id, post_url, posted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (platform, md5) DO NOTHING`,
		platform, md5, postID, postURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// ImportSkins adds skins to the index, skipping ones already present.
// Returns the number of newly indexed skins.
func (s *Store) ImportSkins(ctx context.Context, skins []Skin) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO skins (md5, name, page_url, screenshot_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (md5) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, skin := range skins {
		res, err := stmt.ExecContext(ctx, skin.MD5, skin.Name, skin.PageURL, skin.ScreenshotURL)
		if err != nil {
			return 0, fmt.Errorf("import skin %s: %w", skin.MD5, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("import skin %s: %w", skin.MD5, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return added, nil
}

// SkinCount returns how many skins are indexed.
func (s *Store) SkinCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM skins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count skins: %w", err)
	}
	return count, nil
}

func scanSkin(row *sql.Row) (*Skin, error) {
	var skin Skin
	if err := row.Scan(&skin.MD5, &skin.Name, &skin.PageURL, &skin.ScreenshotURL); err != nil {
		return nil, err
	}
	return &skin, nil
}
