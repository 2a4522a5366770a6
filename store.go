package vintagepress

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps the SQLite database holding posts, comments, and the
// engagement tables (views, reactions, share events).
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy timeout so writers wait
	// instead of returning SQLITE_BUSY, synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// DB exposes the underlying database handle so the analytics store can share
// the same connection pool and join against the posts table.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    language TEXT NOT NULL,
    type TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    body TEXT NOT NULL,
    cover_image_url TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    is_featured INTEGER NOT NULL DEFAULT 0,
    published_at DATETIME,
    reading_time_minutes INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS views (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id TEXT NOT NULL,
    fingerprint TEXT,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reactions (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL,
    type TEXT NOT NULL,
    fingerprint TEXT,
    user_id TEXT,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS share_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id TEXT NOT NULL,
    network TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL,
    author_name TEXT NOT NULL,
    body TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_status_language ON posts(status, language);
CREATE INDEX IF NOT EXISTS idx_views_post_fingerprint ON views(post_id, fingerprint, created_at);
CREATE INDEX IF NOT EXISTS idx_reactions_post ON reactions(post_id, type);
CREATE INDEX IF NOT EXISTS idx_share_events_post ON share_events(post_id);
CREATE INDEX IF NOT EXISTS idx_comments_status_created ON comments(status, created_at);
`)
	return err
}

// postColumns is the shared select list for post queries. like_count rides
// along as a correlated subquery so listings can sort and render without a
// second round trip.
const postColumns = `p.id, p.title, p.slug, p.language, p.type, p.excerpt, p.body,
	p.cover_image_url, p.tags, p.status, p.is_featured, p.published_at,
	p.reading_time_minutes, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.type = 'like') AS like_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var coverImage, tags string
	var featured int
	var publishedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Language, &p.Type, &p.Excerpt, &p.Body,
		&coverImage, &tags, &p.Status, &featured, &publishedAt,
		&p.ReadingTimeMinutes, &p.CreatedAt, &p.UpdatedAt, &p.LikeCount)
	if err != nil {
		return Post{}, err
	}
	p.CoverImageURL = coverImage
	p.Tags = parseTags(tags)
	p.IsFeatured = featured == 1
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return p, nil
}

// SavePost inserts or updates a post. On insert it assigns an id; on every
// save it derives a collision-free slug, recomputes the reading time and,
// for published posts without a publication date, stamps one.
func (s *Store) SavePost(p Post) (Post, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	base := p.Slug
	if base == "" {
		base = p.Title
	}
	// The base always passes through slug derivation, so a hand-edited slug
	// cannot smuggle unsafe characters into the URL. An unchanged slug maps
	// to itself (Slugify is idempotent and the post's own row is excluded).
	slug, err := s.GenerateUniqueSlug(base, p.ID)
	if err != nil {
		return Post{}, fmt.Errorf("generate slug: %w", err)
	}
	p.Slug = slug
	p.Tags = FilterEmpty(p.Tags)
	p.ReadingTimeMinutes = ReadingTime(p.Body)
	switch p.Status {
	case StatusPublished:
		if p.PublishedAt == nil {
			t := now
			p.PublishedAt = &t
		}
	default:
		p.PublishedAt = nil
	}
	p.UpdatedAt = now

	featured := 0
	if p.IsFeatured {
		featured = 1
	}
	var publishedAt any
	if p.PublishedAt != nil {
		publishedAt = p.PublishedAt.UTC()
	}
	_, err = s.db.Exec(`
		INSERT INTO posts (id, title, slug, language, type, excerpt, body, cover_image_url,
			tags, status, is_featured, published_at, reading_time_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			slug = excluded.slug,
			language = excluded.language,
			type = excluded.type,
			excerpt = excluded.excerpt,
			body = excluded.body,
			cover_image_url = excluded.cover_image_url,
			tags = excluded.tags,
			status = excluded.status,
			is_featured = excluded.is_featured,
			published_at = excluded.published_at,
			reading_time_minutes = excluded.reading_time_minutes,
			updated_at = excluded.updated_at`,
		p.ID, p.Title, p.Slug, string(p.Language), string(p.Type), p.Excerpt, p.Body,
		p.CoverImageURL, tagString(p.Tags), string(p.Status), featured, publishedAt,
		p.ReadingTimeMinutes, p.CreatedAt.UTC(), p.UpdatedAt)
	if err != nil {
		return Post{}, fmt.Errorf("save post: %w", err)
	}
	// Reload so updates carry the preserved created_at and the like count.
	return s.GetPostByID(p.ID)
}

// GetPostBySlug returns a post by slug regardless of status. Callers on the
// public surface must check Status themselves; the admin preview relies on
// drafts being reachable here.
func (s *Store) GetPostBySlug(slug string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts p WHERE p.slug = ?`, slug)
	return scanPost(row)
}

// GetPostByID returns a post by id regardless of status.
func (s *Store) GetPostByID(id string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id)
	return scanPost(row)
}

// AllPosts returns every post, drafts included, newest update first (admin listing).
func (s *Store) AllPosts() ([]Post, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + ` FROM posts p ORDER BY p.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// DeletePost removes a post and its engagement and comment rows.
func (s *Store) DeletePost(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM views WHERE post_id = ?`,
		`DELETE FROM reactions WHERE post_id = ?`,
		`DELETE FROM share_events WHERE post_id = ?`,
		`DELETE FROM comments WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
	}
	return tx.Commit()
}

// SearchSlugs returns every slug starting with prefix, optionally excluding
// one post id (used when editing a post without changing its slug).
func (s *Store) SearchSlugs(prefix, excludeID string) ([]string, error) {
	query := `SELECT slug FROM posts WHERE slug LIKE ? || '%'`
	args := []any{prefix}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// BulkPostAction applies a moderation action to a set of posts in one shot.
// Supported actions: publish, unpublish, feature, unfeature, delete.
func (s *Store) BulkPostAction(ids []string, action string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+2)
	now := time.Now().UTC()

	var query string
	switch action {
	case "publish":
		query = `UPDATE posts SET status = 'published',
			published_at = COALESCE(published_at, ?), updated_at = ?
			WHERE id IN (` + placeholders + `)`
		args = append(args, now, now)
	case "unpublish":
		query = `UPDATE posts SET status = 'draft', published_at = NULL, updated_at = ?
			WHERE id IN (` + placeholders + `)`
		args = append(args, now)
	case "feature":
		query = `UPDATE posts SET is_featured = 1, updated_at = ? WHERE id IN (` + placeholders + `)`
		args = append(args, now)
	case "unfeature":
		query = `UPDATE posts SET is_featured = 0, updated_at = ? WHERE id IN (` + placeholders + `)`
		args = append(args, now)
	case "delete":
		for _, id := range ids {
			if err := s.DeletePost(id); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown bulk action %q", action)
	}
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("bulk %s: %w", action, err)
	}
	return nil
}
