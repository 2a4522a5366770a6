package analytics

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// languages mirrors the site's supported languages for per-language
// rollups. Kept as plain strings so this package stays free of the content
// package's types.
var languages = []string{"marathi", "hindi", "english"}

// Store provides database operations for the engagement ledger. It operates
// on the same database as the content store so counters can join posts.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle. The content store owns the
// connection and the schema.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// View is one dedup-eligible page view.
type View struct {
	ID          int64
	PostID      string
	Fingerprint string
	CreatedAt   time.Time
}

// LikeState is the result of a like toggle or lookup.
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// PostMetrics aggregates per-post engagement counters.
type PostMetrics struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Language    string     `json:"language"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	Likes       int        `json:"likes"`
	Shares      int        `json:"shares"`
	Views       int        `json:"views"`
	Comments    int        `json:"comments"`
}

// SiteStats aggregates engagement across the site for a trailing window.
type SiteStats struct {
	Posts  int       `json:"posts"`
	Likes  int       `json:"likes"`
	Shares int       `json:"shares"`
	Views  int       `json:"views"`
	Since  time.Time `json:"since"`
}

// TopPost is one entry in a per-language ranking.
type TopPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Language    string     `json:"language"`
	PublishedAt *time.Time `json:"published_at"`
	Likes       int        `json:"likes"`
	Views       int        `json:"views"`
	Shares      int        `json:"shares"`
}

// LanguageTopPosts is the ranked list for one language.
type LanguageTopPosts struct {
	Language string    `json:"language"`
	Posts    []TopPost `json:"posts"`
}

// RecordView records a page view for a post. With a fingerprint, a view
// recorded within the dedup window for the same (post, fingerprint) is
// returned unchanged instead of inserting a duplicate. Without one the view
// is untracked and always inserts. The check-then-insert is racy under
// concurrent requests; a stray duplicate view is tolerable for analytics.
func (s *Store) RecordView(postID, fingerprint string) (View, error) {
	if fingerprint != "" {
		cutoff := time.Now().UTC().Add(-ViewDedupWindow)
		var v View
		err := s.db.QueryRow(`
			SELECT id, post_id, fingerprint, created_at FROM views
			WHERE post_id = ? AND fingerprint = ? AND created_at >= ?
			ORDER BY created_at DESC LIMIT 1`,
			postID, fingerprint, cutoff).
			Scan(&v.ID, &v.PostID, &v.Fingerprint, &v.CreatedAt)
		if err == nil {
			return v, nil
		}
		if err != sql.ErrNoRows {
			return View{}, fmt.Errorf("find recent view: %w", err)
		}
	}

	v := View{PostID: postID, Fingerprint: fingerprint, CreatedAt: time.Now().UTC()}
	res, err := s.db.Exec(`INSERT INTO views (post_id, fingerprint, created_at) VALUES (?, ?, ?)`,
		v.PostID, nullString(v.Fingerprint), v.CreatedAt)
	if err != nil {
		return View{}, fmt.Errorf("insert view: %w", err)
	}
	v.ID, _ = res.LastInsertId()
	return v, nil
}

// RecordShare logs a share event. Shares are never deduplicated — every
// click counts. A share from a fingerprinted visitor also records a view
// (subject to the usual dedup) since the visitor was on the post page.
func (s *Store) RecordShare(postID, network, fingerprint string) error {
	_, err := s.db.Exec(`INSERT INTO share_events (post_id, network, created_at) VALUES (?, ?, ?)`,
		postID, network, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert share: %w", err)
	}
	if fingerprint != "" {
		if _, err := s.RecordView(postID, fingerprint); err != nil {
			return err
		}
	}
	return nil
}

// LikeCount returns the number of like reactions on a post.
func (s *Store) LikeCount(postID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reactions WHERE post_id = ? AND type = 'like'`, postID).
		Scan(&count)
	return count, err
}

// HasLiked reports whether a like exists for the post matching either the
// fingerprint or the user id. With neither provided it answers false without
// touching the database.
func (s *Store) HasLiked(postID, fingerprint, userID string) (bool, error) {
	if fingerprint == "" && userID == "" {
		return false, nil
	}
	id, err := s.findLike(postID, fingerprint, userID)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// ToggleLike flips the like state for the given identity and returns the
// fresh state. The lookup matches fingerprint OR user id, so a like placed
// anonymously is removed when the same visitor toggles while signed in.
// This is check-then-act without a transaction: two simultaneous toggles
// from one identity can, in the worst case, both insert. Accepted — likes
// are engagement telemetry, not billing.
func (s *Store) ToggleLike(postID, fingerprint, userID string) (LikeState, error) {
	existingID, err := s.findLike(postID, fingerprint, userID)
	if err != nil {
		return LikeState{}, err
	}

	if existingID != "" {
		if _, err := s.db.Exec(`DELETE FROM reactions WHERE id = ?`, existingID); err != nil {
			return LikeState{}, fmt.Errorf("remove like: %w", err)
		}
		count, err := s.LikeCount(postID)
		if err != nil {
			return LikeState{}, err
		}
		return LikeState{Liked: false, Count: count}, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO reactions (id, post_id, type, fingerprint, user_id, created_at)
		VALUES (?, ?, 'like', ?, ?, ?)`,
		uuid.NewString(), postID, nullString(fingerprint), nullString(userID), time.Now().UTC())
	if err != nil {
		return LikeState{}, fmt.Errorf("insert like: %w", err)
	}
	count, err := s.LikeCount(postID)
	if err != nil {
		return LikeState{}, err
	}
	return LikeState{Liked: true, Count: count}, nil
}

// findLike returns the id of a like reaction matching fingerprint OR user
// id, or "" when none exists.
func (s *Store) findLike(postID, fingerprint, userID string) (string, error) {
	conds := []string{}
	args := []any{postID}
	if fingerprint != "" {
		conds = append(conds, `fingerprint = ?`)
		args = append(args, fingerprint)
	}
	if userID != "" {
		conds = append(conds, `user_id = ?`)
		args = append(args, userID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	query := `SELECT id FROM reactions WHERE post_id = ? AND type = 'like' AND (` +
		strings.Join(conds, ` OR `) + `) LIMIT 1`
	var id string
	err := s.db.QueryRow(query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find like: %w", err)
	}
	return id, nil
}

// PostMetrics returns aggregate counters for one post, or nil when the post
// does not exist.
func (s *Store) PostMetrics(postID string) (*PostMetrics, error) {
	var m PostMetrics
	var publishedAt sql.NullTime
	err := s.db.QueryRow(`
		SELECT p.id, p.title, p.language, p.status, p.published_at,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.type = 'like'),
			(SELECT COUNT(*) FROM share_events e WHERE e.post_id = p.id),
			(SELECT COUNT(*) FROM views v WHERE v.post_id = p.id),
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
		FROM posts p WHERE p.id = ?`, postID).
		Scan(&m.ID, &m.Title, &m.Language, &m.Status, &publishedAt,
			&m.Likes, &m.Shares, &m.Views, &m.Comments)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("post metrics: %w", err)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		m.PublishedAt = &t
	}
	return &m, nil
}

// SiteAnalytics returns site-wide counters for a trailing window of
// days*24h, optionally scoped to one language. The post count is the current
// number of published posts; likes, shares, and views are restricted to the
// window.
func (s *Store) SiteAnalytics(language string, days int) (SiteStats, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	stats := SiteStats{Since: since}

	postsQuery := `SELECT COUNT(*) FROM posts WHERE status = 'published'`
	var postsArgs []any
	if language != "" {
		postsQuery += ` AND language = ?`
		postsArgs = append(postsArgs, language)
	}
	if err := s.db.QueryRow(postsQuery, postsArgs...).Scan(&stats.Posts); err != nil {
		return SiteStats{}, fmt.Errorf("count posts: %w", err)
	}

	counters := []struct {
		dest  *int
		query string
	}{
		{&stats.Likes, `SELECT COUNT(*) FROM reactions r JOIN posts p ON p.id = r.post_id
			WHERE r.type = 'like' AND r.created_at >= ?`},
		{&stats.Shares, `SELECT COUNT(*) FROM share_events e JOIN posts p ON p.id = e.post_id
			WHERE e.created_at >= ?`},
		{&stats.Views, `SELECT COUNT(*) FROM views v JOIN posts p ON p.id = v.post_id
			WHERE v.created_at >= ?`},
	}
	for _, c := range counters {
		query := c.query
		args := []any{since}
		if language != "" {
			query += ` AND p.language = ?`
			args = append(args, language)
		}
		if err := s.db.QueryRow(query, args...).Scan(c.dest); err != nil {
			return SiteStats{}, fmt.Errorf("site analytics: %w", err)
		}
	}
	return stats, nil
}

// TopPostsByLanguage returns, for each supported language, the top limit
// published posts ordered by like count descending with newer publication
// breaking ties.
func (s *Store) TopPostsByLanguage(limit int) ([]LanguageTopPosts, error) {
	if limit <= 0 {
		limit = 5
	}
	results := make([]LanguageTopPosts, 0, len(languages))
	for _, lang := range languages {
		rows, err := s.db.Query(`
			SELECT p.id, p.title, p.slug, p.language, p.published_at,
				(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.type = 'like') AS likes,
				(SELECT COUNT(*) FROM views v WHERE v.post_id = p.id),
				(SELECT COUNT(*) FROM share_events e WHERE e.post_id = p.id)
			FROM posts p
			WHERE p.language = ? AND p.status = 'published'
			ORDER BY likes DESC, p.published_at DESC
			LIMIT ?`, lang, limit)
		if err != nil {
			return nil, fmt.Errorf("top posts (%s): %w", lang, err)
		}
		entry := LanguageTopPosts{Language: lang, Posts: []TopPost{}}
		for rows.Next() {
			var p TopPost
			var publishedAt sql.NullTime
			if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Language, &publishedAt,
				&p.Likes, &p.Views, &p.Shares); err != nil {
				rows.Close()
				return nil, err
			}
			if publishedAt.Valid {
				t := publishedAt.Time
				p.PublishedAt = &t
			}
			entry.Posts = append(entry.Posts, p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		results = append(results, entry)
	}
	return results, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
