package vintagepress

import (
	"log"
	"sort"
	"strings"
	"time"
)

// The exported query methods below are the read surface for page rendering.
// They fail soft: a store error degrades the page to an empty listing
// instead of a 500, with the cause logged for operators. The unexported
// variants return the underlying error and are what the tests exercise.

// PublishedPosts returns a filtered, sorted page of published posts plus the
// total match count. On a data-access failure it returns an empty page.
func (s *Store) PublishedPosts(f PostFilters) ([]Post, int) {
	posts, total, err := s.publishedPosts(f)
	if err != nil {
		log.Printf("vintagepress: published posts: %v", err)
		return nil, 0
	}
	return posts, total
}

func (s *Store) publishedPosts(f PostFilters) ([]Post, int, error) {
	where, args := buildPublishedWhere(f)

	take := f.Take
	if take <= 0 {
		take = PostsPerPage
	}
	skip := f.Skip
	if skip < 0 {
		skip = 0
	}

	order := `p.published_at DESC`
	if f.Sort == SortMostLiked {
		order = `like_count DESC, p.published_at DESC`
	}

	query := `SELECT ` + postColumns + ` FROM posts p WHERE ` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	rows, err := s.db.Query(query, append(append([]any{}, args...), take, skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func buildPublishedWhere(f PostFilters) (string, []any) {
	conds := []string{`p.status = 'published'`}
	var args []any

	if f.Language != "" {
		conds = append(conds, `p.language = ?`)
		args = append(args, string(f.Language))
	}
	if f.Type != "" {
		conds = append(conds, `p.type = ?`)
		args = append(args, string(f.Type))
	}
	if tags := FilterEmpty(f.Tags); len(tags) > 0 {
		ors := make([]string, len(tags))
		for i, t := range tags {
			ors[i] = `instr(p.tags, ',' || ? || ',') > 0`
			args = append(args, normalizeTag(t))
		}
		conds = append(conds, `(`+strings.Join(ors, ` OR `)+`)`)
	}
	if f.Featured {
		conds = append(conds, `p.is_featured = 1`)
	}
	if f.Year != 0 {
		start := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		conds = append(conds, `p.published_at >= ? AND p.published_at < ?`)
		args = append(args, start, start.AddDate(1, 0, 0))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		lowered := strings.ToLower(term)
		conds = append(conds, `(instr(lower(p.title), ?) > 0
			OR instr(lower(p.excerpt), ?) > 0
			OR instr(lower(p.body), ?) > 0
			OR instr(p.tags, ',' || ? || ',') > 0)`)
		args = append(args, lowered, lowered, lowered, lowered)
	}

	return strings.Join(conds, ` AND `), args
}

// FeaturedPosts returns up to FeaturedLimit published featured posts,
// newest first, optionally filtered by language. Empty on failure.
func (s *Store) FeaturedPosts(language Language) []Post {
	posts, _, err := s.publishedPosts(PostFilters{
		Language: language,
		Featured: true,
		Take:     FeaturedLimit,
	})
	if err != nil {
		log.Printf("vintagepress: featured posts: %v", err)
		return nil
	}
	return posts
}

// AllTags returns the distinct tags across published posts in a language
// (or all languages), alphabetically sorted. Empty on failure.
func (s *Store) AllTags(language Language) []string {
	tags, err := s.allTags(language)
	if err != nil {
		log.Printf("vintagepress: all tags: %v", err)
		return nil
	}
	return tags
}

func (s *Store) allTags(language Language) ([]string, error) {
	query := `SELECT tags FROM posts WHERE status = 'published'`
	var args []any
	if language != "" {
		query += ` AND language = ?`
		args = append(args, string(language))
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range parseTags(tags) {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// AvailableYears returns the distinct calendar years of published posts,
// descending. Empty on failure.
func (s *Store) AvailableYears(language Language) []int {
	years, err := s.availableYears(language)
	if err != nil {
		log.Printf("vintagepress: available years: %v", err)
		return nil
	}
	return years
}

func (s *Store) availableYears(language Language) ([]int, error) {
	query := `SELECT published_at FROM posts WHERE status = 'published' AND published_at IS NOT NULL`
	var args []any
	if language != "" {
		query += ` AND language = ?`
		args = append(args, string(language))
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[int]struct{})
	for rows.Next() {
		var publishedAt time.Time
		if err := rows.Scan(&publishedAt); err != nil {
			return nil, err
		}
		set[publishedAt.UTC().Year()] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// RelatedPosts returns up to limit published posts in the same language.
// Posts sharing a tag with p rank first by like count, then recency; when p
// has no tags the fallback is simply the newest posts in the language.
// Empty on failure.
func (s *Store) RelatedPosts(p Post, limit int) []Post {
	posts, err := s.relatedPosts(p, limit)
	if err != nil {
		log.Printf("vintagepress: related posts: %v", err)
		return nil
	}
	return posts
}

func (s *Store) relatedPosts(p Post, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 3
	}
	where := `p.status = 'published' AND p.language = ? AND p.id != ?`
	args := []any{string(p.Language), p.ID}
	order := `p.published_at DESC`

	if tags := FilterEmpty(p.Tags); len(tags) > 0 {
		ors := make([]string, len(tags))
		for i, t := range tags {
			ors[i] = `instr(p.tags, ',' || ? || ',') > 0`
			args = append(args, normalizeTag(t))
		}
		where += ` AND (` + strings.Join(ors, ` OR `) + `)`
		order = `like_count DESC, p.published_at DESC`
	}

	query := `SELECT ` + postColumns + ` FROM posts p WHERE ` + where +
		` ORDER BY ` + order + ` LIMIT ?`
	rows, err := s.db.Query(query, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
