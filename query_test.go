package vintagepress

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func backdatePost(t *testing.T, s *Store, id string, publishedAt time.Time) {
	t.Helper()
	if _, err := s.db.Exec(`UPDATE posts SET published_at = ? WHERE id = ?`, publishedAt.UTC(), id); err != nil {
		t.Fatalf("backdate post: %v", err)
	}
}

func addLikes(t *testing.T, s *Store, postID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.db.Exec(`
			INSERT INTO reactions (id, post_id, type, fingerprint, created_at)
			VALUES (?, ?, 'like', ?, ?)`,
			uuid.NewString(), postID, uuid.NewString(), time.Now().UTC())
		if err != nil {
			t.Fatalf("add like: %v", err)
		}
	}
}

func TestPublishedPostsExcludesDrafts(t *testing.T) {
	s := setupTestStore(t)

	mustSave(t, s, testPost("Public", LanguageEnglish, StatusPublished))
	mustSave(t, s, testPost("Secret", LanguageEnglish, StatusDraft))

	posts, total, err := s.publishedPosts(PostFilters{})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if total != 1 || len(posts) != 1 || posts[0].Title != "Public" {
		t.Errorf("got %d posts (total %d), want only the published one", len(posts), total)
	}
}

func TestPublishedPostsLanguageAndTypeFilter(t *testing.T) {
	s := setupTestStore(t)

	p := testPost("Marathi Poem", LanguageMarathi, StatusPublished)
	mustSave(t, s, p)
	q := testPost("Hindi Story", LanguageHindi, StatusPublished)
	q.Type = TypeShortStory
	mustSave(t, s, q)

	posts, total, err := s.publishedPosts(PostFilters{Language: LanguageMarathi})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if total != 1 || posts[0].Title != "Marathi Poem" {
		t.Errorf("language filter returned %v", posts)
	}

	posts, total, err = s.publishedPosts(PostFilters{Type: TypeShortStory})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if total != 1 || posts[0].Title != "Hindi Story" {
		t.Errorf("type filter returned %v", posts)
	}
}

func TestPublishedPostsTagFilterMatchesAny(t *testing.T) {
	s := setupTestStore(t)

	a := testPost("Tagged A", LanguageEnglish, StatusPublished)
	a.Tags = []string{"monsoon", "tea"}
	mustSave(t, s, a)
	b := testPost("Tagged B", LanguageEnglish, StatusPublished)
	b.Tags = []string{"winter"}
	mustSave(t, s, b)
	c := testPost("Untagged", LanguageEnglish, StatusPublished)
	mustSave(t, s, c)

	_, total, err := s.publishedPosts(PostFilters{Tags: []string{"monsoon", "winter"}})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if total != 2 {
		t.Errorf("tag filter total = %d, want 2", total)
	}

	// A tag that is a substring of another must not match.
	_, total, err = s.publishedPosts(PostFilters{Tags: []string{"te"}})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if total != 0 {
		t.Errorf("substring tag matched %d posts, want 0", total)
	}
}

func TestPublishedPostsYearFilter(t *testing.T) {
	s := setupTestStore(t)

	old := mustSave(t, s, testPost("From 2023", LanguageEnglish, StatusPublished))
	backdatePost(t, s, old.ID, time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC))
	mustSave(t, s, testPost("Recent", LanguageEnglish, StatusPublished))

	posts, total, err := s.publishedPosts(PostFilters{Year: 2023})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if total != 1 || posts[0].Title != "From 2023" {
		t.Errorf("year filter returned %v (total %d)", posts, total)
	}
}

func TestPublishedPostsSearch(t *testing.T) {
	s := setupTestStore(t)

	p := testPost("The Quiet River", LanguageEnglish, StatusPublished)
	p.Body = "Water flows past the old ghat."
	p.Tags = []string{"river"}
	mustSave(t, s, p)
	mustSave(t, s, testPost("Something Else", LanguageEnglish, StatusPublished))

	for _, term := range []string{"quiet", "GHAT", "river"} {
		_, total, err := s.publishedPosts(PostFilters{Search: term})
		if err != nil {
			t.Fatalf("publishedPosts(%q) failed: %v", term, err)
		}
		if total != 1 {
			t.Errorf("search %q total = %d, want 1", term, total)
		}
	}
}

func TestPublishedPostsMostLikedSort(t *testing.T) {
	s := setupTestStore(t)

	a := mustSave(t, s, testPost("Few Likes", LanguageEnglish, StatusPublished))
	backdatePost(t, s, a.ID, time.Now().UTC().Add(-time.Hour))
	b := mustSave(t, s, testPost("Many Likes", LanguageEnglish, StatusPublished))
	backdatePost(t, s, b.ID, time.Now().UTC().Add(-2*time.Hour))
	addLikes(t, s, a.ID, 1)
	addLikes(t, s, b.ID, 5)

	posts, _, err := s.publishedPosts(PostFilters{Sort: SortMostLiked})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "Many Likes" {
		t.Fatalf("most-liked order wrong: %v", posts)
	}
	if posts[0].LikeCount != 5 || posts[1].LikeCount != 1 {
		t.Errorf("like counts = %d,%d, want 5,1", posts[0].LikeCount, posts[1].LikeCount)
	}

	// Default sort is newest first.
	posts, _, err = s.publishedPosts(PostFilters{})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if posts[0].Title != "Few Likes" {
		t.Errorf("newest-first order wrong: %v", posts)
	}
}

func TestPublishedPostsMostLikedTieBreaksByRecency(t *testing.T) {
	s := setupTestStore(t)

	older := mustSave(t, s, testPost("Tied but Older", LanguageHindi, StatusPublished))
	backdatePost(t, s, older.ID, time.Now().UTC().Add(-48*time.Hour))
	newer := mustSave(t, s, testPost("Tied but Newer", LanguageHindi, StatusPublished))
	backdatePost(t, s, newer.ID, time.Now().UTC().Add(-time.Hour))
	addLikes(t, s, older.ID, 5)
	addLikes(t, s, newer.ID, 5)

	posts, _, err := s.publishedPosts(PostFilters{Sort: SortMostLiked})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if posts[0].ID != newer.ID || posts[1].ID != older.ID {
		t.Errorf("equal likes ordered %q, %q; want the newer publication first",
			posts[0].Title, posts[1].Title)
	}
}

func TestPublishedPostsPagination(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < 12; i++ {
		p := mustSave(t, s, testPost("Page Fill", LanguageEnglish, StatusPublished))
		backdatePost(t, s, p.ID, time.Now().UTC().Add(-time.Duration(i)*time.Minute))
	}

	posts, total, err := s.publishedPosts(PostFilters{})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if len(posts) != PostsPerPage || total != 12 {
		t.Errorf("page 1: len=%d total=%d, want %d and 12", len(posts), total, PostsPerPage)
	}

	posts, total, err = s.publishedPosts(PostFilters{Skip: PostsPerPage})
	if err != nil {
		t.Fatalf("publishedPosts failed: %v", err)
	}
	if len(posts) != 3 || total != 12 {
		t.Errorf("page 2: len=%d total=%d, want 3 and 12", len(posts), total)
	}
}

func TestFeaturedPostsCapped(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < FeaturedLimit+2; i++ {
		p := testPost("Featured", LanguageMarathi, StatusPublished)
		p.IsFeatured = true
		mustSave(t, s, p)
	}

	posts := s.FeaturedPosts(LanguageMarathi)
	if len(posts) != FeaturedLimit {
		t.Errorf("len(featured) = %d, want %d", len(posts), FeaturedLimit)
	}
	if len(s.FeaturedPosts(LanguageEnglish)) != 0 {
		t.Error("featured listing leaked across languages")
	}
}

func TestAllTagsSortedDistinct(t *testing.T) {
	s := setupTestStore(t)

	a := testPost("One", LanguageEnglish, StatusPublished)
	a.Tags = []string{"zebra", "apple"}
	mustSave(t, s, a)
	b := testPost("Two", LanguageEnglish, StatusPublished)
	b.Tags = []string{"apple", "mango"}
	mustSave(t, s, b)
	d := testPost("Hidden", LanguageEnglish, StatusDraft)
	d.Tags = []string{"secret"}
	mustSave(t, s, d)

	tags, err := s.allTags("")
	if err != nil {
		t.Fatalf("allTags failed: %v", err)
	}
	want := []string{"apple", "mango", "zebra"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestAvailableYearsDescending(t *testing.T) {
	s := setupTestStore(t)

	a := mustSave(t, s, testPost("Old", LanguageEnglish, StatusPublished))
	backdatePost(t, s, a.ID, time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC))
	b := mustSave(t, s, testPost("Older", LanguageEnglish, StatusPublished))
	backdatePost(t, s, b.ID, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))

	years, err := s.availableYears("")
	if err != nil {
		t.Fatalf("availableYears failed: %v", err)
	}
	if len(years) != 2 || years[0] != 2024 || years[1] != 2022 {
		t.Errorf("years = %v, want [2024 2022]", years)
	}
}

func TestRelatedPostsPreferSharedTags(t *testing.T) {
	s := setupTestStore(t)

	subject := testPost("Subject", LanguageMarathi, StatusPublished)
	subject.Tags = []string{"monsoon"}
	saved := mustSave(t, s, subject)

	shared := testPost("Shares Tag", LanguageMarathi, StatusPublished)
	shared.Tags = []string{"monsoon"}
	sharedSaved := mustSave(t, s, shared)

	other := testPost("Other Topic", LanguageMarathi, StatusPublished)
	other.Tags = []string{"winter"}
	mustSave(t, s, other)

	foreign := testPost("Wrong Language", LanguageHindi, StatusPublished)
	foreign.Tags = []string{"monsoon"}
	mustSave(t, s, foreign)

	related, err := s.relatedPosts(saved, 3)
	if err != nil {
		t.Fatalf("relatedPosts failed: %v", err)
	}
	if len(related) != 1 || related[0].ID != sharedSaved.ID {
		t.Errorf("related = %v, want only the same-language tag match", related)
	}
}

func TestRelatedPostsFallbackWithoutTags(t *testing.T) {
	s := setupTestStore(t)

	saved := mustSave(t, s, testPost("Tagless", LanguageEnglish, StatusPublished))
	mustSave(t, s, testPost("Neighbor A", LanguageEnglish, StatusPublished))
	mustSave(t, s, testPost("Neighbor B", LanguageEnglish, StatusPublished))

	related, err := s.relatedPosts(saved, 3)
	if err != nil {
		t.Fatalf("relatedPosts failed: %v", err)
	}
	if len(related) != 2 {
		t.Errorf("len(related) = %d, want 2", len(related))
	}
	for _, r := range related {
		if r.ID == saved.ID {
			t.Error("related posts include the subject itself")
		}
	}
}
