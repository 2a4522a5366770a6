package vintagepress

import "time"

// Language identifies one of the three literary languages the site publishes in.
type Language string

const (
	LanguageMarathi Language = "marathi"
	LanguageHindi   Language = "hindi"
	LanguageEnglish Language = "english"
)

// Languages lists every supported language in display order.
var Languages = []Language{LanguageMarathi, LanguageHindi, LanguageEnglish}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageMarathi, LanguageHindi, LanguageEnglish:
		return true
	}
	return false
}

// PostType categorizes a piece of writing.
type PostType string

const (
	TypePoem       PostType = "poem"
	TypeShortStory PostType = "short_story"
	TypeProse      PostType = "prose"
	TypeOther      PostType = "other"
)

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	switch t {
	case TypePoem, TypeShortStory, TypeProse, TypeOther:
		return true
	}
	return false
}

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// CommentStatus is the moderation state of a comment. Comments start as
// pending and move to approved or rejected through the moderation UI.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// Valid reports whether s is a known comment status.
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected:
		return true
	}
	return false
}

// ShareNetwork identifies where a post was shared to.
type ShareNetwork string

const (
	ShareWhatsApp ShareNetwork = "whatsapp"
	ShareTwitter  ShareNetwork = "twitter"
	ShareFacebook ShareNetwork = "facebook"
	ShareTelegram ShareNetwork = "telegram"
	ShareCopy     ShareNetwork = "copy"
)

// Valid reports whether n is a known share network.
func (n ShareNetwork) Valid() bool {
	switch n {
	case ShareWhatsApp, ShareTwitter, ShareFacebook, ShareTelegram, ShareCopy:
		return true
	}
	return false
}

// SortOption orders post listings.
type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortMostLiked SortOption = "mostLiked"
)

// PostsPerPage is the default page size for post listings.
const PostsPerPage = 9

// FeaturedLimit caps the featured posts listing.
const FeaturedLimit = 6

// Post is the core content type stored in SQLite.
type Post struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Language           Language   `json:"language"`
	Type               PostType   `json:"type"`
	Excerpt            string     `json:"excerpt"`
	Body               string     `json:"body"`
	CoverImageURL      string     `json:"cover_image_url,omitempty"`
	Tags               []string   `json:"tags"`
	Status             PostStatus `json:"status"`
	IsFeatured         bool       `json:"is_featured"`
	PublishedAt        *time.Time `json:"published_at"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// LikeCount is populated by listing queries so the most-liked sort and
	// post cards don't need a second round trip.
	LikeCount int `json:"like_count"`
}

// Comment is a reader comment on a post. PostTitle and PostSlug are filled
// in by moderation listings so the admin UI can link back to the post.
type Comment struct {
	ID         string        `json:"id"`
	PostID     string        `json:"post_id"`
	AuthorName string        `json:"author_name"`
	Body       string        `json:"body"`
	Status     CommentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	PostTitle  string        `json:"post_title,omitempty"`
	PostSlug   string        `json:"post_slug,omitempty"`
}

// PostFilters narrows a published-post listing. Zero values mean "no filter".
type PostFilters struct {
	Language Language
	Type     PostType
	Tags     []string // match any
	Year     int      // calendar year of published_at
	Search   string   // substring over title/excerpt/body, or exact tag
	Featured bool
	Sort     SortOption
	Skip     int
	Take     int // defaults to PostsPerPage
}
