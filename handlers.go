package vintagepress

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/smapte/vintagepress/analytics"
)

// filtersFromQuery parses listing query parameters into PostFilters.
// Unknown enum values are dropped rather than rejected so stale links keep
// working.
func filtersFromQuery(c echo.Context) PostFilters {
	f := PostFilters{
		Search: strings.TrimSpace(c.QueryParam("q")),
		Take:   PostsPerPage,
	}
	if lang := Language(c.QueryParam("language")); lang.Valid() {
		f.Language = lang
	}
	if pt := PostType(c.QueryParam("type")); pt.Valid() {
		f.Type = pt
	}
	if tags := FilterEmpty(c.QueryParams()["tag"]); len(tags) > 0 {
		f.Tags = tags
	}
	if year, err := strconv.Atoi(c.QueryParam("year")); err == nil && year > 0 {
		f.Year = year
	}
	if c.QueryParam("featured") == "true" {
		f.Featured = true
	}
	if sort := SortOption(c.QueryParam("sort")); sort == SortMostLiked {
		f.Sort = sort
	}
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	f.Skip = (page - 1) * PostsPerPage
	return f
}

// handleListPosts serves the filtered, paginated post listing.
func (a *App) handleListPosts(c echo.Context) error {
	f := filtersFromQuery(c)
	posts, total := a.Store.PublishedPosts(f)
	pages := (total + PostsPerPage - 1) / PostsPerPage
	return c.JSON(http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
		"page":  f.Skip/PostsPerPage + 1,
		"pages": pages,
	})
}

// handleFeaturedPosts serves the featured strip, cached per language.
func (a *App) handleFeaturedPosts(c echo.Context) error {
	lang := Language(c.QueryParam("language"))
	if !lang.Valid() {
		lang = ""
	}
	return c.JSON(http.StatusOK, map[string]any{
		"posts": a.Cache.FeaturedPosts(lang),
	})
}

// handleTags serves the tag cloud, cached per language.
func (a *App) handleTags(c echo.Context) error {
	lang := Language(c.QueryParam("language"))
	if !lang.Valid() {
		lang = ""
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tags": a.Cache.AllTags(lang),
	})
}

// handleYears serves the archive year list for a language.
func (a *App) handleYears(c echo.Context) error {
	lang := Language(c.QueryParam("language"))
	if !lang.Valid() {
		lang = ""
	}
	return c.JSON(http.StatusOK, map[string]any{
		"years": a.Store.AvailableYears(lang),
	})
}

// handleGetPost serves the full post page payload: the post itself, related
// posts, approved comments, and the caller's like state. Serving the page
// records a deduplicated view. Engagement failures never fail the page.
func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Store.GetPostBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	if post.Status != StatusPublished && !IsAdmin(c) {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	visitor := analytics.ResolveVisitor(c, false, a.Config.CookieSecure)
	if _, err := a.Analytics.RecordView(post.ID, visitor.Fingerprint); err != nil {
		c.Logger().Errorf("record view for %s: %v", post.ID, err)
	}

	comments, err := a.Store.ApprovedComments(post.ID)
	if err != nil {
		c.Logger().Errorf("load comments for %s: %v", post.ID, err)
		comments = []Comment{}
	}
	liked, err := a.Analytics.HasLiked(post.ID, visitor.Fingerprint, adminUserID(c))
	if err != nil {
		c.Logger().Errorf("like state for %s: %v", post.ID, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"post":     post,
		"related":  a.Store.RelatedPosts(post, 0),
		"comments": comments,
		"liked":    liked,
	})
}

// handleGetLike serves the caller's like state for a post without mutating
// anything, so the page can render the heart before any interaction.
func (a *App) handleGetLike(c echo.Context) error {
	postID := c.Param("id")
	visitor := analytics.ResolveVisitor(c, false, a.Config.CookieSecure)
	liked, err := a.Analytics.HasLiked(postID, visitor.Fingerprint, adminUserID(c))
	if err != nil {
		return err
	}
	count, err := a.Analytics.LikeCount(postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analytics.LikeState{Liked: liked, Count: count})
}

// handleToggleLike flips the caller's like on a post. This is the one public
// action that persists a visitor cookie, so the like survives the session.
func (a *App) handleToggleLike(c echo.Context) error {
	post, err := a.Store.GetPostByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	visitor := analytics.ResolveVisitor(c, true, a.Config.CookieSecure)
	state, err := a.Analytics.ToggleLike(post.ID, visitor.Fingerprint, adminUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

type shareRequest struct {
	Network string `json:"network" form:"network"`
}

// handleShare logs a share click. Every click counts; a fingerprinted share
// also implies the visitor viewed the post.
func (a *App) handleShare(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if !ShareNetwork(req.Network).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown share network")
	}
	post, err := a.Store.GetPostByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	visitor := analytics.ResolveVisitor(c, false, a.Config.CookieSecure)
	if err := a.Analytics.RecordShare(post.ID, req.Network, visitor.Fingerprint); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

const (
	commentNameMin = 2
	commentNameMax = 80
	commentBodyMin = 2
	commentBodyMax = 500
)

type commentRequest struct {
	AuthorName string `json:"author_name" form:"author_name"`
	Body       string `json:"body" form:"body"`
}

// handleCreateComment accepts a reader comment into the moderation queue.
// Rate limited per IP to keep drive-by spam cheap to absorb.
func (a *App) handleCreateComment(c echo.Context) error {
	if !a.commentLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many comments, slow down")
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	name := strings.TrimSpace(req.AuthorName)
	body := strings.TrimSpace(req.Body)
	if n := utf8.RuneCountInString(name); n < commentNameMin || n > commentNameMax {
		return echo.NewHTTPError(http.StatusBadRequest, "name must be 2-80 characters")
	}
	if n := utf8.RuneCountInString(body); n < commentBodyMin || n > commentBodyMax {
		return echo.NewHTTPError(http.StatusBadRequest, "comment must be 2-500 characters")
	}
	post, err := a.Store.GetPostByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	if post.Status != StatusPublished {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	comment, err := a.Store.CreateComment(post.ID, name, body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"comment": comment,
		"status":  "pending review",
	})
}
