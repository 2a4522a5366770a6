package vintagepress

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// handleLogin authenticates the site admin. Failed attempts are rate limited
// per IP; successful ones are not recorded against the limit.
func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(a.Config.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) == 1
	if !emailOK || !passOK {
		a.loginLimiter.Record(ip)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type savePostRequest struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Language      string   `json:"language"`
	Type          string   `json:"type"`
	Excerpt       string   `json:"excerpt"`
	Body          string   `json:"body"`
	CoverImageURL string   `json:"cover_image_url"`
	Tags          []string `json:"tags"`
	Status        string   `json:"status"`
	IsFeatured    bool     `json:"is_featured"`
}

// handleSavePost creates or updates a post. An empty id means create; slug
// generation and reading time are handled by the store.
func (a *App) handleSavePost(c echo.Context) error {
	var req savePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if !Language(req.Language).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown language")
	}
	if !PostType(req.Type).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown post type")
	}
	status := PostStatus(req.Status)
	if status != StatusDraft && status != StatusPublished {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	post, err := a.Store.SavePost(Post{
		ID:            req.ID,
		Title:         strings.TrimSpace(req.Title),
		Slug:          req.Slug,
		Language:      Language(req.Language),
		Type:          PostType(req.Type),
		Excerpt:       req.Excerpt,
		Body:          req.Body,
		CoverImageURL: req.CoverImageURL,
		Tags:          req.Tags,
		Status:        status,
		IsFeatured:    req.IsFeatured,
	})
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]any{"post": post})
}

func (a *App) handleAdminListPosts(c echo.Context) error {
	posts, err := a.Store.AllPosts()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": posts})
}

// handleDeletePost removes a post and its engagement rows.
func (a *App) handleDeletePost(c echo.Context) error {
	if err := a.Store.DeletePost(c.Param("id")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

type bulkActionRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}

// handleBulkPostAction applies publish/unpublish/feature/unfeature/delete to
// a set of posts in one statement.
func (a *App) handleBulkPostAction(c echo.Context) error {
	var req bulkActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no post ids given")
	}
	if err := a.Store.BulkPostAction(req.IDs, req.Action); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleListComments serves the moderation queue for one status with cursor
// pagination.
func (a *App) handleListComments(c echo.Context) error {
	status := CommentStatus(c.QueryParam("status"))
	if status == "" {
		status = CommentPending
	}
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown comment status")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	comments, next, err := a.Store.ListComments(status, limit, c.QueryParam("cursor"))
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"comments":    comments,
		"next_cursor": next,
	})
}

type commentStatusRequest struct {
	Status string `json:"status"`
}

// handleSetCommentStatus moves a comment between moderation states.
func (a *App) handleSetCommentStatus(c echo.Context) error {
	var req commentStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	status := CommentStatus(req.Status)
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown comment status")
	}
	comment, err := a.Store.SetCommentStatus(c.Param("id"), status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "comment not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"comment": comment})
}

func (a *App) handleDeleteComment(c echo.Context) error {
	if err := a.Store.DeleteComment(c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSiteAnalytics serves the dashboard counters for a trailing window.
func (a *App) handleSiteAnalytics(c echo.Context) error {
	lang := Language(c.QueryParam("language"))
	if !lang.Valid() {
		lang = ""
	}
	days, _ := strconv.Atoi(c.QueryParam("days"))
	stats, err := a.Analytics.SiteAnalytics(string(lang), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (a *App) handleTopPosts(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	top, err := a.Analytics.TopPostsByLanguage(limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"languages": top})
}

// handlePostMetrics serves per-post engagement counters.
func (a *App) handlePostMetrics(c echo.Context) error {
	metrics, err := a.Analytics.PostMetrics(c.Param("id"))
	if err != nil {
		return err
	}
	if metrics == nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	return c.JSON(http.StatusOK, metrics)
}
