// Package analytics provides the engagement ledger (views, likes, shares)
// and anonymous visitor fingerprinting for the publishing site. It shares
// the content store's database so engagement counters can join against
// posts, and its API trades only in plain values so page and action handlers
// can call it without framework types leaking in.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// visitorCookie is the long-lived cookie carrying the random visitor id.
// The value is an opaque random token, not a credential.
const visitorCookie = "vintage_fp"

// visitorCookieMaxAge keeps the visitor id around for roughly a year.
const visitorCookieMaxAge = 60 * 60 * 24 * 365

// Visitor is the resolved identity for one request. VisitorID is empty when
// no cookie exists and persistence was not requested; Fingerprint is always
// set.
type Visitor struct {
	VisitorID   string
	Fingerprint string
}

// Fingerprint hashes an identity basis string into the stable hex digest
// used as the dedup key for views and likes. Pure so it can be tested apart
// from cookie handling.
func Fingerprint(basis string) string {
	sum := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(sum[:])
}

// ResolveVisitor derives the visitor identity for a request. A previously
// persisted visitor id is always reused. Without one, persist=true mints a
// fresh random id and schedules the cookie; persist=false falls back to
// hashing "ip|user-agent" for this call only, which is best-effort and may
// collide or change across sessions. Never fails.
func ResolveVisitor(c echo.Context, persist, secureCookie bool) Visitor {
	visitorID := ""
	if cookie, err := c.Cookie(visitorCookie); err == nil {
		visitorID = cookie.Value
	}
	if visitorID == "" && persist {
		visitorID = uuid.NewString()
		c.SetCookie(&http.Cookie{
			Name:     visitorCookie,
			Value:    visitorID,
			Path:     "/",
			MaxAge:   visitorCookieMaxAge,
			SameSite: http.SameSiteLaxMode,
			Secure:   secureCookie,
		})
	}
	basis := visitorID
	if basis == "" {
		basis = c.RealIP() + "|" + c.Request().UserAgent()
	}
	return Visitor{VisitorID: visitorID, Fingerprint: Fingerprint(basis)}
}

// ViewDedupWindow is the interval within which repeated views from the same
// fingerprint collapse into one recorded view.
const ViewDedupWindow = 6 * time.Hour
