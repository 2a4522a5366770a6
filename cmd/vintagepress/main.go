// Command vintagepress runs the publishing site server. All configuration
// comes from environment variables, optionally loaded from a .env file.
package main

import (
	"log"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/smapte/vintagepress"
)

func main() {
	// Missing .env is fine in production where env vars come from the host.
	_ = godotenv.Load()

	cfg := vintagepress.SiteConfig{
		Name:        vintagepress.EnvOr("SITE_NAME", "Vintage Pen"),
		URL:         vintagepress.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: vintagepress.EnvOr("SITE_DESCRIPTION", ""),

		Addr:         vintagepress.EnvOr("ADDR", ":3000"),
		DatabasePath: vintagepress.EnvOr("DATABASE_PATH", "data/site.db"),

		AdminEmail:    vintagepress.EnvOr("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: vintagepress.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: vintagepress.MustEnv("SESSION_SECRET"),
		CookieSecure:  vintagepress.EnvOr("COOKIE_SECURE", "false") == "true",
	}
	if ttl, err := strconv.Atoi(vintagepress.EnvOr("CONTENT_CACHE_TTL_SECONDS", "")); err == nil && ttl > 0 {
		cfg.ContentCacheTTL = time.Duration(ttl) * time.Second
	}

	app := vintagepress.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
