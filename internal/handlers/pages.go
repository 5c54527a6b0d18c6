package handlers

import (
	"zenwisdom.org/zen-web/internal/nav"
	"zenwisdom.org/zen-web/internal/seo"
	"zenwisdom.org/zen-web/internal/site"
)

// PageData is the generic view model for pages using the shared layout.
type PageData struct {
	Title string
	SEO   seo.Meta

	// Page selects the body template the base layout dispatches to.
	Page string

	Path string
	Nav  []nav.RenderedItem
	// ShowNav hides the top navigation on the hero page.
	ShowNav bool

	// Site is the fully defaulted editorial content.
	Site site.View

	// CSRFToken is surfaced to templates for modifying requests.
	CSRFToken string

	// Optional per-page view model payloads. The hero page renders from
	// Site alone and needs no extra payload.
	More   any
	Reader any
}
