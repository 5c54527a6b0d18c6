// Package site resolves the optional-field settings document into the fully
// defaulted view model the templates consume. Every "field missing -> default"
// rule lives here and nowhere else.
package site

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"zenwisdom.org/zen-web/internal/cms"
)

// Documented defaults for absent editorial fields.
const (
	DefaultSiteTitle       = "The Greatest Wisdom of Zen"
	DefaultBuyButtonText   = "Buy"
	DefaultMoreButtonText  = "More"
	DefaultExploreHeading  = "Explore"
	DefaultReadOnlineTitle = "Read Online"
)

// Cover and favicon render sizes requested from the image CDN.
const (
	coverWidth  = 2000
	faviconSize = 64
)

// View is the fully defaulted, render-ready shape of the site content. No
// field is ever required for a page to render: absent images yield empty URLs
// and the templates show their placeholder states.
type View struct {
	SiteTitle  string
	FaviconURL string

	CoverURL string

	BuyButtonText  string
	BuyButtonURL   string
	MoreButtonText string

	ExploreHeading string
	// DescriptionHTML is the book description rendered from Markdown and
	// sanitized; empty when the editor has not written one.
	DescriptionHTML template.HTML

	ReadOnlineTitle string
	PDFURL          string
}

var (
	descriptionMD     = goldmark.New()
	descriptionPolicy = bluemonday.UGCPolicy()
)

// Resolve maps a settings document to the defaulted view model. resolver
// converts image references to URLs; pass nil when no image CDN is configured.
func Resolve(s cms.Settings, resolver func(ref string, w, h int) string) View {
	v := View{
		SiteTitle:       fallback(s.SiteTitle, DefaultSiteTitle),
		BuyButtonText:   fallback(s.BuyButtonText, DefaultBuyButtonText),
		BuyButtonURL:    s.BuyButtonURL,
		MoreButtonText:  fallback(s.MoreButtonText, DefaultMoreButtonText),
		ExploreHeading:  fallback(s.ExploreHeading, DefaultExploreHeading),
		ReadOnlineTitle: fallback(s.ReadOnlineTitle, DefaultReadOnlineTitle),
		PDFURL:          s.PDFURL,
	}
	if resolver != nil {
		if s.BookCoverRef != "" {
			v.CoverURL = resolver(s.BookCoverRef, coverWidth, 0)
		}
		if s.SiteFaviconRef != "" {
			v.FaviconURL = resolver(s.SiteFaviconRef, faviconSize, faviconSize)
		}
	}
	v.DescriptionHTML = renderDescription(s.BookDescription)
	return v
}

// renderDescription converts the editor's Markdown description into sanitized
// HTML. Conversion failures degrade to no description rather than an error.
func renderDescription(md string) template.HTML {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := descriptionMD.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	// Sanitized output is safe to mark as HTML.
	return template.HTML(descriptionPolicy.SanitizeBytes(buf.Bytes())) // #nosec G203
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
