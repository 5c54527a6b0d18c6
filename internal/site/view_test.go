package site

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"zenwisdom.org/zen-web/internal/cms"
)

func TestResolveDefaultsForAbsentFields(t *testing.T) {
	v := Resolve(cms.Settings{}, nil)

	assert.Equal(t, DefaultSiteTitle, v.SiteTitle)
	assert.Equal(t, DefaultBuyButtonText, v.BuyButtonText)
	assert.Equal(t, DefaultMoreButtonText, v.MoreButtonText)
	assert.Equal(t, DefaultExploreHeading, v.ExploreHeading)
	assert.Equal(t, DefaultReadOnlineTitle, v.ReadOnlineTitle)
	assert.Empty(t, v.CoverURL)
	assert.Empty(t, v.FaviconURL)
	assert.Empty(t, v.BuyButtonURL)
	assert.Empty(t, v.PDFURL)
	assert.Empty(t, string(v.DescriptionHTML))
}

func TestResolveKeepsEditorialValues(t *testing.T) {
	s := cms.Settings{
		SiteTitle:       "Zen",
		BuyButtonText:   "Order",
		ExploreHeading:  "Discover",
		ReadOnlineTitle: "The Book",
		BuyButtonURL:    "https://shop.example/zen",
		PDFURL:          "https://cdn.example/zen.pdf",
	}
	v := Resolve(s, nil)
	assert.Equal(t, "Zen", v.SiteTitle)
	assert.Equal(t, "Order", v.BuyButtonText)
	assert.Equal(t, "Discover", v.ExploreHeading)
	assert.Equal(t, "The Book", v.ReadOnlineTitle)
	assert.Equal(t, "https://shop.example/zen", v.BuyButtonURL)
}

func TestResolveImageResolution(t *testing.T) {
	s := cms.Settings{
		BookCoverRef:   "image-abc-2000x3000-jpg",
		SiteFaviconRef: "image-fav-64x64-png",
	}
	v := Resolve(s, func(ref string, w, h int) string {
		if strings.HasPrefix(ref, "image-fav") {
			assert.Equal(t, 64, w)
			assert.Equal(t, 64, h)
			return "https://cdn.example/fav.png"
		}
		assert.Equal(t, 2000, w)
		return "https://cdn.example/cover.jpg"
	})
	assert.Equal(t, "https://cdn.example/cover.jpg", v.CoverURL)
	assert.Equal(t, "https://cdn.example/fav.png", v.FaviconURL)
}

func TestDescriptionMarkdownIsRenderedAndSanitized(t *testing.T) {
	s := cms.Settings{BookDescription: "A *quiet* book.\n\n<script>alert(1)</script>"}
	v := Resolve(s, nil)
	html := string(v.DescriptionHTML)
	assert.Contains(t, html, "<em>quiet</em>")
	assert.NotContains(t, html, "<script>")
}
