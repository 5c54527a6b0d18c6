package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	handlersPkg "zenwisdom.org/zen-web/internal/handlers"
	"zenwisdom.org/zen-web/internal/hittest"
	mw "zenwisdom.org/zen-web/internal/middleware"
	"zenwisdom.org/zen-web/internal/seo"
	"zenwisdom.org/zen-web/internal/site"
)

// HomeHandler renders the hero page: the full-viewport book cover with the
// buy link overlay. Navigation chrome is suppressed; the cover art carries
// the call-to-action.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	view := siteView(r)

	vm := handlersPkg.PageData{
		Title:   view.SiteTitle,
		Path:    r.URL.Path,
		ShowNav: false,
		Site:    view,
	}
	if s := mw.GetSession(r); s != nil {
		vm.CSRFToken = s.CSRFToken
	}

	vm.SEO.Title = view.SiteTitle
	vm.SEO.Description = "The hidden gem of spiritual world."
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = view.SiteTitle
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.Twitter.Card = "summary_large_image"
	vm.SEO.JSONLD = []string{
		seo.JSON(seo.WebSite(view.SiteTitle, siteBaseURL(r))),
		seo.JSON(seo.Book(view.SiteTitle, "", siteBaseURL(r), view.CoverURL, view.BuyButtonURL)),
	}

	renderPage(w, r, "page_home", vm)
}

// heroHitRequest is the click payload posted by the cover script: offsets
// within the displayed image plus its on-screen size.
type heroHitRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	DisplayW float64 `json:"displayW"`
	DisplayH float64 `json:"displayH"`
}

type heroHitResponse struct {
	Hit      bool   `json:"hit"`
	Location string `json:"location"`
}

// HeroHitHandler samples the cover artwork at the clicked point and tells the
// client whether to navigate. Every failure path answers hit=true so the
// explore page stays reachable even when the cover cannot be inspected.
func HeroHitHandler(w http.ResponseWriter, r *http.Request) {
	var req heroHitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	view := siteView(r)
	hit := true
	if view.CoverURL != "" {
		sampler := cover.Sampler(r.Context(), view.CoverURL)
		hit = sampler.HitDark(hittest.Click{
			X: req.X, Y: req.Y,
			DisplayW: req.DisplayW, DisplayH: req.DisplayH,
		})
	}

	logger.Debug("hero hit-test",
		zap.Float64("x", req.X), zap.Float64("y", req.Y),
		zap.Bool("hit", hit))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(heroHitResponse{Hit: hit, Location: "/more"})
}

// siteView fetches the current editorial document and resolves defaults.
func siteView(r *http.Request) site.View {
	settings := content.SiteSettings(r.Context())
	return site.Resolve(settings, content.ImageURL)
}

// siteBaseURL is the external origin used for structured data.
func siteBaseURL(r *http.Request) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
