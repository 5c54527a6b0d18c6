package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	handlersPkg "zenwisdom.org/zen-web/internal/handlers"
	mw "zenwisdom.org/zen-web/internal/middleware"
	"zenwisdom.org/zen-web/internal/nav"
	"zenwisdom.org/zen-web/internal/pdfview"
)

// ReaderView is the in-browser reader view model.
type ReaderView struct {
	Title string
	// PDFURL is empty when no document has been published.
	PDFURL string
	// LoadFailed is true when a published document could not be inspected.
	LoadFailed bool

	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool

	CSRFToken string
}

// ReadOnlineHandler renders the reader page. The reader position is carried
// in the session keyed by document URL, so switching the published document
// starts back at page one.
func ReadOnlineHandler(w http.ResponseWriter, r *http.Request) {
	view := siteView(r)
	s := mw.GetSession(r)

	rv := buildReaderView(r, s)

	vm := handlersPkg.PageData{
		Title:   view.ReadOnlineTitle + " | " + view.SiteTitle,
		Path:    r.URL.Path,
		Nav:     nav.Build(r.URL.Path),
		ShowNav: true,
		Site:    view,
		Reader:  rv,
	}
	if s != nil {
		vm.CSRFToken = s.CSRFToken
	}

	vm.SEO.Title = vm.Title
	vm.SEO.Description = "Read the book in your browser."
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = view.SiteTitle
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.Twitter.Card = "summary"

	renderPage(w, r, "page_read_online", vm)
}

// ReaderPageFrag steps the reader one page forward or back and re-renders the
// reader fragment. Unknown directions are a no-op re-render.
func ReaderPageFrag(w http.ResponseWriter, r *http.Request) {
	s := mw.GetSession(r)
	rv := buildReaderView(r, s)

	if rv.PDFURL != "" && !rv.LoadFailed {
		c := pdfview.Restore(rv.TotalPages, rv.CurrentPage)
		switch chi.URLParam(r, "dir") {
		case "next":
			c.Next()
		case "prev":
			c.Prev()
		}
		rv.CurrentPage = c.CurrentPage()
		rv.HasPrev = c.HasPrev()
		rv.HasNext = c.HasNext()
		if s != nil {
			s.ReaderPage = c.CurrentPage()
			s.MarkDirty()
		}
	}

	renderTemplate(w, r, "frag_reader", rv)
}

func buildReaderView(r *http.Request, s *mw.SessionData) ReaderView {
	view := siteView(r)
	rv := ReaderView{Title: view.ReadOnlineTitle, PDFURL: view.PDFURL}
	if s != nil {
		rv.CSRFToken = s.CSRFToken
	}
	if rv.PDFURL == "" {
		return rv
	}

	info, err := pdfDocs.Lookup(r.Context(), rv.PDFURL)
	if err != nil {
		logger.Warn("pdf lookup failed", zap.String("url", rv.PDFURL), zap.Error(err))
		rv.LoadFailed = true
		return rv
	}

	var c pdfview.Controller
	if s != nil && s.ReaderDoc == rv.PDFURL && s.ReaderPage > 0 {
		c = pdfview.Restore(info.Pages, s.ReaderPage)
	} else {
		c.OnDocumentLoaded(info.Pages)
		if s != nil {
			s.ReaderDoc = rv.PDFURL
			s.ReaderPage = c.CurrentPage()
			s.MarkDirty()
		}
	}

	rv.CurrentPage = c.CurrentPage()
	rv.TotalPages = c.TotalPages()
	rv.HasPrev = c.HasPrev()
	rv.HasNext = c.HasNext()
	return rv
}
