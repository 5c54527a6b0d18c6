// Package pdfview owns the page-index bookkeeping for the in-browser PDF
// reader. Rendering of the current page is delegated to the browser viewer;
// the controller only clamps and persists the position.
package pdfview

// Controller tracks the current page of a loaded document. The zero value
// represents "no document loaded": no pagination controls are shown.
type Controller struct {
	totalPages  int
	currentPage int
}

// Restore rebuilds a controller from persisted state, re-applying the
// invariants in case the stored values drifted.
func Restore(totalPages, currentPage int) Controller {
	c := Controller{}
	c.OnDocumentLoaded(totalPages)
	if c.totalPages > 0 {
		c.currentPage = clamp(currentPage, 1, c.totalPages)
	}
	return c
}

// OnDocumentLoaded records the page count of a freshly loaded document and
// resets the reader to the first page.
func (c *Controller) OnDocumentLoaded(totalPages int) {
	if totalPages < 0 {
		totalPages = 0
	}
	c.totalPages = totalPages
	c.currentPage = 1
}

// Next advances one page, stopping at the last.
func (c *Controller) Next() {
	if c.totalPages == 0 {
		return
	}
	c.currentPage = clamp(c.currentPage+1, 1, c.totalPages)
}

// Prev goes back one page, stopping at the first.
func (c *Controller) Prev() {
	if c.totalPages == 0 {
		return
	}
	c.currentPage = clamp(c.currentPage-1, 1, c.totalPages)
}

// TotalPages returns the loaded document's page count, 0 when nothing loaded.
func (c *Controller) TotalPages() int { return c.totalPages }

// CurrentPage returns the 1-based current page. Meaningful only when
// TotalPages is positive.
func (c *Controller) CurrentPage() int { return c.currentPage }

// HasPrev reports whether the prev control should be enabled.
func (c *Controller) HasPrev() bool { return c.totalPages > 0 && c.currentPage > 1 }

// HasNext reports whether the next control should be enabled.
func (c *Controller) HasNext() bool { return c.totalPages > 0 && c.currentPage < c.totalPages }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
