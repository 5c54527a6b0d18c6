package pdfview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationBoundaries(t *testing.T) {
	var c Controller
	c.OnDocumentLoaded(5)
	assert.Equal(t, 1, c.CurrentPage())

	c.Prev()
	assert.Equal(t, 1, c.CurrentPage(), "prev at first page is a no-op")
	assert.False(t, c.HasPrev())

	for i := 0; i < 10; i++ {
		c.Next()
	}
	assert.Equal(t, 5, c.CurrentPage(), "next clamps at last page")
	assert.False(t, c.HasNext())

	c.Next()
	assert.Equal(t, 5, c.CurrentPage())
}

func TestNextThenPrevRoundTrips(t *testing.T) {
	for p := 1; p <= 5; p++ {
		c := Restore(5, p)
		c.Next()
		c.Prev()
		want := p
		if p == 5 {
			// next clamps at the last page, so prev lands on 4
			want = 4
		}
		assert.Equal(t, want, c.CurrentPage(), "from page %d", p)
	}
}

func TestDocumentReloadResetsPage(t *testing.T) {
	c := Restore(5, 4)
	assert.Equal(t, 4, c.CurrentPage())

	c.OnDocumentLoaded(8)
	assert.Equal(t, 8, c.TotalPages())
	assert.Equal(t, 1, c.CurrentPage())
}

func TestZeroPagesShowsNoControls(t *testing.T) {
	var c Controller
	assert.Equal(t, 0, c.TotalPages())
	assert.False(t, c.HasPrev())
	assert.False(t, c.HasNext())

	c.Next()
	c.Prev()
	assert.Equal(t, 0, c.TotalPages())

	c.OnDocumentLoaded(-3)
	assert.Equal(t, 0, c.TotalPages())
}

func TestRestoreClampsDriftedState(t *testing.T) {
	c := Restore(5, 9)
	assert.Equal(t, 5, c.CurrentPage())

	c = Restore(5, 0)
	assert.Equal(t, 1, c.CurrentPage())
}
