package hittest

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	// Cover art arrives from the image CDN as JPEG, PNG, or WebP.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	fetchTimeout = 8 * time.Second
	// maxImageBytes bounds the decode input; covers beyond this fail open.
	maxImageBytes = 32 << 20
)

// Buffer holds the cover image decoded at natural resolution, the server-side
// analog of the off-screen canvas the hit test samples from. It repopulates
// lazily whenever the cover URL changes and remembers a failed fetch so each
// click does not retry the download.
type Buffer struct {
	client *http.Client

	mu     sync.Mutex
	url    string
	img    image.Image
	failed bool
}

// NewBuffer returns an empty Buffer. client may be nil.
func NewBuffer(client *http.Client) *Buffer {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Buffer{client: client}
}

// Sampler returns a Sampler over the buffer contents for url, fetching and
// decoding the image on first use. On any failure the returned Sampler has no
// backing image and therefore fails open.
func (b *Buffer) Sampler(ctx context.Context, url string) *Sampler {
	if b == nil || url == "" {
		return NewSampler(nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.url != url {
		b.url = url
		b.img = nil
		b.failed = false
	}
	if b.img == nil && !b.failed {
		img, err := b.fetch(ctx, url)
		if err != nil {
			b.failed = true
		} else {
			b.img = img
		}
	}
	return NewSampler(b.img)
}

// Invalidate clears the buffer so the next Sampler call refetches.
func (b *Buffer) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.url = ""
	b.img = nil
	b.failed = false
}

func (b *Buffer) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hittest: cover status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("hittest: decode cover: %w", err)
	}
	return img, nil
}
