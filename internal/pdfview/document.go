package pdfview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	fetchTimeout = 20 * time.Second
	// maxPDFBytes bounds the download; the book PDF is a single asset.
	maxPDFBytes = 128 << 20

	infoCacheTTL    = 15 * time.Minute
	failureCacheTTL = time.Minute
)

// Info describes a successfully loaded document.
type Info struct {
	URL   string
	Pages int
}

// Service resolves the page count of externally hosted PDF assets, caching
// results per URL so the asset is not refetched on every reader view.
type Service struct {
	client *http.Client
	cache  *cache.Cache
}

// NewService returns a Service. client may be nil.
func NewService(client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Service{
		client: client,
		cache:  cache.New(infoCacheTTL, 2*infoCacheTTL),
	}
}

type cachedFailure struct{ err error }

// Lookup fetches the PDF at url and returns its page count. Failures are
// cached briefly so a broken asset does not hammer the host.
func (s *Service) Lookup(ctx context.Context, url string) (Info, error) {
	if url == "" {
		return Info{}, fmt.Errorf("pdfview: empty document url")
	}
	if v, ok := s.cache.Get(url); ok {
		switch cached := v.(type) {
		case Info:
			return cached, nil
		case cachedFailure:
			return Info{}, cached.err
		}
	}
	info, err := s.fetch(ctx, url)
	if err != nil {
		s.cache.Set(url, cachedFailure{err: err}, failureCacheTTL)
		return Info{}, err
	}
	s.cache.Set(url, info, cache.DefaultExpiration)
	return info, nil
}

func (s *Service) fetch(ctx context.Context, url string) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Info{}, err
	}
	req.Header.Set("Accept", "application/pdf")
	resp, err := s.client.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("pdfview: document status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return Info{}, err
	}
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return Info{}, fmt.Errorf("pdfview: page count: %w", err)
	}
	return Info{URL: url, Pages: pages}, nil
}
