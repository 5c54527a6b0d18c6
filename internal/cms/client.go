// Package cms fetches the site's editorial content from the headless content
// store. Every field is optional: a failed or empty fetch is indistinguishable
// from a document with no fields set, and the page renders defaults.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned when no settings document exists upstream.
var ErrNotFound = errors.New("cms: not found")

const (
	defaultAPIVersion = "2024-01-01"
	defaultTimeout    = 5 * time.Second

	// settingsCacheTTL mirrors the 60s revalidation window of the pages.
	settingsCacheTTL = time.Minute

	settingsCacheKey = "homepageSettings"
)

// settingsQuery selects the single homepageSettings document with the fields
// the pages consume.
const settingsQuery = `*[_type == "homepageSettings"][0]{` +
	`siteTitle, siteFavicon, bookCoverImage, ` +
	`buyButtonText, buyButtonUrl, moreButtonText, ` +
	`exploreHeading, bookDescription, ` +
	`readOnlineTitle, readOnlinePdf { asset-> { url } }` +
	`}`

// Settings is the single editorial document behind the whole site. Absent
// fields are empty strings; defaulting happens in one place (internal/site).
type Settings struct {
	SiteTitle       string `yaml:"site_title"`
	SiteFaviconRef  string `yaml:"site_favicon_ref"`
	BookCoverRef    string `yaml:"book_cover_ref"`
	BuyButtonText   string `yaml:"buy_button_text"`
	BuyButtonURL    string `yaml:"buy_button_url"`
	MoreButtonText  string `yaml:"more_button_text"`
	ExploreHeading  string `yaml:"explore_heading"`
	BookDescription string `yaml:"book_description"`
	ReadOnlineTitle string `yaml:"read_online_title"`
	PDFURL          string `yaml:"pdf_url"`
}

// Config identifies the upstream project. An empty ProjectID disables the
// remote fetch and the client serves the local fallback document only.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	// BaseURL overrides the derived query endpoint, primarily for tests.
	BaseURL string
}

// Client queries the content store with a short in-memory cache.
type Client struct {
	cfg        Config
	http       *http.Client
	cache      *gocache.Cache
	contentDir string
}

// NewClient constructs a Client. client may be nil.
func NewClient(cfg Config, client *http.Client) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		cfg:   cfg,
		http:  client,
		cache: gocache.New(settingsCacheTTL, 2*settingsCacheTTL),
	}
}

// ProjectID returns the configured project identifier.
func (c *Client) ProjectID() string { return c.cfg.ProjectID }

// Dataset returns the configured dataset name.
func (c *Client) Dataset() string { return c.cfg.Dataset }

// SiteSettings returns the current settings document. The remote store is
// consulted when configured; on any remote error the local fallback document
// is used, and when that is also absent an empty Settings is returned so the
// caller always renders. The result is cached for the revalidation window.
func (c *Client) SiteSettings(ctx context.Context) Settings {
	if v, ok := c.cache.Get(settingsCacheKey); ok {
		if s, ok := v.(Settings); ok {
			return s
		}
	}
	s, err := c.fetchSettings(ctx)
	if err != nil {
		s, err = c.fallbackSettings()
		if err != nil {
			s = Settings{}
		}
	}
	c.cache.Set(settingsCacheKey, s, gocache.DefaultExpiration)
	return s
}

// InvalidateSettings drops the cached document, forcing a refetch.
func (c *Client) InvalidateSettings() {
	c.cache.Delete(settingsCacheKey)
}

func (c *Client) fetchSettings(ctx context.Context) (Settings, error) {
	endpoint := c.queryEndpoint()
	if endpoint == "" {
		return Settings{}, ErrNotFound
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Settings{}, err
	}
	q := req.URL.Query()
	q.Set("query", settingsQuery)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Settings{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Settings{}, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return Settings{}, fmt.Errorf("cms: settings status %d", resp.StatusCode)
	}

	var payload struct {
		Result *settingsPayload `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Settings{}, err
	}
	if payload.Result == nil {
		return Settings{}, ErrNotFound
	}
	return payload.Result.toSettings(), nil
}

// queryEndpoint derives the data-query URL from the project config.
func (c *Client) queryEndpoint() string {
	if c.cfg.BaseURL != "" {
		u, err := url.JoinPath(strings.TrimRight(c.cfg.BaseURL, "/"), "data", "query", c.cfg.Dataset)
		if err != nil {
			return ""
		}
		return u
	}
	if c.cfg.ProjectID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.apicdn.sanity.io/v%s/data/query/%s",
		c.cfg.ProjectID, c.cfg.APIVersion, c.cfg.Dataset)
}

type imageField struct {
	Asset struct {
		Ref string `json:"_ref"`
	} `json:"asset"`
}

type fileField struct {
	Asset struct {
		URL string `json:"url"`
	} `json:"asset"`
}

type settingsPayload struct {
	SiteTitle       string      `json:"siteTitle"`
	SiteFavicon     *imageField `json:"siteFavicon"`
	BookCoverImage  *imageField `json:"bookCoverImage"`
	BuyButtonText   string      `json:"buyButtonText"`
	BuyButtonURL    string      `json:"buyButtonUrl"`
	MoreButtonText  string      `json:"moreButtonText"`
	ExploreHeading  string      `json:"exploreHeading"`
	BookDescription string      `json:"bookDescription"`
	ReadOnlineTitle string      `json:"readOnlineTitle"`
	ReadOnlinePDF   *fileField  `json:"readOnlinePdf"`
}

func (p *settingsPayload) toSettings() Settings {
	s := Settings{
		SiteTitle:       strings.TrimSpace(p.SiteTitle),
		BuyButtonText:   strings.TrimSpace(p.BuyButtonText),
		BuyButtonURL:    strings.TrimSpace(p.BuyButtonURL),
		MoreButtonText:  strings.TrimSpace(p.MoreButtonText),
		ExploreHeading:  strings.TrimSpace(p.ExploreHeading),
		BookDescription: p.BookDescription,
		ReadOnlineTitle: strings.TrimSpace(p.ReadOnlineTitle),
	}
	if p.SiteFavicon != nil {
		s.SiteFaviconRef = strings.TrimSpace(p.SiteFavicon.Asset.Ref)
	}
	if p.BookCoverImage != nil {
		s.BookCoverRef = strings.TrimSpace(p.BookCoverImage.Asset.Ref)
	}
	if p.ReadOnlinePDF != nil {
		s.PDFURL = strings.TrimSpace(p.ReadOnlinePDF.Asset.URL)
	}
	return s
}
