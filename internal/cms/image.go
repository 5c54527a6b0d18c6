package cms

import (
	"fmt"
	"net/url"
	"strings"
)

// ImageURL resolves an opaque image reference plus desired dimensions into a
// concrete CDN URL. References look like "image-<id>-<w>x<h>-<ext>". A zero
// width or height omits that constraint. Malformed references resolve to ""
// and the caller renders its placeholder.
func ImageURL(projectID, dataset, ref string, w, h int) string {
	id, dims, ext, ok := parseImageRef(ref)
	if !ok || projectID == "" || dataset == "" {
		return ""
	}
	u := fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s-%s.%s", projectID, dataset, id, dims, ext)
	q := url.Values{}
	if w > 0 {
		q.Set("w", fmt.Sprintf("%d", w))
	}
	if h > 0 {
		q.Set("h", fmt.Sprintf("%d", h))
	}
	if len(q) > 0 {
		q.Set("fit", "max")
		u += "?" + q.Encode()
	}
	return u
}

// ImageURL resolves a reference against this client's project and dataset.
func (c *Client) ImageURL(ref string, w, h int) string {
	return ImageURL(c.cfg.ProjectID, c.cfg.Dataset, ref, w, h)
}

func parseImageRef(ref string) (id, dims, ext string, ok bool) {
	ref = strings.TrimSpace(ref)
	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" {
		return "", "", "", false
	}
	id, dims, ext = parts[1], parts[2], parts[3]
	if id == "" || ext == "" {
		return "", "", "", false
	}
	wh := strings.Split(dims, "x")
	if len(wh) != 2 || wh[0] == "" || wh[1] == "" {
		return "", "", "", false
	}
	return id, dims, ext, true
}
