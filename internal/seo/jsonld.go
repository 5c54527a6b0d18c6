package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// Book returns a schema.org Book payload for the featured title.
func Book(name, description, url, coverURL, purchaseURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Book",
		"name":     name,
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	if coverURL != "" {
		m["image"] = coverURL
	}
	if purchaseURL != "" {
		m["potentialAction"] = map[string]any{
			"@type":  "BuyAction",
			"target": purchaseURL,
		}
	}
	return m
}
