package cms

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultContentDir    = "content"
	fallbackSettingsFile = "site.yaml"
)

// SetContentDir configures the directory holding the local fallback document.
func (c *Client) SetContentDir(dir string) {
	if c == nil {
		return
	}
	c.contentDir = strings.TrimSpace(dir)
}

// ContentDir returns the configured fallback directory.
func (c *Client) ContentDir() string {
	if c == nil || c.contentDir == "" {
		return defaultContentDir
	}
	return c.contentDir
}

// fallbackSettings reads content/site.yaml, the editor-free local stand-in for
// the remote document used in development and offline runs.
func (c *Client) fallbackSettings() (Settings, error) {
	path := filepath.Join(c.ContentDir(), fallbackSettingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
