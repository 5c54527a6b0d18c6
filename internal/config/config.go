// Package config loads the process configuration: an optional YAML file
// overlaid by ZENWEB_* environment variables, validated once at startup and
// passed by reference into the handlers.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"zenwisdom.org/zen-web/internal/panels"
)

const envPrefix = "ZENWEB_"

// Config is the top-level process configuration.
type Config struct {
	Addr         string `koanf:"addr" yaml:"addr"`
	Env          string `koanf:"env" yaml:"env"`
	Dev          bool   `koanf:"dev" yaml:"dev"`
	BaseURL      string `koanf:"baseurl" yaml:"baseurl"`
	TemplatesDir string `koanf:"templatesdir" yaml:"templatesdir"`
	PublicDir    string `koanf:"publicdir" yaml:"publicdir"`
	ContentDir   string `koanf:"contentdir" yaml:"contentdir"`
	SessionKey   string `koanf:"sessionkey" yaml:"sessionkey"`

	Panels PanelsConfig `koanf:"panels" yaml:"panels"`
	CMS    CMSConfig    `koanf:"cms" yaml:"cms"`
	Mail   MailConfig   `koanf:"mail" yaml:"mail"`
}

// PanelsConfig selects the accordion behavior variant.
type PanelsConfig struct {
	Policy string `koanf:"policy" yaml:"policy"`
}

// CMSConfig identifies the headless content project. Empty ProjectID means
// local-fallback-only operation.
type CMSConfig struct {
	ProjectID  string `koanf:"projectid" yaml:"projectid"`
	Dataset    string `koanf:"dataset" yaml:"dataset"`
	APIVersion string `koanf:"apiversion" yaml:"apiversion"`
	Token      string `koanf:"token" yaml:"token"`
	BaseURL    string `koanf:"baseurl" yaml:"baseurl"`
}

// MailConfig holds the relay credentials and addressing.
type MailConfig struct {
	APIKey string `koanf:"apikey" yaml:"apikey"`
	To     string `koanf:"to" yaml:"to"`
	From   string `koanf:"from" yaml:"from"`
}

// NotConfiguredError reports which mail settings are missing. It is carried in
// the config rather than aborting startup: the pages still serve, and the
// relay endpoints answer 500 until the operator supplies credentials.
type NotConfiguredError struct {
	Fields []string
}

func (e *NotConfiguredError) Error() string {
	return "mail relay not configured: missing " + strings.Join(e.Fields, ", ")
}

// MailError returns the structured configuration error for the mail relay, or
// nil when delivery is fully configured.
func (c *Config) MailError() error {
	var missing []string
	if strings.TrimSpace(c.Mail.APIKey) == "" {
		missing = append(missing, "mail.apikey")
	}
	if strings.TrimSpace(c.Mail.To) == "" {
		missing = append(missing, "mail.to")
	}
	if len(missing) > 0 {
		return &NotConfiguredError{Fields: missing}
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:         ":8080",
		Env:          "dev",
		TemplatesDir: "templates",
		PublicDir:    "public",
		ContentDir:   "content",
		Panels:       PanelsConfig{Policy: string(panels.PolicyMultiOpen)},
		CMS:          CMSConfig{Dataset: "production"},
	}
}

// Load reads configuration from the given YAML file (when it exists), then
// overlays ZENWEB_* environment variables. ZENWEB_MAIL_APIKEY maps to
// mail.apikey, and so on.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Cloud Run style port injection wins over the default only.
	if port := os.Getenv("PORT"); port != "" && cfg.Addr == Default().Addr {
		cfg.Addr = ":" + port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural correctness. Mail completeness is not part of
// validity: see MailError.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	switch panels.Policy(c.Panels.Policy) {
	case panels.PolicyMultiOpen, panels.PolicyExclusive:
	default:
		return fmt.Errorf("invalid panels.policy %q: must be multi or exclusive", c.Panels.Policy)
	}
	if c.TemplatesDir == "" {
		return fmt.Errorf("templatesdir is required")
	}
	if c.PublicDir == "" {
		return fmt.Errorf("publicdir is required")
	}
	return nil
}

// Prod reports whether the process runs with production hardening (secure
// cookies, cached templates).
func (c *Config) Prod() bool {
	return strings.EqualFold(c.Env, "prod") && !c.Dev
}

// SelfBaseURL returns the base URL the form machines post to. It defaults to
// the loopback address of the listener so form submissions relay through the
// local /api endpoints.
func (c *Config) SelfBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	addr := c.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}
