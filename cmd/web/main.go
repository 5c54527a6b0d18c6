package main

import (
	"flag"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"zenwisdom.org/zen-web/internal/cms"
	"zenwisdom.org/zen-web/internal/config"
	"zenwisdom.org/zen-web/internal/hittest"
	"zenwisdom.org/zen-web/internal/mailer"
	mw "zenwisdom.org/zen-web/internal/middleware"
	"zenwisdom.org/zen-web/internal/pdfview"
	"zenwisdom.org/zen-web/internal/relay"
)

var (
	cfg     *config.Config
	logger  *zap.Logger
	content *cms.Client
	cover   *hittest.Buffer
	pdfDocs *pdfview.Service
)

func main() {
	var (
		cfgPath string
		addr    string
	)
	flag.StringVar(&cfgPath, "config", "zenweb.yaml", "configuration file")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	c, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		c.Addr = addr
	}

	if c.Prod() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	initApp(c)

	if mailErr := c.MailError(); mailErr != nil {
		// pages still serve; the relay answers 500 until configured
		logger.Warn("mail relay disabled", zap.Error(mailErr))
	}

	if c.Prod() {
		tc, err := parseTemplates()
		if err != nil {
			logger.Fatal("parse templates", zap.Error(err))
		}
		tmplCache = tc
	}

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("web listening", zap.String("addr", c.Addr), zap.Bool("prod", c.Prod()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
}

// initApp wires the shared clients from the loaded configuration.
func initApp(c *config.Config) {
	cfg = c
	if logger == nil {
		logger = zap.NewNop()
	}
	content = cms.NewClient(cms.Config{
		ProjectID:  c.CMS.ProjectID,
		Dataset:    c.CMS.Dataset,
		APIVersion: c.CMS.APIVersion,
		Token:      c.CMS.Token,
		BaseURL:    c.CMS.BaseURL,
	}, nil)
	content.SetContentDir(c.ContentDir)
	cover = hittest.NewBuffer(nil)
	pdfDocs = pdfview.NewService(nil)
}

func newRouter() chi.Router {
	sessionCfg := mw.NewSessionConfig(cfg.SessionKey, cfg.Prod())
	relayHandler := relay.NewHandler(
		mailer.NewClient(cfg.Mail.APIKey, nil),
		relay.Addressing{To: cfg.Mail.To, From: cfg.Mail.From},
		logger,
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// Behind a trusted proxy/load balancer RealIP resolves the client from
	// X-Forwarded-For; ensure only trusted proxies can set it in production.
	r.Use(chimw.RealIP)
	r.Use(mw.HTMX)
	r.Use(mw.Session(sessionCfg))
	r.Use(mw.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(cfg.PublicDir, "assets")))
	r.Handle("/assets/*", assets)

	// Pages and htmx fragments share the browser session and CSRF guard.
	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF(cfg.Prod()))

		r.Get("/", HomeHandler)
		r.Post("/hero/hit", HeroHitHandler)

		r.Get("/more", MoreHandler)
		r.Post("/more/panels/{id}/toggle", MorePanelToggleFrag)
		r.Post("/more/subscribe", MoreSubscribeFrag)
		r.Post("/more/contact", MoreContactFrag)

		r.Get("/read-online", ReadOnlineHandler)
		r.Post("/read-online/page/{dir}", ReaderPageFrag)
	})

	// The relay endpoints are called by the form machines, not the browser:
	// no CSRF, but CORS and a per-IP budget.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodPost},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(relay.RateLimit())
		r.Post("/subscribe", relayHandler.Subscribe)
		r.Post("/contact", relayHandler.Contact)
	})

	return r
}
