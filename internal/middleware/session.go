package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const sessionCookieName = "ZEN_WEB_SESSION"

// SessionData is the per-page-view UI state carried in a signed cookie. It is
// the only state a visitor accumulates: which accordion panels are expanded
// and where the PDF reader is parked. Nothing here outlives the cookie.
type SessionData struct {
	ID         string    `json:"id"`
	CSRFToken  string    `json:"csrf,omitempty"`
	OpenPanels []string  `json:"panels,omitempty"`
	ReaderDoc  string    `json:"rdoc,omitempty"`
	ReaderPage int       `json:"rpage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

// SessionConfig carries the signing key and cookie hardening, built once at
// startup from the process configuration.
type SessionConfig struct {
	SigningKey []byte
	Secure     bool
}

// NewSessionConfig derives a session configuration. An empty key generates a
// process-ephemeral one, which is only acceptable for development.
func NewSessionConfig(key string, secure bool) SessionConfig {
	var k []byte
	if strings.TrimSpace(key) != "" {
		k = []byte(key)
	} else {
		k = make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			k = []byte("insecure-dev-key-set-ZENWEB_SESSIONKEY")
		}
	}
	return SessionConfig{SigningKey: k, Secure: secure}
}

// Session loads or initializes the signed session and stores it in context.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sd, fromCookie := readSessionCookie(r, cfg.SigningKey)
			if sd.ID == "" {
				sd.ID = randID()
				sd.CreatedAt = time.Now().UTC()
				sd.UpdatedAt = sd.CreatedAt
				sd.CSRFToken = newCSRFToken()
				sd.dirty = true
			}
			ctx := context.WithValue(r.Context(), ctxKeySession, sd)
			rw := NewResponseRecorder(w)
			rw.SetBeforeWrite(func(w http.ResponseWriter) {
				if sd.dirty || !fromCookie {
					writeSessionCookie(w, sd, cfg)
				}
			})
			next.ServeHTTP(rw, r.WithContext(ctx))
			// If nothing was written yet (e.g., HEAD), persist cookie now
			if !rw.wrote && (sd.dirty || !fromCookie) {
				writeSessionCookie(w, sd, cfg)
			}
		})
	}
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

func readSessionCookie(r *http.Request, key []byte) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return &SessionData{}, false
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return &SessionData{}, false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return &SessionData{}, false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payloadB)
	if !hmac.Equal(sigB, mac.Sum(nil)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payloadB, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func writeSessionCookie(w http.ResponseWriter, sd *SessionData, cfg SessionConfig) {
	b, _ := json.Marshal(sd)
	payload := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, cfg.SigningKey)
	mac.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sig,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
