// Package relay implements the two form-relay endpoints. Their sole job is to
// validate the posted body and forward a notification email to the delivery
// provider; every failure surfaces uniformly as HTTP 500 to the form.
package relay

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"zenwisdom.org/zen-web/internal/mailer"
)

// Addressing carries the validated relay destination. DefaultFrom is used
// when no sender address was configured.
type Addressing struct {
	To   string
	From string
}

// DefaultFrom is the sender used when none is configured.
const DefaultFrom = "onboarding@resend.dev"

// Handler serves POST /api/subscribe and POST /api/contact.
type Handler struct {
	mail *mailer.Client
	addr Addressing
	log  *zap.Logger
}

// NewHandler builds a Handler. A nil logger falls back to zap.NewNop.
func NewHandler(mail *mailer.Client, addr Addressing, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if addr.From == "" {
		addr.From = DefaultFrom
	}
	return &Handler{mail: mail, addr: addr, log: log}
}

// configured reports whether this relay can deliver at all. Absence of a
// required value is a configuration error: fatal for the request, never for
// the process.
func (h *Handler) configured() bool {
	return h.mail.Configured() && h.addr.To != ""
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe relays a mailing-list sign-up.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeJSONError(w, http.StatusBadRequest, "email is required")
		return
	}
	if !h.configured() {
		h.log.Warn("subscribe relay not configured")
		writeJSONError(w, http.StatusInternalServerError, "email service not configured")
		return
	}

	msg := mailer.Message{
		From:    h.addr.From,
		To:      h.addr.To,
		Subject: fmt.Sprintf("[Subscribe] New sign-up: %s", email),
		HTML:    fmt.Sprintf("<p>New mailing list sign-up: <strong>%s</strong></p>", html.EscapeString(email)),
	}
	if err := h.mail.Send(r.Context(), msg); err != nil {
		h.log.Error("subscribe delivery failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Contact relays a direct contact message.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Name == "" || req.Email == "" || req.Subject == "" || strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "name, email, subject and message are required")
		return
	}
	if !h.configured() {
		h.log.Warn("contact relay not configured")
		writeJSONError(w, http.StatusInternalServerError, "email service not configured")
		return
	}

	msg := mailer.Message{
		From:    h.addr.From,
		To:      h.addr.To,
		Subject: fmt.Sprintf("[Contact] %s", req.Subject),
		HTML:    contactHTML(req),
	}
	if err := h.mail.Send(r.Context(), msg); err != nil {
		h.log.Error("contact delivery failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w)
}

func contactHTML(req contactRequest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p><strong>From:</strong> %s &lt;%s&gt;</p>",
		html.EscapeString(req.Name), html.EscapeString(req.Email)))
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		b.WriteString(fmt.Sprintf("<p><strong>Phone:</strong> %s</p>", html.EscapeString(phone)))
	}
	b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(req.Message)))
	return b.String()
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	return dec.Decode(v)
}

func writeSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
