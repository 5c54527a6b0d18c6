package main

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"zenwisdom.org/zen-web/internal/forms"
	handlersPkg "zenwisdom.org/zen-web/internal/handlers"
	mw "zenwisdom.org/zen-web/internal/middleware"
	"zenwisdom.org/zen-web/internal/nav"
	"zenwisdom.org/zen-web/internal/panels"
	"zenwisdom.org/zen-web/internal/site"
)

// The explore page's accordion sections. IDs are stable; they key the session
// state and the toggle routes.
type panelDef struct {
	ID    string
	Title string
}

var morePanels = []panelDef{
	{ID: "description", Title: "Description"},
	{ID: "contact", Title: "Contact"},
}

func panelIDs() []string {
	ids := make([]string, len(morePanels))
	for i, p := range morePanels {
		ids[i] = p.ID
	}
	return ids
}

// Sent confirmations shown inside the form fragments.
const (
	subscribeSentMessage = "You're subscribed!"
	contactSentMessage   = "Message sent! I'll get back to you soon."
	sendFailedMessage    = "Something went wrong. Please try again."
)

// PanelView is one accordion section for the templates.
type PanelView struct {
	ID    string
	Title string
	Open  bool
}

// FormView carries one form's lifecycle state into its fragment.
type FormView struct {
	Status    forms.Status
	Fields    map[string]string
	Message   string
	CSRFToken string
}

// MoreView is the explore page view model. Site rides along because the
// accordion fragment re-renders panel bodies (description, contact details)
// outside the full page.
type MoreView struct {
	Site      site.View
	Panels    []PanelView
	Subscribe FormView
	Contact   FormView
}

// MoreHandler renders the explore page: subscribe form, accordion, footer.
func MoreHandler(w http.ResponseWriter, r *http.Request) {
	view := siteView(r)
	s := mw.GetSession(r)

	vm := handlersPkg.PageData{
		Title:   view.ExploreHeading + " | " + view.SiteTitle,
		Path:    r.URL.Path,
		Nav:     nav.Build(r.URL.Path),
		ShowNav: true,
		Site:    view,
		More:    buildMoreView(s, view),
	}
	if s != nil {
		vm.CSRFToken = s.CSRFToken
	}

	vm.SEO.Title = vm.Title
	vm.SEO.Description = "Explore the book, get in touch, and join the mailing list."
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = view.SiteTitle
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.Twitter.Card = "summary"

	renderPage(w, r, "page_more", vm)
}

// MorePanelToggleFrag flips one accordion section and re-renders the
// accordion fragment. The open set is carried in the session so a full page
// reload keeps the expanded sections.
func MorePanelToggleFrag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s := mw.GetSession(r)

	state := panels.Restore(panels.ParsePolicy(cfg.Panels.Policy), panelIDs(), openPanels(s))
	state.Toggle(id)
	if s != nil {
		s.OpenPanels = state.Open()
		s.MarkDirty()
	}

	view := siteView(r)
	renderTemplate(w, r, "frag_more_panels", buildMoreView(s, view))
}

// MoreSubscribeFrag runs one mailing-list submission and re-renders the
// subscribe form fragment with the resulting state.
func MoreSubscribeFrag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	m := forms.NewSubscribe(cfg.SelfBaseURL(), nil)
	m.SetField("email", r.PostFormValue("email"))

	fv := submitForm(r, m, subscribeSentMessage)
	renderTemplate(w, r, "frag_subscribe_form", fv)
}

// MoreContactFrag runs one contact submission and re-renders the contact form
// fragment with the resulting state.
func MoreContactFrag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	m := forms.NewContact(cfg.SelfBaseURL(), nil)
	for _, f := range m.Spec() {
		m.SetField(f.Name, r.PostFormValue(f.Name))
	}

	fv := submitForm(r, m, contactSentMessage)
	renderTemplate(w, r, "frag_contact_form", fv)
}

// submitForm drives one Machine attempt and maps the outcome to a FormView.
// The visitor's address rides along so the relay's per-client budget applies
// to them, not to this process relaying on their behalf.
func submitForm(r *http.Request, m *forms.Machine, sentMsg string) FormView {
	fv := FormView{}
	if s := mw.GetSession(r); s != nil {
		fv.CSRFToken = s.CSRFToken
	}
	m.SetOrigin(visitorAddr(r))

	err := m.Submit(r.Context())
	fv.Status = m.Status()
	fv.Fields = m.Fields()
	switch {
	case err == nil:
		fv.Message = sentMsg
	case errors.Is(err, forms.ErrMissingField):
		// no attempt was made; show the form again as-is
		fv.Status = forms.StatusIdle
		fv.Message = "Please fill in the required fields."
	default:
		logger.Warn("form submit failed", zap.String("endpoint", r.URL.Path), zap.Error(err))
		fv.Message = sendFailedMessage
	}
	return fv
}

func buildMoreView(s *mw.SessionData, view site.View) MoreView {
	state := panels.Restore(panels.ParsePolicy(cfg.Panels.Policy), panelIDs(), openPanels(s))

	mv := MoreView{
		Site: view,
		Subscribe: FormView{Status: forms.StatusIdle, Fields: map[string]string{"email": ""}},
		Contact: FormView{Status: forms.StatusIdle, Fields: map[string]string{
			"name": "", "email": "", "phone": "", "subject": "", "message": "",
		}},
	}
	if s != nil {
		mv.Subscribe.CSRFToken = s.CSRFToken
		mv.Contact.CSRFToken = s.CSRFToken
	}
	for _, p := range morePanels {
		mv.Panels = append(mv.Panels, PanelView{ID: p.ID, Title: p.Title, Open: state.IsOpen(p.ID)})
	}
	return mv
}

// visitorAddr is the requesting client's address with RealIP already applied.
func visitorAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func openPanels(s *mw.SessionData) []string {
	if s == nil {
		return nil
	}
	return s.OpenPanels
}
