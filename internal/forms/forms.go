// Package forms implements the submission state machine shared by the contact
// and mailing-list forms: idle -> sending -> sent|error, with retained fields
// on failure and at most one request in flight per form instance.
package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a form instance.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrInFlight is returned when Submit is invoked while a previous
	// submission has not completed. No network call is made.
	ErrInFlight = errors.New("forms: submission already in flight")
	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("forms: required field empty")
)

// Field describes one named input of a form.
type Field struct {
	Name     string
	Required bool
}

// Machine drives one form instance. It serializes its fields as JSON to a
// relay endpoint and tracks the submission status. A Machine belongs to a
// single page view and must not be shared across forms.
type Machine struct {
	endpoint string
	spec     []Field
	fields   map[string]string
	status   Status
	client   *http.Client
	origin   string
	inflight atomic.Bool
}

// NewContact builds the contact-form machine posting to {base}/api/contact.
func NewContact(base string, client *http.Client) *Machine {
	return newMachine(base+"/api/contact", client, []Field{
		{Name: "name", Required: true},
		{Name: "email", Required: true},
		{Name: "phone"},
		{Name: "subject", Required: true},
		{Name: "message", Required: true},
	})
}

// NewSubscribe builds the mailing-list machine posting to {base}/api/subscribe.
func NewSubscribe(base string, client *http.Client) *Machine {
	return newMachine(base+"/api/subscribe", client, []Field{
		{Name: "email", Required: true},
	})
}

func newMachine(endpoint string, client *http.Client, spec []Field) *Machine {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	m := &Machine{
		endpoint: endpoint,
		spec:     spec,
		fields:   make(map[string]string, len(spec)),
		status:   StatusIdle,
		client:   client,
	}
	for _, f := range spec {
		m.fields[f.Name] = ""
	}
	return m
}

// Status returns the current lifecycle state.
func (m *Machine) Status() Status { return m.status }

// Fields returns a copy of the current field values.
func (m *Machine) Fields() map[string]string {
	out := make(map[string]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// Field returns the current value of a single field.
func (m *Machine) Field(name string) string { return m.fields[name] }

// Spec returns the ordered field definitions of this form.
func (m *Machine) Spec() []Field { return m.spec }

// SetField records a field value. Unknown names are dropped so the wire shape
// stays fixed regardless of what the client posts.
func (m *Machine) SetField(name, value string) {
	if _, ok := m.fields[name]; !ok {
		return
	}
	m.fields[name] = value
}

// SetOrigin records the submitting visitor's address. The relay endpoints
// apply their per-client budget to this address rather than to the relaying
// host, so submissions from different visitors never share a bucket.
func (m *Machine) SetOrigin(addr string) {
	m.origin = strings.TrimSpace(addr)
}

// SetFields records multiple field values at once.
func (m *Machine) SetFields(values map[string]string) {
	for k, v := range values {
		m.SetField(k, v)
	}
}

// Submit performs one submission attempt. It rejects empty required fields
// without touching the network, refuses to start while another attempt is in
// flight, and otherwise issues exactly one POST. Success clears the fields;
// any failure keeps them so the user can retry.
func (m *Machine) Submit(ctx context.Context) error {
	for _, f := range m.spec {
		if f.Required && strings.TrimSpace(m.fields[f.Name]) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.Name)
		}
	}
	if !m.inflight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer m.inflight.Store(false)

	m.status = StatusSending
	if err := m.post(ctx); err != nil {
		m.status = StatusError
		return err
	}
	m.status = StatusSent
	for _, f := range m.spec {
		m.fields[f.Name] = ""
	}
	return nil
}

func (m *Machine) post(ctx context.Context) error {
	payload, err := json.Marshal(m.fields)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.origin != "" {
		req.Header.Set("X-Forwarded-For", m.origin)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("forms: submit status %d", resp.StatusCode)
	}
	return nil
}
