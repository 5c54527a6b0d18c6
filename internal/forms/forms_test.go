package forms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactFields() map[string]string {
	return map[string]string{
		"name":    "A",
		"email":   "a@x.com",
		"phone":   "",
		"subject": "S",
		"message": "M",
	}
}

func TestContactSubmitSuccessClearsFields(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, jsonDecode(r, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewContact(srv.URL, srv.Client())
	m.SetFields(contactFields())

	require.NoError(t, m.Submit(context.Background()))
	assert.Equal(t, StatusSent, m.Status())
	for name, v := range m.Fields() {
		assert.Empty(t, v, "field %s should be cleared after success", name)
	}
	assert.Equal(t, "A", got["name"])
	assert.Equal(t, "M", got["message"])
}

func TestSubscribeFailureRetainsInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewSubscribe(srv.URL, srv.Client())
	m.SetField("email", "bad")

	err := m.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusError, m.Status())
	assert.Equal(t, "bad", m.Field("email"), "value preserved, not cleared")

	// error is retryable: a later attempt re-enters sending
	err = m.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusError, m.Status())
}

func TestNoConcurrentSubmission(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewSubscribe(srv.URL, srv.Client())
	m.SetField("email", "a@x.com")

	done := make(chan error, 1)
	go func() { done <- m.Submit(context.Background()) }()

	<-entered
	err := m.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load(), "second submit must not issue a network call")
}

func TestRequiredFieldRejectedWithoutNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	m := NewContact(srv.URL, srv.Client())
	m.SetFields(map[string]string{"name": "A"})

	err := m.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, StatusIdle, m.Status())
	assert.Equal(t, int32(0), calls.Load())
}

func TestUnknownFieldDropped(t *testing.T) {
	m := NewSubscribe("http://relay.invalid", nil)
	m.SetField("admin", "1")
	_, ok := m.Fields()["admin"]
	assert.False(t, ok)
}

func TestNetworkErrorYieldsErrorStatus(t *testing.T) {
	m := NewSubscribe("http://127.0.0.1:0", &http.Client{Timeout: 200 * time.Millisecond})
	m.SetField("email", "a@x.com")

	err := m.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusError, m.Status())
	assert.Equal(t, "a@x.com", m.Field("email"))
}

func TestSubmitForwardsVisitorOrigin(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Forwarded-For")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewSubscribe(srv.URL, nil)
	m.SetOrigin("198.51.100.7")
	m.SetField("email", "a@x.com")
	require.NoError(t, m.Submit(context.Background()))
	assert.Equal(t, "198.51.100.7", got)
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
