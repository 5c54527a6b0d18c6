package relay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenwisdom.org/zen-web/internal/forms"
)

func newLimitedServer(t *testing.T) *httptest.Server {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w)
	})
	return httptest.NewServer(RateLimit()(ok))
}

func TestRateLimitKeysOnForwardedVisitor(t *testing.T) {
	srv := newLimitedServer(t)
	defer srv.Close()

	// All form machines relay from the same host. Each carries its visitor's
	// address, so a burst of distinct visitors never shares a budget.
	for i := 0; i < limitPerMinute+1; i++ {
		m := forms.NewSubscribe(srv.URL, nil)
		m.SetOrigin(fmt.Sprintf("203.0.113.%d", i+1))
		m.SetField("email", fmt.Sprintf("visitor%d@example.com", i+1))
		require.NoError(t, m.Submit(context.Background()),
			"visitor %d was throttled into a shared bucket", i+1)
	}
}

func TestRateLimitStillThrottlesSingleVisitor(t *testing.T) {
	srv := newLimitedServer(t)
	defer srv.Close()

	var limited bool
	for i := 0; i < limitPerMinute+1; i++ {
		m := forms.NewSubscribe(srv.URL, nil)
		m.SetOrigin("203.0.113.50")
		m.SetField("email", "repeat@example.com")
		if err := m.Submit(context.Background()); err != nil {
			limited = true
		}
	}
	assert.True(t, limited, "one visitor exceeding the budget should be throttled")
}
