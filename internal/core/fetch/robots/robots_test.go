package robots

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAgent = "internhuntbot"

func robotsServer(t *testing.T, body string, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsAllowedHonorsDisallow(t *testing.T) {
	var hits int32
	srv := robotsServer(t, "User-agent: *\nDisallow: /private/\n", 200, &hits)
	s := New()

	assert.True(t, s.IsAllowed(srv.URL+"/careers", testAgent))
	assert.False(t, s.IsAllowed(srv.URL+"/private/roles", testAgent))
}

func TestIsAllowedCachesPerOrigin(t *testing.T) {
	var hits int32
	srv := robotsServer(t, "User-agent: *\nDisallow:\n", 200, &hits)
	s := New()

	for i := 0; i < 5; i++ {
		assert.True(t, s.IsAllowed(fmt.Sprintf("%s/page/%d", srv.URL, i), testAgent))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestIsAllowedAgentSpecificGroup(t *testing.T) {
	var hits int32
	body := "User-agent: *\nDisallow:\n\nUser-agent: " + testAgent + "\nDisallow: /jobs/\n"
	srv := robotsServer(t, body, 200, &hits)
	s := New()

	assert.False(t, s.IsAllowed(srv.URL+"/jobs/4012345", testAgent))
	assert.True(t, s.IsAllowed(srv.URL+"/jobs/4012345", "otherbot"))
}

func TestIsAllowedUnreachableOriginAllowsAll(t *testing.T) {
	s := New()
	// Nothing listens here; the fetch fails and the URL passes.
	assert.True(t, s.IsAllowed("http://127.0.0.1:1/anything", testAgent))
}

func TestIsAllowedMissingRobotsAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	s := New()

	assert.True(t, s.IsAllowed(srv.URL+"/careers", testAgent))
}

func TestIsAllowedServerErrorDisallows(t *testing.T) {
	var hits int32
	srv := robotsServer(t, "", 500, &hits)
	s := New()

	assert.False(t, s.IsAllowed(srv.URL+"/careers", testAgent))
}

func TestIsAllowedBadURL(t *testing.T) {
	s := New()
	assert.True(t, s.IsAllowed("not a url", testAgent))
}

func TestPreloadSkipsNetwork(t *testing.T) {
	s := New()
	require.NoError(t, s.Preload("https://acme.com", "User-agent: *\nDisallow: /hidden/\n"))

	assert.False(t, s.IsAllowed("https://acme.com/hidden/page", testAgent))
	assert.True(t, s.IsAllowed("https://acme.com/careers", testAgent))
}

func TestPreloadRejectsNothing(t *testing.T) {
	// robotstxt parses permissively; even odd content loads.
	s := New()
	assert.NoError(t, s.Preload("https://acme.com", "???"))
}
