package main

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNewServer(t *testing.T, fn func(c *Config)) *Server {
	t.Helper()
	c := DefaultConfig()
	c.Latest.Source = ""
	c.RateBurst = 1000
	if fn != nil {
		fn(c)
	}
	require.NoError(t, c.Validate())

	s, err := NewServer(c, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestServer(t *testing.T) {
	s := testNewServer(t, func(c *Config) {
		c.Scheme = "custom"
	})
	assert.Nil(t, s.Latest)

	for _, c := range []struct {
		url    string
		status int
		body   string
	}{
		{"/classic/25.4.1", 200, "1.22.1"},
		{"/classic/25.4.1?scheme=historical", 200, "1.21.12"},
		{"/drop/1.22", 200, "25.4"},
		{"/drop/1.23", 422, ""},
		{"/latest/version", 404, ""},
	} {
		w := serve(t, s.Handler, c.url)
		assert.Equal(t, c.status, w.Code, c.url)
		if c.status == http.StatusOK {
			assert.Equal(t, c.body, w.Body.String(), c.url)
		}
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"), c.url)
	}

	w := serve(t, s.Handler, "/")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	w = serve(t, s.Handler, "/metrics")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `mcverd_conversions_total{scheme="custom",target="classic",result="ok"} 1`)
	assert.Contains(t, w.Body.String(), `mcverd_cache_hits_total`)

	w = serve(t, s.Handler, "/stats")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"puts"`)
}

func TestServerGzip(t *testing.T) {
	s := testNewServer(t, nil)

	r := httptest.NewRequest("GET", "/table", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	buf, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(buf), "["))
	assert.Contains(t, string(buf), `"year": 25`)
}

func TestServerRateLimit(t *testing.T) {
	s := testNewServer(t, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 1
	})
	assert.Equal(t, 200, serve(t, s.Handler, "/classic/26.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, s.Handler, "/classic/26.1").Code)
}

func TestServerLatest(t *testing.T) {
	src := testServer(t, "text/html", testPage)
	s := testNewServer(t, func(c *Config) {
		c.Latest = LatestConfig{
			Source:   "html",
			URL:      src.URL,
			Selector: ".articles a",
			Interval: DefaultConfig().Latest.Interval,
		}
	})
	require.NotNil(t, s.Latest)
	require.NoError(t, s.Latest.Check(context.Background()))

	w := serve(t, s.Handler, "/latest/version?target=classic")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "1.22", w.Body.String())

	w = serve(t, s.Handler, "/metrics")
	assert.Contains(t, w.Body.String(), "mcverd_latest_checks_total 1")
}

func TestServerBadScheme(t *testing.T) {
	c := DefaultConfig()
	c.Scheme = "bedrock"
	_, err := NewServer(c, zerolog.Nop())
	assert.Error(t, err)
}
