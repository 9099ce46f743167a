package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pgaskin/mcver"
)

// badgeParams are the only query params which change a rendered SVG badge.
var badgeParams = []string{"fw", "fh", "ff", "fc"}

// CacheKey identifies the response of a conversion route by what it depends
// on, so equivalent requests (e.g., /drop/1.21.5, /drop/01.21.5 and
// /drop/1.21.5?scheme=historical) share an entry. The route is one of classic,
// drop, convert, badge or table. It returns false if the response shouldn't be
// cached.
func (c *Converter) CacheKey(route string, r *http.Request, p httprouter.Params) (string, bool) {
	if route == "table" {
		return "table", true
	}

	s := c.def
	if n := r.URL.Query().Get("scheme"); n != "" {
		x, err := mcver.LookupScheme(n)
		if err != nil {
			return "", false
		}
		s = x
	}

	switch route {
	case "classic", "drop":
		v, err := mcver.Parse(p.ByName("version"))
		if err != nil {
			return "", false
		}
		return route + ":" + s.Name() + ":" + v.String(), true

	case "convert":
		// the response echoes the input as given
		return route + ":" + s.Name() + ":" + p.ByName("version"), true

	case "badge":
		file := p.ByName("file")
		ext := path.Ext(file)
		v, err := mcver.Parse(strings.TrimSuffix(file, ext))
		if err != nil {
			return "", false
		}
		k := route + ":" + s.Name() + ":" + p.ByName("target") + ":" + v.String() + ext
		if ext == ".svg" {
			q, x := r.URL.Query(), url.Values{}
			for _, n := range badgeParams {
				if val := q.Get(n); val != "" {
					x.Set(n, val)
				}
			}
			if len(x) != 0 {
				k += "?" + x.Encode()
			}
		}
		return k, true
	}
	return "", false
}

// cached wraps a conversion route with cachedHandler.
func cached(cache Cache, cacheTime time.Duration, cv *Converter, route string, fn httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		cachedHandler(cache, true, cacheTime, func(r *http.Request) (string, bool) {
			return cv.CacheKey(route, r, p)
		}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, p)
		})).ServeHTTP(w, r)
	}
}

// cachedHandler serves GET/HEAD requests from the cache, falling back to h and
// caching successful responses for cacheTime. Requests without a key are
// passed through. It also allows adding CORS headers.
func cachedHandler(cache Cache, cors bool, cacheTime time.Duration, key func(r *http.Request) (string, bool), h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "mcverd")

		if cors {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
		}

		if r.Method == "OPTIONS" {
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
			return
		}

		if r.Method != "GET" && r.Method != "HEAD" {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		id, ok := key(r)
		if !ok {
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Mcver-Cached", "no")
			h.ServeHTTP(w, r)
			return
		}

		if e, ok := cache.Get(id); ok {
			setExpiry(w, e.Expires)
			w.Header().Set("Content-Type", e.ContentType)
			w.Header().Set("Content-Length", strconv.Itoa(len(e.Body)))
			w.Header().Set("X-Mcver-Cached", e.Created.UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusOK)
			if r.Method != "HEAD" {
				w.Write(e.Body)
			}
			return
		}

		rec := &recorder{header: http.Header{}, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		for k, v := range rec.header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Length", strconv.Itoa(rec.body.Len()))

		if now := time.Now(); rec.status == http.StatusOK && cache.Put(id, Entry{
			ContentType: rec.header.Get("Content-Type"),
			Body:        rec.body.Bytes(),
			Created:     now,
			Expires:     now.Add(cacheTime),
		}) {
			setExpiry(w, now.Add(cacheTime))
			w.Header().Set("X-Mcver-Cached", "new")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Mcver-Cached", "no")
		}

		w.WriteHeader(rec.status)
		if r.Method != "HEAD" {
			w.Write(rec.body.Bytes())
		}
	})
}

func setExpiry(w http.ResponseWriter, exp time.Time) {
	w.Header().Set("Expires", exp.UTC().Format(http.TimeFormat))
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%.0f", time.Until(exp).Seconds()))
}

// recorder buffers a response so it can be cached before being written.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
	wrote  bool
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if !r.wrote {
		r.status, r.wrote = status, true
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	r.WriteHeader(http.StatusOK)
	return r.body.Write(b)
}
