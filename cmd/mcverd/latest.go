package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/julienschmidt/httprouter"
	"github.com/pgaskin/mcver"
	"github.com/rs/zerolog"
)

// Release is a released version as reported by a Source.
type Release struct {
	Version mcver.Version
	URL     string
	Time    time.Time // zero if the source doesn't know
}

func (r Release) Zero() bool {
	return r.Version == (mcver.Version{})
}

// Source looks up the latest release.
type Source interface {
	Latest(ctx context.Context) (Release, error)
}

// LatestTracker polls a Source and keeps the newest release it has seen.
type LatestTracker struct {
	src Source
	s   mcver.Scheme
	n   []Notifier
	// note: this is more efficient than a mutex, and ordering isn't critical
	// because only the polling goroutine stores it
	v   atomic.Value
	log zerolog.Logger

	m        *metrics.Set
	checks   *metrics.Counter
	failures *metrics.Counter
}

var errNoRelease = errors.New("no release seen yet")

func NewLatestTracker(src Source, s mcver.Scheme, log zerolog.Logger) *LatestTracker {
	l := &LatestTracker{src: src, s: s, log: log, m: metrics.NewSet()}

	// note: this must be initialized in this way, as an atomic.Value can't be copied after being stored
	l.v.Store(Release{})

	l.checks = l.m.NewCounter(`mcverd_latest_checks_total`)
	l.failures = l.m.NewCounter(`mcverd_latest_check_failures_total`)
	return l
}

func (l *LatestTracker) Notify(n ...Notifier) {
	l.n = append(l.n, n...)
}

func (l *LatestTracker) Latest() Release {
	return l.v.Load().(Release)
}

// Run checks the source immediately, then every interval until ctx is done.
// Failed checks are logged and retried at the next interval.
func (l *LatestTracker) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := l.Check(ctx); err != nil && ctx.Err() == nil {
			l.log.Warn().
				Str("what", "check").
				Err(err).
				Msg("failed to check for latest release")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Check polls the source once, storing and announcing the release if it is
// newer than the current one.
func (l *LatestTracker) Check(ctx context.Context) error {
	l.checks.Inc()
	n, err := l.src.Latest(ctx)
	if err != nil {
		l.failures.Inc()
		return err
	}

	o := l.Latest()
	if !newer(o, n) {
		return nil
	}

	l.log.Info().
		Str("what", "latest").
		Str("old", o.Version.String()).
		Str("new", n.Version.String()).
		Str("url", n.URL).
		Msg("found newer release")
	l.v.Store(n)

	for _, v := range l.n {
		go v.NotifyRelease(o, n)
	}
	return nil
}

// newer checks whether n should replace o. Sources which don't report release
// times are trusted whenever the version changes.
func newer(o, n Release) bool {
	if n.Zero() || n.Version == o.Version {
		return false
	}
	return o.Zero() || !n.Time.Before(o.Time)
}

// render gets the latest version in the target form (classic, drop, or empty
// for the form the source reported).
func (l *LatestTracker) render(target string) (string, error) {
	cv := l.Latest()
	if cv.Zero() {
		return "", errNoRelease
	}
	switch target {
	case "":
		return cv.Version.String(), nil
	case "classic":
		return l.s.ToClassic(cv.Version), nil
	case "drop":
		return l.s.ToDrop(cv.Version)
	default:
		return "", fmt.Errorf("%w %q", errUnknownTarget, target)
	}
}

func (l *LatestTracker) WritePrometheus(w io.Writer) {
	m := metrics.NewSet()
	if cv := l.Latest(); !cv.Zero() {
		m.NewGauge(`mcverd_latest_version{full="`+cv.Version.String()+`",classic="`+l.s.ToClassic(cv.Version)+`"}`, func() float64 { return float64(cv.Version.Patch) })
		if !cv.Time.IsZero() {
			m.NewGauge(`mcverd_latest_release_time_seconds`, func() float64 { return float64(cv.Time.Unix()) })
		}
	}
	m.WritePrometheus(w)
	l.m.WritePrometheus(w)
}

func (l *LatestTracker) handle(fn func(w http.ResponseWriter, r *http.Request, v string)) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		v, err := l.render(r.URL.Query().Get("target"))
		switch {
		case errors.Is(err, errNoRelease):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		case errors.Is(err, mcver.ErrUnmappedVersion):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Cache-Control", "no-store, must-revalidate")
		fn(w, r, v)
	}
}

func (l *LatestTracker) Mount(r *httprouter.Router) {
	r.GET("/latest/version", l.handle(func(w http.ResponseWriter, r *http.Request, v string) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, v)
	}))

	r.GET("/latest/version/svg", l.handle(func(w http.ResponseWriter, r *http.Request, v string) {
		writeSVG(w, r, v)
	}))

	r.GET("/latest/version/png", l.handle(func(w http.ResponseWriter, r *http.Request, v string) {
		writePNG(w, v)
	}))

	r.GET("/latest/version/redir", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		cv := l.Latest()
		if cv.URL == "" {
			http.Error(w, errNoRelease.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Redirect(w, r, cv.URL, http.StatusTemporaryRedirect)
	})
}
