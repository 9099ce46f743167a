package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pgaskin/mcver"
)

const userAgent = "mcverd (github.com/pgaskin/mcver)"

// ManifestSource reads the latest release from the launcher version manifest.
type ManifestSource struct {
	c *http.Client
	u string
}

func NewManifestSource(c *http.Client, u string) *ManifestSource {
	if c == nil {
		c = http.DefaultClient
	}
	return &ManifestSource{c, u}
}

func (m *ManifestSource) Latest(ctx context.Context) (Release, error) {
	resp, err := get(ctx, m.c, m.u)
	if err != nil {
		return Release{}, err
	}
	defer resp.Body.Close()

	var obj struct {
		Latest struct {
			Release string `json:"release"`
		} `json:"latest"`
		Versions []struct {
			ID          string    `json:"id"`
			Type        string    `json:"type"`
			URL         string    `json:"url"`
			ReleaseTime time.Time `json:"releaseTime"`
		} `json:"versions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return Release{}, fmt.Errorf("read manifest json: %w", err)
	}

	v, err := mcver.Parse(obj.Latest.Release)
	if err != nil {
		return Release{}, fmt.Errorf("parse latest release: %w", err)
	}

	r := Release{Version: v}
	for _, x := range obj.Versions {
		if x.ID == obj.Latest.Release && x.Type == "release" {
			r.URL, r.Time = x.URL, x.ReleaseTime
			break
		}
	}
	return r, nil
}

// HTMLSource scrapes the latest release from a web page. The text of the
// elements matching the selector is searched in document order, and the first
// release version found wins. A version must be a word of its own, and
// elements mentioning a pre-release, release candidate or snapshot are
// skipped. If the element is a link, its target is used as the release URL.
type HTMLSource struct {
	c        *http.Client
	u        string
	selector string
}

func NewHTMLSource(c *http.Client, u, selector string) *HTMLSource {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTMLSource{c, u, selector}
}

var preReleaseRe = regexp.MustCompile(`(?i)\bpre-?release\b|\brelease candidate\b|\bsnapshot\b|[0-9]-(?:pre|rc)`)

func (h *HTMLSource) Latest(ctx context.Context) (Release, error) {
	resp, err := get(ctx, h.c, h.u)
	if err != nil {
		return Release{}, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Release{}, fmt.Errorf("parse page: %w", err)
	}

	var r Release
	doc.Find(h.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := releaseVersion(s.Text())
		if !ok {
			return true
		}
		r.Version = v
		if href, ok := s.Attr("href"); ok {
			if u, err := url.Parse(href); err == nil {
				r.URL = resp.Request.URL.ResolveReference(u).String()
			}
		}
		return false
	})
	if r.Zero() {
		return Release{}, fmt.Errorf("parse page: could not find a release version matching %q", h.selector)
	}
	return r, nil
}

// releaseVersion finds the first word of text which is a version. It fails if
// the text is about a pre-release.
func releaseVersion(text string) (mcver.Version, bool) {
	if preReleaseRe.MatchString(text) {
		return mcver.Version{}, false
	}
	for _, f := range strings.Fields(text) {
		if v, err := mcver.Parse(strings.Trim(f, `()[]{}<>"',.:;!?`)); err == nil {
			return v, true
		}
	}
	return mcver.Version{}, false
}

func get(ctx context.Context, c *http.Client, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %q: response status %s", u, resp.Status)
	}
	return resp, nil
}
