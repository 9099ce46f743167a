package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/julienschmidt/httprouter"
	"github.com/pgaskin/mcver"
	"github.com/rs/zerolog"
)

// Converter serves version conversions over HTTP.
type Converter struct {
	def mcver.Scheme
	log zerolog.Logger
	m   *metrics.Set
	c   map[string]*metrics.Counter
}

var conversionResults = []string{"ok", "invalid", "unmapped"}

var errUnknownTarget = errors.New("unknown target")

func NewConverter(def mcver.Scheme, log zerolog.Logger) *Converter {
	c := &Converter{
		def: def,
		log: log,
		m:   metrics.NewSet(),
		c:   map[string]*metrics.Counter{},
	}
	for _, s := range mcver.Schemes() {
		for _, t := range []string{"classic", "drop"} {
			for _, r := range conversionResults {
				c.c[s.Name()+"/"+t+"/"+r] = c.m.NewCounter(`mcverd_conversions_total{scheme="` + s.Name() + `",target="` + t + `",result="` + r + `"}`)
			}
		}
	}
	c.c["unknown_scheme"] = c.m.NewCounter(`mcverd_conversions_unknown_scheme_total`)
	return c
}

// scheme gets the scheme from the query string, falling back to the default.
func (c *Converter) scheme(r *http.Request) (mcver.Scheme, error) {
	if n := r.URL.Query().Get("scheme"); n != "" {
		s, err := mcver.LookupScheme(n)
		if err != nil {
			c.c["unknown_scheme"].Inc()
		}
		return s, err
	}
	return c.def, nil
}

// convert converts text to the target form (classic or drop).
func (c *Converter) convert(s mcver.Scheme, target, text string) (string, error) {
	if target != "classic" && target != "drop" {
		return "", fmt.Errorf("%w %q", errUnknownTarget, target)
	}

	var out string
	v, err := mcver.Parse(text)
	if err == nil {
		if target == "classic" {
			out = s.ToClassic(v)
		} else {
			out, err = s.ToDrop(v)
		}
	}

	switch {
	case err == nil:
		c.c[s.Name()+"/"+target+"/ok"].Inc()
	case errors.Is(err, mcver.ErrUnmappedVersion):
		c.c[s.Name()+"/"+target+"/unmapped"].Inc()
	default:
		c.c[s.Name()+"/"+target+"/invalid"].Inc()
	}
	return out, err
}

// HandleTarget returns a handler which writes the version converted to target
// as plain text.
func (c *Converter) HandleTarget(target string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		s, err := c.scheme(r)
		if err != nil {
			c.writeError(w, r, err)
			return
		}
		out, err := c.convert(s, target, p.ByName("version"))
		if err != nil {
			c.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, out)
	}
}

// HandleConvert writes both forms of the version as JSON.
func (c *Converter) HandleConvert(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, err := c.scheme(r)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	res := mcver.Convert(s, p.ByName("version"))
	if res.Family != "" {
		c.c[s.Name()+"/classic/ok"].Inc()
	}
	switch {
	case res.Err == nil:
		c.c[s.Name()+"/drop/ok"].Inc()
	case errors.Is(res.Err, mcver.ErrUnmappedVersion):
		c.c[s.Name()+"/drop/unmapped"].Inc()
	default:
		c.c[s.Name()+"/classic/invalid"].Inc()
		c.c[s.Name()+"/drop/invalid"].Inc()
	}

	status := http.StatusOK
	if res.Family == "" {
		status = errorStatus(res.Err)
	}
	writeJSON(w, status, res)
}

// HandleBadge renders the converted version as an SVG or PNG image, depending
// on the extension of the file param.
func (c *Converter) HandleBadge(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	target, file := p.ByName("target"), p.ByName("file")
	if target != "classic" && target != "drop" {
		http.NotFound(w, r)
		return
	}

	ext := path.Ext(file)
	if ext != ".svg" && ext != ".png" {
		http.NotFound(w, r)
		return
	}

	s, err := c.scheme(r)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	out, err := c.convert(s, target, strings.TrimSuffix(file, ext))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	if ext == ".png" {
		writePNG(w, out)
	} else {
		writeSVG(w, r, out)
	}
}

// HandleTable writes the historical drop table as JSON.
func (c *Converter) HandleTable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, mcver.Table())
}

func (c *Converter) WritePrometheus(w io.Writer) {
	c.m.WritePrometheus(w)
}

func (c *Converter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	c.log.Debug().
		Str("what", "convert").
		Str("path", r.URL.Path).
		Int("status", status).
		Err(err).
		Msg("conversion failed")
	http.Error(w, err.Error(), status)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, mcver.ErrInvalidFormat), errors.Is(err, mcver.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, mcver.ErrUnmappedVersion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mcver.ErrUnknownScheme), errors.Is(err, errUnknownTarget):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.Encode(v)
}
