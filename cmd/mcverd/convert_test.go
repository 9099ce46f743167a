package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/pgaskin/mcver"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConverter(t *testing.T) (*Converter, http.Handler) {
	t.Helper()
	cv := NewConverter(mcver.Historical, zerolog.Nop())
	r := httprouter.New()
	r.GET("/classic/:version", cv.HandleTarget("classic"))
	r.GET("/drop/:version", cv.HandleTarget("drop"))
	r.GET("/convert/:version", cv.HandleConvert)
	r.GET("/badge/:target/:file", cv.HandleBadge)
	r.GET("/table", cv.HandleTable)
	return cv, r
}

func serve(t *testing.T, h http.Handler, u string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u, nil))
	return w
}

func TestHandleTarget(t *testing.T) {
	_, h := testConverter(t)
	for _, c := range []struct {
		url    string
		status int
		body   string
	}{
		{"/classic/25.2.1", 200, "1.21.7"},
		{"/classic/1.21.11", 200, "1.21.11"},
		{"/classic/26.1", 200, "1.22"},
		{"/classic/15.1", 200, "15.1"},
		{"/classic/25.4?scheme=custom", 200, "1.22"},
		{"/drop/1.21.5", 200, "25.1"},
		{"/drop/1.20.2", 200, "23.1.2"},
		{"/drop/25.3", 200, "25.3"},
		{"/drop/1.22.1?scheme=custom", 200, "25.4.1"},
		{"/drop/1.22", 422, ""},
		{"/drop/abc", 400, ""},
		{"/classic/2.0", 400, ""},
		{"/classic/1.0?scheme=bedrock", 404, ""},
	} {
		t.Run(c.url, func(t *testing.T) {
			w := serve(t, h, c.url)
			assert.Equal(t, c.status, w.Code)
			if c.status == http.StatusOK {
				assert.Equal(t, c.body, w.Body.String())
				assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestHandleConvert(t *testing.T) {
	_, h := testConverter(t)

	for _, c := range []struct {
		url    string
		status int
		err    bool
		res    mcver.Result
	}{
		{"/convert/1.21.5", 200, false, mcver.Result{Input: "1.21.5", Scheme: "historical", Family: "classic", Classic: "1.21.5", Drop: "25.1"}},
		{"/convert/25.4.2?scheme=custom", 200, false, mcver.Result{Input: "25.4.2", Scheme: "custom", Family: "drop", Classic: "1.22.2", Drop: "25.4.2"}},
		{"/convert/1.22", 200, true, mcver.Result{Input: "1.22", Scheme: "historical", Family: "classic", Classic: "1.22"}},
		{"/convert/1.x", 400, true, mcver.Result{Input: "1.x", Scheme: "historical"}},
	} {
		t.Run(c.url, func(t *testing.T) {
			w := serve(t, h, c.url)
			assert.Equal(t, c.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var res mcver.Result
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, c.err, res.Error != "", res.Error)
			res.Error = ""
			assert.Equal(t, c.res, res)
		})
	}
}

func TestHandleBadge(t *testing.T) {
	_, h := testConverter(t)

	w := serve(t, h, "/badge/drop/1.21.5.svg?fc=%22red%22")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), ">25.1</text>")
	assert.Contains(t, w.Body.String(), `fill="&#39;red&#39;"`)

	w = serve(t, h, "/badge/classic/25.2.png")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dy())
	assert.Greater(t, img.Bounds().Dx(), 8)

	for _, u := range []string{
		"/badge/both/1.21.5.svg",
		"/badge/drop/1.21.5.gif",
		"/badge/drop/1.21.5",
	} {
		assert.Equal(t, 404, serve(t, h, u).Code, u)
	}
	assert.Equal(t, 422, serve(t, h, "/badge/drop/1.22.svg").Code)
}

func TestHandleTable(t *testing.T) {
	_, h := testConverter(t)

	w := serve(t, h, "/table")
	assert.Equal(t, 200, w.Code)

	var cells []mcver.Cell
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cells))
	assert.Equal(t, mcver.Table(), cells)
}

func TestConverterMetrics(t *testing.T) {
	cv, h := testConverter(t)
	serve(t, h, "/drop/1.21.5")
	serve(t, h, "/drop/1.22")
	serve(t, h, "/classic/x")
	serve(t, h, "/classic/1.0?scheme=nope")

	var buf bytes.Buffer
	cv.WritePrometheus(&buf)
	m := buf.String()
	for _, l := range []string{
		`mcverd_conversions_total{scheme="historical",target="drop",result="ok"} 1`,
		`mcverd_conversions_total{scheme="historical",target="drop",result="unmapped"} 1`,
		`mcverd_conversions_total{scheme="historical",target="classic",result="invalid"} 1`,
		`mcverd_conversions_unknown_scheme_total 1`,
	} {
		assert.True(t, strings.Contains(m, l), "missing %q", l)
	}
}

func TestErrorStatus(t *testing.T) {
	for _, c := range []struct {
		in  string
		out int
	}{
		{"x", http.StatusBadRequest},
		{"3.1", http.StatusBadRequest},
	} {
		_, err := mcver.Parse(c.in)
		assert.Equal(t, c.out, errorStatus(err), c.in)
	}
	_, err := mcver.ToDrop(mcver.Historical, "1.30")
	assert.Equal(t, http.StatusUnprocessableEntity, errorStatus(err))
	_, err = mcver.LookupScheme("x")
	assert.Equal(t, http.StatusNotFound, errorStatus(err))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(assert.AnError))
}

func TestConvertUnknownTarget(t *testing.T) {
	cv, _ := testConverter(t)
	out, err := cv.convert(mcver.Historical, "both", "1.21.5")
	assert.Empty(t, out)
	assert.ErrorIs(t, err, errUnknownTarget)
	assert.Equal(t, http.StatusNotFound, errorStatus(err))

	r := httprouter.New()
	r.GET("/:version", cv.HandleTarget("both"))
	assert.Equal(t, http.StatusNotFound, serve(t, r, "/1.21.5").Code)
}
