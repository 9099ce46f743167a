package main

import (
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"

	"github.com/pbnjay/pixfont"
)

// writeSVG writes text as an SVG image. The font width, height, family and
// color can be overridden with the fw, fh, ff and fc query params.
func writeSVG(w http.ResponseWriter, r *http.Request, text string) {
	fn := func(p, d string) string {
		if v := r.URL.Query().Get(p); v != "" {
			return html.EscapeString(strings.ReplaceAll(v, `"`, `'`))
		}
		return d
	}
	fw := fn("fw", "72")
	fh := fn("fh", "12")
	ff := fn("ff", "Verdana, Arial, Helvetica, sans-serif")
	fc := fn("fc", "#000")

	w.Header().Set("Content-Type", "image/svg+xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%s" height="%s"><text x="0" y="%s" font-size="%s" font-family="%s" fill="%s">%s</text></svg>`, fw, fh, fh, fh, ff, fc, html.EscapeString(text))
}

// writePNG writes text as a PNG image using an 8x8 pixel font.
func writePNG(w http.ResponseWriter, text string) {
	font := pixfont.Font8x8
	iw, ih := font.MeasureString(text), font.GetHeight()
	if iw == 0 {
		iw = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, iw, ih))
	font.DrawString(img, 0, 0, text, color.Black)
	w.Header().Set("Content-Type", "image/png")
	png.Encode(w, img)
}
