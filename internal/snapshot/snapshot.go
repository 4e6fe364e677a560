// Package snapshot draws a scene to a PNG: an orthographic view down the
// z axis, atoms painted back to front.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/structure"
)

// ErrNothingToDraw is returned for a scene without a model.
var ErrNothingToDraw = errors.New("no model to draw")

// Options sizes the image.
type Options struct {
	Width      int
	Height     int
	Background string
}

const (
	margin        = 24.0
	cartoonRadius = 0.35
	minPixels     = 1.5
)

// named covers the color names the viewer styles use; anything else must be
// a hex color.
var named = map[string]color.RGBA{
	"yellow":    {255, 255, 0, 255},
	"lime":      {0, 255, 0, 255},
	"orange":    {255, 165, 0, 255},
	"white":     {255, 255, 255, 255},
	"black":     {0, 0, 0, 255},
	"lightgray": {211, 211, 211, 255},
	"gray":      {128, 128, 128, 255},
}

// ParseColor resolves a color name or #rgb / #rrggbb value.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	var r, g, b uint8
	if len(hex) != 6 {
		return nil, fmt.Errorf("unknown color %q", s)
	}
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("unknown color %q", s)
	}
	return color.RGBA{r, g, b, 255}, nil
}

type sprite struct {
	atom  structure.Atom
	style engine.Style
}

// Render draws the scene.
func Render(s *engine.Scene, opts Options) (image.Image, error) {
	m := s.Model()
	if m == nil || len(m.Atoms) == 0 {
		return nil, ErrNothingToDraw
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}
	bg, err := ParseColor(opts.Background)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(bg)
	dc.Clear()

	styles := s.Styles()
	var sprites []sprite
	for i, a := range m.Atoms {
		if styles[i].Visible() {
			sprites = append(sprites, sprite{atom: a, style: styles[i]})
		}
	}

	b := s.Bounds()
	if b == (engine.Bounds{}) {
		b = boundsOf(m.Atoms)
	}
	p := newProjection(b, opts)

	drawTrace(dc, p, sprites)

	sort.SliceStable(sprites, func(i, j int) bool { return sprites[i].atom.Z < sprites[j].atom.Z })
	for _, sp := range sprites {
		c, err := ParseColor(sp.style.Color)
		if err != nil {
			return nil, err
		}
		r := sp.style.Radius
		if sp.style.Kind == engine.CartoonStyle {
			r = cartoonRadius
		}
		x, y := p.point(sp.atom)
		dc.DrawCircle(x, y, math.Max(r*p.scale, minPixels))
		dc.SetColor(c)
		dc.FillPreserve()
		dc.SetRGBA(0, 0, 0, 0.35)
		dc.SetLineWidth(0.5)
		dc.Stroke()
	}

	if err := drawLabels(dc, p, s.Labels()); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders the scene and encodes it to w.
func WritePNG(w io.Writer, s *engine.Scene, opts Options) error {
	img, err := Render(s, opts)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

// drawTrace connects consecutive cartoon atoms of a chain.
func drawTrace(dc *gg.Context, p projection, sprites []sprite) {
	dc.SetLineWidth(math.Max(cartoonRadius*p.scale, 1))
	var prev *sprite
	for i := range sprites {
		sp := &sprites[i]
		if sp.style.Kind != engine.CartoonStyle {
			prev = nil
			continue
		}
		if prev != nil && prev.atom.Chain == sp.atom.Chain {
			c, err := ParseColor(sp.style.Color)
			if err == nil {
				x0, y0 := p.point(prev.atom)
				x1, y1 := p.point(sp.atom)
				dc.SetColor(c)
				dc.DrawLine(x0, y0, x1, y1)
				dc.Stroke()
			}
		}
		prev = sp
	}
}

func drawLabels(dc *gg.Context, p projection, labels []engine.Label) error {
	if len(labels) == 0 {
		return nil
	}
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	for _, l := range labels {
		size := float64(l.FontSize)
		if size <= 0 {
			size = 12
		}
		dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		}))

		lines := strings.Split(l.Text, "\n")
		var w float64
		for _, line := range lines {
			lw, _ := dc.MeasureString(line)
			w = math.Max(w, lw)
		}
		lh := size * 1.3
		h := lh * float64(len(lines))
		x := p.x(l.Position.X) + 6
		y := p.y(l.Position.Y) - h/2

		if bgc, err := ParseColor(l.BackgroundColor); err == nil {
			dc.SetColor(bgc)
			dc.DrawRoundedRectangle(x-4, y-2, w+8, h+4, 3)
			dc.Fill()
		}
		fg, err := ParseColor(l.FontColor)
		if err != nil {
			fg = color.Black
		}
		dc.SetColor(fg)
		for i, line := range lines {
			dc.DrawStringAnchored(line, x, y+lh*float64(i), 0, 1)
		}
	}
	return nil
}

func boundsOf(atoms []structure.Atom) engine.Bounds {
	b := engine.Bounds{
		Min: engine.Position{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: engine.Position{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, a := range atoms {
		b.Min.X, b.Max.X = math.Min(b.Min.X, a.X), math.Max(b.Max.X, a.X)
		b.Min.Y, b.Max.Y = math.Min(b.Min.Y, a.Y), math.Max(b.Max.Y, a.Y)
		b.Min.Z, b.Max.Z = math.Min(b.Min.Z, a.Z), math.Max(b.Max.Z, a.Z)
	}
	return b
}

// projection maps model x/y onto pixels, y pointing up.
type projection struct {
	scale  float64
	cx, cy float64
	w, h   float64
}

func newProjection(b engine.Bounds, opts Options) projection {
	w, h := float64(opts.Width), float64(opts.Height)
	span := math.Max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)
	// leave room for the largest sphere at the edge
	span += 4
	scale := math.Min(w-2*margin, h-2*margin) / span
	c := b.Center()
	return projection{scale: scale, cx: c.X, cy: c.Y, w: w, h: h}
}

func (p projection) x(v float64) float64 { return p.w/2 + (v-p.cx)*p.scale }
func (p projection) y(v float64) float64 { return p.h/2 - (v-p.cy)*p.scale }

func (p projection) point(a structure.Atom) (float64, float64) {
	return p.x(a.X), p.y(a.Y)
}
