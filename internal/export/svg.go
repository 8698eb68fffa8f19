// Package export writes scene frames as standalone SVG documents.
package export

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/viz"
)

const background = "#0a0a0a"

// SVGOptions controls FrameToSVG output.
type SVGOptions struct {
	// Scale multiplies scene units into SVG user units.
	Scale       float64
	Springs     bool
	Constraints bool
	Grid        bool
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Scale: 1, Springs: true, Constraints: true}
}

func rgb(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// FrameToSVG renders a frame with each body in its own color.
func FrameToSVG(f *engine.Frame, opts SVGOptions) string {
	s := opts.Scale
	if s <= 0 {
		s = 1
	}
	w, h := f.Width*s, f.Height*s

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)

	if opts.Grid && f.Cols > 0 && f.Rows > 0 {
		sb.WriteString(`<g stroke="#222233" stroke-width="1">` + "\n")
		for i := 1; i < f.Cols; i++ {
			x := float64(i) * w / float64(f.Cols)
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n", x, x, h)
		}
		for j := 1; j < f.Rows; j++ {
			y := float64(j) * h / float64(f.Rows)
			fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", y, w, y)
		}
		sb.WriteString("</g>\n")
	}

	if opts.Constraints {
		sb.WriteString(`<g fill="none" stroke="#444466" stroke-width="2">` + "\n")
		for _, k := range f.Constraints {
			switch k.Kind {
			case constraint.ExcludingDisk:
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#444466"/>`+"\n", k.Center.X*s, k.Center.Y*s, k.Radius*s)
			case constraint.ContainingDisk:
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", k.Center.X*s, k.Center.Y*s, k.Radius*s)
			}
		}
		sb.WriteString("</g>\n")
	}

	if opts.Springs && len(f.Springs) > 0 {
		lookup := f.Lookup()
		sb.WriteString(`<g stroke="#888899" stroke-width="1">` + "\n")
		for _, l := range f.Springs {
			a, okA := lookup(l.KeyA())
			b, okB := lookup(l.KeyB())
			if !okA || !okB {
				continue
			}
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
				a.Position.X*s, a.Position.Y*s, b.Position.X*s, b.Position.Y*s)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("<g>\n")
	for i := range f.Bodies {
		b := &f.Bodies[i]
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			b.Position.X*s, b.Position.Y*s, b.Radius*s, rgb(b.Color))
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.Pixels()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// WriteFrame renders f to w, either as a vector scene or, when braille is set,
// through a braille canvas of cols x rows cells.
func WriteFrame(w io.Writer, f *engine.Frame, opts SVGOptions, braille bool, cols, rows int) error {
	var doc string
	if braille {
		c := viz.NewCanvas(cols, rows)
		viz.DrawFrame(c, f, viz.RenderOptions{Springs: opts.Springs, Constraints: opts.Constraints, Grid: opts.Grid})
		doc = CanvasToSVG(c, opts.Scale)
	} else {
		doc = FrameToSVG(f, opts)
	}
	_, err := io.WriteString(w, doc)
	return err
}
