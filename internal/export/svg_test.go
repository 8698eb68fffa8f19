package export

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/viz"
)

func testFrame(t *testing.T) engine.Frame {
	t.Helper()
	c, err := engine.New(engine.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.SpawnBody(r2.Vec{X: 100, Y: 100}, 10, 1, r2.Vec{})
	c.SpawnCluster(r2.Vec{X: 400, Y: 200})
	return c.Snapshot()
}

func TestFrameToSVG(t *testing.T) {
	f := testFrame(t)
	f.Bodies[0].Color = color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}

	svg := FrameToSVG(&f, DefaultSVGOptions())
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("malformed document")
	}
	if !strings.Contains(svg, `<circle cx="100.0" cy="100.0" r="10.0" fill="#123456"/>`) {
		t.Error("body circle missing")
	}
	if got := strings.Count(svg, "<line"); got != 6 {
		t.Errorf("expected 6 spring lines, got %d", got)
	}
}

func TestFrameToSVGScale(t *testing.T) {
	f := testFrame(t)
	svg := FrameToSVG(&f, SVGOptions{Scale: 0.5})
	if !strings.Contains(svg, `width="400" height="300"`) {
		t.Error("scale not applied to the viewport")
	}
	if strings.Contains(svg, "<line") {
		t.Error("springs drawn while disabled")
	}
}

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should render nothing")
	}
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if !strings.Contains(svg, `<circle cx="1.0" cy="1.0" r="0.8"/>`) {
		t.Error("first dot misplaced")
	}
}

func TestWriteFrame(t *testing.T) {
	f := testFrame(t)
	for _, braille := range []bool{false, true} {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, &f, DefaultSVGOptions(), braille, 40, 15); err != nil {
			t.Fatalf("write: %v", err)
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Errorf("braille=%v: no svg element", braille)
		}
	}
}
