package viz

import (
	"image"
	"image/color"
	"image/gif"
	"io"
)

// Recorder rasterizes canvases into GIF frames.
type Recorder struct {
	// DotSize is the side of one braille dot in image pixels.
	DotSize int
	// Delay between frames in 100ths of a second.
	Delay  int
	frames []*image.Paletted
}

func NewRecorder() *Recorder {
	return &Recorder{DotSize: 3, Delay: 2}
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Reset() { r.frames = nil }

// Capture appends the current contents of c as a frame.
func (r *Recorder) Capture(c *Canvas) {
	pw, ph := c.Pixels()
	d := max(1, r.DotSize)
	img := image.NewPaletted(image.Rect(0, 0, pw*d, ph*d), color.Palette{color.Black, color.White})
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < d; py++ {
				for px := 0; px < d; px++ {
					img.SetColorIndex(x*d+px, y*d+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Encode writes the captured frames as a looping GIF.
func (r *Recorder) Encode(w io.Writer) error {
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.Delay)
	}
	return gif.EncodeAll(w, &anim)
}
