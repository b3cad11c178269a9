package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"

	"github.com/lucasb-eyer/go-colorful"
)

// Recorder captures canvas frames into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Frames() int { return len(r.frames) }

var recordPalette = func() color.Palette {
	p := color.Palette{color.Black, color.White}
	for i := 0; i < 12; i++ {
		p = append(p, colorful.Hsv(float64(i)*30, 0.75, 1))
	}
	return p
}()

// Capture rasterizes the canvas, one braille dot to a charW/2 by charH/4
// block, tinted with the nearest palette entry to the cell color.
func (r *Recorder) Capture(c *Canvas) {
	const charW, charH = 8, 16
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), recordPalette)
	dotW, dotH := charW/2, charH/4

	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			pattern := int(c.Grid[row][col] - brailleBase)
			if pattern <= 0 {
				continue
			}

			idx := uint8(1)
			if hex := c.Colors[row][col]; hex != "" {
				if cc, err := colorful.Hex(hex); err == nil {
					idx = uint8(recordPalette.Index(cc))
				}
			}

			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, idx)
						}
					}
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Save writes the captured frames to path and clears the recorder.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r.frames = nil
	return gif.EncodeAll(f, &anim)
}
