package display

import (
	"image"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var (
	_ Display   = (*EbitenDisplay)(nil)
	_ FrameSink = (*EbitenDisplay)(nil)
)

// EbitenDisplay renders frames using Ebitengine. Every frame pixel covers
// half a terminal cell, so it is drawn pixelAspect times taller than wide.
type EbitenDisplay struct {
	title       string
	pixelAspect float64

	mu          sync.Mutex
	frame       *image.RGBA
	ebitenImage *ebiten.Image
}

// NewEbitenDisplay creates a display. pixelAspect is the height/width ratio
// of one frame pixel on the terminal, (cell height / 2) / cell width.
func NewEbitenDisplay(title string, pixelAspect float64) *EbitenDisplay {
	if pixelAspect <= 0 {
		pixelAspect = 1
	}
	return &EbitenDisplay{title: title, pixelAspect: pixelAspect}
}

// SetFrame implements FrameSink.
func (d *EbitenDisplay) SetFrame(img *image.RGBA) {
	d.mu.Lock()
	d.frame = img
	d.mu.Unlock()
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle(d.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(d)
}

func (d *EbitenDisplay) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	frame := d.frame
	d.mu.Unlock()

	if frame == nil || frame.Bounds().Empty() {
		return
	}

	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	if d.ebitenImage == nil ||
		d.ebitenImage.Bounds().Dx() != fw ||
		d.ebitenImage.Bounds().Dy() != fh {
		d.ebitenImage = ebiten.NewImage(fw, fh)
	}
	d.ebitenImage.WritePixels(frame.Pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	sx, sy, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), float64(fw), float64(fh), d.pixelAspect)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(offsetX, offsetY)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(d.ebitenImage, op)
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns per-axis scales and offsets that letterbox a
// frame of non-square pixels into the view.
func aspectFitTransform(viewW, viewH, frameW, frameH, pixelAspect float64) (sx, sy, offsetX, offsetY float64) {
	scale := math.Min(viewW/frameW, viewH/(frameH*pixelAspect))
	sx, sy = scale, scale*pixelAspect
	offsetX = (viewW - frameW*sx) / 2
	offsetY = (viewH - frameH*sy) / 2
	return
}
