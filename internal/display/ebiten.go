package display

import (
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/dvsview/internal/input"
)

// EbitenDisplay renders frames in an Ebitengine window and captures keys.
type EbitenDisplay struct {
	mu          sync.Mutex
	frame       *image.RGBA
	ebitenImage *ebiten.Image
	title       string

	// pending window size, applied on the game goroutine
	resizeW int
	resizeH int

	keys    chan input.Key
	keyBuf  []ebiten.Key
	closing atomic.Bool
}

// NewEbitenDisplay creates an Ebitengine-based display.
func NewEbitenDisplay(title string) *EbitenDisplay {
	return &EbitenDisplay{
		title: title,
		keys:  make(chan input.Key, 16),
	}
}

// Show updates the displayed frame (called from the session goroutine).
func (d *EbitenDisplay) Show(img *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = img
}

// Resize asks the window to match a source resolution.
func (d *EbitenDisplay) Resize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resizeW, d.resizeH = w, h
}

func (d *EbitenDisplay) PollKey(wait time.Duration) (input.Key, bool) {
	return pollKey(d.keys, wait)
}

// Keys exposes pressed keys as a channel.
func (d *EbitenDisplay) Keys() <-chan input.Key {
	return d.keys
}

// Close ends the game loop at the next update.
func (d *EbitenDisplay) Close() {
	d.closing.Store(true)
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
// It returns when the window is closed or Close is called.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle(d.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(d)
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	if d.closing.Load() {
		return ebiten.Termination
	}

	d.mu.Lock()
	w, h := d.resizeW, d.resizeH
	d.resizeW, d.resizeH = 0, 0
	d.mu.Unlock()
	if w > 0 && h > 0 {
		ebiten.SetWindowSize(w, h)
	}

	d.captureKeyboardInput()
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	frame := d.frame
	d.mu.Unlock()

	if frame == nil {
		return
	}

	if d.ebitenImage == nil ||
		d.ebitenImage.Bounds().Dx() != frame.Bounds().Dx() ||
		d.ebitenImage.Bounds().Dy() != frame.Bounds().Dy() {
		d.ebitenImage = ebiten.NewImage(frame.Bounds().Dx(), frame.Bounds().Dy())
	}
	d.ebitenImage.WritePixels(frame.Pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	fw, fh := float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy())
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), fw, fh)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(d.ebitenImage, op)
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// --- Input capture ---

func (d *EbitenDisplay) captureKeyboardInput() {
	d.keyBuf = inpututil.AppendJustPressedKeys(d.keyBuf[:0])
	for _, k := range d.keyBuf {
		key, ok := keyMap[k]
		if !ok {
			continue
		}
		select {
		case d.keys <- key:
		default:
			// nobody polling; drop rather than stall the game loop
		}
	}
}

var keyMap = map[ebiten.Key]input.Key{
	ebiten.KeyQ:      input.KeyQ,
	ebiten.KeyC:      input.KeyC,
	ebiten.KeySpace:  input.KeySpace,
	ebiten.KeyEscape: input.KeyEscape,
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
