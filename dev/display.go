package dev

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jslick/matrixvm/gui"
	"github.com/jslick/matrixvm/input"
	"github.com/jslick/matrixvm/log"
	"github.com/jslick/matrixvm/machine"
)

// Display DMA layout and keyboard interface.
const (
	// DisplaySetupSize is the number of setup bytes at the start of the DMA
	// region: pixel width and height, each big-endian 16 bit.
	DisplaySetupSize = 4

	// DisplayMaxWidth and DisplayMaxHeight bound the resolution the DMA
	// region is sized for.
	DisplayMaxWidth  = 1920
	DisplayMaxHeight = 1080

	// DisplayBytesPerPixel is the pixel encoding in the DMA region:
	// row-major R G B.
	DisplayBytesPerPixel = 3

	// DisplayBufferSize is the size of the display DMA region.
	DisplayBufferSize = DisplaySetupSize + DisplayMaxWidth*DisplayMaxHeight*DisplayBytesPerPixel

	// DefaultDisplayPort is the port the display requests.
	DefaultDisplayPort = 8

	// DefaultDisplayWidth and DefaultDisplayHeight are the visible
	// resolution if none is configured.
	DefaultDisplayWidth  = 640
	DefaultDisplayHeight = 480

	// KeyboardIntLine is the interrupt line raised for host key events.
	KeyboardIntLine = 1
	// KeyboardDataPin is the controller pin carrying the key code.
	KeyboardDataPin = 1
	// KeyReleasedBit is set on the keyboard pin for key release events.
	KeyReleasedBit = 0x100

	refreshInterval = time.Second / 60
)

// Display shows a guest pixel buffer in a host window. It reserves a DMA
// region holding four setup bytes followed by the pixel data, and a port
// that guest code writes to request a repaint at the next refresh tick.
//
// Host key events are latched on the controller's keyboard pin and raise
// the keyboard interrupt line.
//
// The window backend is decoupled through the gui package; the machine runs
// headless when no backend is compiled in.
type Display struct {
	log *log.Logger
	mb  *machine.Motherboard
	ic  machine.InterruptController

	width  int
	height int
	scale  float64

	addr int32
	port int
	img  *image.RGBA

	repaint  atomic.Bool
	quit     chan struct{}
	stopOnce sync.Once
}

var (
	_ machine.Device = (*Display)(nil)
	_ gui.Backend    = (*Display)(nil)
)

// NewDisplay creates a new display device with the given visible
// resolution. Zero dimensions select the defaults; a nil logger disables
// logging.
func NewDisplay(logger *log.Logger, width, height int, scale float64) *Display {
	if logger == nil {
		logger = log.NewNop()
	}
	if width <= 0 {
		width = DefaultDisplayWidth
	}
	if height <= 0 {
		height = DefaultDisplayHeight
	}
	if scale <= 0 {
		scale = 1
	}
	return &Display{
		log:    logger,
		width:  width,
		height: height,
		scale:  scale,
		quit:   make(chan struct{}),
	}
}

// Name returns the name of the device.
func (d *Display) Name() string {
	return "HostDisplay"
}

// Init reserves the display memory and port and registers the render
// thread.
func (d *Display) Init(mb *machine.Motherboard) error {
	if d.width > DisplayMaxWidth || d.height > DisplayMaxHeight {
		return fmt.Errorf("display resolution %dx%d exceeds %dx%d",
			d.width, d.height, DisplayMaxWidth, DisplayMaxHeight)
	}

	d.mb = mb
	d.ic = mb.InterruptController()

	addr, err := mb.ReserveDMA(d, DisplayBufferSize)
	if err != nil {
		return err
	}
	d.addr = addr

	memory := mb.Memory()
	memory[addr+0] = byte(d.width >> 8)
	memory[addr+1] = byte(d.width)
	memory[addr+2] = byte(d.height >> 8)
	memory[addr+3] = byte(d.height)

	port, err := mb.RequestPort(d, DefaultDisplayPort)
	if err != nil {
		return err
	}
	d.port = port

	d.img = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	d.repaint.Store(true)

	mb.RequestThread(d, d.run)
	return nil
}

// Addr returns the start address of the display's DMA region.
func (d *Display) Addr() int32 {
	return d.addr
}

// Write requests a repaint at the next refresh tick.
func (d *Display) Write(_ int32, _ int) {
	d.repaint.Store(true)
}

// Stop requests the render thread to exit.
func (d *Display) Stop() {
	d.stopOnce.Do(func() {
		close(d.quit)
	})
}

// Image implements gui.Backend.
func (d *Display) Image() *image.RGBA {
	return d.img
}

// Dimensions implements gui.Backend.
func (d *Display) Dimensions() gui.Dimensions {
	return gui.Dimensions{
		Width:       d.width,
		Height:      d.height,
		ScaleFactor: d.scale,
	}
}

// WindowTitle implements gui.Backend.
func (d *Display) WindowTitle() string {
	return "Matrix VM"
}

// KeyDown implements gui.Backend.
func (d *Display) KeyDown(key input.Key) {
	d.keyEvent(key, false)
}

// KeyUp implements gui.Backend.
func (d *Display) KeyUp(key input.Key) {
	d.keyEvent(key, true)
}

func (d *Display) keyEvent(key input.Key, released bool) {
	if d.ic == nil {
		return
	}
	code := int32(key)
	if released {
		code |= KeyReleasedBit
	}
	d.ic.SetPin(KeyboardDataPin, code)
	d.ic.Interrupt(KeyboardIntLine)
}

// run drives the host window at the refresh rate until the device is
// stopped or the window is closed.
func (d *Display) run(_ machine.Device, _ *machine.Motherboard) {
	if gui.Setup == nil {
		d.log.Info("no gui backend compiled in, display stays headless")
		<-d.quit
		return
	}

	render, cleanup, err := gui.Setup(d)
	if err != nil {
		d.log.Error("opening display failed", log.Err(err))
		return
	}
	defer cleanup()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.quit:
			return
		case <-ticker.C:
			if d.repaint.Swap(false) {
				d.blit()
			}
			running, err := render()
			if err != nil {
				d.log.Error("rendering failed", log.Err(err))
				return
			}
			if !running {
				return
			}
		}
	}
}

// blit converts the RGB pixel data of the DMA region into the RGBA host
// image.
func (d *Display) blit() {
	memory := d.mb.Memory()
	src := memory[d.addr+DisplaySetupSize:]
	for i := 0; i < d.width*d.height; i++ {
		d.img.Pix[i*4+0] = src[i*3+0]
		d.img.Pix[i*4+1] = src[i*3+1]
		d.img.Pix[i*4+2] = src[i*3+2]
		d.img.Pix[i*4+3] = 0xff
	}
}
