//go:build !nogui && sdl

package gui

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/jslick/matrixvm/input"
)

const bytesPerPixel = 4

func init() {
	Setup = setupSDLGui
}

var sdlKeyMapping = map[sdl.Keycode]input.Key{
	sdl.K_SPACE:     input.Space,
	sdl.K_RETURN:    input.Enter,
	sdl.K_BACKSPACE: input.Backspace,
	sdl.K_TAB:       input.Tab,
	sdl.K_UP:        input.Up,
	sdl.K_DOWN:      input.Down,
	sdl.K_LEFT:      input.Left,
	sdl.K_RIGHT:     input.Right,
	sdl.K_0:         input.Key0,
	sdl.K_1:         input.Key1,
	sdl.K_2:         input.Key2,
	sdl.K_3:         input.Key3,
	sdl.K_4:         input.Key4,
	sdl.K_5:         input.Key5,
	sdl.K_6:         input.Key6,
	sdl.K_7:         input.Key7,
	sdl.K_8:         input.Key8,
	sdl.K_9:         input.Key9,
	sdl.K_a:         input.A,
	sdl.K_b:         input.B,
	sdl.K_c:         input.C,
	sdl.K_d:         input.D,
	sdl.K_e:         input.E,
	sdl.K_f:         input.F,
	sdl.K_g:         input.G,
	sdl.K_h:         input.H,
	sdl.K_i:         input.I,
	sdl.K_j:         input.J,
	sdl.K_k:         input.K,
	sdl.K_l:         input.L,
	sdl.K_m:         input.M,
	sdl.K_n:         input.N,
	sdl.K_o:         input.O,
	sdl.K_p:         input.P,
	sdl.K_q:         input.Q,
	sdl.K_r:         input.R,
	sdl.K_s:         input.S,
	sdl.K_t:         input.T,
	sdl.K_u:         input.U,
	sdl.K_v:         input.V,
	sdl.K_w:         input.W,
	sdl.K_x:         input.X,
	sdl.K_y:         input.Y,
	sdl.K_z:         input.Z,
	sdl.K_LSHIFT:    input.LeftShift,
	sdl.K_RSHIFT:    input.RightShift,
	sdl.K_LCTRL:     input.LeftControl,
	sdl.K_RCTRL:     input.RightControl,
	sdl.K_LALT:      input.LeftAlt,
	sdl.K_RALT:      input.RightAlt,
}

func setupSDLGui(backend Backend) (guiRender func() (bool, error), guiCleanup func(), err error) {
	runtime.LockOSThread()

	dimensions := backend.Dimensions()

	window, renderer, tex, err := setupSDL(dimensions, backend)
	if err != nil {
		return nil, nil, err
	}

	render := func() (bool, error) {
		return renderSDL(dimensions, backend, renderer, tex)
	}

	cleanup := func() {
		_ = tex.Destroy()
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
	}
	return render, cleanup, nil
}

func setupSDL(dimensions Dimensions, backend Backend) (*sdl.Window, *sdl.Renderer, *sdl.Texture, error) {
	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		return nil, nil, nil, fmt.Errorf("initializing SDL: %w", err)
	}

	height := int32(float64(dimensions.Height) * dimensions.ScaleFactor)
	width := int32(float64(dimensions.Width) * dimensions.ScaleFactor)

	window, err := sdl.CreateWindow(backend.WindowTitle(), sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED, width, height,
		sdl.WINDOW_SHOWN|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating SDL window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating SDL renderer: %w", err)
	}

	tex, err := renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888),
		sdl.TEXTUREACCESS_STREAMING, int32(dimensions.Width), int32(dimensions.Height))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating SDL texture: %w", err)
	}

	return window, renderer, tex, nil
}

func renderSDL(dimensions Dimensions, backend Backend, renderer *sdl.Renderer, tex *sdl.Texture) (bool, error) {
	running := true

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.QuitEvent:
			running = false

		case *sdl.KeyboardEvent:
			if et.Type == sdl.KEYDOWN && et.Keysym.Sym == sdl.K_ESCAPE {
				running = false
				break
			}
			onSDLKey(backend, et)
		}
	}

	img := backend.Image()
	if err := tex.Update(nil, unsafe.Pointer(&img.Pix[0]), dimensions.Width*bytesPerPixel); err != nil {
		return false, err
	}

	if err := renderer.Copy(tex, nil, nil); err != nil {
		return false, err
	}
	renderer.Present()

	return running, nil
}

func onSDLKey(backend Backend, event *sdl.KeyboardEvent) {
	mappedKey, ok := sdlKeyMapping[event.Keysym.Sym]
	if !ok {
		return
	}

	switch event.Type {
	case sdl.KEYDOWN:
		backend.KeyDown(mappedKey)

	case sdl.KEYUP:
		backend.KeyUp(mappedKey)
	}
}
