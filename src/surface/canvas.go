package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"

	"screen-capture-overlay/src/capture"
	"screen-capture-overlay/src/display"
	"screen-capture-overlay/src/ipc"
	"screen-capture-overlay/src/lang"
	"screen-capture-overlay/src/messages"
)

// CanvasDocument is the internal document of the in-process surface.
const CanvasDocument = "app://screenshots/document"

const inboxSize = 16

// Canvas is the in-process surface. It runs its own goroutine, shows the
// captured image full-size and maps Enter/S/Esc to ok/save/cancel for the whole
// image. Editing tools live outside this package.
type Canvas struct {
	id    string
	bus   *ipc.Bus
	inbox chan messages.Message
	done  chan struct{}

	loaded    atomic.Bool
	destroyed atomic.Bool
	built     atomic.Bool
	closeOnce sync.Once

	mu      sync.Mutex
	display display.Display
	png     []byte
	lang    lang.Lang
	width   int
	height  int

	// built on the UI thread by CanvasObject
	img  *canvas.Image
	hint *widget.Label
	root *fyne.Container
}

// NewCanvas creates an unloaded canvas surface emitting on bus.
func NewCanvas(bus *ipc.Bus) *Canvas {
	return &Canvas{
		id:    "canvas-" + uuid.NewString(),
		bus:   bus,
		inbox: make(chan messages.Message, inboxSize),
		done:  make(chan struct{}),
	}
}

// CanvasFactory creates canvas surfaces.
type CanvasFactory struct {
	Bus *ipc.Bus
}

func (f CanvasFactory) NewSurface() (Surface, error) {
	return NewCanvas(f.Bus), nil
}

func (c *Canvas) ID() string { return c.id }

func (c *Canvas) Document() string { return CanvasDocument }

// Load starts the surface. It reports ready from its own goroutine.
func (c *Canvas) Load(url string) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	if url != CanvasDocument {
		return fmt.Errorf("%w: %s", ErrNavigationDenied, url)
	}
	if c.loaded.Swap(true) {
		return nil
	}
	go c.run()
	return nil
}

func (c *Canvas) run() {
	c.emit(messages.Ready{})
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.inbox:
			c.handle(msg)
		}
	}
}

func (c *Canvas) handle(msg messages.Message) {
	switch m := msg.(type) {
	case messages.Capture:
		data, err := capture.DecodeDataURI(m.Image)
		if err != nil {
			log.Printf("Surface[%s]: bad capture payload: %v", c.id, err)
			return
		}
		c.mu.Lock()
		c.display = m.Display
		c.png = data
		c.mu.Unlock()
		c.refresh()
	case messages.SetLang:
		c.mu.Lock()
		c.lang = c.lang.Merge(m.Lang)
		c.mu.Unlock()
		c.refresh()
	case messages.Reset:
		c.mu.Lock()
		c.png = nil
		c.mu.Unlock()
		c.refresh()
		c.emit(messages.ResetAck{})
	default:
		log.Printf("Surface[%s]: ignoring %s", c.id, msg.Type())
	}
}

// Send queues msg for the surface goroutine.
func (c *Canvas) Send(msg messages.Message) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	select {
	case c.inbox <- msg:
		return nil
	case <-c.done:
		return ErrDestroyed
	}
}

func (c *Canvas) SetBounds(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
}

func (c *Canvas) Destroy() {
	c.destroyed.Store(true)
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Canvas) IsDestroyed() bool { return c.destroyed.Load() }

func (c *Canvas) emit(msg messages.Message) {
	if c.destroyed.Load() {
		return
	}
	c.bus.Emit(messages.MessageEnvelope{From: c.id, Message: msg})
}

// selection returns the current image and its bounds; the whole capture is selected.
func (c *Canvas) selection() ([]byte, messages.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.png) == 0 {
		return nil, messages.Bounds{}, false
	}
	data := append([]byte(nil), c.png...)
	return data, messages.Bounds{Width: c.display.Width, Height: c.display.Height}, true
}

// TypedKey handles the overlay window's key events.
func (c *Canvas) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyEscape:
		c.emit(messages.Cancel{})
	case fyne.KeyReturn, fyne.KeyEnter:
		if data, b, ok := c.selection(); ok {
			c.emit(messages.Ok{Image: data, Bounds: b})
		}
	case fyne.KeyS:
		if data, b, ok := c.selection(); ok {
			c.emit(messages.Save{Image: data, Bounds: b})
		}
	}
}

// CanvasObject builds the fyne content. Must run on the UI thread.
func (c *Canvas) CanvasObject() fyne.CanvasObject {
	if c.root == nil {
		c.img = &canvas.Image{FillMode: canvas.ImageFillStretch}
		c.hint = widget.NewLabel("")
		c.root = container.NewStack(c.img, container.NewVBox(c.hint))
		c.built.Store(true)
	}
	c.apply(c.snapshot())
	return c.root
}

type view struct {
	img  image.Image
	hint string
}

func (c *Canvas) snapshot() view {
	c.mu.Lock()
	data, l := c.png, c.lang
	c.mu.Unlock()

	v := view{hint: hintText(l)}
	if len(data) > 0 {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			log.Printf("Surface[%s]: decoding capture: %v", c.id, err)
		} else {
			v.img = img
		}
	}
	return v
}

func (c *Canvas) apply(v view) {
	if c.root == nil {
		return
	}
	c.img.Image = v.img
	c.img.Refresh()
	c.hint.SetText(v.hint)
}

func (c *Canvas) refresh() {
	if !c.built.Load() {
		return
	}
	v := c.snapshot()
	fyne.Do(func() { c.apply(v) })
}

func hintText(l lang.Lang) string {
	label := func(key, fallback string) string {
		if s := l[key]; s != "" {
			return s
		}
		return fallback
	}
	return fmt.Sprintf("%s: Enter   %s: S   %s: Esc",
		label(lang.OperationOkTitle, "OK"),
		label(lang.OperationSaveTitle, "Save"),
		label(lang.OperationCancelTitle, "Cancel"))
}
