package surface

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"screen-capture-overlay/src/messages"
)

const writeWait = 10 * time.Second

// Remote is a surface rendered out of process. The renderer opens the
// surface document and connects back over a websocket; frames sent before it
// connects are queued and flushed on connect.
type Remote struct {
	id     string
	server *Server

	destroyed atomic.Bool

	mu      sync.Mutex
	conn    *websocket.Conn
	pending [][]byte
	loaded  bool
	width   int
	height  int

	writeMu sync.Mutex
}

func newRemote(s *Server) *Remote {
	return &Remote{id: "remote-" + uuid.NewString(), server: s}
}

func (r *Remote) ID() string { return r.id }

// TypedKey handles keys pressed in the overlay window, which covers the
// renderer while it runs out of process. Esc cancels the capture.
func (r *Remote) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name != fyne.KeyEscape || r.destroyed.Load() {
		return
	}
	r.server.bus.Emit(messages.MessageEnvelope{From: r.id, Message: messages.Cancel{}})
}

func (r *Remote) Document() string { return r.server.DocumentURL(r.id) }

func (r *Remote) Load(url string) error {
	if r.destroyed.Load() {
		return ErrDestroyed
	}
	if url != r.Document() {
		return fmt.Errorf("%w: %s", ErrNavigationDenied, url)
	}
	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()
	log.Printf("Surface[%s]: waiting for renderer at %s", r.id, url)
	return nil
}

// Send writes msg to the renderer, or queues it until one connects.
func (r *Remote) Send(msg messages.Message) error {
	if r.destroyed.Load() {
		return ErrDestroyed
	}
	data, err := messages.Encode(msg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.pending = append(r.pending, data)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	return r.write(conn, data)
}

func (r *Remote) write(conn *websocket.Conn, data []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write to renderer: %w", err)
	}
	return nil
}

// SetBounds forwards the surface size to the renderer.
func (r *Remote) SetBounds(width, height int) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
	if err := r.Send(messages.SurfaceBounds{Width: width, Height: height}); err != nil {
		log.Printf("Surface[%s]: sending bounds: %v", r.id, err)
	}
}

// attach binds a renderer connection and flushes queued frames. Only one
// connection per surface is accepted.
func (r *Remote) attach(conn *websocket.Conn) bool {
	r.mu.Lock()
	if r.conn != nil || r.destroyed.Load() {
		r.mu.Unlock()
		return false
	}
	r.conn = conn
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, data := range pending {
		if err := r.write(conn, data); err != nil {
			log.Printf("Surface[%s]: flushing queued frame: %v", r.id, err)
			break
		}
	}
	return true
}

func (r *Remote) detach(conn *websocket.Conn) {
	r.mu.Lock()
	if r.conn == conn {
		r.conn = nil
	}
	r.mu.Unlock()
}

func (r *Remote) Destroy() {
	if r.destroyed.Swap(true) {
		return
	}
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.pending = nil
	r.mu.Unlock()

	if conn != nil {
		r.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "surface destroyed"),
			time.Now().Add(time.Second))
		r.writeMu.Unlock()
		conn.Close()
	}
	r.server.unregister(r.id)
}

func (r *Remote) IsDestroyed() bool { return r.destroyed.Load() }
