package surface

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"screen-capture-overlay/src/ipc"
	"screen-capture-overlay/src/messages"
)

//go:embed document.html
var documentHTML []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1 << 20,
	CheckOrigin: func(r *http.Request) bool {
		// only the document served below may connect
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host
	},
}

// Server serves the remote surface document and its IPC endpoint on loopback.
type Server struct {
	bus    *ipc.Bus
	port   int
	engine *gin.Engine

	mu       sync.Mutex
	addr     string
	srv      *http.Server
	surfaces map[string]*Remote
}

// NewServer creates a server for port (0 picks a free one). Call Start to listen.
func NewServer(bus *ipc.Bus, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		bus:      bus,
		port:     port,
		engine:   gin.New(),
		surfaces: make(map[string]*Remote),
	}
	s.engine.Use(gin.Recovery())
	s.engine.GET("/document", s.handleDocument)
	s.engine.GET("/ipc/:id", s.handleIPC)
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on 127.0.0.1 and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen for surfaces: %w", err)
	}
	srv := &http.Server{Handler: s.engine}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("SurfaceServer: %v", err)
		}
	}()
	log.Printf("SurfaceServer: listening on %s", s.addr)
	return nil
}

// SetAddr overrides the advertised address (host:port), for servers started elsewhere.
func (s *Server) SetAddr(addr string) {
	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()
}

// Shutdown stops the server and drops every surface.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	surfaces := make([]*Remote, 0, len(s.surfaces))
	for _, r := range s.surfaces {
		surfaces = append(surfaces, r)
	}
	s.mu.Unlock()

	for _, r := range surfaces {
		r.Destroy()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// DocumentURL is the fixed document for surface id.
func (s *Server) DocumentURL(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://%s/document?surface=%s", s.addr, id)
}

// NewSurface registers a new remote surface.
func (s *Server) NewSurface() (Surface, error) {
	r := newRemote(s)
	s.mu.Lock()
	s.surfaces[r.id] = r
	s.mu.Unlock()
	return r, nil
}

func (s *Server) lookup(id string) *Remote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaces[id]
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	delete(s.surfaces, id)
	s.mu.Unlock()
}

func (s *Server) handleDocument(c *gin.Context) {
	if s.lookup(c.Query("surface")) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown surface"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", documentHTML)
}

func (s *Server) handleIPC(c *gin.Context) {
	r := s.lookup(c.Param("id"))
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown surface"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("SurfaceServer: upgrade error: %v", err)
		return
	}
	if !r.attach(conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "surface already connected"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	log.Printf("Surface[%s]: renderer connected", r.id)
	s.readPump(r, conn)
}

func (s *Server) readPump(r *Remote, conn *websocket.Conn) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("PANIC RECOVERED in readPump for surface %s: %v", r.id, rec)
		}
		r.detach(conn)
		conn.Close()
		log.Printf("Surface[%s]: renderer disconnected", r.id)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Surface[%s]: read error: %v", r.id, err)
			}
			return
		}
		msg, err := messages.Decode(data)
		if err != nil {
			log.Printf("Surface[%s]: dropping frame: %v", r.id, err)
			continue
		}
		if r.IsDestroyed() {
			return
		}
		s.bus.Emit(messages.MessageEnvelope{From: r.id, Message: msg})
	}
}
