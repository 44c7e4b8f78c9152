// Package stream serves a running simulation over websockets. Each frame
// is broadcast as JSON to every connected client, and clients steer the
// simulation with small control messages.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/planetsim/internal/driver"
	"gonum.org/v1/gonum/spatial/r3"
)

const DefaultFPS = 30

type Options struct {
	Addr   string
	FPS    int
	Logger *log.Logger
}

// Frame is sent once per driver frame. Colors are only present in the
// first frame a client receives.
type Frame struct {
	Type      string       `json:"type"`
	Frame     int          `json:"frame"`
	Time      float64      `json:"time"`
	Paused    bool         `json:"paused"`
	Positions [][3]float64 `json:"positions"`
	Colors    [][3]float64 `json:"colors,omitempty"`
}

// Control is an inbound message. Type selects which fields are read:
// "impulse" and "center" use Point, "param" uses Name and Value, "pause",
// "collisions", "orbit" and "reset" use nothing.
type Control struct {
	Type  string     `json:"type"`
	Name  string     `json:"name,omitempty"`
	Value float64    `json:"value,omitempty"`
	Point [3]float64 `json:"point,omitempty"`
}

// State answers every control message.
type State struct {
	Type       string             `json:"type"`
	Paused     bool               `json:"paused"`
	Collisions bool               `json:"collisions"`
	Orbit      bool               `json:"orbit"`
	Params     map[string]float64 `json:"params"`
	Error      string             `json:"error,omitempty"`
}

type Server struct {
	drv      *driver.Driver
	opts     Options
	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

func New(d *driver.Driver, opts Options) *Server {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		drv:  d,
		opts: opts,
		log:  opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "planetsim: %d particles, %d clients, connect to /ws\n", s.drv.Len(), s.Clients())
	})
	return mux
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ListenAndServe runs the frame loop and the HTTP server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Printf("stream: serving %d particles on %s at %d fps", s.drv.Len(), s.opts.Addr, s.opts.FPS)

	ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			if err := s.Step(); err != nil {
				s.log.Println("stream: frame error:", err)
				s.drv.SetPaused(true)
			}
		}
	}
}

// Step advances the driver by one frame and broadcasts the result.
func (s *Server) Step() error {
	stats, err := s.drv.Frame()
	if err != nil {
		return err
	}
	s.broadcast(s.frame(stats.Frame, stats.Time, stats.Paused, false))
	return nil
}

func (s *Server) frame(n int, t float64, paused, withColors bool) Frame {
	pos := s.drv.Snapshot()
	defer s.drv.Release(pos)

	f := Frame{Type: "frame", Frame: n, Time: t, Paused: paused, Positions: toArrays(pos)}
	if withColors {
		f.Colors = toArrays(s.drv.Colors())
	}
	return f
}

func toArrays(vs []r3.Vec) [][3]float64 {
	out := make([][3]float64, len(vs))
	for i, v := range vs {
		out[i] = [3]float64{v.X, v.Y, v.Z}
	}
	return out
}

func (s *Server) broadcast(v any) {
	s.mu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range s.clients {
		mu.Lock()
		err := conn.WriteJSON(v)
		mu.Unlock()
		if err != nil {
			s.log.Println("stream: write error:", err)
			conn.Close()
			failed = append(failed, conn)
		}
	}
	s.mu.RUnlock()

	if len(failed) > 0 {
		s.mu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
		}
		s.mu.Unlock()
	}
}

func (s *Server) send(conn *websocket.Conn, v any) error {
	s.mu.RLock()
	mu, ok := s.clients[conn]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	return conn.WriteJSON(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("stream: upgrade error:", err)
		return
	}
	defer conn.Close()

	// Hold the write lock while registering so the colored first frame
	// goes out before any broadcast.
	wmu := &sync.Mutex{}
	wmu.Lock()
	s.mu.Lock()
	s.clients[conn] = wmu
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	p := s.drv.Params()
	err = conn.WriteJSON(s.frame(0, p.Time, s.drv.Paused(), true))
	wmu.Unlock()
	if err != nil {
		s.log.Println("stream: write error:", err)
		return
	}

	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Println("stream: read error:", err)
			}
			return
		}
		st := s.state()
		if err := s.apply(msg); err != nil {
			st.Error = err.Error()
		} else {
			st = s.state()
		}
		if err := s.send(conn, st); err != nil {
			s.log.Println("stream: write error:", err)
			return
		}
	}
}

func (s *Server) apply(msg Control) error {
	point := r3.Vec{X: msg.Point[0], Y: msg.Point[1], Z: msg.Point[2]}
	switch msg.Type {
	case "impulse":
		return s.drv.QueueImpulse(point)
	case "center":
		return s.drv.SetCenter(point)
	case "param":
		return s.drv.SetParam(msg.Name, msg.Value)
	case "pause":
		s.drv.TogglePause()
	case "collisions":
		s.drv.ToggleCollisions()
	case "orbit":
		s.drv.ToggleOrbit()
	case "reset":
		return s.drv.Reset()
	default:
		return fmt.Errorf("stream: unknown message type %q", msg.Type)
	}
	return nil
}

func (s *Server) state() State {
	p := s.drv.Params()
	return State{
		Type:       "state",
		Paused:     s.drv.Paused(),
		Collisions: s.drv.Collisions(),
		Orbit:      s.drv.Orbit(),
		Params:     p.GetParams(),
	}
}
