package stream

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/driver"
)

func newTestServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	opts := driver.DefaultOptions()
	opts.Particles = 32
	opts.Backend = compute.NewSerialBackend()
	d, err := driver.New(opts)
	if err != nil {
		t.Fatalf("driver.New failed: %v", err)
	}

	s := New(d, Options{Logger: log.New(io.Discard, "", 0)})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return s, conn
}

func TestFirstFrameCarriesColors(t *testing.T) {
	_, conn := newTestServer(t)

	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if f.Type != "frame" {
		t.Fatalf("expected frame, got %q", f.Type)
	}
	if len(f.Positions) != 32 || len(f.Colors) != 32 {
		t.Errorf("expected 32 positions and colors, got %d and %d", len(f.Positions), len(f.Colors))
	}
	if !f.Paused {
		t.Error("driver should start paused")
	}
}

func TestControlAndBroadcast(t *testing.T) {
	s, conn := newTestServer(t)

	var first Frame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if err := conn.WriteJSON(Control{Type: "pause"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var st State
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if st.Type != "state" || st.Paused {
		t.Fatalf("expected running state, got %+v", st)
	}

	if err := s.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if f.Paused || f.Frame != 1 || f.Time <= 0 {
		t.Errorf("unexpected frame %d t=%f paused=%v", f.Frame, f.Time, f.Paused)
	}
	if f.Colors != nil {
		t.Error("colors should only be sent once")
	}
}

func TestControlErrors(t *testing.T) {
	_, conn := newTestServer(t)
	var first Frame
	conn.ReadJSON(&first)

	tests := []struct {
		name string
		msg  Control
	}{
		{"unknown type", Control{Type: "explode"}},
		{"unknown param", Control{Type: "param", Name: "mass", Value: 1}},
		{"out of bounds", Control{Type: "param", Name: "bounce", Value: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteJSON(tt.msg); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			var st State
			if err := conn.ReadJSON(&st); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if st.Error == "" {
				t.Errorf("expected error for %+v", tt.msg)
			}
		})
	}
}

func TestParamMessage(t *testing.T) {
	_, conn := newTestServer(t)
	var first Frame
	conn.ReadJSON(&first)

	conn.WriteJSON(Control{Type: "param", Name: "friction", Value: 0.5})
	var st State
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if st.Error != "" || st.Params["friction"] != 0.5 {
		t.Errorf("friction not applied: %+v", st)
	}
}
