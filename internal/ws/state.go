// Package ws exposes the running pipeline over websockets: state and
// preview frames for display clients, structured diagnostics, and a
// small control surface for age/vignette switches. This is the external
// display/control collaborator; nothing here touches pixel math.
package ws

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/example/infantsight/internal/diagnostics"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/pipeline"
	"github.com/example/infantsight/internal/sequence"
	"github.com/nfnt/resize"
)

type State struct {
	mu  sync.RWMutex
	Eng *pipeline.Engine
	Seq *sequence.Player

	FPS             int
	PreviewEnabled  bool
	PreviewMaxWidth int

	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	// snap mirrors the engine's externally visible state. Only the
	// tick thread rewrites it (RefreshSnapshot); handlers read it
	// under mu instead of touching the engine from HTTP goroutines.
	snap engineSnapshot

	// Controls are queued here and drained by the tick loop, so the
	// engine is only ever touched from its single tick thread.
	pending []func()
}

type engineSnapshot struct {
	Session  string
	State    string
	Age      int
	Vignette bool
	Mirror   bool
	PPD      float64
	Metrics  pipeline.Metrics
}

func NewState(eng *pipeline.Engine, seq *sequence.Player, fps int) *State {
	s := &State{
		Eng:         eng,
		Seq:         seq,
		FPS:         fps,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
	s.RefreshSnapshot()
	return s
}

// RefreshSnapshot re-reads the engine into the served snapshot. Must
// only be called from the tick thread (or before the tick loop starts);
// it is the single place the ws surface reads the engine.
func (s *State) RefreshSnapshot() {
	ctx := s.Eng.Context()
	snap := engineSnapshot{
		Session:  ctx.SessionID.String(),
		State:    s.Eng.State().String(),
		Age:      ctx.Age,
		Vignette: ctx.Vignette,
		Mirror:   ctx.Mirror,
		PPD:      s.Eng.PixelsPerDegree(),
		Metrics:  s.Eng.Last,
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Routes registers the handler set on a mux.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/state", s.HandleStateWS)
	mux.HandleFunc("/ws/diag", s.HandleDiagWS)
	mux.HandleFunc("/ws/control", s.HandleControlWS)
	mux.HandleFunc("/healthz", s.HandleHealth)
}

func (s *State) HandleStateWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendState(conn)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.applyControl(msg)
		s.sendState(conn)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"session":  s.snap.Session,
		"state":    s.snap.State,
		"age":      s.snap.Age,
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"fps":      s.FPS,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) applyControl(msg map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := msg["age"].(float64); ok {
		age := int(v)
		s.pending = append(s.pending, func() {
			if err := s.Eng.SetAge(age); err != nil {
				s.PushDiag(diag.Diagnostic{
					Severity: diag.Warn, Code: "PRESET.UNKNOWN", Summary: "Unknown age stage",
					Evidence: map[string]any{"age": age},
				})
			}
		})
	}
	if v, ok := msg["vignette"].(bool); ok {
		s.pending = append(s.pending, func() { s.Eng.SetVignette(v) })
	}
	if v, ok := msg["temporal"].(bool); ok {
		s.pending = append(s.pending, func() { s.Eng.SetTemporal(v) })
	}
	if v, ok := msg["demo"].(bool); ok && s.Seq != nil {
		s.pending = append(s.pending, func() {
			if !v {
				s.Seq.Stop()
				return
			}
			if err := s.Seq.Start(); err != nil {
				s.PushDiag(diag.Diagnostic{Severity: diag.Warn, Code: "DEMO.START", Summary: "Demo start failed", Detail: err.Error()})
			}
		})
	}
}

// DrainControls runs queued control actions. The tick loop calls this
// between frames; nothing else may invoke the queued closures.
func (s *State) DrainControls() {
	s.mu.Lock()
	queued := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
	if len(queued) > 0 {
		s.RefreshSnapshot()
	}
}

// PublishFrame is called once per successful tick with the processed
// output buffer. It broadcasts the pipeline state to state clients and,
// when previews are on, a downscaled PNG of the frame.
func (s *State) PublishFrame(out *frame.Buffer, stats diag.FrameStats) {
	s.RefreshSnapshot()

	s.mu.Lock()
	s.frameID++
	id := s.frameID
	s.mu.Unlock()

	var preview []byte
	if s.PreviewEnabled && out != nil {
		preview = s.encodePreview(out)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	msg := map[string]any{
		"t":        time.Now().UnixNano(),
		"frame_id": id,
		"age":      s.snap.Age,
		"vignette": s.snap.Vignette,
		"metrics":  s.snap.Metrics,
		"stats":    stats,
		"preview":  preview, // base64 PNG, empty when previews are off
	}
	b, _ := json.Marshal(msg)
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write state frame")
		}
	}
}

func (s *State) encodePreview(out *frame.Buffer) []byte {
	img := out.ToImage()
	maxW := s.PreviewMaxWidth
	if maxW <= 0 {
		maxW = 320
	}
	var buf bytes.Buffer
	if out.W > maxW {
		small := resize.Resize(uint(maxW), 0, img, resize.Bilinear)
		if err := png.Encode(&buf, small); err != nil {
			return nil
		}
	} else if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// PushDiag broadcasts a diagnostic to all diag clients.
func (s *State) PushDiag(d diag.Diagnostic) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.pushDiagLocked(d)
}

func (s *State) pushDiagLocked(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func (s *State) sendState(conn *websocket.Conn) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := map[string]any{
		"session":  s.snap.Session,
		"state":    s.snap.State,
		"age":      s.snap.Age,
		"vignette": s.snap.Vignette,
		"mirror":   s.snap.Mirror,
		"fps":      s.FPS,
		"ppd":      s.snap.PPD,
	}
	b, _ := json.Marshal(st)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
