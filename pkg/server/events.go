package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Change is a reload notification pushed to /__events subscribers.
type Change struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Removed bool   `json:"removed,omitempty"`
}

// sseWriter streams Server-Sent Events to one client.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("sse: streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) write(format string, args ...any) error {
	if s.closed {
		return fmt.Errorf("sse: connection closed")
	}
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	return nil
}

// Send writes one event. An empty event name sends an unnamed message.
func (s *sseWriter) Send(event, data string) error {
	if event != "" {
		return s.write("event: %s\ndata: %s\n\n", event, data)
	}
	return s.write("data: %s\n\n", data)
}

// SendJSON writes v as the event data.
func (s *sseWriter) SendJSON(event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: failed to marshal JSON: %w", err)
	}
	return s.Send(event, string(b))
}

// SendComment writes a comment line, ignored by clients.
func (s *sseWriter) SendComment(comment string) error {
	return s.write(": %s\n\n", comment)
}

// SendRetry sets the client reconnection delay.
func (s *sseWriter) SendRetry(d time.Duration) error {
	return s.write("retry: %d\n\n", d.Milliseconds())
}

// hub fans changes out to subscribers. Slow subscribers miss changes
// rather than block the publisher.
type hub struct {
	mu     sync.Mutex
	subs   map[chan Change]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[chan Change]struct{})}
}

func (h *hub) subscribe() chan Change {
	ch := make(chan Change, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(ch chan Change) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *hub) publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// close ends every subscription. Later subscriptions end immediately.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Notify empties the page cache and pushes c to every /__events client.
func (s *Server) Notify(c Change) {
	s.FlushPages("")
	s.events.publish(c)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ch := s.events.subscribe()
	defer s.events.unsubscribe(ch)

	if err := sse.SendRetry(time.Second); err != nil {
		return
	}
	if err := sse.SendComment("connected"); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.SendJSON("change", c); err != nil {
				return
			}
		}
	}
}
