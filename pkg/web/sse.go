package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/muremwa/djurls/pkg/workspace"
)

// catalogEvent is the event name the page listens for after each rescan.
const catalogEvent = "catalog"

var errStreamClosed = errors.New("event stream closed")

// eventStream pushes rescan summaries to one browser tab.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// newEventStream switches w to text/event-stream. It fails when w cannot
// flush.
func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

// sendCatalog announces a finished scan.
func (s *eventStream) sendCatalog(sum workspace.Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return s.write("event: %s\ndata: %s\n\n", catalogEvent, data)
}

// ping keeps idle proxies from dropping the connection.
func (s *eventStream) ping() error {
	return s.write(": keep-alive\n\n")
}

// retry tells the browser how long to wait before reconnecting.
func (s *eventStream) retry(d time.Duration) error {
	return s.write("retry: %d\n\n", d.Milliseconds())
}

func (s *eventStream) write(format string, args ...any) error {
	if s.closed {
		return errStreamClosed
	}
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	return nil
}
