package server

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Preview holds the latest annotated frame as JPEG for MJPEG viewers.
type Preview struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	viewers atomic.Int32
}

// NewPreview creates an empty preview buffer.
func NewPreview() *Preview {
	return &Preview{}
}

// Wanted reports whether anyone is watching, so producers can skip encoding.
func (p *Preview) Wanted() bool {
	return p.viewers.Load() > 0
}

// Publish encodes frame as JPEG and makes it the latest preview.
func (p *Preview) Publish(frame gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	p.store(data)
	return nil
}

func (p *Preview) store(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	p.mu.Unlock()
}

// Latest returns the newest JPEG and its sequence number.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}

// StreamHandler serves the preview as an MJPEG stream.
type StreamHandler struct {
	preview  *Preview
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler polling preview at about 15 FPS.
func NewStreamHandler(preview *Preview) *StreamHandler {
	return &StreamHandler{preview: preview, interval: 66 * time.Millisecond}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.preview.viewers.Add(1)
	defer h.preview.viewers.Add(-1)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq := h.preview.Latest()
		if jpeg == nil || seq == sent {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
