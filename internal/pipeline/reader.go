package pipeline

import (
	"sync"

	"github.com/deepteams/knib/internal/imageio"
)

// readAhead is how many decoded frames the reader keeps in flight: one
// group of three being assembled downstream plus nothing extra — decoded
// RGBA frames are the pipeline's biggest objects.
const readAhead = 3

// FrameReader streams decoded frames from a printf-style path template
// over the inclusive range from..to in steps of inc. A dedicated goroutine
// loads and decodes ahead of the consumer through a bounded queue.
//
// A load failure ends the stream: frames already queued remain valid,
// Next eventually reports end-of-stream, and Err returns the failure.
type FrameReader struct {
	frames chan *imageio.Image

	mu  sync.Mutex
	err error
}

// NewFrameReader validates nothing and starts reading immediately; the
// caller is expected to have fixed up the range (inc != 0, sign matching
// the direction) beforehand.
func NewFrameReader(template string, from, to, inc int) *FrameReader {
	r := &FrameReader{
		frames: make(chan *imageio.Image, readAhead),
	}
	go r.readLoop(template, from, to, inc)
	return r
}

func (r *FrameReader) readLoop(template string, from, to, inc int) {
	defer close(r.frames)
	for i := from; inRange(i, from, to, inc); i += inc {
		img, err := imageio.Load(template, i)
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			return
		}
		r.frames <- img
	}
}

// inRange reports whether i is still inside the inclusive range. Reverse
// ranges (inc < 0) count down to to.
func inRange(i, from, to, inc int) bool {
	if inc > 0 {
		return i <= to
	}
	return i >= to
}

// Next returns the next frame in range order, blocking until one is
// available. ok is false once the stream is exhausted (or aborted by a
// load failure).
func (r *FrameReader) Next() (img *imageio.Image, ok bool) {
	img, ok = <-r.frames
	return img, ok
}

// Drain discards any frames still queued, releasing their buffers. Used
// during teardown when the consumer stops early.
func (r *FrameReader) Drain() {
	for img := range r.frames {
		img.Release()
	}
}

// Err returns the load failure that ended the stream early, or nil.
func (r *FrameReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
