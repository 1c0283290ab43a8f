// Package pipeline runs the bounded producer → worker-pool → reorder-writer
// stages of the encoder. Frames stream in from disk, sets of three are
// block-compressed in parallel, and finished sets are written to the
// container in strict source order with backpressure at every hop.
package pipeline

import "github.com/deepteams/knib/internal/container"

// Set is one unit of pipeline work: up to three frames that compress into
// one container set. Construction happens on the orchestrator goroutine;
// Run on exactly one worker; Emit on the reorderer's writer goroutine.
// Ownership moves along with the value and is never shared.
type Set interface {
	// Index is the set's position in source order, assigned densely from 0.
	Index() int
	// Run performs the CPU-heavy transform (conversion + block encoding).
	Run() error
	// Emit hands the finished channel buffers to the container writer.
	Emit(w *container.Writer) error
}
