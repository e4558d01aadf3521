package convert

import (
	"context"
	"sync"

	"github.com/hvackit/ductline/pkg/graph"
)

// AsyncResult is delivered on the channel returned by BuildAsync.
type AsyncResult struct {
	Result *BuildResult
	Err    error
	// Stale is set when a newer build was dispatched after this one
	// started. The result is still complete against its snapshot;
	// callers usually discard it.
	Stale bool
}

// Builder dispatches builds to background goroutines so the drawing
// session stays interactive. A generation counter marks results of
// superseded builds as stale.
type Builder struct {
	conv *Converter

	mu         sync.Mutex
	generation uint64
}

// NewBuilder creates a Builder over the given converter.
func NewBuilder(conv *Converter) *Builder {
	return &Builder{conv: conv}
}

// BuildAsync snapshots the live graph on the calling thread, then runs
// the build on a goroutine. The caller may keep mutating the live graph
// immediately. Cancellation is cooperative via ctx; a cancelled build
// delivers the context error.
func (b *Builder) BuildAsync(ctx context.Context, live *graph.DuctGraph, params BuildParams) <-chan AsyncResult {
	snapshot := live.Clone()

	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	ch := make(chan AsyncResult, 1)
	go func() {
		res, err := b.conv.Build(ctx, snapshot, params)

		b.mu.Lock()
		stale := gen != b.generation
		b.mu.Unlock()

		ch <- AsyncResult{Result: res, Err: err, Stale: stale}
	}()
	return ch
}
