// Package persist runs the persistence pipeline: a single-consumer outbox
// that serializes the document and hands it to the storage collaborator.
// Structural mutations enqueue a coalescing "persist now" intent; explicit
// saves enqueue a request the caller waits on. One consumer drains both, so
// writes to the backing path are strictly ordered and an older snapshot can
// never overwrite a newer one — bursts of auto-save intents collapse to a
// single save of the latest state.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	forgeerrors "github.com/r5vtools/forge/internal/errors"
	"github.com/r5vtools/forge/internal/metrics"
	"github.com/r5vtools/forge/internal/storage"
)

// State is the pipeline's lifecycle state for one document.
type State int32

const (
	StateIdle State = iota
	StateSaving
)

func (s State) String() string {
	if s == StateSaving {
		return "saving"
	}
	return "idle"
}

// Snapshot is one fully serialized document, captured after the triggering
// mutation completed. Generation identifies the mutation the snapshot
// covers so the source can tell whether dirty state may be cleared.
type Snapshot struct {
	Path       string
	Data       []byte
	Generation uint64
	SaveAs     bool
}

// Source produces snapshots and consumes save results. The engine
// implements it; the pipeline stays decoupled from document internals the
// same way the task engine stays decoupled from its executors.
type Source interface {
	// Snapshot serializes the current document. pathOverride is non-empty
	// for save-as requests; otherwise the document's backing path is used.
	// Returns ErrNoBackingPath when there is nowhere to write.
	Snapshot(pathOverride string) (Snapshot, error)

	// SaveResult reports the outcome of a write. On success the source
	// clears dirty state covered by the snapshot's generation; on failure
	// it leaves everything untouched.
	SaveResult(snap Snapshot, info storage.WriteInfo, err error)
}

type explicitReq struct {
	pathOverride string
	reply        chan error
}

// Pipeline is the persistence outbox. Idle/Saving per document; no
// automatic retries — every retry is a fresh caller action.
type Pipeline struct {
	store   storage.Store
	source  Source
	metrics *metrics.Metrics
	logger  zerolog.Logger

	trigger  chan struct{}
	explicit chan explicitReq
	state    atomic.Int32
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a pipeline writing through store on behalf of source.
func New(store storage.Store, source Source, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		source:   source,
		metrics:  m,
		logger:   logger.With().Str("component", "persist").Logger(),
		trigger:  make(chan struct{}, 1),
		explicit: make(chan explicitReq),
	}
}

// Start launches the single consumer goroutine.
func (p *Pipeline) Start(ctx context.Context) {
	if p.running.Swap(true) {
		return // already running
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.consume(ctx)
	p.logger.Info().Msg("persistence pipeline started")
}

// Stop shuts the pipeline down. An in-flight write runs to completion and a
// pending auto-save intent is flushed first, so closing never interleaves
// with a write; whatever was still unsaved is visible through the engine's
// unsaved flag.
func (p *Pipeline) Stop() {
	if !p.running.Swap(false) {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info().Msg("persistence pipeline stopped")
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Running reports whether the consumer is accepting work.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Trigger enqueues an auto-save intent. Non-blocking: if an intent is
// already pending the two collapse, the eventual save serializes the latest
// state anyway.
func (p *Pipeline) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Save performs an explicit save and waits for its result. pathOverride is
// non-empty for save-as; the write itself still goes through the single
// consumer so explicit and automatic saves cannot interleave.
func (p *Pipeline) Save(ctx context.Context, pathOverride string) error {
	if !p.running.Load() {
		return fmt.Errorf("persistence pipeline is not running")
	}
	req := explicitReq{pathOverride: pathOverride, reply: make(chan error, 1)}
	select {
	case p.explicit <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) consume(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			// Flush a pending intent before exiting.
			select {
			case <-p.trigger:
				p.run("", nil, "auto")
			default:
			}
			return
		case req := <-p.explicit:
			p.run(req.pathOverride, req.reply, "explicit")
		case <-p.trigger:
			p.run("", nil, "auto")
		}
	}
}

func (p *Pipeline) run(pathOverride string, reply chan error, trigger string) {
	p.state.Store(int32(StateSaving))
	defer p.state.Store(int32(StateIdle))

	finish := func(err error) {
		if reply != nil {
			reply <- err
		}
	}

	snap, err := p.source.Snapshot(pathOverride)
	if err != nil {
		if trigger == "auto" && errors.Is(err, forgeerrors.ErrNoBackingPath) {
			// Auto-save before the document ever had a path: nothing to do.
			finish(nil)
			return
		}
		p.logger.Error().Err(err).Str("trigger", trigger).Msg("snapshot failed")
		p.metrics.RecordSave(trigger, "error", 0)
		p.metrics.RecordError("persist", "snapshot")
		finish(err)
		return
	}

	start := time.Now()
	info, werr := p.store.Write(snap.Path, snap.Data)
	elapsed := time.Since(start)

	p.source.SaveResult(snap, info, werr)

	if werr != nil {
		p.logger.Error().Err(werr).
			Str("path", snap.Path).
			Str("trigger", trigger).
			Msg("save failed")
		p.metrics.RecordSave(trigger, "error", elapsed.Seconds())
		p.metrics.RecordError("persist", "write_failed")
		finish(werr)
		return
	}

	p.logger.Info().
		Str("path", snap.Path).
		Str("trigger", trigger).
		Int("original_size", info.OriginalSize).
		Int("compressed_size", info.CompressedSize).
		Dur("elapsed", elapsed).
		Msg("document saved")
	p.metrics.RecordSave(trigger, "ok", elapsed.Seconds())
	p.metrics.SetSaveBytes(info.CompressedSize)
	finish(nil)
}
