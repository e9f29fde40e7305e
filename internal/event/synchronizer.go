package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bfgengine/lanecore/internal/config"
	"github.com/bfgengine/lanecore/internal/logging"
)

// Synchronizer owns every Lane in a runtime, spawns one goroutine per Lane
// (managed by an errgroup.Group), distributes cross-lane emits, and
// orchestrates the two-phase start/shutdown lifecycle.
type Synchronizer struct {
	tickHz     int
	drainTicks int

	group    *errgroup.Group
	groupCtx context.Context

	mu    sync.Mutex
	lanes []*Lane

	failedMu sync.Mutex
	failed   map[*Lane]error

	entryGate chan struct{}
	startGate chan struct{}
	entryWG   sync.WaitGroup

	finishing atomic.Bool

	barriersMu sync.Mutex
	barriers   []*sync.WaitGroup

	finishSignal chan struct{}
	finishOnce   sync.Once

	entryPointsMu sync.Mutex
	entryPoints   map[*Lane]EntryPointFunc

	trace *TraceRecorder

	logger *logging.Logger
}

// NewSynchronizer constructs a Synchronizer from runtime configuration. An
// optional TraceRecorder may be attached with AttachTraceRecorder before Start.
func NewSynchronizer(cfg *config.Config, logger *logging.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.L()
	}
	ctx := context.Background()
	group, groupCtx := errgroup.WithContext(ctx)
	return &Synchronizer{
		tickHz:       cfg.DefaultTickHz,
		drainTicks:   cfg.ShutdownDrainTicks,
		group:        group,
		groupCtx:     groupCtx,
		failed:       make(map[*Lane]error),
		entryGate:    make(chan struct{}),
		startGate:    make(chan struct{}),
		finishSignal: make(chan struct{}),
		entryPoints:  make(map[*Lane]EntryPointFunc),
		logger:       logger,
	}
}

// AttachTraceRecorder wires an optional diagnostic sink. Must be called before
// Start; it is never required for correctness.
func (s *Synchronizer) AttachTraceRecorder(trace *TraceRecorder) {
	s.trace = trace
}

func (s *Synchronizer) defaultTickHz() int {
	if s.tickHz <= 0 {
		return config.DefaultTickHz
	}
	return s.tickHz
}

// add records lane and starts its goroutine. Called from NewLane.
func (s *Synchronizer) add(lane *Lane) {
	s.mu.Lock()
	s.lanes = append(s.lanes, lane)
	s.mu.Unlock()

	// Any Lane may request orderly shutdown by emitting EAFinish on its own
	// loop-finish channel; local delivery means this fires regardless of which
	// Lane originated the emit.
	_ = ConnectVoidNoSender(lane.binder, LoopFinishEventID, UnspecifiedDestination, func() {
		s.signalExternalFinish()
	})

	s.group.Go(func() error {
		return s.runLane(lane)
	})
}

// RegisterEntryPoint queues an EntryPoint against a Lane, to run once that
// Lane's goroutine reaches the entry-point gate.
func (s *Synchronizer) RegisterEntryPoint(lane *Lane, fn EntryPointFunc) {
	s.entryPointsMu.Lock()
	s.entryPoints[lane] = fn
	s.entryPointsMu.Unlock()
}

// StartEntries runs every registered EntryPoint on its Lane's own goroutine,
// before any tick loop begins. If any EntryPoint fails, that Lane is marked
// failed and its tick loop is skipped; StartEntries still waits for every
// other Lane's entry point to finish before returning the aggregated error.
func (s *Synchronizer) StartEntries(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.lanes)
	s.mu.Unlock()
	s.entryWG.Add(count)
	close(s.entryGate)

	done := make(chan struct{})
	go func() {
		s.entryWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	if len(s.failed) == 0 {
		return nil
	}
	var combined error
	for lane, err := range s.failed {
		if combined == nil {
			combined = fmt.Errorf("lane %q: %w", lane.diagnosticName(), err)
			continue
		}
		combined = fmt.Errorf("%w; lane %q: %v", combined, lane.diagnosticName(), err)
	}
	return combined
}

// Start releases every Lane to begin its tick loop.
func (s *Synchronizer) Start() {
	close(s.startGate)
}

// markFailed records that lane's EntryPoint failed and logs the escalation.
func (s *Synchronizer) markFailed(lane *Lane, err error) {
	s.failedMu.Lock()
	s.failed[lane] = err
	s.failedMu.Unlock()
	logEntryPointFailure(lane.diagnosticName(), err)
	recordEntryPointFailure()
}

func (s *Synchronizer) isFailed(lane *Lane) bool {
	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	_, ok := s.failed[lane]
	return ok
}

func (s *Synchronizer) failedCount() int {
	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	return len(s.failed)
}

// runLane is the body of the goroutine spawned for one Lane: wait for the
// entry-point gate, run any registered EntryPoint, wait for the start gate,
// then loop ticking at the Lane's configured frequency with no catch-up, and
// finally participate in the bounded barriered drain once finishing is observed.
func (s *Synchronizer) runLane(lane *Lane) error {
	<-s.entryGate

	s.entryPointsMu.Lock()
	fn, hasEntry := s.entryPoints[lane]
	s.entryPointsMu.Unlock()

	if hasEntry {
		if err := runEntryPoint(lane, fn); err != nil {
			s.markFailed(lane, err)
			s.entryWG.Done()
			return nil
		}
	}
	s.entryWG.Done()

	<-s.startGate
	if s.isFailed(lane) {
		return nil
	}

	lane.state.Store(StateRunning)

	ticker := time.NewTicker(lane.interval)
	defer ticker.Stop()

	for {
		<-ticker.C
		if s.finishing.Load() {
			break
		}
		lane.tick()
		s.traceTick(lane)
	}

	lane.state.Store(StateFinishing)

	for _, barrier := range s.snapshotBarriers() {
		barrier.Done()
		barrier.Wait()
		lane.tick()
	}

	return nil
}

func (s *Synchronizer) snapshotBarriers() []*sync.WaitGroup {
	s.barriersMu.Lock()
	defer s.barriersMu.Unlock()
	return s.barriers
}

func (s *Synchronizer) traceTick(lane *Lane) {
	if s.trace == nil {
		return
	}
	s.trace.RecordTick(lane.diagnosticName(), lane.TickSnapshot().Last)
}

// distributeToOthers fans a cross-lane emit out to every Lane other than
// source, calling EmitFromOther on each so the receiving side never re-triggers
// its own fan-out. Lanes that failed their EntryPoint are skipped, since they
// never reach a running tick loop. It is a package-level generic function
// (rather than a method) because Go methods cannot carry type parameters; P is
// inferred from the caller, LaneEmit, which already knows it statically.
//
// A type mismatch on a receiving Lane's Binder is a structural bug, not
// something to swallow: the first IncompatibleTypeError encountered aborts the
// remaining fan-out and is returned to the caller, mirroring the original's
// Binding::emit throwing through distributeToOthers.
func distributeToOthers[P any](s *Synchronizer, source *Lane, id EventID, dest DestinationID, payload P, sender SenderID) error {
	s.mu.Lock()
	lanes := make([]*Lane, len(s.lanes))
	copy(lanes, s.lanes)
	s.mu.Unlock()

	for _, other := range lanes {
		if other == source || s.isFailed(other) {
			continue
		}
		if err := EmitFromOther(other, id, dest, payload, sender); err != nil {
			return err
		}
		s.traceEmit(source, other, id, dest, sender)
	}
	return nil
}

func (s *Synchronizer) traceEmit(source, destination *Lane, id EventID, dest DestinationID, sender SenderID) {
	if s.trace == nil {
		return
	}
	s.trace.RecordEmit(source.diagnosticName(), destination.diagnosticName(), Channel{ID: id, Destination: dest}, sender)
}

// signalExternalFinish closes the internal finish signal exactly once, letting
// a blocked Finish(ctx, true) proceed.
func (s *Synchronizer) signalExternalFinish() {
	s.finishOnce.Do(func() {
		close(s.finishSignal)
	})
}

// Finish begins the two-phase shutdown protocol. When blockUntilExternal is
// true, it first blocks until EAFinish has been observed on the internal
// finish channel. ctx bounds that wait and the join of the Lane goroutines;
// when it expires first, Finish returns ctx.Err().
func (s *Synchronizer) Finish(ctx context.Context, blockUntilExternal bool) error {
	if blockUntilExternal {
		select {
		case <-s.finishSignal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	activeLanes := len(s.lanes) - s.failedCount()
	s.mu.Unlock()

	barriers := make([]*sync.WaitGroup, s.drainTicks)
	for i := range barriers {
		wg := &sync.WaitGroup{}
		if activeLanes > 0 {
			wg.Add(activeLanes)
		}
		barriers[i] = wg
	}
	s.barriersMu.Lock()
	s.barriers = barriers
	s.barriersMu.Unlock()

	s.finishing.Store(true)

	waitErr := make(chan error, 1)
	go func() { waitErr <- s.group.Wait() }()
	var err error
	select {
	case err = <-waitErr:
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.trace != nil {
		if closeErr := s.trace.Close(); closeErr != nil {
			s.logger.Warn("trace recorder close failed", logging.Error(closeErr))
		}
	}

	return err
}

// LaneState reports the lifecycle state of the Lane with the given diagnostic
// name, or StateConstructed with ok=false if no such Lane is known.
func (s *Synchronizer) LaneState(name string) (LaneState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lane := range s.lanes {
		if lane.diagnosticName() == name {
			return lane.State(), true
		}
	}
	return StateConstructed, false
}

