package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RateLimitGroup is a purely informational priority tag a Lane can carry; it
// plays no role in scheduling beyond tie-breaking diagnostic ordering.
type RateLimitGroup string

const (
	RL1 RateLimitGroup = "RL1"
	RL2 RateLimitGroup = "RL2"
	RL3 RateLimitGroup = "RL3"
)

// LaneState describes where a Lane sits in its lifecycle.
type LaneState int

const (
	StateConstructed LaneState = iota
	StateRunning
	StateFinishing
)

func (s LaneState) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateRunning:
		return "running"
	case StateFinishing:
		return "finishing"
	default:
		return "unknown"
	}
}

// LaneConfig configures a Lane at construction time.
type LaneConfig struct {
	// FrequencyHz is required and determines the tick budget (time.Second/FrequencyHz).
	FrequencyHz int
	// Name is optional; used for diagnostics and goroutine naming in logs.
	Name string
	// RateLimitGroup is an optional informational priority tag.
	RateLimitGroup RateLimitGroup
}

// Lane is a single-goroutine cooperative executor for one thematic
// responsibility (view, physics, network, controller, game-state, ...).
type Lane struct {
	id   string
	name string

	interval time.Duration

	binder      *Binder
	loopBinding *binding[TickData]

	synchronizer *Synchronizer

	subLanesMu sync.Mutex
	subLanes   []*SubLane

	state       atomicState
	tickMonitor *TickMonitor

	rateLimitGroup RateLimitGroup

	lastTick time.Time
}

// atomicState is a tiny mutex-guarded LaneState wrapper kept local to this file so
// Lane.State() is safe to call from any goroutine (e.g. diagnostics code
// running off the Lane's own goroutine).
type atomicState struct {
	mu    sync.Mutex
	value LaneState
}

func (a *atomicState) Load() LaneState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

func (a *atomicState) Store(v LaneState) {
	a.mu.Lock()
	a.value = v
	a.mu.Unlock()
}

// NewLane constructs a Lane, registers its loop-finish handler and registers it
// with the Synchronizer (which starts its goroutine).
func NewLane(cfg LaneConfig, synchronizer *Synchronizer) *Lane {
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = synchronizer.defaultTickHz()
	}
	id := uuid.NewString()
	diagnosticName := cfg.Name
	if diagnosticName == "" {
		diagnosticName = id
	}
	lane := &Lane{
		id:             id,
		name:           cfg.Name,
		interval:       time.Second / time.Duration(cfg.FrequencyHz),
		binder:         newLaneBinder(diagnosticName),
		loopBinding:    newBinding[TickData](typeLabel[TickData]()),
		synchronizer:   synchronizer,
		tickMonitor:    NewTickMonitor(),
		rateLimitGroup: cfg.RateLimitGroup,
	}
	lane.state.Store(StateConstructed)
	synchronizer.add(lane)
	return lane
}

// ID returns the Lane's diagnostic correlation identifier.
func (l *Lane) ID() string { return l.id }

// Name returns the Lane's configured name, which may be empty.
func (l *Lane) Name() string { return l.name }

// State reports where the Lane currently sits in its lifecycle.
func (l *Lane) State() LaneState { return l.state.Load() }

// RateLimitGroup returns the Lane's informational priority tag.
func (l *Lane) RateLimitGroup() RateLimitGroup { return l.rateLimitGroup }

// TickSnapshot returns the Lane's accumulated tick-duration statistics.
func (l *Lane) TickSnapshot() TickMetricsSnapshot { return l.tickMonitor.Snapshot() }

// ConnectLoop registers fn to run exactly once per tick, receiving the elapsed
// wall-clock time since the previous tick.
func (l *Lane) ConnectLoop(fn func(TickData)) {
	l.loopBinding.connect(func(data TickData, _ SenderID) { fn(data) })
}

// CreateSubLane returns a SubLane bound to this Lane.
func (l *Lane) CreateSubLane() *SubLane {
	sub := newSubLane(l)
	l.subLanesMu.Lock()
	l.subLanes = append(l.subLanes, sub)
	l.subLanesMu.Unlock()
	return sub
}

// EmitFromOther enqueues payload into the local Binder only. This is the
// receiving side of cross-lane distribution and never re-triggers fan-out.
func EmitFromOther[P any](l *Lane, id EventID, dest DestinationID, payload P, sender SenderID) error {
	return Emit(l.binder, id, dest, payload, sender)
}

// LaneEmit delivers payload locally via the Lane's own Binder, then asks the
// Synchronizer to fan it out to every other Lane. A type mismatch on either
// the local delivery or any receiving Lane's Binder is returned to the
// caller, never swallowed.
func LaneEmit[P any](l *Lane, id EventID, dest DestinationID, payload P, sender SenderID) error {
	if err := Emit(l.binder, id, dest, payload, sender); err != nil {
		return err
	}
	return distributeToOthers(l.synchronizer, l, id, dest, payload, sender)
}

// tick runs one iteration of the Lane's loop: loop-hook drain, SubLane drains,
// Binder drain. Scheduling (sleeping until the next boundary) is owned by the
// Synchronizer's per-Lane goroutine loop, not by tick itself.
func (l *Lane) tick() {
	started := time.Now()

	now := started
	var elapsed time.Duration
	if !l.lastTick.IsZero() {
		elapsed = now.Sub(l.lastTick)
	}
	l.lastTick = now

	l.loopBinding.emit(TickData{TimeSinceLastTick: elapsed}, UnspecifiedSender)
	l.loopBinding.call()

	l.subLanesMu.Lock()
	subLanes := make([]*SubLane, len(l.subLanes))
	copy(subLanes, l.subLanes)
	l.subLanesMu.Unlock()
	for _, sub := range subLanes {
		sub.tick()
	}

	l.binder.Tick()

	duration := time.Since(started)
	l.tickMonitor.Observe(duration)
	Metrics().tickDuration.WithLabelValues(l.diagnosticName()).Observe(duration.Seconds())
}

func (l *Lane) diagnosticName() string {
	if l.name != "" {
		return l.name
	}
	return l.id
}
