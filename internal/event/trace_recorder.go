package event

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/bfgengine/lanecore/internal/logging"
)

// defaultTraceMaxEvents is the fallback event bound used when maxEvents is not
// positive; it has the same value as config.DefaultTraceMaxEvents.
const defaultTraceMaxEvents = 4096

// traceManifest describes the trace bundle layout, mirroring the teacher's
// replay.Manifest so the same tooling shape applies to diagnostic traces.
type traceManifest struct {
	Version    int    `json:"version"`
	CreatedAt  string `json:"created_at"`
	EventsPath string `json:"events_path"`
	TicksPath  string `json:"ticks_path"`
}

type traceEventRecord struct {
	Tick        uint64 `json:"tick"`
	Source      string `json:"source_lane"`
	Destination string `json:"destination_lane"`
	Channel     string `json:"channel"`
	Sender      uint64 `json:"sender"`
	CapturedAt  string `json:"captured_at"`
}

// TraceRecorder is an optional, attachable sink that observes every cross-lane
// distributed emit and every Lane's per-tick duration sample, persisting a
// compressed trace to disk for postmortem debugging (event records are capped
// at maxEvents; tick records are not). It sits off the
// routing hot path's correctness: a disabled or failed TraceRecorder never
// affects emit delivery, only diagnostics.
type TraceRecorder struct {
	mu sync.Mutex

	dir string

	eventFile   *os.File
	eventStream *snappy.Writer

	tickFile   *os.File
	tickStream *zstd.Encoder

	maxEvents int
	seen      uint64
	tickSeq   uint64

	now func() time.Time
}

// NewTraceRecorder opens compressed sinks under root for one recording
// session, writing a manifest describing the bundle layout.
func NewTraceRecorder(root string, maxEvents int) (*TraceRecorder, error) {
	if root == "" {
		return nil, fmt.Errorf("event: trace recorder root must be provided")
	}
	if maxEvents <= 0 {
		maxEvents = defaultTraceMaxEvents
	}

	session := fmt.Sprintf("trace-%s", uuid.NewString())
	path := filepath.Join(root, session)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	eventsPath := filepath.Join(path, "events.jsonl.sz")
	ticksPath := filepath.Join(path, "ticks.bin.zst")
	manifestPath := filepath.Join(path, "manifest.json")

	eventFile, err := os.Create(eventsPath)
	if err != nil {
		return nil, err
	}
	eventStream := snappy.NewBufferedWriter(eventFile)

	tickFile, err := os.Create(ticksPath)
	if err != nil {
		eventStream.Close()
		eventFile.Close()
		return nil, err
	}
	tickStream, err := zstd.NewWriter(tickFile)
	if err != nil {
		eventStream.Close()
		eventFile.Close()
		tickFile.Close()
		return nil, err
	}

	manifest := traceManifest{
		Version:    1,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		EventsPath: "events.jsonl.sz",
		TicksPath:  "ticks.bin.zst",
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		tickStream.Close()
		tickFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, err
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		tickStream.Close()
		tickFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, err
	}

	return &TraceRecorder{
		dir:         path,
		eventFile:   eventFile,
		eventStream: eventStream,
		tickFile:    tickFile,
		tickStream:  tickStream,
		maxEvents:   maxEvents,
		now:         time.Now,
	}, nil
}

// Directory exposes the on-disk location of this recording session.
func (t *TraceRecorder) Directory() string {
	if t == nil {
		return ""
	}
	return t.dir
}

// RecordEmit appends a compact JSON record describing one hop of a cross-lane
// distributed emit. Once maxEvents records have been written, further calls
// are silent no-ops rather than growing the file without bound.
func (t *TraceRecorder) RecordEmit(source, destination string, channel Channel, sender SenderID) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen >= uint64(t.maxEvents) {
		return
	}
	t.seen++

	record := traceEventRecord{
		Tick:        t.tickSeq,
		Source:      source,
		Destination: destination,
		Channel:     channel.String(),
		Sender:      uint64(sender),
		CapturedAt:  t.now().UTC().Format(time.RFC3339Nano),
	}
	line, err := json.Marshal(record)
	if err != nil {
		logTraceFailure(err)
		return
	}
	line = append(line, '\n')
	if _, err := t.eventStream.Write(line); err != nil {
		logTraceFailure(err)
		return
	}
	if err := t.eventStream.Flush(); err != nil {
		logTraceFailure(err)
	}
}

// RecordTick appends one lane's tick-duration sample to the binary tick
// stream: a little-endian (laneNameLen uint16, durationNs int64, laneName)
// record, compressed through zstd. Tick records are not capped by maxEvents.
func (t *TraceRecorder) RecordTick(lane string, duration time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tickSeq++

	nameBytes := []byte(lane)
	header := make([]byte, 2+8)
	binary.LittleEndian.PutUint16(header[0:2], uint16(len(nameBytes)))
	binary.LittleEndian.PutUint64(header[2:10], uint64(duration.Nanoseconds()))

	if _, err := t.tickStream.Write(header); err != nil {
		logTraceFailure(err)
		return
	}
	if _, err := t.tickStream.Write(nameBytes); err != nil {
		logTraceFailure(err)
	}
}

// Close flushes and closes both sinks, returning the first error encountered.
func (t *TraceRecorder) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if err := t.eventStream.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.eventStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.eventFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.tickStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.tickFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func logTraceFailure(err error) {
	logging.L().Warn("trace recorder write failed", logging.Error(err))
}
