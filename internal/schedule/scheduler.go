package schedule

import (
	"log"
	"sync"
	"time"

	"labelpress/internal/dither"
	"labelpress/internal/layer"
	"labelpress/internal/raster"
)

// DefaultInterval is the throttle window: at most one pipeline run starts
// per interval per layer while a control is being dragged.
const DefaultInterval = 100 * time.Millisecond

// Result is a completed pipeline run: the resolved parameters and the
// bitmap they produced.
type Result struct {
	Params dither.Params
	Bitmap *raster.Bitmap
}

// RunFunc executes the heavy Preprocess -> Dither -> Rasterize chain for a
// layer with the coalesced edits overlaid on its current parameters. It is
// called off the UI goroutine and must not touch shared state.
type RunFunc func(id layer.ID, e Edits) (Result, error)

// ApplyFunc installs a still-relevant result into the layer store. The
// scheduler guarantees it is never called concurrently for the same layer
// and never with a result older than one already applied.
type ApplyFunc func(id layer.ID, r Result)

// Scheduler coalesces parameter edits per layer and drives pipeline runs.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	run      RunFunc
	apply    ApplyFunc
	active   layer.ID
	states   map[layer.ID]*layerState
	closed   bool
}

type layerState struct {
	lastStart time.Time
	pending   Edits
	pendingOK bool
	timer     *time.Timer
	running   bool
	flush     bool // run again immediately once the in-flight run finishes
	seq       uint64
	applied   uint64
}

// New creates a scheduler. interval <= 0 selects DefaultInterval.
func New(interval time.Duration, run RunFunc, apply ApplyFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		run:      run,
		apply:    apply,
		states:   make(map[layer.ID]*layerState),
	}
}

// SetActive switches the reprocessing target. All pending state for the
// previous layer is cleared and its trailing run cancelled; a result still
// in flight for it will be discarded on completion.
func (s *Scheduler) SetActive(id layer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.active {
		return
	}
	if st := s.states[s.active]; st != nil {
		st.pending = Edits{}
		st.pendingOK = false
		st.flush = false
		st.stopTimer()
	}
	s.active = id
}

// Active returns the current reprocessing target.
func (s *Scheduler) Active() layer.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Submit records an edit for the layer. The run happens at the throttle
// boundary; edits submitted faster than the interval are coalesced with
// last-writer-wins per field.
func (s *Scheduler) Submit(id layer.ID, e Edits) {
	if e.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || id == 0 {
		return
	}
	st := s.state(id)
	st.pending.Merge(e)
	st.pendingOK = true
	s.scheduleLocked(id, st, false)
}

// Flush forces an immediate, un-throttled run with the latest pending
// values. Called on pointer release and select commit so the final value
// of a gesture is never left un-applied. A flush with nothing pending and
// nothing in flight is a no-op.
func (s *Scheduler) Flush(id layer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || id == 0 {
		return
	}
	st := s.states[id]
	if st == nil {
		return
	}
	st.stopTimer()
	if st.running {
		st.flush = true
		return
	}
	if st.pendingOK {
		s.startLocked(id, st)
	}
}

// Forget drops all scheduler state for a removed layer.
func (s *Scheduler) Forget(id layer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.states[id]; st != nil {
		st.stopTimer()
		delete(s.states, id)
	}
	if s.active == id {
		s.active = 0
	}
}

// Close cancels every trailing run. In-flight runs finish but their
// results are discarded.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, st := range s.states {
		st.stopTimer()
	}
}

func (s *Scheduler) state(id layer.ID) *layerState {
	st := s.states[id]
	if st == nil {
		st = &layerState{}
		s.states[id] = st
	}
	return st
}

// scheduleLocked arms the trailing run for the pending edits. Runs fire at
// throttle-window boundaries, never on the leading edge of a burst, so a
// burst of edits always coalesces into one run carrying the latest values.
// The completion handler may start overdue work immediately; a fresh Submit
// opens a new window instead. A run already in flight defers the decision
// to its completion handler.
func (s *Scheduler) scheduleLocked(id layer.ID, st *layerState, fromCompletion bool) {
	if st.running || st.timer != nil {
		return
	}
	wait := s.interval - time.Since(st.lastStart)
	if wait <= 0 {
		if fromCompletion {
			s.startLocked(id, st)
			return
		}
		wait = s.interval
	}
	st.timer = time.AfterFunc(wait, func() { s.onTimer(id) })
}

func (s *Scheduler) onTimer(id layer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[id]
	if st == nil {
		return
	}
	st.timer = nil
	if s.closed || !st.pendingOK || st.running {
		return
	}
	s.startLocked(id, st)
}

// startLocked consumes the pending edits and launches the pipeline run.
func (s *Scheduler) startLocked(id layer.ID, st *layerState) {
	st.seq++
	seq := st.seq
	edits := st.pending
	st.pending = Edits{}
	st.pendingOK = false
	st.running = true
	st.lastStart = time.Now()
	go s.execute(id, st, edits, seq)
}

func (s *Scheduler) execute(id layer.ID, st *layerState, edits Edits, seq uint64) {
	res, err := s.run(id, edits)

	s.mu.Lock()
	discard := s.closed || s.active != id
	stale := seq <= st.applied
	shouldApply := err == nil && !discard && !stale
	if shouldApply {
		// Hold the running flag through apply so no new run for this
		// layer can start before the result is installed.
		st.applied = seq
		s.mu.Unlock()
		s.apply(id, res)
		s.mu.Lock()
	}
	st.running = false

	switch {
	case err != nil:
		// The layer keeps its last-good bitmap; the session goes on.
		log.Printf("schedule: reprocess layer %d failed: %v", id, err)
	case discard:
		log.Printf("schedule: discarding result for layer %d (no longer active)", id)
	case stale:
		log.Printf("schedule: dropping stale result for layer %d (seq %d)", id, seq)
	}

	if st.pendingOK && !s.closed {
		if st.flush {
			st.flush = false
			s.startLocked(id, st)
		} else {
			s.scheduleLocked(id, st, true)
		}
	} else {
		st.flush = false
	}
	s.mu.Unlock()
}

func (st *layerState) stopTimer() {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}
