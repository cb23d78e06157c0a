package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelpress/internal/dither"
	"labelpress/internal/layer"
	"labelpress/internal/raster"
)

// recorder collects every run and apply the scheduler issues so tests can
// assert on coalescing and ordering.
type recorder struct {
	mu      sync.Mutex
	runs    []Edits
	applies []dither.Params
	block   chan struct{} // when non-nil, runs wait on it
	done    chan struct{} // signalled after every apply
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) run(id layer.ID, e Edits) (Result, error) {
	r.mu.Lock()
	r.runs = append(r.runs, e)
	block := r.block
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	p := e.Apply(dither.DefaultParams())
	return Result{Params: p, Bitmap: raster.New(1, 1)}, nil
}

func (r *recorder) apply(id layer.ID, res Result) {
	r.mu.Lock()
	r.applies = append(r.applies, res.Params)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func (r *recorder) applied() []dither.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dither.Params, len(r.applies))
	copy(out, r.applies)
	return out
}

func waitApply(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for apply")
	}
}

func TestBurstCoalescesToSingleRun(t *testing.T) {
	rec := newRecorder()
	s := New(60*time.Millisecond, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	// A burst of slider positions inside one throttle window must produce
	// exactly one run carrying the last value.
	for _, v := range []int{40, 80, 120, 160, 200} {
		s.Submit(1, ThresholdEdit(v))
		time.Sleep(5 * time.Millisecond)
	}
	waitApply(t, rec)

	assert.Equal(t, 1, rec.runCount())
	applies := rec.applied()
	require.Len(t, applies, 1)
	assert.Equal(t, 200, applies[0].Threshold)
}

func TestLastWriterWinsPerField(t *testing.T) {
	rec := newRecorder()
	s := New(60*time.Millisecond, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, ThresholdEdit(90))
	s.Submit(1, MethodEdit(dither.MethodBayer))
	s.Submit(1, ThresholdEdit(150))
	waitApply(t, rec)

	applies := rec.applied()
	require.Len(t, applies, 1)
	// Both fields survive the merge; the later threshold wins.
	assert.Equal(t, dither.MethodBayer, applies[0].Method)
	assert.Equal(t, 150, applies[0].Threshold)
}

func TestFlushRunsImmediately(t *testing.T) {
	rec := newRecorder()
	s := New(10*time.Second, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, ThresholdEdit(77))
	s.Flush(1)
	waitApply(t, rec)

	applies := rec.applied()
	require.Len(t, applies, 1)
	assert.Equal(t, 77, applies[0].Threshold)
}

func TestFlushDuringRunQueuesImmediateFollowUp(t *testing.T) {
	rec := newRecorder()
	rec.block = make(chan struct{})
	s := New(10*time.Second, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, ThresholdEdit(10))
	s.Flush(1) // starts the first run, which blocks

	// Edit and release while the first run is in flight.
	s.Submit(1, ThresholdEdit(240))
	s.Flush(1)

	close(rec.block)
	waitApply(t, rec)
	waitApply(t, rec)

	applies := rec.applied()
	require.Len(t, applies, 2)
	assert.Equal(t, 10, applies[0].Threshold)
	assert.Equal(t, 240, applies[1].Threshold)
	assert.Equal(t, 2, rec.runCount())
}

func TestSetActiveDropsPendingAndDiscardsInFlight(t *testing.T) {
	rec := newRecorder()
	rec.block = make(chan struct{})
	s := New(10*time.Second, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, ThresholdEdit(50))
	s.Flush(1) // in flight, blocked

	s.SetActive(2) // layer 1's result must now be discarded
	close(rec.block)

	// Give the completion handler time to decide; no apply may arrive.
	select {
	case <-rec.done:
		t.Fatal("result for a deselected layer was applied")
	case <-time.After(150 * time.Millisecond):
	}
	assert.Equal(t, 1, rec.runCount())
}

func TestSetActiveCancelsTrailingRun(t *testing.T) {
	rec := newRecorder()
	s := New(50*time.Millisecond, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, ThresholdEdit(50))
	s.SetActive(2) // before the window boundary

	select {
	case <-rec.done:
		t.Fatal("cancelled trailing run still applied")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, 0, rec.runCount())
}

func TestRunsNeverOverlapPerLayer(t *testing.T) {
	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0
	done := make(chan struct{}, 16)

	run := func(id layer.ID, e Edits) (Result, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return Result{Params: dither.DefaultParams(), Bitmap: raster.New(1, 1)}, nil
	}
	apply := func(id layer.ID, r Result) { done <- struct{}{} }

	s := New(10*time.Millisecond, run, apply)
	defer s.Close()
	s.SetActive(1)

	for i := 0; i < 8; i++ {
		s.Submit(1, ThresholdEdit(i*10))
		time.Sleep(8 * time.Millisecond)
	}
	s.Flush(1)

	deadline := time.After(3 * time.Second)
	got := 0
	for got == 0 {
		select {
		case <-done:
			got++
		case <-deadline:
			t.Fatal("no run completed")
		}
	}
	// Drain whatever else completes.
	drain := time.After(300 * time.Millisecond)
	for {
		select {
		case <-done:
		case <-drain:
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 1, maxInFlight, "pipeline runs for one layer must never overlap")
			return
		}
	}
}

func TestForgetDropsState(t *testing.T) {
	rec := newRecorder()
	s := New(50*time.Millisecond, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, ThresholdEdit(50))
	s.Forget(1)
	assert.Equal(t, layer.ID(0), s.Active())

	select {
	case <-rec.done:
		t.Fatal("forgotten layer still ran")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, 0, rec.runCount())
}

func TestCloseStopsScheduling(t *testing.T) {
	rec := newRecorder()
	s := New(50*time.Millisecond, rec.run, rec.apply)
	s.SetActive(1)
	s.Submit(1, ThresholdEdit(50))
	s.Close()

	select {
	case <-rec.done:
		t.Fatal("run applied after Close")
	case <-time.After(200 * time.Millisecond):
	}

	s.Submit(1, ThresholdEdit(60))
	s.Flush(1)
	assert.Equal(t, 0, rec.runCount())
}

func TestEmptyEditIgnored(t *testing.T) {
	rec := newRecorder()
	s := New(20*time.Millisecond, rec.run, rec.apply)
	defer s.Close()
	s.SetActive(1)

	s.Submit(1, Edits{})
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.runCount())
}
