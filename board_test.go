package stepboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/stepboard/clock"
	"github.com/jpalmerr/stepboard/render"
	"github.com/jpalmerr/stepboard/series"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder is a render.Surface that keeps every redraw.
type recorder struct {
	mu        sync.Mutex
	mounts    int
	views     []render.Snapshot
	mountErr  error
	redrawErr error
}

func (r *recorder) Mount(cfg render.ChartConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts++
	return r.mountErr
}

func (r *recorder) Redraw(v render.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v.Snapshot())
	return r.redrawErr
}

func (r *recorder) Redraws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *recorder) Last() render.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

// reply is one scripted response of the fake telemetry endpoint.
type reply struct {
	status int
	body   string
	hold   <-chan struct{}
}

// scriptedSource serves replies in order, repeating the last one.
func scriptedSource(t *testing.T, replies ...reply) (Source, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(hits.Add(1)) - 1
		if i >= len(replies) {
			i = len(replies) - 1
		}
		rp := replies[i]
		if rp.hold != nil {
			select {
			case <-rp.hold:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rp.status)
		_, _ = io.WriteString(w, rp.body)
	}))
	t.Cleanup(ts.Close)

	src, err := NewSource(ts.URL + "/?total_steps_taken")
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	return src, &hits
}

func ok(body string) reply { return reply{status: http.StatusOK, body: body} }

// harness runs a headless board on a manual clock.
type harness struct {
	board   *Board
	clock   *clock.Manual
	rec     *recorder
	results chan SampleResult
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

func startHarness(t *testing.T, src Source, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:   clock.NewManual(t0),
		rec:     &recorder{},
		results: make(chan SampleResult, 64),
		done:    make(chan struct{}),
	}

	opts = append([]Option{
		WithSource(src),
		WithClock(h.clock),
		WithSurface(h.rec),
		WithHeadless(),
		WithLogger(testLogger()),
		WithSampleCallback(func(r SampleResult) { h.results <- r }),
	}, opts...)

	b, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.board = b

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.err = b.Start(ctx)
		close(h.done)
	}()

	waitUntil(t, func() bool { return h.clock.Tickers() == 1 }, "scheduler ticker never created")
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(3 * time.Second):
	}
}

// step advances one second and returns the tick's result.
func (h *harness) step(t *testing.T) SampleResult {
	t.Helper()
	h.clock.Advance(time.Second)
	return h.next(t)
}

func (h *harness) next(t *testing.T) SampleResult {
	t.Helper()
	select {
	case r := <-h.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no sample result within 2s")
		return SampleResult{}
	}
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Scenario A: three successful ticks one second apart.
func TestBoard_RecordsSamplesInOrder(t *testing.T) {
	src, _ := scriptedSource(t, ok(`{"steps": 10}`), ok(`{"steps": 15}`), ok(`{"steps": 20}`))
	h := startHarness(t, src)

	if h.board.State() != StateRunning {
		t.Fatalf("State() = %v, want running", h.board.State())
	}

	for i := 0; i < 3; i++ {
		r := h.step(t)
		if !r.OK() {
			t.Fatalf("tick %d failed: %v", i+1, r.Err())
		}
		if r.Index != i {
			t.Errorf("tick %d index = %d", i+1, r.Index)
		}
	}

	want := []series.Sample{{ElapsedSeconds: 1, Value: 10}, {ElapsedSeconds: 2, Value: 15}, {ElapsedSeconds: 3, Value: 20}}
	got := h.board.Series()
	if len(got) != len(want) {
		t.Fatalf("Series() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Series()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if h.rec.Redraws() != 3 {
		t.Errorf("redraws = %d, want 3", h.rec.Redraws())
	}
	last := h.rec.Last()
	if len(last.Labels) != 3 || last.Labels[2] != 3 || last.Data[2] != 20 {
		t.Errorf("last view = %+v", last)
	}

	chart := h.board.Chart()
	if chart.Len() != 3 || len(chart.DisplayLabels()) != 3 {
		t.Errorf("Chart() = %+v, want 3 points and no placeholders", chart)
	}
}

// Scenario B: a transport failure after three successes changes nothing.
func TestBoard_TransportFailureLeavesSeriesUnchanged(t *testing.T) {
	src, _ := scriptedSource(t,
		ok(`{"steps": 10}`), ok(`{"steps": 15}`), ok(`{"steps": 20}`),
		reply{status: http.StatusServiceUnavailable, body: "down"},
	)
	h := startHarness(t, src)

	for i := 0; i < 3; i++ {
		h.step(t)
	}

	r := h.step(t)
	if r.OK() {
		t.Fatal("4th tick should fail")
	}
	if r.Failure.Kind != FailureTransport {
		t.Errorf("kind = %v, want transport", r.Failure.Kind)
	}
	if !errors.Is(r.Err(), ErrTransport) || errors.Is(r.Err(), ErrDecode) {
		t.Errorf("errors.Is mismatch for %v", r.Err())
	}
	if r.StatusCode != http.StatusServiceUnavailable || r.Index != -1 {
		t.Errorf("result = %+v", r)
	}

	if n := len(h.board.Series()); n != 3 {
		t.Errorf("series length = %d, want 3", n)
	}
	if h.rec.Redraws() != 3 {
		t.Errorf("redraws = %d, want 3 (no redraw on failure)", h.rec.Redraws())
	}
}

func TestBoard_UnreachableSourceIsTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	src, _ := NewSource(url, WithTimeout(500*time.Millisecond))
	h := startHarness(t, src)

	r := h.step(t)
	var f *Failure
	if !errors.As(r.Err(), &f) || f.Kind != FailureTransport {
		t.Errorf("err = %v, want transport failure", r.Err())
	}
	if r.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", r.StatusCode)
	}
}

func TestBoard_DecodeFailures(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"count": 5}`,
		`{"steps": "5"}`,
		`{"steps": 5} not json`,
		`{"steps": 5}{"steps": 6}`,
		`{"steps": 5}]`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			src, _ := scriptedSource(t, ok(body))
			h := startHarness(t, src)

			r := h.step(t)
			if r.OK() || r.Failure.Kind != FailureDecode {
				t.Fatalf("result = %+v, want decode failure", r)
			}
			if !errors.Is(r.Err(), ErrDecode) {
				t.Errorf("errors.Is(err, ErrDecode) = false for %v", r.Err())
			}
			if string(r.RawResponse) != body {
				t.Errorf("RawResponse = %q, want %q", r.RawResponse, body)
			}
			if len(h.board.Series()) != 0 || h.rec.Redraws() != 0 {
				t.Error("decode failure must not touch series or chart")
			}
		})
	}
}

func TestBoard_ExtractorPanicIsDecodeFailure(t *testing.T) {
	src, _ := scriptedSource(t, ok(`{"steps": 1}`))
	src, _ = NewSource(src.URL(), WithExtractor(func([]byte) (float64, error) {
		panic("bad extractor")
	}))
	h := startHarness(t, src)

	r := h.step(t)
	if r.OK() || r.Failure.Kind != FailureDecode {
		t.Fatalf("result = %+v, want decode failure", r)
	}

	// the board keeps polling
	r = h.step(t)
	if r.Failure == nil {
		t.Fatal("second tick should also report the extractor failure")
	}
}

// Scenario C, skip policy: a tick that fires during a slow sample is dropped.
func TestBoard_OverlappingTickSkipped(t *testing.T) {
	release := make(chan struct{})
	src, hits := scriptedSource(t, reply{status: http.StatusOK, body: `{"steps": 10}`, hold: release}, ok(`{"steps": 15}`))
	h := startHarness(t, src)

	h.clock.Advance(time.Second)
	waitUntil(t, func() bool { return hits.Load() == 1 }, "first request never arrived")

	h.clock.Advance(time.Second)
	waitUntil(t, func() bool { return h.board.scheduler.Skipped() == 1 }, "second tick not skipped")

	close(release)
	r := h.next(t)
	if !r.OK() {
		t.Fatalf("first tick failed: %v", r.Err())
	}
	// labelled when the read completed, not when the tick fired
	if r.Sample.ElapsedSeconds != 2 {
		t.Errorf("ElapsedSeconds = %d, want 2", r.Sample.ElapsedSeconds)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, skipped tick must not sample", hits.Load())
	}

	r = h.step(t)
	if r.Sample.Value != 15 || r.Sample.ElapsedSeconds != 3 {
		t.Errorf("next sample = %+v", r.Sample)
	}
}

// Scenario C, queue policy: the colliding tick runs after the slow one.
func TestBoard_OverlappingTickQueued(t *testing.T) {
	release := make(chan struct{})
	src, hits := scriptedSource(t, reply{status: http.StatusOK, body: `{"steps": 10}`, hold: release}, ok(`{"steps": 15}`))
	h := startHarness(t, src, WithOverlapPolicy(OverlapQueue))

	h.clock.Advance(time.Second)
	waitUntil(t, func() bool { return hits.Load() == 1 }, "first request never arrived")

	h.clock.Advance(time.Second)
	waitUntil(t, func() bool { return h.board.scheduler.Queued() == 1 }, "second tick not queued")

	close(release)
	first, second := h.next(t), h.next(t)
	if first.Sample.Value != 10 || second.Sample.Value != 15 {
		t.Errorf("order = %v, %v; want 10 then 15", first.Sample.Value, second.Sample.Value)
	}

	s := h.board.Series()
	if len(s) != 2 || s[0].ElapsedSeconds > s[1].ElapsedSeconds {
		t.Errorf("Series() = %v, want two non-decreasing samples", s)
	}
}

func TestBoard_RedrawErrorKeepsPoint(t *testing.T) {
	src, _ := scriptedSource(t, ok(`{"steps": 3}`))
	h := startHarness(t, src)
	h.rec.mu.Lock()
	h.rec.redrawErr = errors.New("surface gone")
	h.rec.mu.Unlock()

	r := h.step(t)
	if !r.OK() {
		t.Fatalf("tick failed: %v", r.Err())
	}
	if len(h.board.Series()) != 1 || h.board.Chart().Len() != 1 {
		t.Error("point should be recorded even when redraw fails")
	}
}

func TestBoard_CallbackPanicRecovered(t *testing.T) {
	src, _ := scriptedSource(t, ok(`{"steps": 1}`))
	var after atomic.Int32
	h := startHarness(t, src,
		WithSampleCallback(func(SampleResult) { panic("callback boom") }),
		WithSampleCallback(func(SampleResult) { after.Add(1) }),
	)

	h.step(t)
	waitUntil(t, func() bool { return after.Load() == 1 }, "callback after a panicking one did not run")

	h.step(t)
	waitUntil(t, func() bool { return after.Load() == 2 }, "board stopped polling after callback panic")
}

func TestBoard_CallbackRawResponseIsCopy(t *testing.T) {
	src, _ := scriptedSource(t, ok(`{"steps": 1}`))
	h := startHarness(t, src)

	r := h.step(t)
	r.RawResponse[0] = 'X'

	r2 := h.step(t)
	if string(r2.RawResponse) != `{"steps": 1}` {
		t.Errorf("RawResponse = %q", r2.RawResponse)
	}
	if r.URL != src.URL() || r.CheckedAt.IsZero() {
		t.Errorf("result = %+v", r)
	}
}

func TestBoard_StateStoppedAfterCancel(t *testing.T) {
	src, _ := scriptedSource(t, ok(`{"steps": 1}`))
	h := startHarness(t, src)

	h.cancel()
	select {
	case <-h.done:
		if h.err != nil {
			t.Errorf("Start() error = %v, want nil", h.err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	if h.board.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", h.board.State())
	}
	if h.clock.Tickers() != 0 {
		t.Error("ticker not stopped")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateRunning:       "running",
		StateStopped:       "stopped",
		State(42):          "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Kind: FailureDecode, Err: errors.New("field \"steps\" missing")}
	if f.Error() != `decode: field "steps" missing` {
		t.Errorf("Error() = %q", f.Error())
	}
	if (&Failure{Kind: FailureTransport}).Error() != "transport failure" {
		t.Error("Error() without cause")
	}

	cause := errors.New("cause")
	if !errors.Is(&Failure{Kind: FailureTransport, Err: cause}, cause) {
		t.Error("Unwrap should expose the cause")
	}
}
