package service_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"camwatch/internal/modules/monitor/domain"
	"camwatch/internal/modules/monitor/service"
	apperrors "camwatch/internal/platform/errors"
	"camwatch/internal/platform/schedule"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type result struct {
	raw domain.RawStatus
	err error
}

type hold struct {
	entered chan struct{}
	release chan struct{}
}

// scriptedClient replays responses per job; the last one repeats.
type scriptedClient struct {
	mu        sync.Mutex
	responses map[string][]result
	calls     map[string]int
	holds     map[string]*hold
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{responses: map[string][]result{}, calls: map[string]int{}, holds: map[string]*hold{}}
}

func (c *scriptedClient) script(jobID string, results ...result) {
	c.mu.Lock()
	c.responses[jobID] = append(c.responses[jobID], results...)
	c.mu.Unlock()
}

// holdNext makes the next fetch for jobID block until release is closed.
func (c *scriptedClient) holdNext(jobID string) *hold {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	c.mu.Lock()
	c.holds[jobID] = h
	c.mu.Unlock()
	return h
}

func (c *scriptedClient) count(jobID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[jobID]
}

func (c *scriptedClient) FetchStatus(_ context.Context, jobID string) (domain.RawStatus, error) {
	c.mu.Lock()
	c.calls[jobID]++
	queue := c.responses[jobID]
	var r result
	switch {
	case len(queue) == 0:
		r = result{err: domain.NewTransient(jobID, 0, errors.New("no scripted response"))}
	case len(queue) == 1:
		r = queue[0]
	default:
		r = queue[0]
		c.responses[jobID] = queue[1:]
	}
	h := c.holds[jobID]
	delete(c.holds, jobID)
	c.mu.Unlock()

	if h != nil {
		close(h.entered)
		<-h.release
	}
	return r.raw, r.err
}

type recordingSink struct {
	mu        sync.Mutex
	progress  []domain.ProgressModel
	terminal  []domain.ProgressModel
	abandoned []string
}

func (s *recordingSink) OnProgress(m domain.ProgressModel) {
	s.mu.Lock()
	s.progress = append(s.progress, m)
	s.mu.Unlock()
}

func (s *recordingSink) OnTerminal(m domain.ProgressModel) {
	s.mu.Lock()
	s.terminal = append(s.terminal, m)
	s.mu.Unlock()
}

func (s *recordingSink) OnAbandoned(jobID string) {
	s.mu.Lock()
	s.abandoned = append(s.abandoned, jobID)
	s.mu.Unlock()
}

func (s *recordingSink) percents() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.progress))
	for _, m := range s.progress {
		out = append(out, m.OverallPercent)
	}
	return out
}

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{values: map[string]string{}} }

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (h *fakeHistory) Append(_ context.Context, e domain.HistoryEntry) error {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
	return nil
}

func (h *fakeHistory) List(_ context.Context, _ int) ([]domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.HistoryEntry(nil), h.entries...), nil
}

type harness struct {
	clock   *fakeClock
	client  *scriptedClient
	store   *fakeStore
	sink    *recordingSink
	sched   *schedule.Manual
	history *fakeHistory
	svc     *service.MonitorService
}

func newHarness() *harness {
	h := &harness{
		clock:   &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		client:  newScriptedClient(),
		store:   newFakeStore(),
		sink:    &recordingSink{},
		sched:   schedule.NewManual(),
		history: &fakeHistory{},
	}
	h.svc = service.NewMonitorService(h.clock, h.client, h.store, h.sink, h.sched, service.Options{History: h.history})
	return h
}

func inProgress(completed, total int) result {
	return result{raw: domain.RawStatus{Status: domain.JobInProgress, CompletedCount: completed, TotalCount: total}}
}

func TestStartPollsToSuccess(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-1",
		inProgress(0, 3),
		inProgress(1, 3),
		result{raw: domain.RawStatus{Status: domain.JobCompleted, CompletedCount: 3, TotalCount: 3}},
	)

	if _, err := h.svc.Start(context.Background(), "job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !h.store.has(domain.KeyActiveJobID) || !h.store.has(domain.KeyStartedAtMs) {
		t.Fatalf("session must be persisted while polling")
	}
	if h.sched.LastInterval() != time.Second {
		t.Fatalf("expected 1s interval, got %s", h.sched.LastInterval())
	}
	h.sched.Tick()
	h.sched.Tick()

	got := h.sink.percents()
	want := []int{0, 33, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if len(h.sink.terminal) != 1 || h.sink.terminal[0].Outcome != domain.OutcomeSuccess {
		t.Fatalf("expected one SUCCESS terminal event, got %+v", h.sink.terminal)
	}
	if h.svc.State() != domain.StateTerminated {
		t.Fatalf("expected TERMINATED, got %s", h.svc.State())
	}
	if h.store.has(domain.KeyActiveJobID) {
		t.Fatalf("terminal state must clear the persisted session")
	}
	if h.sched.Live() != 0 {
		t.Fatalf("poll task must be stopped after terminal")
	}
	h.sched.Tick()
	if h.client.count("job-1") != 3 {
		t.Fatalf("no polling after terminal, got %d calls", h.client.count("job-1"))
	}
	if len(h.history.entries) != 1 || h.history.entries[0].Outcome != domain.OutcomeSuccess {
		t.Fatalf("terminal outcome must be recorded, got %+v", h.history.entries)
	}
}

func TestPartialFailureIsReportedAsData(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-2", result{raw: domain.RawStatus{Status: domain.JobPartialFailure, CompletedCount: 2, TotalCount: 3, FailedCount: 1}})

	if _, err := h.svc.Start(context.Background(), "job-2"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(h.sink.terminal) != 1 {
		t.Fatalf("expected one terminal event, got %d", len(h.sink.terminal))
	}
	final := h.sink.terminal[0]
	if final.Outcome != domain.OutcomePartial || final.JobID != "job-2" {
		t.Fatalf("expected PARTIAL for job-2, got %+v", final)
	}
	if h.sched.Live() != 0 {
		t.Fatalf("terminal first cycle must not arm the poll task")
	}
}

func TestNotFoundAbandonsOnce(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-3", inProgress(0, 2), result{err: domain.NewNotFound("job-3")})

	if _, err := h.svc.Start(context.Background(), "job-3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.sched.Tick()
	h.sched.Tick()
	h.sched.Tick()

	if len(h.sink.abandoned) != 1 || h.sink.abandoned[0] != "job-3" {
		t.Fatalf("expected exactly one abandoned event, got %v", h.sink.abandoned)
	}
	if len(h.sink.terminal) != 0 {
		t.Fatalf("abandonment is not a terminal completion")
	}
	if h.store.has(domain.KeyActiveJobID) {
		t.Fatalf("abandoned session must be cleared")
	}
	if h.client.count("job-3") != 2 {
		t.Fatalf("no polling after abandonment, got %d calls", h.client.count("job-3"))
	}
	if h.svc.State() != domain.StateAbandoned {
		t.Fatalf("expected ABANDONED, got %s", h.svc.State())
	}
}

func TestTransientAndMalformedKeepPolling(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-4",
		result{err: domain.NewTransient("job-4", 503, errors.New("unavailable"))},
		result{err: domain.NewMalformed("job-4", errors.New("bad payload"))},
		result{err: errors.New("connection reset")},
		inProgress(1, 2),
	)

	if _, err := h.svc.Start(context.Background(), "job-4"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.sched.Tick()
	h.sched.Tick()
	if len(h.sink.progress) != 0 {
		t.Fatalf("failed cycles must not emit, got %d", len(h.sink.progress))
	}
	h.sched.Tick()
	if got := h.sink.percents(); len(got) != 1 || got[0] != 50 {
		t.Fatalf("expected recovery to 50%%, got %v", got)
	}
	if h.svc.State() != domain.StatePolling || !h.store.has(domain.KeyActiveJobID) {
		t.Fatalf("transient failures must keep the session")
	}
}

func TestResumeContinuesElapsedTime(t *testing.T) {
	t.Parallel()
	h := newHarness()
	started := h.clock.Now().Add(-42000 * time.Millisecond)
	_ = h.store.Set(context.Background(), domain.KeyActiveJobID, "job-5")
	_ = h.store.Set(context.Background(), domain.KeyStartedAtMs, strconv.FormatInt(started.UnixMilli(), 10))
	h.client.script("job-5", inProgress(1, 4))

	session, resumed, err := h.svc.ResumeIfPresent(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed || session.JobID != "job-5" {
		t.Fatalf("expected job-5 resumed, got %+v (%v)", session, resumed)
	}
	if len(h.sink.progress) != 1 || h.sink.progress[0].ElapsedLabel != "0:42" {
		t.Fatalf("elapsed must continue from 42s, got %+v", h.sink.progress)
	}
	h.clock.Advance(time.Second)
	h.sched.Tick()
	if h.sink.progress[1].ElapsedLabel != "0:43" {
		t.Fatalf("expected 0:43, got %s", h.sink.progress[1].ElapsedLabel)
	}
}

func TestResumeWithoutRecord(t *testing.T) {
	t.Parallel()
	h := newHarness()
	_, resumed, err := h.svc.ResumeIfPresent(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed || h.svc.State() != domain.StateIdle {
		t.Fatalf("nothing to resume, got resumed=%v state=%s", resumed, h.svc.State())
	}
}

func TestResumeClearsCorruptRecord(t *testing.T) {
	t.Parallel()
	h := newHarness()
	_ = h.store.Set(context.Background(), domain.KeyActiveJobID, "job-6")
	_ = h.store.Set(context.Background(), domain.KeyStartedAtMs, "yesterday")

	_, resumed, err := h.svc.ResumeIfPresent(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed {
		t.Fatalf("corrupt record must be treated as absent")
	}
	if h.store.has(domain.KeyActiveJobID) || h.store.has(domain.KeyStartedAtMs) {
		t.Fatalf("corrupt record must be cleared")
	}
	if h.client.count("job-6") != 0 {
		t.Fatalf("corrupt record must not be polled")
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-old", inProgress(3, 4))
	h.client.script("job-new", inProgress(1, 2))
	gate := h.client.holdNext("job-old")

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Start(context.Background(), "job-old")
		done <- err
	}()
	<-gate.entered

	if _, err := h.svc.Start(context.Background(), "job-new"); err != nil {
		t.Fatalf("start new: %v", err)
	}
	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("start old: %v", err)
	}

	if len(h.sink.progress) != 1 || h.sink.progress[0].JobID != "job-new" || h.sink.progress[0].OverallPercent != 50 {
		t.Fatalf("only the new job may emit, got %+v", h.sink.progress)
	}
	snap := h.svc.Active()
	if snap.Session == nil || snap.Session.JobID != "job-new" || snap.Last.OverallPercent != 50 {
		t.Fatalf("stale response overwrote the active model: %+v", snap)
	}
	if v, _ := h.store.Get(context.Background(), domain.KeyActiveJobID); v != "job-new" {
		t.Fatalf("persisted job must be job-new, got %q", v)
	}
	if h.sched.Live() != 1 {
		t.Fatalf("only the new session may hold a poll task, got %d", h.sched.Live())
	}
}

func TestStopAndDismissDiscardInFlightResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		halt       func(*harness) error
		keepRecord bool
	}{
		{"stop", func(h *harness) error { h.svc.Stop(); return nil }, true},
		{"dismiss", func(h *harness) error { return h.svc.Dismiss(context.Background()) }, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness()
			h.client.script("job-9", result{raw: domain.RawStatus{Status: domain.JobCompleted, CompletedCount: 2, TotalCount: 2}})
			gate := h.client.holdNext("job-9")

			done := make(chan error, 1)
			go func() {
				_, err := h.svc.Start(context.Background(), "job-9")
				done <- err
			}()
			<-gate.entered
			if err := tc.halt(h); err != nil {
				t.Fatalf("halt: %v", err)
			}
			close(gate.release)
			if err := <-done; err != nil {
				t.Fatalf("start: %v", err)
			}

			if len(h.sink.progress) != 0 || len(h.sink.terminal) != 0 {
				t.Fatalf("late response must not emit, got progress=%d terminal=%d", len(h.sink.progress), len(h.sink.terminal))
			}
			if entries, _ := h.history.List(context.Background(), 0); len(entries) != 0 {
				t.Fatalf("late response must not record history, got %d", len(entries))
			}
			if h.svc.State() != domain.StateIdle || h.sched.Live() != 0 {
				t.Fatalf("monitor must stay idle, state=%s live=%d", h.svc.State(), h.sched.Live())
			}
			if h.store.has(domain.KeyActiveJobID) != tc.keepRecord {
				t.Fatalf("persisted record present=%v, want %v", h.store.has(domain.KeyActiveJobID), tc.keepRecord)
			}
		})
	}
}

func TestTickWhileInFlightIsSkipped(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-7", inProgress(0, 2))
	if _, err := h.svc.Start(context.Background(), "job-7"); err != nil {
		t.Fatalf("start: %v", err)
	}

	gate := h.client.holdNext("job-7")
	ticked := make(chan struct{})
	go func() {
		h.sched.Tick()
		close(ticked)
	}()
	<-gate.entered
	h.sched.Tick()
	if h.client.count("job-7") != 2 {
		t.Fatalf("overlapping cycle must be skipped, got %d calls", h.client.count("job-7"))
	}
	close(gate.release)
	<-ticked
	if len(h.sink.progress) != 2 {
		t.Fatalf("in-flight result must still be applied, got %d", len(h.sink.progress))
	}
	h.sched.Tick()
	if h.client.count("job-7") != 3 {
		t.Fatalf("polling must continue after the slow cycle, got %d", h.client.count("job-7"))
	}
}

func TestStopKeepsRecordDismissClearsIt(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.client.script("job-8", inProgress(0, 1))
	if _, err := h.svc.Start(context.Background(), "job-8"); err != nil {
		t.Fatalf("start: %v", err)
	}

	h.svc.Stop()
	if h.svc.State() != domain.StateIdle || h.sched.Live() != 0 {
		t.Fatalf("stop must idle the monitor")
	}
	if !h.store.has(domain.KeyActiveJobID) {
		t.Fatalf("stop must keep the persisted record")
	}
	h.sched.Tick()
	if h.client.count("job-8") != 1 {
		t.Fatalf("no polling after stop")
	}

	if _, resumed, err := h.svc.ResumeIfPresent(context.Background()); err != nil || !resumed {
		t.Fatalf("resume after stop: resumed=%v err=%v", resumed, err)
	}
	if err := h.svc.Dismiss(context.Background()); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if h.store.has(domain.KeyActiveJobID) || h.store.has(domain.KeyStartedAtMs) {
		t.Fatalf("dismiss must clear the persisted record")
	}
	if _, err := h.svc.Persisted(context.Background()); err != apperrors.ErrNoActiveSession {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestStartOverwritesAndRejectsEmptyID(t *testing.T) {
	t.Parallel()
	h := newHarness()
	if _, err := h.svc.Start(context.Background(), "  "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	h.client.script("job-a", inProgress(0, 2))
	h.client.script("job-b", inProgress(0, 5))
	if _, err := h.svc.Start(context.Background(), "job-a"); err != nil {
		t.Fatalf("start a: %v", err)
	}
	h.clock.Advance(10 * time.Second)
	session, err := h.svc.Start(context.Background(), "job-b")
	if err != nil {
		t.Fatalf("start b: %v", err)
	}
	if !session.StartedAt.Equal(h.clock.Now()) {
		t.Fatalf("new session must start fresh")
	}
	h.sched.Tick()
	if h.client.count("job-a") != 1 {
		t.Fatalf("replaced job must stop polling, got %d calls", h.client.count("job-a"))
	}
	persisted, err := h.svc.Persisted(context.Background())
	if err != nil || persisted.JobID != "job-b" {
		t.Fatalf("expected job-b persisted, got %+v (%v)", persisted, err)
	}
}
