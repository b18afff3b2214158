package schedule_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"camwatch/internal/platform/schedule"
)

func TestManualTickSkipsStoppedTasks(t *testing.T) {
	t.Parallel()
	m := schedule.NewManual()
	var a, b int
	ta, _ := m.Every(time.Second, func() { a++ })
	if _, err := m.Every(2*time.Second, func() { b++ }); err != nil {
		t.Fatalf("every: %v", err)
	}
	m.Tick()
	ta.Stop()
	m.Tick()
	if a != 1 || b != 2 {
		t.Fatalf("expected a=1 b=2, got a=%d b=%d", a, b)
	}
	if m.Live() != 1 {
		t.Fatalf("expected one live task, got %d", m.Live())
	}
	if m.LastInterval() != 2*time.Second {
		t.Fatalf("unexpected interval %s", m.LastInterval())
	}
}

func TestCronRejectsInvalidArguments(t *testing.T) {
	t.Parallel()
	s := schedule.NewCron(arbor.NewNoOpLogger())
	if _, err := s.Every(0, func() {}); err == nil {
		t.Fatalf("zero interval must fail")
	}
	if _, err := s.Every(time.Second, nil); err == nil {
		t.Fatalf("nil func must fail")
	}
}

func TestCronFiresAndStops(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the wall clock")
	}
	t.Parallel()
	s := schedule.NewCron(arbor.NewNoOpLogger())
	var fired atomic.Int32
	task, err := s.Every(time.Second, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("every: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	task.Stop()
	task.Stop()
	if fired.Load() == 0 {
		t.Fatalf("cron task never fired")
	}
	after := fired.Load()
	time.Sleep(1500 * time.Millisecond)
	if fired.Load() > after+1 {
		t.Fatalf("task kept firing after stop: %d -> %d", after, fired.Load())
	}
}
