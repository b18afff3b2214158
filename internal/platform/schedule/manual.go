package schedule

import (
	"sync"
	"time"
)

// Manual is a Scheduler driven by explicit Tick calls. It backs tests and
// single-shot command runs.
type Manual struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Every(interval time.Duration, fn func()) (Task, error) {
	t := &manualTask{interval: interval, fn: fn}
	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()
	return t, nil
}

// Tick runs every live task once, in arming order.
func (m *Manual) Tick() {
	m.mu.Lock()
	tasks := append([]*manualTask(nil), m.tasks...)
	m.mu.Unlock()
	for _, t := range tasks {
		t.fire()
	}
}

// Live reports how many armed tasks have not been stopped.
func (m *Manual) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

// LastInterval returns the interval of the most recently armed task.
func (m *Manual) LastInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return 0
	}
	return m.tasks[len(m.tasks)-1].interval
}

type manualTask struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *manualTask) fire() {
	if t.isStopped() {
		return
	}
	t.fn()
}

func (t *manualTask) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *manualTask) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}
