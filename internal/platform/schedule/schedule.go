package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Task is a running repeating job.
type Task interface {
	Stop()
}

// Scheduler arms repeating tasks. Implementations never run fn concurrently
// with itself for the same task.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (Task, error)
}

// Cron runs each task on its own robfig/cron instance. Intervals are rounded
// down to whole seconds with a one second floor.
type Cron struct {
	logger arbor.ILogger
}

func NewCron(logger arbor.ILogger) *Cron {
	return &Cron{logger: logger}
}

func (s *Cron) Every(interval time.Duration, fn func()) (Task, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	if fn == nil {
		return nil, fmt.Errorf("schedule func is required")
	}
	l := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	c.Schedule(cron.Every(interval), cron.FuncJob(fn))
	c.Start()
	return &cronTask{cron: c}, nil
}

type cronTask struct {
	once sync.Once
	cron *cron.Cron
}

func (t *cronTask) Stop() {
	t.once.Do(func() { t.cron.Stop() })
}

// cronLogger forwards cron's internal logging to arbor.
type cronLogger struct {
	logger arbor.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Trace().Str("fields", fmt.Sprint(keysAndValues...)).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Error().Err(err).Str("fields", fmt.Sprint(keysAndValues...)).Msg("cron: " + msg)
}
