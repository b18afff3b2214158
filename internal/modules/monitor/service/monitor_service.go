package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"camwatch/internal/modules/monitor/domain"
	monitorout "camwatch/internal/modules/monitor/port/out"
	"camwatch/internal/platform/clock"
	apperrors "camwatch/internal/platform/errors"
	"camwatch/internal/platform/logging"
	"camwatch/internal/platform/schedule"
)

const DefaultInterval = time.Second

type Options struct {
	Interval time.Duration
	History  monitorout.HistoryStore
	Logger   arbor.ILogger
}

// MonitorService polls one tracked job at a time and pushes reconciled
// progress to a sink.
//
// Every session gets a generation number. A cycle only applies its result if
// the generation it was issued for is still current, so responses that
// arrive after Stop, Dismiss or a newer Start are dropped. Lock order is
// emitMu then mu; holding emitMu across sink calls keeps them serialized and
// keeps a stale cycle from emitting after a newer Start has returned.
type MonitorService struct {
	clock     clock.Clock
	client    monitorout.StatusClient
	sessions  *SessionRepository
	sink      monitorout.Sink
	history   monitorout.HistoryStore
	scheduler schedule.Scheduler
	interval  time.Duration
	logger    arbor.ILogger

	emitMu sync.Mutex
	mu     sync.Mutex

	gen      uint64
	state    domain.State
	session  *domain.TrackedSession
	last     *domain.ProgressModel
	inFlight bool
	task     schedule.Task
	ctx      context.Context
	cancel   context.CancelFunc
	log      arbor.ILogger
}

func NewMonitorService(clk clock.Clock, client monitorout.StatusClient, store monitorout.SessionStore, sink monitorout.Sink, scheduler schedule.Scheduler, opts Options) *MonitorService {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := logging.OrNop(opts.Logger)
	return &MonitorService{
		clock:     clk,
		client:    client,
		sessions:  NewSessionRepository(store),
		sink:      sink,
		history:   opts.History,
		scheduler: scheduler,
		interval:  interval,
		logger:    logger,
		state:     domain.StateIdle,
		log:       logger,
	}
}

// Start begins tracking jobID, replacing any session already tracked.
func (s *MonitorService) Start(ctx context.Context, jobID string) (domain.TrackedSession, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return domain.TrackedSession{}, fmt.Errorf("job id is required: %w", apperrors.ErrInvalidInput)
	}
	session := domain.TrackedSession{JobID: jobID, StartedAt: s.clock.Now()}

	s.emitMu.Lock()
	s.mu.Lock()
	if s.session != nil && s.session.JobID != jobID && s.state == domain.StatePolling {
		s.log.Info().Str("replaced_job", s.session.JobID).Str("job", jobID).Msg("Replacing tracked job")
	}
	s.resetLocked()
	if err := s.sessions.Save(ctx, session); err != nil {
		s.mu.Unlock()
		s.emitMu.Unlock()
		return domain.TrackedSession{}, err
	}
	gen := s.activateLocked(session)
	log := s.log
	s.mu.Unlock()
	s.emitMu.Unlock()

	log.Info().Str("job", jobID).Msg("Tracking job")
	if err := s.run(gen); err != nil {
		return domain.TrackedSession{}, err
	}
	return session, nil
}

// ResumeIfPresent re-enters polling for a persisted session, keeping its
// original start time. A corrupt record is cleared and reported as absent.
func (s *MonitorService) ResumeIfPresent(ctx context.Context) (domain.TrackedSession, bool, error) {
	s.emitMu.Lock()
	s.mu.Lock()
	if s.state == domain.StatePolling && s.session != nil {
		current := *s.session
		s.mu.Unlock()
		s.emitMu.Unlock()
		return current, true, nil
	}

	session, err := s.sessions.Load(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNoActiveSession):
		s.mu.Unlock()
		s.emitMu.Unlock()
		return domain.TrackedSession{}, false, nil
	case errors.Is(err, errCorruptSession):
		s.logger.Warn().Msg("Discarding corrupt tracked session")
		clearErr := s.sessions.Clear(ctx)
		s.mu.Unlock()
		s.emitMu.Unlock()
		if clearErr != nil {
			return domain.TrackedSession{}, false, clearErr
		}
		return domain.TrackedSession{}, false, nil
	case err != nil:
		s.mu.Unlock()
		s.emitMu.Unlock()
		return domain.TrackedSession{}, false, err
	}

	s.resetLocked()
	gen := s.activateLocked(session)
	log := s.log
	s.mu.Unlock()
	s.emitMu.Unlock()

	log.Info().Str("job", session.JobID).Str("started_at", session.StartedAt.Format(time.RFC3339)).Msg("Resuming tracked job")
	if err := s.run(gen); err != nil {
		return domain.TrackedSession{}, false, err
	}
	return session, true, nil
}

// Stop cancels polling and forgets the in-memory session. The persisted
// record is left in place.
func (s *MonitorService) Stop() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.log.Debug().Str("job", s.session.JobID).Msg("Stopping monitor")
	}
	s.resetLocked()
}

// Dismiss stops polling and clears the persisted record.
func (s *MonitorService) Dismiss(ctx context.Context) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return s.sessions.Clear(ctx)
}

func (s *MonitorService) Active() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := domain.Snapshot{State: s.state}
	if s.session != nil {
		session := *s.session
		snap.Session = &session
	}
	if s.last != nil {
		last := *s.last
		snap.Last = &last
	}
	return snap
}

func (s *MonitorService) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Persisted reads the stored session without touching polling state.
func (s *MonitorService) Persisted(ctx context.Context) (domain.TrackedSession, error) {
	session, err := s.sessions.Load(ctx)
	if errors.Is(err, errCorruptSession) {
		return domain.TrackedSession{}, apperrors.ErrNoActiveSession
	}
	return session, err
}

func (s *MonitorService) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, limit)
}

// run performs the immediate cycle and then arms the repeating task, unless
// the first cycle already ended the session.
func (s *MonitorService) run(gen uint64) error {
	s.poll(gen)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != domain.StatePolling {
		return nil
	}
	task, err := s.scheduler.Every(s.interval, func() { s.poll(gen) })
	if err != nil {
		s.resetLocked()
		return fmt.Errorf("arm poll task: %w", err)
	}
	s.task = task
	return nil
}

func (s *MonitorService) poll(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != domain.StatePolling || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	session := *s.session
	ctx := s.ctx
	log := s.log
	s.mu.Unlock()

	raw, err := s.client.FetchStatus(ctx, session.JobID)
	now := s.clock.Now()

	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		log.Debug().Str("job", session.JobID).Msg("Discarding stale status response")
		return
	}
	s.inFlight = false

	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindNotFound:
			s.haltLocked()
			s.state = domain.StateAbandoned
			clearErr := s.sessions.Clear(context.Background())
			s.mu.Unlock()
			if clearErr != nil {
				log.Warn().Err(clearErr).Msg("Failed to clear abandoned session")
			}
			log.Info().Str("job", session.JobID).Msg("Job no longer known to appliance, tracking abandoned")
			s.sink.OnAbandoned(session.JobID)
		case domain.KindMalformed:
			s.mu.Unlock()
			log.Warn().Err(err).Str("job", session.JobID).Msg("Malformed status payload, will retry")
		default:
			s.mu.Unlock()
			log.Debug().Err(err).Str("job", session.JobID).Msg("Status fetch failed, will retry")
		}
		return
	}

	model := domain.Reconcile(raw, session.StartedAt, now)
	model.JobID = session.JobID
	s.last = &model

	var clearErr, historyErr error
	if model.IsTerminal {
		s.haltLocked()
		s.state = domain.StateTerminated
		clearErr = s.sessions.Clear(context.Background())
		if s.history != nil {
			historyErr = s.history.Append(context.Background(), domain.HistoryEntry{
				JobID:      session.JobID,
				Outcome:    model.Outcome,
				Completed:  raw.CompletedCount,
				Failed:     raw.FailedCount,
				Total:      raw.TotalCount,
				FinishedAt: now,
			})
		}
	}
	s.mu.Unlock()

	log.Trace().Str("job", session.JobID).Int("percent", model.OverallPercent).Msg("Status reconciled")
	s.sink.OnProgress(model)
	if !model.IsTerminal {
		return
	}
	if clearErr != nil {
		log.Warn().Err(clearErr).Msg("Failed to clear finished session")
	}
	if historyErr != nil {
		log.Warn().Err(historyErr).Msg("Failed to record job history")
	}
	log.Info().Str("job", session.JobID).Str("outcome", string(model.Outcome)).Str("elapsed", model.ElapsedLabel).Msg("Job finished")
	s.sink.OnTerminal(model)
}

// activateLocked installs session as the current one and returns its generation.
func (s *MonitorService) activateLocked(session domain.TrackedSession) uint64 {
	s.gen++
	s.session = &session
	s.state = domain.StatePolling
	s.last = nil
	s.inFlight = false
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.log = s.logger.WithCorrelationId(session.JobID)
	return s.gen
}

// resetLocked returns to IDLE and invalidates any in-flight cycle.
func (s *MonitorService) resetLocked() {
	s.haltLocked()
	s.gen++
	s.session = nil
	s.last = nil
	s.inFlight = false
	s.state = domain.StateIdle
	s.log = s.logger
}

// haltLocked stops the repeating task and cancels the session context.
func (s *MonitorService) haltLocked() {
	if s.task != nil {
		s.task.Stop()
		s.task = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
