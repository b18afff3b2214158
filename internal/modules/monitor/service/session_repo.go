package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"camwatch/internal/modules/monitor/domain"
	monitorout "camwatch/internal/modules/monitor/port/out"
	"camwatch/internal/platform/clock"
	apperrors "camwatch/internal/platform/errors"
)

// errCorruptSession marks a persisted record that cannot be resumed.
var errCorruptSession = errors.New("corrupt tracked session")

// SessionRepository maps a TrackedSession onto two keys of a SessionStore.
type SessionRepository struct {
	store monitorout.SessionStore
}

func NewSessionRepository(store monitorout.SessionStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Save(ctx context.Context, session domain.TrackedSession) error {
	if err := r.store.Set(ctx, domain.KeyActiveJobID, session.JobID); err != nil {
		return fmt.Errorf("persist job id: %w", err)
	}
	ms := strconv.FormatInt(clock.EpochMillis(session.StartedAt), 10)
	if err := r.store.Set(ctx, domain.KeyStartedAtMs, ms); err != nil {
		return fmt.Errorf("persist start time: %w", err)
	}
	return nil
}

// Load returns apperrors.ErrNoActiveSession when nothing is tracked and
// errCorruptSession when the record is incomplete.
func (r *SessionRepository) Load(ctx context.Context) (domain.TrackedSession, error) {
	jobID, err := r.store.Get(ctx, domain.KeyActiveJobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.TrackedSession{}, apperrors.ErrNoActiveSession
		}
		return domain.TrackedSession{}, fmt.Errorf("load job id: %w", err)
	}
	if strings.TrimSpace(jobID) == "" {
		return domain.TrackedSession{}, errCorruptSession
	}
	raw, err := r.store.Get(ctx, domain.KeyStartedAtMs)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.TrackedSession{}, errCorruptSession
		}
		return domain.TrackedSession{}, fmt.Errorf("load start time: %w", err)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return domain.TrackedSession{}, errCorruptSession
	}
	return domain.TrackedSession{JobID: jobID, StartedAt: clock.FromEpochMillis(ms)}, nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.store.Remove(ctx, domain.KeyActiveJobID); err != nil {
		return fmt.Errorf("clear job id: %w", err)
	}
	if err := r.store.Remove(ctx, domain.KeyStartedAtMs); err != nil {
		return fmt.Errorf("clear start time: %w", err)
	}
	return nil
}
