package out

import (
	"context"

	"camwatch/internal/modules/monitor/domain"
)

// StatusClient fetches a job snapshot. Failures are *domain.StatusError.
type StatusClient interface {
	FetchStatus(ctx context.Context, jobID string) (domain.RawStatus, error)
}

// SessionStore is a string key/value store. Get returns apperrors.ErrNotFound
// for a missing key.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Sink receives monitor events. Calls are serialized. Implementations must
// not call back into Start, Stop or Dismiss synchronously.
type Sink interface {
	OnProgress(model domain.ProgressModel)
	OnTerminal(model domain.ProgressModel)
	OnAbandoned(jobID string)
}

type HistoryStore interface {
	Append(ctx context.Context, entry domain.HistoryEntry) error
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}
