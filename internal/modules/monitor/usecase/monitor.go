package usecase

import (
	"context"

	"camwatch/internal/modules/monitor/domain"
	monitordto "camwatch/internal/modules/monitor/dto"
	monitorin "camwatch/internal/modules/monitor/port/in"
	"camwatch/internal/modules/monitor/service"
	apperrors "camwatch/internal/platform/errors"
)

const defaultHistoryLimit = 20

type Interactor struct {
	svc *service.MonitorService
}

func NewInteractor(svc *service.MonitorService) monitorin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Start(ctx context.Context, input monitordto.StartInput) (monitordto.StartOutput, error) {
	session, err := i.svc.Start(ctx, input.JobID)
	if err != nil {
		return monitordto.StartOutput{}, err
	}
	return monitordto.StartOutput{JobID: session.JobID, StartedAt: session.StartedAt}, nil
}

func (i *Interactor) Resume(ctx context.Context) (monitordto.ResumeOutput, error) {
	session, resumed, err := i.svc.ResumeIfPresent(ctx)
	if err != nil {
		return monitordto.ResumeOutput{}, err
	}
	return monitordto.ResumeOutput{Resumed: resumed, JobID: session.JobID, StartedAt: session.StartedAt}, nil
}

func (i *Interactor) Stop(context.Context) error {
	i.svc.Stop()
	return nil
}

func (i *Interactor) Dismiss(ctx context.Context) error {
	return i.svc.Dismiss(ctx)
}

// Active reports the in-memory session, falling back to the persisted record
// when this process is not polling.
func (i *Interactor) Active(ctx context.Context) (monitordto.ActiveOutput, error) {
	snap := i.svc.Active()
	if snap.Session != nil {
		return monitordto.ActiveOutput{
			JobID:     snap.Session.JobID,
			StartedAt: snap.Session.StartedAt,
			State:     string(snap.State),
			Last:      snap.Last,
		}, nil
	}
	persisted, err := i.svc.Persisted(ctx)
	if err != nil {
		return monitordto.ActiveOutput{}, err
	}
	return monitordto.ActiveOutput{JobID: persisted.JobID, StartedAt: persisted.StartedAt, State: string(domain.StateIdle)}, nil
}

func (i *Interactor) History(ctx context.Context, input monitordto.HistoryInput) ([]monitordto.HistoryOutput, error) {
	if input.Limit < 0 {
		return nil, apperrors.ErrInvalidInput
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	entries, err := i.svc.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]monitordto.HistoryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, monitordto.HistoryOutput{
			JobID:      e.JobID,
			Outcome:    string(e.Outcome),
			Completed:  e.Completed,
			Failed:     e.Failed,
			Total:      e.Total,
			FinishedAt: e.FinishedAt,
		})
	}
	return out, nil
}
