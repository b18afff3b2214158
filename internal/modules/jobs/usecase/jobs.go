package usecase

import (
	"context"

	"camwatch/internal/modules/jobs/domain"
	jobsdto "camwatch/internal/modules/jobs/dto"
	jobsin "camwatch/internal/modules/jobs/port/in"
	"camwatch/internal/modules/jobs/service"
	monitordto "camwatch/internal/modules/monitor/dto"
	monitorin "camwatch/internal/modules/monitor/port/in"
)

// Interactor starts appliance jobs and hands each new job id to the monitor.
// A nil monitor only starts jobs.
type Interactor struct {
	svc     *service.JobsService
	monitor monitorin.Usecase
}

func NewInteractor(svc *service.JobsService, monitor monitorin.Usecase) jobsin.Usecase {
	return &Interactor{svc: svc, monitor: monitor}
}

func (i *Interactor) StartDownload(ctx context.Context, input jobsdto.RecordingInput) (jobsdto.StartOutput, error) {
	result, err := i.svc.StartDownload(ctx, input)
	if err != nil {
		return jobsdto.StartOutput{}, err
	}
	return i.track(ctx, result)
}

func (i *Interactor) StartBatchDownload(ctx context.Context, inputs []jobsdto.RecordingInput) (jobsdto.StartOutput, error) {
	result, err := i.svc.StartBatchDownload(ctx, inputs)
	if err != nil {
		return jobsdto.StartOutput{}, err
	}
	if result.Total == 0 {
		result.Total = len(inputs)
	}
	return i.track(ctx, result)
}

func (i *Interactor) StartDirectDownload(ctx context.Context, input jobsdto.SearchInput) (jobsdto.StartOutput, error) {
	result, err := i.svc.StartDirectDownload(ctx, input)
	if err != nil {
		return jobsdto.StartOutput{}, err
	}
	return i.track(ctx, result)
}

func (i *Interactor) ExecuteBackup(ctx context.Context, configID string) (jobsdto.StartOutput, error) {
	result, err := i.svc.ExecuteBackup(ctx, configID)
	if err != nil {
		return jobsdto.StartOutput{}, err
	}
	return i.track(ctx, result)
}

func (i *Interactor) CancelBatch(ctx context.Context, batchID string) (jobsdto.CancelOutput, error) {
	message, err := i.svc.CancelBatch(ctx, batchID)
	if err != nil {
		return jobsdto.CancelOutput{}, err
	}
	return jobsdto.CancelOutput{JobID: batchID, Message: message}, nil
}

func (i *Interactor) track(ctx context.Context, result domain.StartResult) (jobsdto.StartOutput, error) {
	out := jobsdto.StartOutput{
		JobID:     result.BatchID,
		StatusURL: result.StatusURL,
		Total:     result.Total,
		Message:   result.Message,
	}
	if i.monitor == nil {
		return out, nil
	}
	started, err := i.monitor.Start(ctx, monitordto.StartInput{JobID: result.BatchID})
	if err != nil {
		return out, err
	}
	out.Tracking = true
	out.StartedAt = started.StartedAt
	return out, nil
}
