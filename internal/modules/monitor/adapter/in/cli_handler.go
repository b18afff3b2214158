package in

import (
	"context"

	monitordto "camwatch/internal/modules/monitor/dto"
	monitorin "camwatch/internal/modules/monitor/port/in"
)

type CLIHandler struct {
	usecase monitorin.Usecase
}

func NewCLIHandler(usecase monitorin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Watch(ctx context.Context, jobID string) (monitordto.StartOutput, error) {
	return h.usecase.Start(ctx, monitordto.StartInput{JobID: jobID})
}

func (h CLIHandler) Resume(ctx context.Context) (monitordto.ResumeOutput, error) {
	return h.usecase.Resume(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Dismiss(ctx context.Context) error {
	return h.usecase.Dismiss(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (monitordto.ActiveOutput, error) {
	return h.usecase.Active(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]monitordto.HistoryOutput, error) {
	return h.usecase.History(ctx, monitordto.HistoryInput{Limit: limit})
}
