package in

import (
	"context"

	jobsdto "camwatch/internal/modules/jobs/dto"
	jobsin "camwatch/internal/modules/jobs/port/in"
)

type CLIHandler struct {
	usecase jobsin.Usecase
}

func NewCLIHandler(usecase jobsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Download(ctx context.Context, input jobsdto.RecordingInput) (jobsdto.StartOutput, error) {
	return h.usecase.StartDownload(ctx, input)
}

func (h CLIHandler) DownloadBatch(ctx context.Context, inputs []jobsdto.RecordingInput) (jobsdto.StartOutput, error) {
	return h.usecase.StartBatchDownload(ctx, inputs)
}

func (h CLIHandler) DownloadDirect(ctx context.Context, startTime, endTime string, page, pageSize int) (jobsdto.StartOutput, error) {
	return h.usecase.StartDirectDownload(ctx, jobsdto.SearchInput{StartTime: startTime, EndTime: endTime, Page: page, PageSize: pageSize})
}

func (h CLIHandler) RunBackup(ctx context.Context, configID string) (jobsdto.StartOutput, error) {
	return h.usecase.ExecuteBackup(ctx, configID)
}

func (h CLIHandler) CancelBatch(ctx context.Context, batchID string) (jobsdto.CancelOutput, error) {
	return h.usecase.CancelBatch(ctx, batchID)
}
