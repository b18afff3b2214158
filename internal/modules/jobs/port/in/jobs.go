package in

import (
	"context"

	"camwatch/internal/modules/jobs/dto"
)

type Usecase interface {
	StartDownload(ctx context.Context, input dto.RecordingInput) (dto.StartOutput, error)
	StartBatchDownload(ctx context.Context, inputs []dto.RecordingInput) (dto.StartOutput, error)
	StartDirectDownload(ctx context.Context, input dto.SearchInput) (dto.StartOutput, error)
	ExecuteBackup(ctx context.Context, configID string) (dto.StartOutput, error)
	CancelBatch(ctx context.Context, batchID string) (dto.CancelOutput, error)
}
