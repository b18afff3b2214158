package out

import (
	"context"

	"camwatch/internal/modules/jobs/domain"
)

// ApplianceClient calls the appliance's job producer endpoints.
type ApplianceClient interface {
	StartDownload(ctx context.Context, recording domain.Recording) (domain.StartResult, error)
	StartBatchDownload(ctx context.Context, recordings []domain.Recording) (domain.StartResult, error)
	StartDirectDownload(ctx context.Context, search domain.SearchRequest) (domain.StartResult, error)
	ExecuteBackup(ctx context.Context, configID string) (domain.StartResult, error)
	CancelBatch(ctx context.Context, batchID string) (string, error)
}
