package in

import (
	"context"

	"camwatch/internal/modules/monitor/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Resume(ctx context.Context) (dto.ResumeOutput, error)
	Stop(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Active(ctx context.Context) (dto.ActiveOutput, error)
	History(ctx context.Context, input dto.HistoryInput) ([]dto.HistoryOutput, error)
}
