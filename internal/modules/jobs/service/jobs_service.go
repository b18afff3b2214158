package service

import (
	"context"
	"fmt"
	"strings"

	"camwatch/internal/modules/jobs/domain"
	"camwatch/internal/modules/jobs/dto"
	jobsout "camwatch/internal/modules/jobs/port/out"
	apperrors "camwatch/internal/platform/errors"
)

type JobsService struct {
	client jobsout.ApplianceClient
}

func NewJobsService(client jobsout.ApplianceClient) *JobsService {
	return &JobsService{client: client}
}

func (s *JobsService) StartDownload(ctx context.Context, input dto.RecordingInput) (domain.StartResult, error) {
	recording, err := toRecording(input)
	if err != nil {
		return domain.StartResult{}, err
	}
	return checkResult(s.client.StartDownload(ctx, recording))
}

func (s *JobsService) StartBatchDownload(ctx context.Context, inputs []dto.RecordingInput) (domain.StartResult, error) {
	if len(inputs) == 0 {
		return domain.StartResult{}, fmt.Errorf("at least one recording is required: %w", apperrors.ErrInvalidInput)
	}
	recordings := make([]domain.Recording, 0, len(inputs))
	for i, input := range inputs {
		recording, err := toRecording(input)
		if err != nil {
			return domain.StartResult{}, fmt.Errorf("recording %d: %w", i, err)
		}
		recordings = append(recordings, recording)
	}
	return checkResult(s.client.StartBatchDownload(ctx, recordings))
}

func (s *JobsService) StartDirectDownload(ctx context.Context, input dto.SearchInput) (domain.StartResult, error) {
	start, err := domain.ParseLocalTime(input.StartTime)
	if err != nil {
		return domain.StartResult{}, fmt.Errorf("start time: %v: %w", err, apperrors.ErrInvalidInput)
	}
	end, err := domain.ParseLocalTime(input.EndTime)
	if err != nil {
		return domain.StartResult{}, fmt.Errorf("end time: %v: %w", err, apperrors.ErrInvalidInput)
	}
	search := domain.SearchRequest{StartTime: start, EndTime: end, Page: input.Page, PageSize: input.PageSize}
	if search.PageSize == 0 {
		search.PageSize = domain.DefaultPageSize
	}
	if err := search.Validate(); err != nil {
		return domain.StartResult{}, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}
	return checkResult(s.client.StartDirectDownload(ctx, search))
}

func (s *JobsService) ExecuteBackup(ctx context.Context, configID string) (domain.StartResult, error) {
	configID = strings.TrimSpace(configID)
	if configID == "" {
		return domain.StartResult{}, fmt.Errorf("backup config id is required: %w", apperrors.ErrInvalidInput)
	}
	return checkResult(s.client.ExecuteBackup(ctx, configID))
}

func (s *JobsService) CancelBatch(ctx context.Context, batchID string) (string, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return "", fmt.Errorf("batch id is required: %w", apperrors.ErrInvalidInput)
	}
	return s.client.CancelBatch(ctx, batchID)
}

func toRecording(input dto.RecordingInput) (domain.Recording, error) {
	start, err := domain.ParseLocalTime(input.StartTime)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("start time: %v: %w", err, apperrors.ErrInvalidInput)
	}
	end, err := domain.ParseLocalTime(input.EndTime)
	if err != nil {
		return domain.Recording{}, fmt.Errorf("end time: %v: %w", err, apperrors.ErrInvalidInput)
	}
	recording := domain.Recording{
		RecordingID: input.RecordingID,
		TrackID:     input.TrackID,
		StartTime:   start,
		EndTime:     end,
		Duration:    input.Duration,
		Codec:       input.Codec,
		PlaybackURL: strings.TrimSpace(input.PlaybackURL),
		FileSize:    input.FileSize,
	}
	if err := recording.Validate(); err != nil {
		return domain.Recording{}, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}
	return recording, nil
}

// checkResult rejects a start response that carries no job id.
func checkResult(result domain.StartResult, err error) (domain.StartResult, error) {
	if err != nil {
		return domain.StartResult{}, err
	}
	if strings.TrimSpace(result.BatchID) == "" {
		return domain.StartResult{}, fmt.Errorf("appliance returned no batch id: %w", apperrors.ErrUnavailable)
	}
	return result, nil
}
