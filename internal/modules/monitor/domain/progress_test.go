package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camwatch/internal/modules/monitor/domain"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestReconcileOverallPercentMatchesRoundedRatio(t *testing.T) {
	t.Parallel()
	for total := 1; total <= 40; total++ {
		for completed := 0; completed <= total; completed++ {
			raw := domain.RawStatus{Status: domain.JobInProgress, CompletedCount: completed, TotalCount: total}
			got := domain.Reconcile(raw, t0, t0).OverallPercent
			want := int(math.Round(100 * float64(completed) / float64(total)))
			if got != want {
				t.Fatalf("C=%d T=%d: want %d, got %d", completed, total, want, got)
			}
		}
	}
	zero := domain.Reconcile(domain.RawStatus{Status: domain.JobQueued}, t0, t0)
	assert.Equal(t, 0, zero.OverallPercent)
}

func TestReconcileIsDeterministic(t *testing.T) {
	t.Parallel()
	raw := domain.RawStatus{
		Status:         domain.JobInProgress,
		CompletedCount: 1,
		TotalCount:     4,
		ActiveCount:    1,
		QueuedCount:    2,
		SubJobs: []domain.SubJob{
			{ID: "a", Status: domain.SubJobCompleted, ResultURI: "/files/a.mp4"},
			{ID: "b", Status: domain.SubJobActive, Name: "cam1.mp4", BytesTransferred: i64(10 << 20), BytesTotal: i64(40 << 20), TransferRateBytesPerSec: f64(1 << 20)},
		},
	}
	now := t0.Add(95 * time.Second)
	first := domain.Reconcile(raw, t0, now)
	second := domain.Reconcile(raw, t0, now)
	assert.Equal(t, first, second)
}

func TestReconcileIsTerminalOnlyForTerminalStatuses(t *testing.T) {
	t.Parallel()
	cases := map[domain.JobStatus]bool{
		domain.JobQueued:         false,
		domain.JobInProgress:     false,
		domain.JobCompleted:      true,
		domain.JobFailed:         true,
		domain.JobPartialFailure: true,
	}
	for status, terminal := range cases {
		model := domain.Reconcile(domain.RawStatus{Status: status, TotalCount: 1}, t0, t0)
		assert.Equal(t, terminal, model.IsTerminal, "status %s", status)
		if !terminal {
			assert.Equal(t, domain.OutcomeNone, model.Outcome, "status %s", status)
		}
	}
}

func TestReconcileOutcomeAndLabels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     domain.RawStatus
		outcome domain.Outcome
		label   string
	}{
		{
			name:    "success",
			raw:     domain.RawStatus{Status: domain.JobCompleted, CompletedCount: 3, TotalCount: 3},
			outcome: domain.OutcomeSuccess,
			label:   "All 3 jobs completed successfully",
		},
		{
			name:    "partial",
			raw:     domain.RawStatus{Status: domain.JobPartialFailure, CompletedCount: 2, TotalCount: 3, FailedCount: 1},
			outcome: domain.OutcomePartial,
			label:   "Completed with 1 failed (2/3 successful)",
		},
		{
			name:    "completed with failures is a failure",
			raw:     domain.RawStatus{Status: domain.JobCompleted, CompletedCount: 2, TotalCount: 3, FailedCount: 1},
			outcome: domain.OutcomeFailure,
			label:   "Completed with 1 failed",
		},
		{
			name:    "failed uses server message",
			raw:     domain.RawStatus{Status: domain.JobFailed, TotalCount: 2, FailedCount: 2, Message: "camera offline"},
			outcome: domain.OutcomeFailure,
			label:   "camera offline",
		},
		{
			name:  "preparing",
			raw:   domain.RawStatus{Status: domain.JobInProgress, TotalCount: 2, ActiveCount: 1},
			label: domain.LabelPreparing,
		},
		{
			name:  "waiting",
			raw:   domain.RawStatus{Status: domain.JobQueued, TotalCount: 2, QueuedCount: 2},
			label: domain.LabelWaiting,
		},
		{
			name: "processing",
			raw: domain.RawStatus{Status: domain.JobInProgress, CompletedCount: 1, TotalCount: 2, ActiveCount: 1,
				SubJobs: []domain.SubJob{{ID: "x", Status: domain.SubJobActive}}},
			label: "Processing 1/2",
		},
		{
			name: "processing prefers server message",
			raw: domain.RawStatus{Status: domain.JobInProgress, TotalCount: 2, ActiveCount: 1, Message: "Downloading 1 of 2",
				SubJobs: []domain.SubJob{{ID: "x", Status: domain.SubJobActive}}},
			label: "Downloading 1 of 2",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			model := domain.Reconcile(tc.raw, t0, t0)
			assert.Equal(t, tc.outcome, model.Outcome)
			assert.Equal(t, tc.label, model.OverallLabel)
		})
	}
}

func TestReconcilePicksFirstActiveSubJob(t *testing.T) {
	t.Parallel()
	raw := domain.RawStatus{
		Status:      domain.JobInProgress,
		TotalCount:  3,
		ActiveCount: 2,
		SubJobs: []domain.SubJob{
			{ID: "q", Status: domain.SubJobQueued},
			{ID: "first", Name: "front-door.mp4", Status: domain.SubJobActive, ProgressPercent: f64(40)},
			{ID: "second", Name: "garage.mp4", Status: domain.SubJobActive, ProgressPercent: f64(90)},
		},
	}
	for i := 0; i < 5; i++ {
		model := domain.Reconcile(raw, t0, t0)
		require.NotNil(t, model.ActiveItem)
		assert.Equal(t, "front-door.mp4", model.ActiveItem.Label)
		assert.Equal(t, 40.0, model.ActiveItem.Percent)
	}
}

func TestReconcileActiveItemDetail(t *testing.T) {
	t.Parallel()
	raw := domain.RawStatus{
		Status:      domain.JobInProgress,
		TotalCount:  1,
		ActiveCount: 1,
		SubJobs: []domain.SubJob{{
			ID:                      "rec-7",
			Status:                  domain.SubJobActive,
			BytesTransferred:        i64(112 << 20),
			BytesTotal:              i64(249 << 20),
			TransferRateBytesPerSec: f64(1 << 20),
		}},
	}
	item := domain.Reconcile(raw, t0, t0).ActiveItem
	require.NotNil(t, item)
	assert.Equal(t, "rec-7", item.Label)
	assert.InDelta(t, 44.98, item.Percent, 0.01)
	assert.Equal(t, "1.0 MiB/s", item.RateLabel)
	assert.Equal(t, "2m 17s", item.ETALabel)
	assert.Equal(t, "112 MiB / 249 MiB", item.BytesLabel)

	raw.SubJobs[0].TransferRateBytesPerSec = nil
	item = domain.Reconcile(raw, t0, t0).ActiveItem
	assert.Equal(t, domain.Unknown, item.RateLabel)
	assert.Equal(t, domain.Unknown, item.ETALabel)
}

func TestReconcileCarriesSummaryAndItems(t *testing.T) {
	t.Parallel()
	raw := domain.RawStatus{
		Status:         domain.JobPartialFailure,
		CompletedCount: 1,
		TotalCount:     2,
		FailedCount:    1,
		SubJobs: []domain.SubJob{
			{ID: "a", Status: domain.SubJobCompleted, ResultURI: "/d/a.mp4"},
			{ID: "b", Status: domain.SubJobFailed, ErrorMessage: "timeout"},
		},
	}
	model := domain.Reconcile(raw, t0, t0.Add(42*time.Second))
	assert.Equal(t, domain.Summary{Completed: 1, Failed: 1}, model.Summary)
	require.Len(t, model.Items, 2)
	assert.Equal(t, "/d/a.mp4", model.Items[0].ResultURI)
	assert.Equal(t, "timeout", model.Items[1].ErrorMessage)
	assert.Equal(t, "0:42", model.ElapsedLabel)
	assert.Nil(t, model.ActiveItem)
}
