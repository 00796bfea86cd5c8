package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harrison/docval/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func reportWithFailure(runID string, generatedAt time.Time) *models.Report {
	return &models.Report{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Summary: models.Summary{
			TotalExamples: 2,
			Successes:     1,
			Failures:      1,
			SuccessRate:   0.5,
			FailuresByKind: map[models.ErrorKind]int{
				models.ErrKindNameError: 1,
			},
			ViolationsBySeverity: map[models.Severity]int{
				models.SeverityWarning: 1,
			},
		},
		Results: []models.ExampleOutcome{
			{
				Example: models.Example{ID: "docs/usage.md#0", SourceFile: "docs/usage.md", StartLine: 4, EndLine: 6, Kind: models.KindProseBlock},
				Result:  models.ExecutionResult{ExampleID: "docs/usage.md#0", Status: models.StatusSuccess},
			},
			{
				Example: models.Example{ID: "docs/usage.md#1", SourceFile: "docs/usage.md", StartLine: 14, EndLine: 15, Kind: models.KindProseBlock},
				Result: models.ExecutionResult{
					ExampleID:    "docs/usage.md#1",
					Status:       models.StatusFailed,
					ErrorKind:    models.ErrKindNameError,
					ErrorMessage: "NameError: name 'df' is not defined",
				},
			},
		},
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := reportWithFailure("run-1", time.Now().UTC())
	require.NoError(t, store.RecordRun(ctx, report))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	require.Equal(t, "run-1", run.RunID)
	require.Equal(t, 2, run.TotalExamples)
	require.Equal(t, 1, run.Successes)
	require.Equal(t, 1, run.Failures)
	require.InDelta(t, 0.5, run.SuccessRate, 1e-9)
	require.Equal(t, 1, run.WarningViolations)
	require.False(t, run.Clean)
}

func TestRecordRunStoresFailureRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, reportWithFailure("run-1", time.Now().UTC())))

	failures, err := store.GetFailures(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, "docs/usage.md#1", failures[0].ExampleID)
	require.Equal(t, "NameError", failures[0].ErrorKind)
	require.Equal(t, "docs/usage.md", failures[0].SourceFile)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := reportWithFailure("run-1", time.Now().UTC())
	require.NoError(t, store.RecordRun(ctx, report))
	require.Error(t, store.RecordRun(ctx, report))

	// The failed insert must not leave partial rows behind.
	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	failures, err := store.GetFailures(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, failures, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		report := reportWithFailure(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.RecordRun(ctx, report))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-2", runs[0].RunID)
	require.Equal(t, "run-1", runs[1].RunID)
}

func TestPruneKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		report := reportWithFailure(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.RecordRun(ctx, report))
	}

	deleted, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-4", runs[0].RunID)
	require.Equal(t, "run-3", runs[1].RunID)

	// Cascade removed the pruned runs' failure rows.
	failures, err := store.GetFailures(ctx, "run-0")
	require.NoError(t, err)
	require.Empty(t, failures)
}

func TestPruneDisabled(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, reportWithFailure("run-1", time.Now().UTC())))

	deleted, err := store.Prune(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestTopFailingFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		report := reportWithFailure(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.RecordRun(ctx, report))
	}

	counts, err := store.TopFailingFiles(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 3, counts["docs/usage.md"])
}

func TestInMemoryStore(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordRun(context.Background(), reportWithFailure("run-1", time.Now().UTC())))
}
