// internal/workers/jobs/browse-jobs/handler_test.go
package browsejobs

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

type fakeSearcher struct {
	jobs      []models.Job
	err       error
	lastQuery string
	lastLimit int
}

func (f *fakeSearcher) SearchJobs(ctx context.Context, keyword string, limit int) ([]models.Job, error) {
	f.lastQuery = keyword
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs, nil
}

func newTestHandler(t *testing.T, index *fakeSearcher) *Handler {
	t.Helper()
	return NewHandler(DefaultConfig(), index, logger.NewTestLogger(t))
}

func sampleJobs(n int) []models.Job {
	jobs := make([]models.Job, n)
	for i := range jobs {
		jobs[i] = models.Job{
			ID:       fmt.Sprintf("job-%d", i+1),
			Title:    "Build a mobile app",
			Category: "Development",
			Status:   models.JobStatusOpen,
		}
	}
	return jobs
}

func TestExecuteReturnsHits(t *testing.T) {
	index := &fakeSearcher{jobs: sampleJobs(3)}
	handler := newTestHandler(t, index)

	output, err := handler.Execute(context.Background(), &Input{Query: "mobile app", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, output.Count)
	assert.Len(t, output.Jobs, 3)
	assert.Equal(t, "mobile app", index.lastQuery)
	assert.Equal(t, 10, index.lastLimit)
}

func TestExecuteTrimsQuery(t *testing.T) {
	index := &fakeSearcher{jobs: sampleJobs(1)}
	handler := newTestHandler(t, index)

	_, err := handler.Execute(context.Background(), &Input{Query: "  kotlin  "})
	require.NoError(t, err)
	assert.Equal(t, "kotlin", index.lastQuery)
}

func TestExecuteCapsLimit(t *testing.T) {
	index := &fakeSearcher{}
	handler := newTestHandler(t, index)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to cap", 0, DefaultConfig().MaxResults},
		{"negative falls back to cap", -5, DefaultConfig().MaxResults},
		{"over cap is clamped", 500, DefaultConfig().MaxResults},
		{"within cap is kept", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), &Input{Query: "go", Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, index.lastLimit)
		})
	}
}

func TestExecuteEmptyQuery(t *testing.T) {
	handler := newTestHandler(t, &fakeSearcher{})

	_, err := handler.Execute(context.Background(), &Input{Query: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_VALIDATION_FAILED")
}

func TestExecuteNoHitsIsNotAnError(t *testing.T) {
	handler := newTestHandler(t, &fakeSearcher{})

	output, err := handler.Execute(context.Background(), &Input{Query: "cobol"})
	require.NoError(t, err)
	assert.Equal(t, 0, output.Count)
	assert.NotNil(t, output.Jobs)
}

func TestExecuteSearchFailure(t *testing.T) {
	index := &fakeSearcher{err: fmt.Errorf("cluster unavailable")}
	handler := newTestHandler(t, index)

	_, err := handler.Execute(context.Background(), &Input{Query: "go"})
	require.Error(t, err)
}
