// internal/relevance/finder_test.go
package relevance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

// stubSource serves fixed job pools and can be forced to fail.
type stubSource struct {
	open    []models.Job
	recent  []models.Job
	byCat   map[string][]models.Job
	openErr error
	recErr  error
	catErr  error
}

func (s *stubSource) OpenJobs(ctx context.Context) ([]models.Job, error) {
	return s.open, s.openErr
}

func (s *stubSource) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	if s.recErr != nil {
		return nil, s.recErr
	}
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s *stubSource) JobsByCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Job, error) {
	if s.catErr != nil {
		return nil, s.catErr
	}
	var out []models.Job
	for _, j := range s.byCat[category] {
		if j.ID == excludeID {
			continue
		}
		out = append(out, j)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func devJob(id string, skills []string, budget float64, postedAgo time.Duration) models.Job {
	return models.Job{
		ID:       id,
		Title:    "Job " + id,
		Category: "Development",
		Skills:   skills,
		Budget:   budget,
		Status:   models.JobStatusOpen,
		PostedAt: time.Now().Add(-postedAgo),
	}
}

func TestFindSimilarRanksByScore(t *testing.T) {
	target := devJob("job-target", []string{"Go", "Postgres"}, 10000, 0)

	strong := devJob("job-strong", []string{"Go", "Postgres"}, 9500, time.Hour)
	partial := devJob("job-partial", []string{"Go", "React"}, 9000, 2*time.Hour)
	weak := devJob("job-weak", []string{"Postgres"}, 2000, 3*time.Hour)
	other1 := devJob("job-a", []string{"Go"}, 10000, 4*time.Hour)
	other2 := devJob("job-b", []string{"Go"}, 10000, 5*time.Hour)

	source := &stubSource{
		open: []models.Job{target, strong, partial, weak, other1, other2},
	}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Len(t, results, 5)
	assert.Equal(t, "job-strong", results[0].ID)
	for _, job := range results {
		assert.NotEqual(t, target.ID, job.ID, "results must never contain the target")
	}
}

func TestFindSimilarTieBreaksByID(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)

	// Identical jobs apart from ID score identically.
	twinB := devJob("job-b", []string{"Go"}, 10000, time.Hour)
	twinA := devJob("job-a", []string{"Go"}, 10000, 2*time.Hour)

	source := &stubSource{open: []models.Job{target, twinB, twinA}}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Len(t, results, 2)
	assert.Equal(t, "job-a", results[0].ID)
	assert.Equal(t, "job-b", results[1].ID)
}

func TestFindSimilarCapsResults(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)

	var pool []models.Job
	for i := 0; i < 10; i++ {
		pool = append(pool, devJob(fmt.Sprintf("job-%02d", i), []string{"Go"}, 10000, time.Duration(i)*time.Hour))
	}
	source := &stubSource{open: append(pool, target)}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Len(t, results, 6)
}

func TestFindSimilarWidensToCategoryOnly(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)

	// Only one strict match, so the category-only layer must top up.
	strict := devJob("job-strict", []string{"Go"}, 10000, time.Hour)
	catOnly1 := devJob("job-cat1", []string{"Figma"}, 4000, 2*time.Hour)
	catOnly2 := devJob("job-cat2", []string{"Copywriting"}, 3000, 3*time.Hour)

	source := &stubSource{
		open: []models.Job{target, strict},
		byCat: map[string][]models.Job{
			"Development": {strict, catOnly1, catOnly2},
		},
	}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Len(t, results, 3)
	assert.Equal(t, "job-strict", results[0].ID)
}

func TestFindSimilarCrossCategorySkillMatch(t *testing.T) {
	target := devJob("job-target", []string{"Go", "Docker"}, 10000, 0)

	crossCat := models.Job{
		ID:       "job-cross",
		Category: "DevOps",
		Skills:   []string{"Docker", "Kubernetes"},
		Budget:   9000,
		Status:   models.JobStatusOpen,
		PostedAt: time.Now().Add(-time.Hour),
	}
	unrelated := models.Job{
		ID:       "job-unrelated",
		Category: "Writing",
		Skills:   []string{"Copywriting"},
		Budget:   1000,
		Status:   models.JobStatusOpen,
		PostedAt: time.Now().Add(-2 * time.Hour),
	}

	source := &stubSource{
		open:   []models.Job{target},
		recent: []models.Job{crossCat, unrelated},
	}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	// The cross-category layer picks up the skill match; the recency
	// layer then tops up with the unrelated job to reach the floor.
	assert.Len(t, results, 2)
	assert.Equal(t, "job-cross", results[0].ID)
	assert.Equal(t, "job-unrelated", results[1].ID)
}

func TestFindSimilarRecencyFallback(t *testing.T) {
	target := models.Job{
		ID:       "job-target",
		Category: "Niche",
		Skills:   []string{"Cobol"},
		Budget:   10000,
		PostedAt: time.Now(),
	}

	recent := devJob("job-recent", []string{"Go"}, 5000, time.Hour)

	source := &stubSource{
		open:   []models.Job{target},
		recent: []models.Job{recent, target},
	}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Len(t, results, 1)
	assert.Equal(t, "job-recent", results[0].ID)
}

func TestFindSimilarEmptyPool(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)
	source := &stubSource{open: []models.Job{target}}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindSimilarSourceFailureDegradesToEmpty(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)
	source := &stubSource{openErr: fmt.Errorf("connection refused")}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindSimilarFallbackFailureDegradesToEmpty(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)
	strict := devJob("job-strict", []string{"Go"}, 10000, time.Hour)

	source := &stubSource{
		open:   []models.Job{target, strict},
		catErr: fmt.Errorf("search unavailable"),
	}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Empty(t, results)
}

func TestFindSimilarDedupesAcrossLayers(t *testing.T) {
	target := devJob("job-target", []string{"Go"}, 10000, 0)
	match := devJob("job-match", []string{"Go"}, 10000, time.Hour)

	// The same job appears in every pool; it must be returned once.
	source := &stubSource{
		open:   []models.Job{target, match},
		recent: []models.Job{match},
		byCat: map[string][]models.Job{
			"Development": {match},
		},
	}

	finder := NewFinder(source, logger.NewNoOpLogger(), 6, 20)
	results := finder.FindSimilar(context.Background(), &target)

	assert.Len(t, results, 1)
	assert.Equal(t, "job-match", results[0].ID)
}
