// internal/relevance/finder.go
package relevance

import (
	"context"
	"sort"

	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/metrics"
	"marketplace-workers/internal/models"
)

// CandidateSource supplies pools of candidate jobs. Backed by the remote
// job store in production and by fixtures in tests.
type CandidateSource interface {
	OpenJobs(ctx context.Context) ([]models.Job, error)
	RecentJobs(ctx context.Context, limit int) ([]models.Job, error)
	JobsByCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Job, error)
}

// Finder produces ranked lists of jobs similar to a target job. It widens
// its search through a fixed chain of strategies so that something
// reasonable is returned even when strict matches are scarce.
type Finder struct {
	source      CandidateSource
	log         logger.Logger
	maxResults  int
	recentLimit int
}

const (
	// defaultMaxResults caps the ranked list handed back to callers.
	defaultMaxResults = 6
	// defaultRecentLimit bounds the recency-based fallback fetches so a
	// widening search never scans the whole population.
	defaultRecentLimit = 20

	// categoryFloor is the minimum candidate count below which the
	// category-only and cross-category strategies kick in.
	categoryFloor = 4
	// recencyFloor is the minimum candidate count below which the raw
	// recency fallback kicks in.
	recencyFloor = 3
)

func NewFinder(source CandidateSource, log logger.Logger, maxResults, recentLimit int) *Finder {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &Finder{
		source:      source,
		log:         log,
		maxResults:  maxResults,
		recentLimit: recentLimit,
	}
}

// strategy is one layer of the widening search. floor is the candidate
// count below which the layer runs; the first layer always runs.
type strategy struct {
	name  string
	floor int
	fetch func(ctx context.Context, target *models.Job) ([]models.Job, error)
}

func (f *Finder) strategies() []strategy {
	return []strategy{
		{
			name:  "category_and_skills",
			floor: int(^uint(0) >> 1),
			fetch: f.fetchCategoryAndSkills,
		},
		{
			name:  "category_only",
			floor: categoryFloor,
			fetch: f.fetchCategoryOnly,
		},
		{
			name:  "skills_cross_category",
			floor: categoryFloor,
			fetch: f.fetchSkillsCrossCategory,
		},
		{
			name:  "recent",
			floor: recencyFloor,
			fetch: f.fetchRecent,
		},
	}
}

// FindSimilar returns up to maxResults jobs ranked by descending relevance
// score against the target. The search is best effort: any source failure
// degrades to an empty list rather than an error, since similar-job
// suggestions must never block a screen from rendering.
func (f *Finder) FindSimilar(ctx context.Context, target *models.Job) []models.Job {
	seen := map[string]bool{target.ID: true}
	var collected []models.Job

	for _, s := range f.strategies() {
		if len(collected) >= s.floor {
			continue
		}

		batch, err := s.fetch(ctx, target)
		if err != nil {
			f.log.Warn("similar-job search degraded to empty result", map[string]interface{}{
				"strategy": s.name,
				"jobId":    target.ID,
				"error":    err.Error(),
			})
			return []models.Job{}
		}
		metrics.RelevanceSearches.WithLabelValues(s.name).Inc()

		for _, job := range batch {
			if seen[job.ID] {
				continue
			}
			seen[job.ID] = true
			collected = append(collected, job)
		}
	}

	return f.rank(target, collected)
}

// rank orders candidates by descending score, breaking ties by ascending
// job ID so results are deterministic, and truncates to maxResults.
func (f *Finder) rank(target *models.Job, candidates []models.Job) []models.Job {
	scores := make(map[string]float64, len(candidates))
	for i := range candidates {
		scores[candidates[i].ID] = Score(target, &candidates[i])
	}

	sort.Slice(candidates, func(i, j int) bool {
		si, sj := scores[candidates[i].ID], scores[candidates[j].ID]
		if si != sj {
			return si > sj
		}
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > f.maxResults {
		candidates = candidates[:f.maxResults]
	}
	if candidates == nil {
		return []models.Job{}
	}
	return candidates
}

// fetchCategoryAndSkills scans the open-job population for candidates that
// share the target's category and at least one required skill.
func (f *Finder) fetchCategoryAndSkills(ctx context.Context, target *models.Job) ([]models.Job, error) {
	jobs, err := f.source.OpenJobs(ctx)
	if err != nil {
		return nil, err
	}

	var matched []models.Job
	for _, job := range jobs {
		if job.Category != target.Category {
			continue
		}
		if !sharesSkill(target, &job) {
			continue
		}
		matched = append(matched, job)
	}
	return matched, nil
}

// fetchCategoryOnly widens to any job in the target's category.
func (f *Finder) fetchCategoryOnly(ctx context.Context, target *models.Job) ([]models.Job, error) {
	return f.source.JobsByCategory(ctx, target.Category, target.ID, f.recentLimit)
}

// fetchSkillsCrossCategory widens to recent jobs in other categories that
// share at least one skill with the target. The pool is recency-bounded.
func (f *Finder) fetchSkillsCrossCategory(ctx context.Context, target *models.Job) ([]models.Job, error) {
	jobs, err := f.source.RecentJobs(ctx, f.recentLimit)
	if err != nil {
		return nil, err
	}

	var matched []models.Job
	for _, job := range jobs {
		if job.Category == target.Category {
			continue
		}
		if !sharesSkill(target, &job) {
			continue
		}
		matched = append(matched, job)
	}
	return matched, nil
}

// fetchRecent is the last-resort layer: the most recently posted jobs,
// regardless of category or skills.
func (f *Finder) fetchRecent(ctx context.Context, target *models.Job) ([]models.Job, error) {
	return f.source.RecentJobs(ctx, f.recentLimit)
}

func sharesSkill(target, candidate *models.Job) bool {
	for _, skill := range target.Skills {
		if candidate.HasSkill(skill) {
			return true
		}
	}
	return false
}
