// internal/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"marketplace-workers/internal/common/database"
	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

// Index maintains a full-text job index so keyword search on titles,
// descriptions and skills does not hit Postgres.
type Index struct {
	es    *database.ElasticsearchClient
	log   logger.Logger
	index string
}

func NewIndex(es *database.ElasticsearchClient, log logger.Logger, indexName string) *Index {
	return &Index{es: es, log: log, index: indexName}
}

// IndexJob writes or replaces a job document. Document id equals job id,
// so re-indexing after an edit overwrites the previous version.
func (i *Index) IndexJob(ctx context.Context, job *models.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return errors.NewSearchQueryFailedError("index_job", fmt.Errorf("failed to encode job %s: %w", job.ID, err))
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: job.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, i.es.Client)
	if err != nil {
		return errors.NewSearchQueryFailedError("index_job", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return errors.NewIndexNotFoundError(i.index)
		}
		return errors.NewSearchQueryFailedError("index_job", fmt.Errorf("elasticsearch returned %s", res.Status()))
	}
	return nil
}

// DeleteJob removes a job document. A missing document is not an error.
func (i *Index) DeleteJob(ctx context.Context, jobID string) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: jobID,
	}

	res, err := req.Do(ctx, i.es.Client)
	if err != nil {
		return errors.NewSearchQueryFailedError("delete_job", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return errors.NewSearchQueryFailedError("delete_job", fmt.Errorf("elasticsearch returned %s", res.Status()))
	}
	return nil
}

// SearchJobs runs a keyword query over title, description, category and
// skills, returning at most limit jobs ranked by textual relevance.
func (i *Index) SearchJobs(ctx context.Context, keyword string, limit int) ([]models.Job, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"title^2", "description", "category", "skills"},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.NewSearchQueryFailedError("search_jobs", err)
	}

	res, err := i.es.Client.Search(
		i.es.Client.Search.WithContext(ctx),
		i.es.Client.Search.WithIndex(i.index),
		i.es.Client.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("search_jobs", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, errors.NewIndexNotFoundError(i.index)
		}
		return nil, errors.NewSearchQueryFailedError("search_jobs", fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("search_jobs", err)
	}
	return i.decodeHits(raw), nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// decodeHits extracts job documents, skipping any hit that fails to parse.
func (i *Index) decodeHits(raw []byte) []models.Job {
	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		i.log.Warn("failed to decode search response", map[string]interface{}{
			"error": err.Error(),
		})
		return []models.Job{}
	}

	jobs := make([]models.Job, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var job models.Job
		if err := json.Unmarshal(hit.Source, &job); err != nil {
			i.log.Warn("skipping unreadable search hit", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
