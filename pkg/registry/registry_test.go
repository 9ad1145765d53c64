// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"lastUpdated": "2026-08-01",
		"activities": [
			{"id": "post-job-v1", "taskType": "post-job", "category": "jobs"},
			{"id": "send-message-v1", "taskType": "send-message", "category": "messaging"}
		]
	}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)
	assert.Len(t, reg.Activities, 2)

	activity := reg.FindByTaskType("send-message")
	require.NotNil(t, activity)
	assert.Equal(t, "send-message-v1", activity.ID)

	assert.Nil(t, reg.FindByTaskType("unknown"))
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadRegistryRejectsDuplicateTaskTypes(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"activities": [
			{"id": "post-job-v1", "taskType": "post-job"},
			{"id": "post-job-v2", "taskType": "post-job"}
		]
	}`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-job")
}

func TestLoadRegistryRejectsMissingTaskType(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"activities": [{"id": "post-job-v1"}]
	}`)

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}
