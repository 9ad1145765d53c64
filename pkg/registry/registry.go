// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.validate(); err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}
	return &reg, nil
}

// FindByTaskType returns the activity registered under the given Zeebe
// task type, or nil if none is registered.
func (r *ActivityRegistry) FindByTaskType(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}

func (r *ActivityRegistry) validate() error {
	seen := make(map[string]string, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity with task type %q has no id", a.TaskType)
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s has no taskType", a.ID)
		}
		if prev, ok := seen[a.TaskType]; ok {
			return fmt.Errorf("task type %q registered by both %s and %s", a.TaskType, prev, a.ID)
		}
		seen[a.TaskType] = a.ID
	}
	return nil
}
