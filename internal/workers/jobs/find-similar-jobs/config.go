// internal/workers/jobs/find-similar-jobs/config.go
package findsimilarjobs

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxResults    int           `mapstructure:"max_results"`
	RecentLimit   int           `mapstructure:"recent_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       10 * time.Second,
		MaxResults:    6,
		RecentLimit:   20,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive")
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("recent_limit must be positive")
	}
	return nil
}
