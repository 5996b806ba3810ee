package config

import (
	"os"

	"gopkg.in/yaml.v3"

	appLog "feedcal/internal/log"
	"feedcal/internal/model"
)

// jobsDoc is the on-disk shape of the job store.
type jobsDoc struct {
	Jobs []model.CronJob `yaml:"jobs"`
}

// LoadJobs reads the cron-job document at path. A missing or corrupt file
// means zero jobs, never an error; the job store is advisory input.
func LoadJobs(path string) []model.CronJob {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc jobsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		appLog.Warn("job store document is corrupt; treating as zero jobs", "path", path, "reason", err)
		return nil
	}
	return doc.Jobs
}
