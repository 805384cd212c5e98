package ports

import "time"

type Policy struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
	BucketWidth   time.Duration `yaml:"bucket_width"`
	Concurrency   int           `yaml:"concurrency"` // streams synced in parallel; 1 keeps configured order
}
