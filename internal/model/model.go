package model

import "time"

// Source kinds. Cron sources have no URL; their occurrences come from the
// job store, not from a remote feed.
const (
	KindFeed = "feed"
	KindCron = "cron"
)

// FeedSource describes one configured event source. The record itself is
// owned by the source store; the aggregation core only reads it.
type FeedSource struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	URL     string `yaml:"url,omitempty" json:"url,omitempty"`
	Color   string `yaml:"color,omitempty" json:"color,omitempty"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Kind    string `yaml:"kind" json:"kind"`
}

// Schedule describes when a cron job fires. Timezone is carried through from
// the job document but expansion treats all timestamps as one timeline.
type Schedule struct {
	Kind       string `yaml:"kind" json:"kind"`
	Expression string `yaml:"expression" json:"expression"`
	Timezone   string `yaml:"timezone,omitempty" json:"timezone,omitempty"`
}

// JobPayload holds optional display data attached to a job. Only Description
// is surfaced; it becomes the occurrence description text.
type JobPayload struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// CronJob is a locally-defined recurring job from the job store.
type CronJob struct {
	ID       string      `yaml:"id" json:"id"`
	Name     string      `yaml:"name" json:"name"`
	Enabled  bool        `yaml:"enabled" json:"enabled"`
	Schedule Schedule    `yaml:"schedule" json:"schedule"`
	Payload  *JobPayload `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// Occurrence is a single concrete event instance after recurrence expansion.
// Occurrences are created fresh on every query and never mutated afterwards.
// End is always at or after Start.
type Occurrence struct {
	// ID is stable across repeated queries for the same underlying
	// event instance.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	AllDay bool `json:"all_day"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name,omitempty"`
	Color      string `json:"color,omitempty"`
}
