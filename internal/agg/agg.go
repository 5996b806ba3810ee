// Package agg merges occurrences from remote feeds and local cron jobs into
// one time-ordered list for a query window.
package agg

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"feedcal/internal/cron"
	"feedcal/internal/ics"
	appLog "feedcal/internal/log"
	"feedcal/internal/model"
)

// FeedReader is the slice of the feed cache the collector depends on.
type FeedReader interface {
	GetOrFetch(ctx context.Context, sourceID, url string) []byte
}

// Collector fans a query window out over feed sources and cron jobs.
type Collector struct {
	feeds FeedReader
}

// NewCollector builds a Collector reading feed bodies through feeds.
func NewCollector(feeds FeedReader) *Collector {
	return &Collector{feeds: feeds}
}

// Collect returns every occurrence in [windowStart, windowEnd] across the
// enabled feed sources and cron jobs, sorted ascending by start time.
//
// Feed sources are fetched and parsed concurrently; each source's failure is
// contained to that source, so one dead feed contributes zero events and
// nothing else. Cron expansion has no network dependency and runs inline.
func (c *Collector) Collect(ctx context.Context, windowStart, windowEnd time.Time, sources []model.FeedSource, jobs []model.CronJob) []model.Occurrence {
	out := c.CollectCron(windowStart, windowEnd, jobs)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, src := range sources {
		if !src.Enabled || src.Kind != model.KindFeed || src.URL == "" {
			continue
		}
		wg.Add(1)
		go func(src model.FeedSource) {
			defer wg.Done()
			occ := c.collectFeed(ctx, src, windowStart, windowEnd)
			if len(occ) == 0 {
				return
			}
			mu.Lock()
			out = append(out, occ...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// CollectCron expands only the enabled cron jobs, sorted ascending by start.
func (c *Collector) CollectCron(windowStart, windowEnd time.Time, jobs []model.CronJob) []model.Occurrence {
	out := make([]model.Occurrence, 0)

	for _, job := range jobs {
		if !job.Enabled || job.Schedule.Kind != model.KindCron {
			continue
		}
		times := cron.Occurrences(job.Schedule.Expression, windowStart, windowEnd)
		for _, t := range times {
			occ := model.Occurrence{
				ID:         occurrenceID(job.ID, t.Format(time.RFC3339)),
				Title:      job.Name,
				Start:      t,
				End:        t,
				SourceID:   job.ID,
				SourceName: job.Name,
			}
			if job.Payload != nil {
				occ.Description = job.Payload.Description
			}
			out = append(out, occ)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (c *Collector) collectFeed(ctx context.Context, src model.FeedSource, windowStart, windowEnd time.Time) []model.Occurrence {
	body := c.feeds.GetOrFetch(ctx, src.ID, src.URL)
	if len(body) == 0 {
		// Fetch failed or feed is empty; either way this source is
		// temporarily eventless.
		return nil
	}

	events, err := ics.Parse(ics.Source{ID: src.ID, URL: src.URL}, body, windowStart, windowEnd)
	if err != nil {
		appLog.Error("feed parse failed; serving no events for source", err, "source_id", src.ID)
		return nil
	}

	out := make([]model.Occurrence, 0, len(events))
	for _, ev := range events {
		out = append(out, model.Occurrence{
			ID:          occurrenceID(src.ID, ev.UID, ev.Start.Format(time.RFC3339)),
			Title:       ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			AllDay:      ev.AllDay,
			Start:       ev.Start,
			End:         ev.End,
			SourceID:    src.ID,
			SourceName:  src.Name,
			Color:       src.Color,
		})
	}
	return out
}

// occurrenceID derives a stable identifier from its parts, so repeated
// queries yield the same id for the same underlying instance.
func occurrenceID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
