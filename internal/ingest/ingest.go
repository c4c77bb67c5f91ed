// Package ingest turns raw records into the event collection the pipeline works on.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"browsify-profiler/internal/models"
)

// Clean keeps records with a URL and a parsable timestamp, in input order.
// Dropped records are counted, never fatal.
func Clean(records []models.RawRecord, layouts []string) (models.EventCollection, int) {
	events := make(models.EventCollection, 0, len(records))
	skipped := 0
	for _, r := range records {
		u := strings.TrimSpace(r.URL)
		if u == "" {
			skipped++
			continue
		}
		ts, ok := ParseTimestamp(r.Timestamp, layouts)
		if !ok {
			skipped++
			continue
		}
		events = append(events, models.Event{URL: u, Timestamp: ts, ClusterID: models.NoCluster})
	}
	return events, skipped
}

// epoch values outside [1990, 2100) are not timestamps
var (
	minEpoch = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxEpoch = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
)

// ParseTimestamp tries layouts in order, then unix epoch seconds or milliseconds.
// Zoned inputs keep their zone; naive ones are UTC.
func ParseTimestamp(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	switch {
	case n >= minEpoch && n < maxEpoch:
		return time.Unix(n, 0).UTC(), true
	case n >= minEpoch*1000 && n < maxEpoch*1000:
		return time.UnixMilli(n).UTC(), true
	}
	return time.Time{}, false
}

type visitKey struct {
	url string
	ts  int64
}

// Dedupe drops events with an identical (url, timestamp) pair, keeping the first.
func Dedupe(events models.EventCollection) (models.EventCollection, int) {
	seen := make(map[visitKey]struct{}, len(events))
	out := make(models.EventCollection, 0, len(events))
	for _, e := range events {
		k := visitKey{url: e.URL, ts: e.Timestamp.UnixNano()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out, len(events) - len(out)
}
