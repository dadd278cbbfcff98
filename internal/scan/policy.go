package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/event-asset-backfill/internal/bucket"
)

// Predicate decides whether an event needs work.
type Predicate func(*Event) bool

// SelectAll returns every event satisfying pred, unordered.
func SelectAll(events map[string]*Event, pred Predicate) []string {
	var selected []string
	for id, ev := range events {
		if pred(ev) {
			selected = append(selected, id)
		}
	}
	return selected
}

// SelectWindow returns every event satisfying pred whose qualifying asset
// was created at or after since.
func SelectWindow(events map[string]*Event, pred Predicate, since time.Time) []string {
	var selected []string
	for id, ev := range events {
		if pred(ev) && !ev.QualifyingTime().Before(since) {
			selected = append(selected, id)
		}
	}
	return selected
}

// SelectNewest returns up to limit events satisfying pred, newest
// qualifying asset first. Events without a recorded timestamp sort last.
func SelectNewest(events map[string]*Event, pred Predicate, limit int) []string {
	type dated struct {
		id string
		t  time.Time
	}
	var candidates []dated
	for id, ev := range events {
		if pred(ev) {
			candidates = append(candidates, dated{id: id, t: ev.QualifyingTime()})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].t.Equal(candidates[j].t) {
			return candidates[i].t.After(candidates[j].t)
		}
		return candidates[i].id < candidates[j].id
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	selected := make([]string, 0, len(candidates))
	for _, c := range candidates {
		selected = append(selected, c.id)
	}
	return selected
}

// SelectReverseScan walks the raw listing in reverse order and returns up
// to limit events that have the qualifying asset for role's complement
// missing. Recent uploads tend to sort late in the listing, so reverse
// iteration reaches them first and the scan can stop early. Each candidate
// costs one existence probe for the complementary asset.
func SelectReverseScan(ctx context.Context, b bucket.Bucket, collection string, need Role, limit int) ([]string, error) {
	objects, err := b.List(ctx, collection+"/")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}

	have := need.Complement()
	var selected []string
	checked := make(map[string]bool)

	for i := len(objects) - 1; i >= 0; i-- {
		if limit > 0 && len(selected) >= limit {
			break
		}
		parts := strings.Split(objects[i].Name, "/")
		if len(parts) < 3 {
			continue
		}
		eventID, filename := parts[1], parts[2]
		if checked[eventID] {
			continue
		}

		role, ok := matchRole(filename)
		if !ok || role != have {
			continue
		}
		checked[eventID] = true

		exists, err := eventHasAsset(ctx, b, collection, eventID, need)
		if err != nil {
			log.Warn().Err(err).Str("event", eventID).Msg("Existence check failed, skipping candidate")
			continue
		}
		if !exists {
			selected = append(selected, eventID)
		}
	}
	return selected, nil
}

// eventHasAsset probes for either extension of the role's asset.
func eventHasAsset(ctx context.Context, b bucket.Bucket, collection, eventID string, role Role) (bool, error) {
	for _, ext := range roleExtensions {
		exists, err := b.Exists(ctx, ObjectName(collection, eventID, role, ext))
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}
