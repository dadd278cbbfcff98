package scan

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/fpang/event-asset-backfill/internal/bucket"
)

var day = 24 * time.Hour

func seedBucket(names map[string]time.Time) *bucket.MemoryBucket {
	b := bucket.NewMemoryBucket()
	for name, created := range names {
		b.Put(name, []byte("x"), "image/png", created)
	}
	return b
}

func TestCollectionClassification(t *testing.T) {
	b := seedBucket(map[string]time.Time{
		"events/e1/event_image.png":     {},
		"events/e2/event_image.png":     {},
		"events/e2/event_thumbnail.png": {},
	})

	events, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}

	e1 := events["e1"]
	if e1 == nil || !NeedsThumbnail(e1) {
		t.Errorf("e1 should need a thumbnail, got %+v", e1)
	}
	e2 := events["e2"]
	if e2 == nil || NeedsThumbnail(e2) || NeedsImage(e2) {
		t.Errorf("e2 should be complete, got %+v", e2)
	}
}

func TestCollectionIgnoresShortNames(t *testing.T) {
	b := seedBucket(map[string]time.Time{
		"events/stray.png":          {},
		"events/e1/event_image.jpg": {},
	})

	events, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1 (stray two-segment name must be ignored)", len(events))
	}
	if ev := events["e1"]; ev == nil || !ev.HasImage {
		t.Errorf("jpg variant should set HasImage, got %+v", ev)
	}
}

func TestCollectionIdempotent(t *testing.T) {
	b := seedBucket(map[string]time.Time{
		"events/e1/event_image.png":     {},
		"events/e2/event_image.png":     {},
		"events/e2/event_thumbnail.png": {},
		"events/e3/event_thumbnail.png": {},
	})

	first, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	a := SelectAll(first, NeedsThumbnail)
	c := SelectAll(second, NeedsThumbnail)
	sort.Strings(a)
	sort.Strings(c)
	if len(a) != len(c) {
		t.Fatalf("selections differ in size: %v vs %v", a, c)
	}
	for i := range a {
		if a[i] != c[i] {
			t.Errorf("selections differ: %v vs %v", a, c)
			break
		}
	}
}

func TestSummarize(t *testing.T) {
	b := seedBucket(map[string]time.Time{
		"events/e1/event_image.png":     {},
		"events/e2/event_image.png":     {},
		"events/e2/event_thumbnail.png": {},
		"events/e3/event_thumbnail.png": {},
	})
	events, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}

	stats := Summarize(events)
	want := Stats{Total: 3, WithImage: 2, WithThumbnail: 2, NeedThumbnail: 1, NeedImage: 1}
	if stats != want {
		t.Errorf("Summarize() = %+v, want %+v", stats, want)
	}
}

func TestSelectWindow(t *testing.T) {
	now := time.Now()
	b := seedBucket(map[string]time.Time{
		"events/old/event_thumbnail.png":    now.Add(-120 * day),
		"events/recent/event_thumbnail.png": now.Add(-10 * day),
	})
	events, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}

	selected := SelectWindow(events, NeedsImage, now.Add(-90*day))
	if len(selected) != 1 || selected[0] != "recent" {
		t.Errorf("SelectWindow() = %v, want [recent]", selected)
	}
}

func TestSelectNewest(t *testing.T) {
	now := time.Now()
	b := seedBucket(map[string]time.Time{
		"events/a/event_thumbnail.png": now.Add(-3 * day),
		"events/b/event_thumbnail.png": now.Add(-1 * day),
		"events/c/event_thumbnail.png": now.Add(-2 * day),
		// Complete event, never selected even though it is newest.
		"events/d/event_thumbnail.png": now,
		"events/d/event_image.png":     now,
	})
	events, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}

	selected := SelectNewest(events, NeedsImage, 2)
	want := []string{"b", "c"}
	if len(selected) != 2 || selected[0] != want[0] || selected[1] != want[1] {
		t.Errorf("SelectNewest() = %v, want %v", selected, want)
	}
}

func TestSelectReverseScan(t *testing.T) {
	b := seedBucket(map[string]time.Time{
		"events/a/event_thumbnail.png": {},
		"events/b/event_thumbnail.png": {},
		"events/c/event_thumbnail.png": {},
		"events/c/event_image.png":     {},
	})

	// Listing is lexicographic, so reverse order visits c, b, a. Event c
	// already has its image and must be passed over.
	selected, err := SelectReverseScan(context.Background(), b, "events", RoleImage, 1)
	if err != nil {
		t.Fatalf("SelectReverseScan() error: %v", err)
	}
	if len(selected) != 1 || selected[0] != "b" {
		t.Errorf("SelectReverseScan() = %v, want [b]", selected)
	}
}

func TestSelectAllNeverSelectsSatisfied(t *testing.T) {
	b := seedBucket(map[string]time.Time{
		"events/done/event_image.png":     {},
		"events/done/event_thumbnail.png": {},
	})
	events, err := Collection(context.Background(), b, "events")
	if err != nil {
		t.Fatalf("Collection() error: %v", err)
	}
	if got := SelectAll(events, NeedsThumbnail); len(got) != 0 {
		t.Errorf("SelectAll() selected complete event: %v", got)
	}
	if got := SelectAll(events, NeedsImage); len(got) != 0 {
		t.Errorf("SelectAll() selected complete event: %v", got)
	}
}

func TestMatchRole(t *testing.T) {
	tests := []struct {
		filename string
		wantRole Role
		wantOK   bool
	}{
		{"event_image.png", RoleImage, true},
		{"event_image.jpg", RoleImage, true},
		{"event_thumbnail.png", RoleThumbnail, true},
		{"event_thumbnail.jpg", RoleThumbnail, true},
		{"event_image.jpeg", "", false},
		{"banner.png", "", false},
	}
	for _, tt := range tests {
		role, ok := matchRole(tt.filename)
		if role != tt.wantRole || ok != tt.wantOK {
			t.Errorf("matchRole(%q) = (%q, %v), want (%q, %v)",
				tt.filename, role, ok, tt.wantRole, tt.wantOK)
		}
	}
}
