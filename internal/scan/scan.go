// Package scan classifies the events stored under a collection prefix by
// which derived assets they already have, and selects the subset needing
// backfill work.
//
// The storage layout is the only protocol this repository depends on:
// objects are keyed {collection}/{eventId}/{filename}, with the recognized
// filenames event_image.{png,jpg} and event_thumbnail.{png,jpg}.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fpang/event-asset-backfill/internal/bucket"
)

// Role identifies one of the two derived assets an event folder can hold.
type Role string

const (
	RoleImage     Role = "event_image"
	RoleThumbnail Role = "event_thumbnail"
)

// Extensions tried when resolving a role to a concrete object, in order.
var roleExtensions = []string{"png", "jpg"}

// Event records which assets exist for one event folder. Events are
// transient: they are reconstructed by scanning on every run and never
// persisted.
type Event struct {
	ID               string
	HasImage         bool
	HasThumbnail     bool
	ImageCreated     time.Time
	ThumbnailCreated time.Time
}

// ObjectName builds the canonical object name for a role with the given
// extension.
func ObjectName(collection, eventID string, role Role, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", collection, eventID, role, ext)
}

// Complement returns the opposite role.
func (r Role) Complement() Role {
	if r == RoleImage {
		return RoleThumbnail
	}
	return RoleImage
}

// matchRole reports which role, if any, a bare filename belongs to.
func matchRole(filename string) (Role, bool) {
	switch filename {
	case "event_image.png", "event_image.jpg":
		return RoleImage, true
	case "event_thumbnail.png", "event_thumbnail.jpg":
		return RoleThumbnail, true
	}
	return "", false
}

// Collection lists every object under collection/ in a single pass and
// groups them into Events keyed by the second path segment. Names with
// fewer than three segments are ignored. Read-only.
func Collection(ctx context.Context, b bucket.Bucket, collection string) (map[string]*Event, error) {
	objects, err := b.List(ctx, collection+"/")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}

	events := make(map[string]*Event)
	for _, obj := range objects {
		parts := strings.Split(obj.Name, "/")
		if len(parts) < 3 {
			continue
		}
		eventID, filename := parts[1], parts[2]

		ev, ok := events[eventID]
		if !ok {
			ev = &Event{ID: eventID}
			events[eventID] = ev
		}

		role, ok := matchRole(filename)
		if !ok {
			continue
		}
		switch role {
		case RoleImage:
			ev.HasImage = true
			ev.ImageCreated = obj.Created
		case RoleThumbnail:
			ev.HasThumbnail = true
			ev.ThumbnailCreated = obj.Created
		}
	}
	return events, nil
}

// NeedsThumbnail selects events that have an image but no thumbnail.
func NeedsThumbnail(ev *Event) bool {
	return ev.HasImage && !ev.HasThumbnail
}

// NeedsImage selects events that have a thumbnail but no full-size image.
func NeedsImage(ev *Event) bool {
	return ev.HasThumbnail && !ev.HasImage
}

// QualifyingTime returns the creation time of the asset an event would be
// selected by: for an event missing a thumbnail that is the image, and
// vice versa.
func (ev *Event) QualifyingTime() time.Time {
	if NeedsThumbnail(ev) {
		return ev.ImageCreated
	}
	return ev.ThumbnailCreated
}

// Stats summarizes a scanned event map.
type Stats struct {
	Total         int
	WithImage     int
	WithThumbnail int
	NeedThumbnail int
	NeedImage     int
}

// Summarize computes Stats over a scanned event map.
func Summarize(events map[string]*Event) Stats {
	var s Stats
	s.Total = len(events)
	for _, ev := range events {
		if ev.HasImage {
			s.WithImage++
		}
		if ev.HasThumbnail {
			s.WithThumbnail++
		}
		if NeedsThumbnail(ev) {
			s.NeedThumbnail++
		}
		if NeedsImage(ev) {
			s.NeedImage++
		}
	}
	return s
}
