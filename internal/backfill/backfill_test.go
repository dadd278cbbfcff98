package backfill

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"github.com/fpang/event-asset-backfill/internal/bucket"
	"github.com/fpang/event-asset-backfill/internal/scan"
	"github.com/fpang/event-asset-backfill/internal/transcode"
)

// pngBytes encodes a solid-color image as PNG.
func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// noisePNG encodes deterministic noise, which defeats PNG compression and
// forces the transcoder onto its JPEG fallback.
func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// brokenReads wraps a bucket and fails Read for selected object names,
// simulating a download 404 for an object the listing still reports.
type brokenReads struct {
	bucket.Bucket
	fail map[string]bool
}

func (b *brokenReads) Read(ctx context.Context, name string) ([]byte, error) {
	if b.fail[name] {
		return nil, bucket.ErrObjectNotFound
	}
	return b.Bucket.Read(ctx, name)
}

func TestRunPartialFailureIsolation(t *testing.T) {
	mem := bucket.NewMemoryBucket()
	src := pngBytes(t, 600, 400, color.RGBA{10, 120, 200, 255})
	for _, id := range []string{"a", "b", "c"} {
		mem.Put("events/"+id+"/event_image.png", src, "image/png", time.Now())
	}
	b := &brokenReads{Bucket: mem, fail: map[string]bool{"events/b/event_image.png": true}}

	runner := Runner{RunID: "test", Workers: 3}
	summary := runner.Run(context.Background(), []string{"a", "b", "c"}, &ThumbnailProcessor{
		Bucket:     b,
		Collection: "events",
	})

	if summary.Errors != 1 {
		t.Errorf("Errors = %d, want exactly 1", summary.Errors)
	}
	if summary.Processed != 2 {
		t.Errorf("Processed = %d, want 2", summary.Processed)
	}
	for _, id := range []string{"a", "c"} {
		exists, err := mem.Exists(context.Background(), "events/"+id+"/event_thumbnail.png")
		if err != nil || !exists {
			t.Errorf("thumbnail for %s missing after batch (exists=%v, err=%v)", id, exists, err)
		}
	}
	if exists, _ := mem.Exists(context.Background(), "events/b/event_thumbnail.png"); exists {
		t.Error("failed event b should not have a thumbnail")
	}
}

func TestUploadContentTypeFollowsBytes(t *testing.T) {
	mem := bucket.NewMemoryBucket()
	// Noise makes the PNG encode blow the byte limit, so the search falls
	// back to JPEG even though the object name says .png.
	mem.Put("events/e1/event_image.png", noisePNG(t, 800, 600), "image/png", time.Now())

	p := &ThumbnailProcessor{Bucket: mem, Collection: "events"}
	if err := p.Process(context.Background(), "e1"); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	data, err := mem.Read(context.Background(), "events/e1/event_thumbnail.png")
	if err != nil {
		t.Fatalf("thumbnail not uploaded: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		t.Skip("PNG fit under the limit, JPEG fallback not exercised")
	}
	if ct := mem.ContentType("events/e1/event_thumbnail.png"); ct != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg for JPEG bytes under a .png name", ct)
	}
}

func TestUploadAssetSniffsJPEG(t *testing.T) {
	mem := bucket.NewMemoryBucket()
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x01}

	err := uploadAsset(context.Background(), mem, "events", "e1", scan.RoleThumbnail, jpegData)
	if err != nil {
		t.Fatalf("uploadAsset() error: %v", err)
	}
	if ct := mem.ContentType("events/e1/event_thumbnail.png"); ct != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", ct)
	}
}

func TestImageProcessorRoundTrip(t *testing.T) {
	mem := bucket.NewMemoryBucket()
	mem.Put("events/e1/event_thumbnail.jpg", pngBytes(t, 200, 150, color.RGBA{200, 80, 40, 255}), "image/png", time.Now())

	p := &ImageProcessor{
		Bucket:     mem,
		Collection: "events",
		Options:    transcode.UpscaleOptions{MaxBytes: 1024 * 1024},
	}
	if err := p.Process(context.Background(), "e1"); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	data, err := mem.Read(context.Background(), "events/e1/event_image.png")
	if err != nil {
		t.Fatalf("image not uploaded: %v", err)
	}
	if len(data) > 1024*1024 {
		t.Errorf("uploaded image %d bytes exceeds the 1MB limit", len(data))
	}
}

func TestProcessMissingSourceAsset(t *testing.T) {
	mem := bucket.NewMemoryBucket()
	p := &ThumbnailProcessor{Bucket: mem, Collection: "events"}

	err := p.Process(context.Background(), "ghost")
	if !errors.Is(err, bucket.ErrObjectNotFound) {
		t.Errorf("Process() error = %v, want ErrObjectNotFound", err)
	}
}

func TestDryRunUploadsNothing(t *testing.T) {
	mem := bucket.NewMemoryBucket()
	mem.Put("events/e1/event_image.png", pngBytes(t, 600, 400, color.RGBA{10, 120, 200, 255}), "image/png", time.Now())

	p := &ThumbnailProcessor{Bucket: mem, Collection: "events", DryRun: true}
	if err := p.Process(context.Background(), "e1"); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if exists, _ := mem.Exists(context.Background(), "events/e1/event_thumbnail.png"); exists {
		t.Error("dry run must not upload")
	}
}

func TestRunCancelledContextSkips(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := Runner{RunID: "test", Workers: 2}
	summary := runner.Run(ctx, []string{"a", "b"}, &ThumbnailProcessor{
		Bucket:     bucket.NewMemoryBucket(),
		Collection: "events",
	})

	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2 for a cancelled run", summary.Skipped)
	}
	if summary.Processed != 0 || summary.Errors != 0 {
		t.Errorf("cancelled run should not process or fail events, got %+v", summary)
	}
}
