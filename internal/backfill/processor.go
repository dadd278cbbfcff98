package backfill

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fpang/event-asset-backfill/internal/bucket"
	"github.com/fpang/event-asset-backfill/internal/scan"
	"github.com/fpang/event-asset-backfill/internal/transcode"
)

// downloadAsset fetches an event's asset for the given role, trying the
// PNG name first and then JPG.
func downloadAsset(ctx context.Context, b bucket.Bucket, collection, eventID string, role scan.Role) ([]byte, error) {
	for _, ext := range []string{"png", "jpg"} {
		name := scan.ObjectName(collection, eventID, role, ext)
		exists, err := b.Exists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", name, err)
		}
		if exists {
			log.Debug().Str("object", name).Msg("Downloading source asset")
			return b.Read(ctx, name)
		}
	}
	return nil, fmt.Errorf("%s/%s: no %s asset: %w", collection, eventID, role, bucket.ErrObjectNotFound)
}

// uploadAsset writes transcoded bytes under the role's canonical PNG name.
// The content type comes from a magic-byte sniff of the output, since the
// size search may have fallen back from PNG to JPEG.
func uploadAsset(ctx context.Context, b bucket.Bucket, collection, eventID string, role scan.Role, data []byte) error {
	name := scan.ObjectName(collection, eventID, role, "png")
	contentType := bucket.SniffContentType(data)
	if err := b.Write(ctx, name, data, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	log.Info().
		Str("object", name).
		Int("size", len(data)).
		Str("contentType", contentType).
		Msg("Uploaded asset")
	return nil
}

// ThumbnailProcessor backfills the thumbnail of an event that has a
// full-size image.
type ThumbnailProcessor struct {
	Bucket     bucket.Bucket
	Collection string
	Options    transcode.ThumbnailOptions
	DryRun     bool
}

func (p *ThumbnailProcessor) Process(ctx context.Context, eventID string) error {
	src, err := downloadAsset(ctx, p.Bucket, p.Collection, eventID, scan.RoleImage)
	if err != nil {
		return err
	}

	res, err := transcode.Thumbnail(src, p.Options)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", p.Collection, eventID, err)
	}
	log.Debug().
		Str("event", eventID).
		Str("format", res.Format).
		Int("width", res.Width).
		Int("height", res.Height).
		Int("size", len(res.Data)).
		Msg("Thumbnail generated")

	if p.DryRun {
		log.Info().Str("event", eventID).Int("size", len(res.Data)).Msg("Dry run, skipping upload")
		return nil
	}
	return uploadAsset(ctx, p.Bucket, p.Collection, eventID, scan.RoleThumbnail, res.Data)
}

// ImageProcessor backfills the full-size image of an event that only has
// a thumbnail.
type ImageProcessor struct {
	Bucket     bucket.Bucket
	Collection string
	Options    transcode.UpscaleOptions
	DryRun     bool
}

func (p *ImageProcessor) Process(ctx context.Context, eventID string) error {
	src, err := downloadAsset(ctx, p.Bucket, p.Collection, eventID, scan.RoleThumbnail)
	if err != nil {
		return err
	}

	res, err := transcode.Upscale(src, p.Options)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", p.Collection, eventID, err)
	}
	log.Debug().
		Str("event", eventID).
		Str("format", res.Format).
		Int("width", res.Width).
		Int("height", res.Height).
		Int("size", len(res.Data)).
		Msg("Image generated")

	if p.DryRun {
		log.Info().Str("event", eventID).Int("size", len(res.Data)).Msg("Dry run, skipping upload")
		return nil
	}
	return uploadAsset(ctx, p.Bucket, p.Collection, eventID, scan.RoleImage, res.Data)
}
