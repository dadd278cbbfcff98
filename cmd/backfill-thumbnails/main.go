package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/event-asset-backfill/internal/backfill"
	"github.com/fpang/event-asset-backfill/internal/bucket"
	"github.com/fpang/event-asset-backfill/internal/logging"
	"github.com/fpang/event-asset-backfill/internal/scan"
	"github.com/fpang/event-asset-backfill/internal/transcode"
)

// CLI flags
var (
	bucketFlag       string
	collectionFlag   string
	workersFlag      int
	limitFlag        int
	maxBytesFlag     int
	maxDimensionFlag int
	dryRunFlag       bool
)

// rootCmd is the main Cobra command for the backfill-thumbnails CLI.
var rootCmd = &cobra.Command{
	Use:   "backfill-thumbnails",
	Short: "Generate missing event thumbnails from full-size images",
	Long: `Backfill Thumbnails scans a Firebase Storage collection for events that
have an event_image but no event_thumbnail, then downloads each image,
downscales it to a 400px aspect-preserving thumbnail under a 63KB size
limit, and uploads the result.

Re-running is safe: the selection is recomputed from current storage state
on every run, so finished events are naturally excluded.

Examples:
  backfill-thumbnails --bucket my-app.appspot.com
  backfill-thumbnails --bucket my-app.appspot.com --collection bayAreaEvents
  backfill-thumbnails --bucket my-app.appspot.com --limit 50 --dry-run`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "Storage bucket name (or EVENT_STORAGE_BUCKET)")
	rootCmd.Flags().StringVarP(&collectionFlag, "collection", "c", "events", "Collection prefix to scan")
	rootCmd.Flags().IntVarP(&workersFlag, "workers", "w", backfill.DefaultWorkers, "Parallel upload workers")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum events to process (0 = unlimited)")
	rootCmd.Flags().IntVar(&maxBytesFlag, "max-bytes", 63*1024, "Thumbnail byte size limit")
	rootCmd.Flags().IntVar(&maxDimensionFlag, "max-dimension", 400, "Thumbnail long-edge limit in pixels")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Transcode without uploading")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	bucketName := bucketFlag
	if bucketName == "" {
		bucketName = logging.EnvOrDefault("EVENT_STORAGE_BUCKET", "")
	}
	if bucketName == "" {
		log.Fatal().Msg("--bucket or EVENT_STORAGE_BUCKET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	logging.NewRunLogger("backfill-thumbnails", runID).
		Bucket(bucketName).
		Collection(collectionFlag).
		Workers(workersFlag).
		Feature("dryRun", dryRunFlag).
		Config("maxBytes", fmt.Sprintf("%d", maxBytesFlag)).
		Config("maxDimension", fmt.Sprintf("%d", maxDimensionFlag)).
		Log()

	client, err := bucket.NewClient(ctx, bucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}
	b, err := client.Bucket(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage bucket")
	}

	events, err := scan.Collection(ctx, b, collectionFlag)
	if err != nil {
		log.Error().Err(err).Str("collection", collectionFlag).Msg("Scan failed, nothing to do")
		return
	}

	selected := scan.SelectAll(events, scan.NeedsThumbnail)
	if limitFlag > 0 && len(selected) > limitFlag {
		selected = selected[:limitFlag]
	}
	if len(selected) == 0 {
		log.Info().Str("collection", collectionFlag).Msg("No thumbnails needed")
		return
	}
	log.Info().
		Int("selected", len(selected)).
		Str("collection", collectionFlag).
		Msg("Events needing thumbnails")

	runner := backfill.Runner{RunID: runID, Workers: workersFlag}
	summary := runner.Run(ctx, selected, &backfill.ThumbnailProcessor{
		Bucket:     b,
		Collection: collectionFlag,
		Options: transcode.ThumbnailOptions{
			MaxDimension: maxDimensionFlag,
			MaxBytes:     maxBytesFlag,
		},
		DryRun: dryRunFlag,
	})
	summary.LogSummary()

	if ctx.Err() != nil {
		log.Warn().Msg("Interrupted, partial progress has been retained in storage")
	}
}
