package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

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
	bucketFlag     string
	collectionFlag string
	workersFlag    int
	policyFlag     string
	limitFlag      int
	daysFlag       int
	maxBytesFlag   int
	targetFlag     int
	dryRunFlag     bool
)

// rootCmd is the main Cobra command for the backfill-images CLI.
var rootCmd = &cobra.Command{
	Use:   "backfill-images",
	Short: "Generate missing full-size event images from thumbnails",
	Long: `Backfill Images scans a Firebase Storage collection for events that have
an event_thumbnail but no event_image, then downloads each thumbnail,
upscales it into an 800x800 bounding box with sharpening and a mild color
lift, and uploads the result. With --max-bytes the output additionally
goes through the quality/scale search to stay under the byte limit.

Selection policies over the same scan:
  all           every matching event (default)
  window        matching events whose thumbnail was created in the last --days days
  newest        matching events sorted newest first, capped at --limit
  reverse-scan  walk the listing backwards and stop after --limit matches,
                probing each candidate's image directly

Examples:
  backfill-images --bucket my-app.appspot.com
  backfill-images --bucket my-app.appspot.com --policy window --days 90
  backfill-images --bucket my-app.appspot.com --policy newest --limit 100
  backfill-images --bucket my-app.appspot.com --max-bytes 1048576`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "Storage bucket name (or EVENT_STORAGE_BUCKET)")
	rootCmd.Flags().StringVarP(&collectionFlag, "collection", "c", "events", "Collection prefix to scan")
	rootCmd.Flags().IntVarP(&workersFlag, "workers", "w", backfill.DefaultWorkers, "Parallel upload workers")
	rootCmd.Flags().StringVarP(&policyFlag, "policy", "p", "all", "Selection policy: all, window, newest, reverse-scan")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 100, "Maximum events for newest/reverse-scan policies (0 = unlimited)")
	rootCmd.Flags().IntVar(&daysFlag, "days", 90, "Lookback window in days for the window policy")
	rootCmd.Flags().IntVar(&maxBytesFlag, "max-bytes", 0, "Output byte size limit (0 = no limit)")
	rootCmd.Flags().IntVar(&targetFlag, "target", 800, "Bounding box edge in pixels")
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
	logging.NewRunLogger("backfill-images", runID).
		Bucket(bucketName).
		Collection(collectionFlag).
		Workers(workersFlag).
		Feature("dryRun", dryRunFlag).
		Config("policy", policyFlag).
		Config("maxBytes", fmt.Sprintf("%d", maxBytesFlag)).
		Config("target", fmt.Sprintf("%d", targetFlag)).
		Log()

	client, err := bucket.NewClient(ctx, bucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}
	b, err := client.Bucket(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage bucket")
	}

	selected, err := selectEvents(ctx, b)
	if err != nil {
		log.Error().Err(err).Str("collection", collectionFlag).Msg("Event selection failed, nothing to do")
		return
	}
	if len(selected) == 0 {
		log.Info().Str("collection", collectionFlag).Msg("No images needed")
		return
	}
	log.Info().
		Int("selected", len(selected)).
		Str("policy", policyFlag).
		Str("collection", collectionFlag).
		Msg("Events needing images")

	runner := backfill.Runner{RunID: runID, Workers: workersFlag}
	summary := runner.Run(ctx, selected, &backfill.ImageProcessor{
		Bucket:     b,
		Collection: collectionFlag,
		Options: transcode.UpscaleOptions{
			TargetWidth:  targetFlag,
			TargetHeight: targetFlag,
			MaxBytes:     maxBytesFlag,
		},
		DryRun: dryRunFlag,
	})
	summary.LogSummary()

	if ctx.Err() != nil {
		log.Warn().Msg("Interrupted, partial progress has been retained in storage")
	}
}

// selectEvents applies the configured selection policy.
func selectEvents(ctx context.Context, b bucket.Bucket) ([]string, error) {
	if policyFlag == "reverse-scan" {
		return scan.SelectReverseScan(ctx, b, collectionFlag, scan.RoleImage, limitFlag)
	}

	events, err := scan.Collection(ctx, b, collectionFlag)
	if err != nil {
		return nil, err
	}

	switch policyFlag {
	case "all":
		return scan.SelectAll(events, scan.NeedsImage), nil
	case "window":
		since := time.Now().AddDate(0, 0, -daysFlag)
		return scan.SelectWindow(events, scan.NeedsImage, since), nil
	case "newest":
		return scan.SelectNewest(events, scan.NeedsImage, limitFlag), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", policyFlag)
	}
}
