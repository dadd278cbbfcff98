package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/event-asset-backfill/internal/bucket"
	"github.com/fpang/event-asset-backfill/internal/logging"
	"github.com/fpang/event-asset-backfill/internal/scan"
)

// CLI flags
var (
	bucketFlag     string
	collectionFlag string
	eventFlag      string
	verifyFlag     bool
)

// rootCmd is the main Cobra command for the scan-events CLI.
var rootCmd = &cobra.Command{
	Use:   "scan-events",
	Short: "Report which events are missing derived image assets",
	Long: `Scan Events lists a Firebase Storage collection and reports how many
events have images, thumbnails, or are missing one of the two. Read-only.

With --event it inspects a single event folder instead, printing every
object with its size, content type, and creation time. With --verify each
event needing work is cross-checked against Firestore to flag storage
folders whose event document no longer exists.

Examples:
  scan-events --bucket my-app.appspot.com
  scan-events --bucket my-app.appspot.com --collection bayAreaEvents --verify
  scan-events --bucket my-app.appspot.com --event h80MO3jjS0Oihzx66L2r`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "Storage bucket name (or EVENT_STORAGE_BUCKET)")
	rootCmd.Flags().StringVarP(&collectionFlag, "collection", "c", "events", "Collection prefix to scan")
	rootCmd.Flags().StringVarP(&eventFlag, "event", "e", "", "Inspect a single event folder")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "Cross-check events needing work against Firestore")
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

	ctx := context.Background()

	logging.NewRunLogger("scan-events", uuid.NewString()).
		Bucket(bucketName).
		Collection(collectionFlag).
		Feature("verify", verifyFlag).
		Log()

	client, err := bucket.NewClient(ctx, bucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}
	b, err := client.Bucket(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage bucket")
	}

	if eventFlag != "" {
		inspectEvent(ctx, b, eventFlag)
		return
	}

	events, err := scan.Collection(ctx, b, collectionFlag)
	if err != nil {
		log.Error().Err(err).Str("collection", collectionFlag).Msg("Scan failed")
		return
	}

	stats := scan.Summarize(events)
	fmt.Printf("Collection %s:\n", collectionFlag)
	fmt.Printf("  Total events:             %d\n", stats.Total)
	fmt.Printf("  Events with images:       %d\n", stats.WithImage)
	fmt.Printf("  Events with thumbnails:   %d\n", stats.WithThumbnail)
	fmt.Printf("  Events needing thumbnail: %d\n", stats.NeedThumbnail)
	fmt.Printf("  Events needing image:     %d\n", stats.NeedImage)

	if !verifyFlag {
		return
	}

	fsClient, err := client.Firestore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Firestore client")
	}
	defer fsClient.Close()
	verifier := scan.NewVerifier(fsClient)

	needing := append(
		scan.SelectAll(events, scan.NeedsThumbnail),
		scan.SelectAll(events, scan.NeedsImage)...,
	)
	orphans := 0
	for _, id := range needing {
		exists, err := verifier.DocumentExists(ctx, collectionFlag, id)
		if err != nil {
			log.Warn().Err(err).Str("event", id).Msg("Firestore check failed")
			continue
		}
		if !exists {
			orphans++
			fmt.Printf("  Orphaned storage folder (no Firestore document): %s/%s\n", collectionFlag, id)
		}
	}
	fmt.Printf("  Orphaned folders among events needing work: %d of %d\n", orphans, len(needing))
}

// inspectEvent prints every object under one event folder.
func inspectEvent(ctx context.Context, b bucket.Bucket, eventID string) {
	prefix := fmt.Sprintf("%s/%s/", collectionFlag, eventID)
	objects, err := b.List(ctx, prefix)
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("List failed")
		return
	}
	if len(objects) == 0 {
		fmt.Printf("No objects under %s\n", prefix)
		return
	}

	fmt.Printf("Objects under %s:\n", prefix)
	for _, obj := range objects {
		fmt.Printf("  %s  %d bytes  %s  created %s\n",
			obj.Name, obj.Size, obj.ContentType, obj.Created.Format("2006-01-02 15:04:05"))
	}
}
