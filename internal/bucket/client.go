package bucket

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Client wraps an initialized Firebase Admin app and exposes the storage
// bucket and, on demand, a Firestore client.
type Client struct {
	app *firebase.App
}

// NewClient initializes the Firebase Admin SDK with the given default
// storage bucket. Credentials are resolved via ServiceAccountPath; if no
// key file is found the SDK falls back to ambient default credentials.
func NewClient(ctx context.Context, bucketName string) (*Client, error) {
	opts := []option.ClientOption{}
	if path := ServiceAccountPath(); path != "" {
		log.Info().Str("path", path).Msg("Using service account key")
		opts = append(opts, option.WithCredentialsFile(path))
	} else {
		log.Info().Msg("No service account key found, using default credentials")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucketName}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	return &Client{app: app}, nil
}

// Bucket returns the default storage bucket of the app.
func (c *Client) Bucket(ctx context.Context) (*GCSBucket, error) {
	storageClient, err := c.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	handle, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("default bucket: %w", err)
	}
	return NewGCSBucket(handle), nil
}

// Firestore returns a Firestore client for the app's project.
// The caller owns the client and must Close it.
func (c *Client) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := c.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}

// ServiceAccountPath returns the path to a service account key file if one
// can be found. Environment variables are checked first, then a fixed list
// of conventional locations relative to the working directory.
func ServiceAccountPath() string {
	for _, envVar := range []string{"GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_KEY"} {
		if path := os.Getenv(envVar); path != "" {
			return path
		}
	}

	candidates := []string{
		"./serviceAccountKey.json",
		"../serviceAccountKey.json",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "serviceAccountKey.json"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
