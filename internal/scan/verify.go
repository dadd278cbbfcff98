package scan

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Verifier cross-checks storage-derived events against Firestore. An event
// folder whose document has been deleted is an orphan: backfilling it
// wastes work, so scan-events can flag those before a batch is run.
type Verifier struct {
	client *firestore.Client
}

// NewVerifier wraps a Firestore client. The caller owns the client.
func NewVerifier(client *firestore.Client) *Verifier {
	return &Verifier{client: client}
}

// DocumentExists reports whether {collection}/{eventID} still has a
// backing Firestore document. NotFound is not an error.
func (v *Verifier) DocumentExists(ctx context.Context, collection, eventID string) (bool, error) {
	_, err := v.client.Collection(collection).Doc(eventID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get document %s/%s: %w", collection, eventID, err)
	}
	return true, nil
}
