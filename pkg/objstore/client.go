package objstore

import "context"

// Client talks to the object storage gateway. Get fetches a payload by
// storage key; SignedURL mints a short-lived public URL for the same key.
type Client interface {
	Get(ctx context.Context, fileKey string) ([]byte, error)
	SignedURL(ctx context.Context, fileKey string) (string, error)
}
