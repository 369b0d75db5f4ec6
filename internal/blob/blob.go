// Package blob defines the tenant-scoped object storage contract for
// uploaded document bytes.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Store is write-once object storage with resolvable download URLs.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectKey builds a collision-resistant tenant-scoped key:
// <tenant>/<unix-timestamp>_<filename>.
func ObjectKey(tenantID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", tenantID, now.UnixNano(), filename)
}
