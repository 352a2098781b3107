package blob

import (
	"context"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dubber/internal/store"
)

var _ store.BlobStore = (*PlaceholderStore)(nil)

// PlaceholderStore stands in for object storage when it is disabled. Uploads
// are discarded and keys/URLs are derived deterministically from the clock.
type PlaceholderStore struct {
	baseURL string
	now     func() time.Time
}

func NewPlaceholderStore(baseURL string) *PlaceholderStore {
	return &PlaceholderStore{baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// WithClock replaces the time source.
func (p *PlaceholderStore) WithClock(now func() time.Time) *PlaceholderStore {
	p.now = now
	return p
}

func (p *PlaceholderStore) Store(_ context.Context, obj store.BlobObject) (string, error) {
	if obj.Body != nil {
		if _, err := io.Copy(io.Discard, obj.Body); err != nil {
			log.WithError(err).Debug("Failed to drain placeholder upload")
		}
	}
	key := "dummy-key-" + newObjectKey(obj.Name, p.now())
	log.WithField("key", key).Warn("Object storage disabled, upload not persisted")
	return key, nil
}

func (p *PlaceholderStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return p.baseURL + "/dummy-download/" + key, nil
}
