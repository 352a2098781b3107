package blob

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubber/internal/store"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "1700000000123_ab12cd34_clip.mp4", ObjectKey("clip.mp4", now, "ab12cd34"))
	assert.Equal(t, "1700000000123_ab12cd34_clip.mp4", ObjectKey("../videos/clip.mp4", now, "ab12cd34"))
	assert.Equal(t, "1700000000123_ab12cd34_clip.mp4", ObjectKey(`C:\videos\clip.mp4`, now, "ab12cd34"))
	assert.Equal(t, "1700000000123_ab12cd34_upload", ObjectKey("", now, "ab12cd34"))
}

func TestNewObjectKey_SameNameSameMillisecondDiffers(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	first := newObjectKey("clip.mp4", now)
	second := newObjectKey("clip.mp4", now)

	assert.Regexp(t, `^1700000000123_[0-9a-f]{8}_clip\.mp4$`, first)
	assert.Regexp(t, `^1700000000123_[0-9a-f]{8}_clip\.mp4$`, second)
	assert.NotEqual(t, first, second)
}

func TestPlaceholderStore(t *testing.T) {
	p := NewPlaceholderStore("http://localhost:8080/").WithClock(func() time.Time {
		return time.UnixMilli(42)
	})

	key, err := p.Store(context.Background(), store.BlobObject{
		Name: "movie.mkv",
		Size: 5,
		Body: strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^dummy-key-42_[0-9a-f]{8}_movie\.mkv$`, key)

	url, err := p.PresignedURL(context.Background(), key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/dummy-download/"+key, url)
}
