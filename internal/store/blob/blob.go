// Package blob stores uploaded media in object storage.
package blob

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectKey names an object after the upload time, a short unique tag and
// the file's base name: <millis>_<tag>_<basename>.
func ObjectKey(name string, now time.Time, tag string) string {
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), tag, baseName(name))
}

// newObjectKey tags the key with a random 8-hex-digit id so two uploads of
// the same file in the same millisecond never share a key.
func newObjectKey(name string, now time.Time) string {
	return ObjectKey(name, now, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}
