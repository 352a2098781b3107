package fileingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileMeta holds metadata about a file to be submitted.
type FileMeta struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

/*
DiscoverVideoFiles recursively finds files under rootDir whose extension
(case-insensitive, without the dot) is in extensions.

It returns a slice of FileMeta for each discovered file.
*/
func DiscoverVideoFiles(ctx context.Context, rootDir string, extensions []string) ([]FileMeta, error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	var files []FileMeta
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Skip directories
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if !allowed[ext] {
			return nil
		}
		meta, metaErr := ExtractFileMeta(path)
		if metaErr != nil {
			// Skip files we can't stat, but continue
			return nil
		}
		files = append(files, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

/*
ExtractFileMeta extracts metadata from a given file path.

Returns FileMeta with Name, Path, Size, and ModTime.
*/
func ExtractFileMeta(path string) (FileMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileMeta{}, err
	}
	return FileMeta{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Open returns the file's metadata and an open handle. The caller closes it.
func Open(path string) (FileMeta, *os.File, error) {
	meta, err := ExtractFileMeta(path)
	if err != nil {
		return FileMeta{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return FileMeta{}, nil, err
	}
	return meta, f, nil
}
