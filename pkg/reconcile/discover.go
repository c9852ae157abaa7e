package reconcile

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// tracePatterns are the names matched in the trace directory. The match is
// case sensitive, so only the two common spellings are picked up.
var tracePatterns = []string{"*.gpx", "*.GPX"}

// TraceFile is a local GPX file found in the trace directory.
type TraceFile struct {
	Path    string
	Name    string
	ModTime time.Time
}

// Discover returns the GPX files directly inside `dir`, sorted by name.
// Subdirectories aren't searched.
func Discover(fs afero.Fs, dir string) ([]TraceFile, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		return nil, errors.NewFriendlyError("The trace directory %q doesn't exist.", dir)
	}
	if !info.IsDir() {
		return nil, errors.NewFriendlyError("%q is not a directory.", dir)
	}

	seen := map[string]struct{}{}
	var files []TraceFile
	for _, pattern := range tracePatterns {
		matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.WithContext(err, "glob")
		}

		for _, path := range matches {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}

			info, err := fs.Stat(path)
			if err != nil {
				return nil, errors.WithContext(err, "stat trace")
			}
			if !info.Mode().IsRegular() {
				continue
			}

			files = append(files, TraceFile{
				Path:    path,
				Name:    filepath.Base(path),
				ModTime: info.ModTime(),
			})
		}
	}

	sortByName(files)
	return files, nil
}

func sortByName(files []TraceFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
}
