package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/purple/pkg/core"
)

// rootMarkers identify a purple data directory: its system directory or one
// of the collection files.
var rootMarkers = []string{".purple", core.KeyNotes + ".json", core.KeyTasks + ".json"}

// FindRoot walks up from startDir to the nearest data directory and returns
// its absolute path. It fails with core.ErrNotFound when the filesystem root
// is reached first.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no data directory above %s: %w", startDir, core.ErrNotFound)
		}
		dir = parent
	}
}
