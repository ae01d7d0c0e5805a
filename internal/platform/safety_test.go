package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/purple/internal/platform"
)

func TestResolveDataPath(t *testing.T) {
	t.Parallel()

	devBase := filepath.Join(os.TempDir(), "purple-dev")
	inTemp := filepath.Join(os.TempDir(), "already-safe")

	tests := []struct {
		name      string
		userPath  string
		forceTemp bool
		expected  string
	}{
		{"Normal Mode - Empty Path", "", false, "."},
		{"Normal Mode - Specific Path", "/some/path", false, "/some/path"},
		{"Dev Mode - Empty Path", "", true, filepath.Join(devBase, "default")},
		{"Dev Mode - Current Dir", ".", true, filepath.Join(devBase, "default")},
		{"Dev Mode - Relative Name", "my-data", true, filepath.Join(devBase, "my-data")},
		{"Dev Mode - Absolute Path", "/home/user/notes", true, filepath.Join(devBase, "notes")},
		{"Dev Mode - Inside Temp", inTemp, true, inTemp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, platform.ResolveDataPath(tt.userPath, tt.forceTemp))
		})
	}
}

func TestIsDevRun(t *testing.T) {
	assert.True(t, platform.IsDevRun(), "test binaries count as dev runs")
}
