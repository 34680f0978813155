package pathplan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakai/filedrop/internal/model"
)

func TestBuild(t *testing.T) {
	refTime := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		labels model.Labels
		want   string
		levels int
	}{
		{
			name:   "three level labels",
			labels: model.Labels{Segments: []string{"Acme", "P100", "Door sensor broken"}},
			want:   filepath.Join("/data", "Acme", "P100", "Door sensor broken", "20240305"),
			levels: 3,
		},
		{
			name:   "two level labels",
			labels: model.Labels{Segments: []string{"Acme", "Door sensor broken"}},
			want:   filepath.Join("/data", "Acme", "Door sensor broken", "20240305"),
			levels: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Build(tt.labels, refTime, "/data")
			assert.Equal(t, tt.want, plan.TargetDirectory)
			assert.Equal(t, tt.levels, plan.Levels)
		})
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	labels := model.Labels{Segments: []string{"Acme", "P100", "broken"}}
	refTime := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

	first := Build(labels, refTime, "/data")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Build(labels, refTime, "/data"))
	}
}

func TestBuildUsesDateOnly(t *testing.T) {
	labels := model.Labels{Segments: []string{"Acme", "x"}}
	morning := time.Date(2024, 3, 5, 0, 1, 0, 0, time.Local)
	evening := time.Date(2024, 3, 5, 23, 59, 0, 0, time.Local)

	assert.Equal(t, Build(labels, morning, "/data"), Build(labels, evening, "/data"))
}

func TestReferenceTime(t *testing.T) {
	t.Run("uses file mtime when present", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.pdf")
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

		mtime := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
		require.NoError(t, os.Chtimes(path, mtime, mtime))

		got := ReferenceTime(path)
		assert.True(t, got.Equal(mtime), "got %v, want %v", got, mtime)
	})

	t.Run("falls back to now for missing file", func(t *testing.T) {
		before := time.Now()
		got := ReferenceTime(filepath.Join(t.TempDir(), "gone.pdf"))
		assert.False(t, got.Before(before))
	})
}
