// Package pathplan derives deterministic destination directories from label
// segments and a reference time.
package pathplan

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ysakai/filedrop/internal/model"
)

const dateLayout = "20060102"

// Build composes baseRoot, the label segments, and refTime's date into a
// destination plan. Pure and side-effect-free: identical inputs always yield
// the same target directory, and no directories are created here.
func Build(labels model.Labels, refTime time.Time, baseRoot string) model.DestinationPlan {
	parts := make([]string, 0, len(labels.Segments)+2)
	parts = append(parts, baseRoot)
	parts = append(parts, labels.Segments...)
	parts = append(parts, refTime.Format(dateLayout))

	return model.DestinationPlan{
		TargetDirectory: filepath.Join(parts...),
		Levels:          labels.Levels(),
	}
}

// ReferenceTime returns the file's modification time, the preferred date
// source for the destination. Falls back to the current time when the file
// no longer exists, which the settle guarantees make unusual.
func ReferenceTime(path string) time.Time {
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Now()
}
