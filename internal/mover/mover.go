// Package mover performs collision-safe moves into the destination tree.
package mover

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ysakai/filedrop/internal/common"
)

const (
	suffixLayout = "20060102_150405"

	// Bounded re-check budget for the benign race where a concurrent move
	// takes the candidate name between the existence check and the rename.
	maxNameAttempts = 5
)

// Mover moves settled files into their destination directory.
type Mover struct {
	now func() time.Time
}

// New creates a mover.
func New() *Mover {
	return &Mover{now: time.Now}
}

// Move places source into targetDir, creating the directory and any missing
// ancestors first. When a same-named file already exists at the destination
// the new file gets a timestamp suffix before its extension; the existing
// file is never touched. Returns the final path, or a *common.MoveError on
// unrecoverable failure. Moves are single attempts; the caller must not
// retry.
func (m *Mover) Move(source, targetDir string) (string, error) {
	if _, err := os.Stat(source); err != nil {
		return "", common.NewMoveError(source, targetDir, err)
	}
	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return "", common.NewMoveError(source, targetDir, err)
	}

	name := filepath.Base(source)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		target := filepath.Join(targetDir, m.candidateName(name, attempt))

		// Checked immediately before the move, not in advance: concurrent
		// moves into the same directory are possible.
		if _, err := os.Lstat(target); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", common.NewMoveError(source, target, err)
		}

		if err := moveFile(source, target); err != nil {
			return "", common.NewMoveError(source, target, err)
		}
		return target, nil
	}

	return "", common.NewMoveError(source, targetDir, errors.New("no free destination name"))
}

// candidateName returns the destination file name for the given attempt:
// the original name first, then a timestamp-suffixed one, then numbered
// variants for same-second collisions.
func (m *Mover) candidateName(name string, attempt int) string {
	if attempt == 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	stamp := m.now().Format(suffixLayout)
	if attempt == 1 {
		return fmt.Sprintf("%s_%s%s", base, stamp, ext)
	}
	return fmt.Sprintf("%s_%s_%d%s", base, stamp, attempt, ext)
}

// moveFile renames source to target, falling back to copy-and-delete when
// the rename fails (typically a cross-device move).
func moveFile(source, target string) error {
	renameErr := os.Rename(source, target)
	if renameErr == nil {
		return nil
	}
	if err := copyAndRemove(source, target); err != nil {
		return renameErr
	}
	return nil
}

func copyAndRemove(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// O_EXCL keeps a concurrent move from silently overwriting the target.
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(target)
		return err
	}

	return os.Remove(source)
}
