// Package settle decides whether a file has finished being written by
// probing its size until two consecutive samples agree.
package settle

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ysakai/filedrop/internal/common"
	"github.com/ysakai/filedrop/internal/model"
)

// Config holds the probe tuning knobs.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultConfig returns the default probe configuration.
func DefaultConfig() Config {
	return Config{
		Interval:    500 * time.Millisecond,
		MaxAttempts: 10,
	}
}

// Detector probes a file's size to determine whether it is still growing.
type Detector struct {
	size        func(path string) (int64, error)
	interval    time.Duration
	maxAttempts int
}

// New creates a detector with the default configuration.
func New() *Detector {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a detector with custom probe settings.
func NewWithConfig(cfg Config) *Detector {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Detector{
		size:        fileSize,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
	}
}

// IsReady reports whether path's size is stable and positive across two
// probes separated by the probe interval. A file that disappears mid-probe
// is not ready.
func (d *Detector) IsReady(path string) bool {
	first, err := d.size(path)
	if err != nil {
		return false
	}
	time.Sleep(d.interval)
	second, err := d.size(path)
	if err != nil {
		return false
	}
	return first == second && second > 0
}

// WaitUntilReady probes path until it settles or the attempt budget runs
// out, returning the samples taken along the way. The error is
// common.ErrSettleTimeout when the budget is exhausted and ctx.Err() when
// the caller cancels.
func (d *Detector) WaitUntilReady(ctx context.Context, path string) ([]model.SizeSample, error) {
	var history []model.SizeSample

	sample := func() (int64, bool) {
		n, err := d.size(path)
		if err != nil {
			return 0, false
		}
		history = append(history, model.SizeSample{Taken: time.Now(), Bytes: n})
		return n, true
	}

	prev, ok := sample()
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return history, ctx.Err()
		case <-time.After(d.interval):
		}

		cur, curOK := sample()
		if ok && curOK && cur == prev && cur > 0 {
			return history, nil
		}
		prev, ok = cur, curOK
	}

	return history, fmt.Errorf("%w: %s", common.ErrSettleTimeout, path)
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
