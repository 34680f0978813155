// Package engine orchestrates the arrival pipeline: classify a settled file,
// fetch and parse its ticket title, derive the destination, and move it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ysakai/filedrop/internal/classify"
	"github.com/ysakai/filedrop/internal/common"
	"github.com/ysakai/filedrop/internal/model"
	"github.com/ysakai/filedrop/internal/mover"
	"github.com/ysakai/filedrop/internal/pathplan"
	"github.com/ysakai/filedrop/internal/service"
	"github.com/ysakai/filedrop/internal/settle"
	"github.com/ysakai/filedrop/internal/tracker"
	"github.com/ysakai/filedrop/internal/watch"
)

// Result is one finished automatic pipeline run, delivered on the results
// channel. Err is nil on success.
type Result struct {
	Err    error
	Path   string
	Target string
	Issue  string
	Title  string
}

// Config holds the engine settings.
type Config struct {
	BaseRoot     string
	ResultBuffer int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{ResultBuffer: 64}
}

// Deps are the collaborators the engine is constructed with. Tracker,
// Detector, Classifier and Mover are required; Titles, Journal and Notifier
// may be nil (title lookup then fails with ErrNotLoggedIn, journaling and
// notifications are skipped).
type Deps struct {
	Tracker    *tracker.ProcessedSet
	Detector   *settle.Detector
	Classifier *classify.Classifier
	Mover      *mover.Mover
	Titles     service.TitleLookup
	Journal    service.MoveJournal
	Notifier   service.Notifier
}

// Engine wires the pipeline components together.
type Engine struct {
	deps    Deps
	watcher *watch.Watcher
	results chan Result
	cfg     Config
}

// New creates an engine with the default configuration.
func New(deps Deps, baseRoot string) *Engine {
	cfg := DefaultConfig()
	cfg.BaseRoot = baseRoot
	return NewWithConfig(deps, cfg)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(deps Deps, cfg Config) *Engine {
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = DefaultConfig().ResultBuffer
	}
	return &Engine{
		deps:    deps,
		cfg:     cfg,
		results: make(chan Result, cfg.ResultBuffer),
	}
}

// Results is the single-consumer queue of finished automatic runs.
// Background tasks only ever produce onto it; they never touch caller state.
func (e *Engine) Results() <-chan Result {
	return e.results
}

// StartWatching begins observing folder. Each claimed arrival runs the
// automatic pipeline on its own goroutine.
func (e *Engine) StartWatching(ctx context.Context, folder string) error {
	w := watch.New(e.deps.Detector, e.deps.Tracker, func(path string) error {
		return e.handleArrival(ctx, path)
	})
	if err := w.Start(folder); err != nil {
		return err
	}
	e.watcher = w
	return nil
}

// StartWatchingWithConfig is StartWatching with custom debounce delays.
func (e *Engine) StartWatchingWithConfig(ctx context.Context, folder string, cfg watch.Config) error {
	w := watch.NewWithConfig(e.deps.Detector, e.deps.Tracker, func(path string) error {
		return e.handleArrival(ctx, path)
	}, cfg)
	if err := w.Start(folder); err != nil {
		return err
	}
	e.watcher = w
	return nil
}

// StopWatching halts dispatch and waits for in-flight per-file tasks, then
// tears down the claim set.
func (e *Engine) StopWatching() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
	e.deps.Tracker.Close()
}

// handleArrival is the automatic flow's task boundary: every failure is
// caught here, logged, and surfaced as a notification and a queued result.
// The returned outcome only feeds the watcher's state bookkeeping; nothing
// else propagates out of a per-file task.
func (e *Engine) handleArrival(ctx context.Context, path string) error {
	name := filepath.Base(path)
	res := e.runAuto(ctx, path)

	switch {
	case res.Err == nil && res.Target == "":
		// Not a tracker file; nothing to report.
		return nil
	case res.Err != nil:
		slog.Warn("Automatic filing failed", "path", path, "error", res.Err)
		e.notify("Filing failed", name)
	default:
		slog.Info("File moved",
			"path", path,
			"target", res.Target,
			"issue", res.Issue)
		e.notify("File moved", fmt.Sprintf("%s → %s", name, filepath.Dir(res.Target)))
		e.journal(ctx, path, res)
	}

	select {
	case e.results <- res:
	default:
		slog.Warn("Result queue full, dropping result", "path", path)
	}
	return res.Err
}

// runAuto performs classify → title → parse → plan → move for an arrival.
// A file whose provenance is not recognized returns an empty result with a
// nil error: silence, not failure.
func (e *Engine) runAuto(ctx context.Context, path string) Result {
	res := Result{Path: path}

	cl := e.deps.Classifier.Classify(ctx, path)
	if !cl.Identified() {
		slog.Debug("File not from trusted host, ignoring", "path", path)
		return res
	}
	if cl.IssueNumber == "" {
		res.Err = fmt.Errorf("%w: no issue number in referrer", common.ErrUnidentified)
		return res
	}
	res.Issue = cl.IssueNumber

	title, err := e.fetchTitle(ctx, cl.IssueNumber)
	if err != nil {
		res.Err = err
		return res
	}
	res.Title = title

	target, err := e.fileByTitle(path, title)
	res.Target = target
	res.Err = err
	return res
}

// ProcessOne runs the full pipeline for one path synchronously, propagating
// errors to the caller. Used by manual flows, which bypass the processed set
// so a corrected retry is always possible.
func (e *Engine) ProcessOne(ctx context.Context, path string) (string, error) {
	cl := e.deps.Classifier.Classify(ctx, path)
	if !cl.Identified() {
		return "", common.ErrUnidentified
	}
	if cl.IssueNumber == "" {
		return "", fmt.Errorf("%w: no issue number in referrer", common.ErrUnidentified)
	}

	title, err := e.fetchTitle(ctx, cl.IssueNumber)
	if err != nil {
		return "", err
	}

	target, err := e.fileByTitle(path, title)
	if err != nil {
		return "", err
	}
	e.journal(ctx, path, Result{Path: path, Target: target, Issue: cl.IssueNumber, Title: title})
	return target, nil
}

// ProcessWithLabels moves path using human-supplied labels instead of the
// classifier. Used when the title could not be parsed and the user typed the
// folder segments themselves.
func (e *Engine) ProcessWithLabels(ctx context.Context, path string, labels model.Labels) (string, error) {
	if labels.Levels() == 0 {
		return "", fmt.Errorf("%w: no label segments", common.ErrUnrecognizedLabel)
	}
	plan := pathplan.Build(labels, pathplan.ReferenceTime(path), e.cfg.BaseRoot)
	target, err := e.deps.Mover.Move(path, plan.TargetDirectory)
	if err != nil {
		return "", err
	}
	e.journal(ctx, path, Result{Path: path, Target: target})
	return target, nil
}

func (e *Engine) fetchTitle(ctx context.Context, issue string) (string, error) {
	if e.deps.Titles == nil || !e.deps.Titles.IsLoggedIn() {
		return "", fmt.Errorf("%w: %w", common.ErrLookupFailure, common.ErrNotLoggedIn)
	}
	title, err := e.deps.Titles.FetchTitle(ctx, issue)
	if err != nil {
		return "", fmt.Errorf("%w: issue #%s: %w", common.ErrLookupFailure, issue, err)
	}
	return title, nil
}

// fileByTitle parses the title and performs the plan+move steps shared by
// the automatic and manual flows.
func (e *Engine) fileByTitle(path, title string) (string, error) {
	labels := classify.ParseTitle(title)
	if labels == nil {
		return "", fmt.Errorf("%w: %q", common.ErrUnrecognizedLabel, title)
	}
	plan := pathplan.Build(*labels, pathplan.ReferenceTime(path), e.cfg.BaseRoot)
	return e.deps.Mover.Move(path, plan.TargetDirectory)
}

func (e *Engine) notify(title, message string) {
	if e.deps.Notifier != nil {
		e.deps.Notifier.Notify(title, message)
	}
}

func (e *Engine) journal(ctx context.Context, source string, res Result) {
	if e.deps.Journal == nil {
		return
	}
	rec := &model.MoveRecord{
		Source:  source,
		Target:  res.Target,
		Issue:   res.Issue,
		Title:   res.Title,
		MovedAt: time.Now(),
	}
	if err := e.deps.Journal.SaveMove(ctx, rec); err != nil {
		slog.Warn("Failed to record move", "source", source, "error", err)
	}
}
