package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakai/filedrop/internal/classify"
	"github.com/ysakai/filedrop/internal/common"
	"github.com/ysakai/filedrop/internal/model"
	"github.com/ysakai/filedrop/internal/mover"
	"github.com/ysakai/filedrop/internal/service"
	"github.com/ysakai/filedrop/internal/settle"
	"github.com/ysakai/filedrop/internal/tracker"
)

const trustedHost = "tracker.example.com"

type stubProvenance struct {
	err   error
	attrs map[string]string
}

func (s stubProvenance) Lookup(_ context.Context, _ string) (map[string]string, error) {
	return s.attrs, s.err
}

type stubTitles struct {
	err      error
	title    string
	loggedIn bool
}

func (s stubTitles) FetchTitle(_ context.Context, _ string) (string, error) {
	return s.title, s.err
}

func (s stubTitles) IsLoggedIn() bool { return s.loggedIn }

type memJournal struct {
	mu   sync.Mutex
	recs []model.MoveRecord
}

func (j *memJournal) SaveMove(_ context.Context, rec *model.MoveRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, *rec)
	return nil
}

func (j *memJournal) ListMoves(_ context.Context, _ int) ([]model.MoveRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]model.MoveRecord(nil), j.recs...), nil
}

func (j *memJournal) Close() error { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

func trustedAttrs(issue string) map[string]string {
	return map[string]string{
		service.AttrReferrerURL: "https://" + trustedHost + "/issues/" + issue,
		service.AttrHostURL:     "https://" + trustedHost + "/attachments/download/9",
	}
}

// newTestEngine builds an engine over t.TempDir with the given capability
// stubs, returning the engine, the base root, and the journal.
func newTestEngine(t *testing.T, prov stubProvenance, titles service.TitleLookup) (*Engine, string, *memJournal) {
	t.Helper()
	baseRoot := filepath.Join(t.TempDir(), "filed")
	journal := &memJournal{}

	deps := Deps{
		Tracker:    tracker.New(),
		Detector:   settle.NewWithConfig(settle.Config{Interval: time.Millisecond, MaxAttempts: 3}),
		Classifier: classify.New(prov, trustedHost),
		Mover:      mover.New(),
		Titles:     titles,
		Journal:    journal,
		Notifier:   &recordingNotifier{},
	}
	return New(deps, baseRoot), baseRoot, journal
}

func newSourceFile(t *testing.T, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestProcessOne(t *testing.T) {
	mtime := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

	t.Run("three level title", func(t *testing.T) {
		eng, baseRoot, journal := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("1234")},
			stubTitles{loggedIn: true, title: "[Acme][P100]Door sensor broken"})
		source := newSourceFile(t, mtime)

		target, err := eng.ProcessOne(context.Background(), source)
		require.NoError(t, err)

		wantDir := filepath.Join(baseRoot, "Acme", "P100", "Door sensor broken", "20240305")
		assert.Equal(t, filepath.Join(wantDir, "report.pdf"), target)

		_, err = os.Stat(target)
		assert.NoError(t, err)

		recs, err := journal.ListMoves(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "1234", recs[0].Issue)
		assert.Equal(t, "[Acme][P100]Door sensor broken", recs[0].Title)
	})

	t.Run("two level title", func(t *testing.T) {
		eng, baseRoot, _ := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("77")},
			stubTitles{loggedIn: true, title: "[Acme]Door sensor broken"})
		source := newSourceFile(t, mtime)

		target, err := eng.ProcessOne(context.Background(), source)
		require.NoError(t, err)
		assert.Equal(t,
			filepath.Join(baseRoot, "Acme", "Door sensor broken", "20240305", "report.pdf"),
			target)
	})

	t.Run("unidentified file", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, stubProvenance{}, stubTitles{loggedIn: true})
		source := newSourceFile(t, mtime)

		_, err := eng.ProcessOne(context.Background(), source)
		assert.ErrorIs(t, err, common.ErrUnidentified)
	})

	t.Run("identified without issue number", func(t *testing.T) {
		eng, _, _ := newTestEngine(t,
			stubProvenance{attrs: map[string]string{
				service.AttrHostURL: "https://" + trustedHost + "/files/9",
			}},
			stubTitles{loggedIn: true})
		source := newSourceFile(t, mtime)

		_, err := eng.ProcessOne(context.Background(), source)
		assert.ErrorIs(t, err, common.ErrUnidentified)
	})

	t.Run("not logged in", func(t *testing.T) {
		eng, _, _ := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("5")},
			stubTitles{loggedIn: false})
		source := newSourceFile(t, mtime)

		_, err := eng.ProcessOne(context.Background(), source)
		assert.ErrorIs(t, err, common.ErrLookupFailure)
		assert.ErrorIs(t, err, common.ErrNotLoggedIn)
	})

	t.Run("title lookup failure", func(t *testing.T) {
		eng, _, _ := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("5")},
			stubTitles{loggedIn: true, err: errors.New("issue #5 not found")})
		source := newSourceFile(t, mtime)

		_, err := eng.ProcessOne(context.Background(), source)
		assert.ErrorIs(t, err, common.ErrLookupFailure)
	})

	t.Run("unrecognized title leaves file in place", func(t *testing.T) {
		eng, _, _ := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("5")},
			stubTitles{loggedIn: true, title: "no brackets here"})
		source := newSourceFile(t, mtime)

		_, err := eng.ProcessOne(context.Background(), source)
		assert.ErrorIs(t, err, common.ErrUnrecognizedLabel)

		_, statErr := os.Stat(source)
		assert.NoError(t, statErr, "file must stay at its original location")
	})
}

func TestProcessWithLabels(t *testing.T) {
	mtime := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

	t.Run("manual labels bypass classification", func(t *testing.T) {
		// Provenance and titles would both fail; manual filing must not care.
		eng, baseRoot, journal := newTestEngine(t,
			stubProvenance{err: errors.New("no tag")},
			stubTitles{loggedIn: false})
		source := newSourceFile(t, mtime)

		labels := model.Labels{Segments: []string{"Acme", "P100", "manual"}}
		target, err := eng.ProcessWithLabels(context.Background(), source, labels)
		require.NoError(t, err)
		assert.Equal(t,
			filepath.Join(baseRoot, "Acme", "P100", "manual", "20240305", "report.pdf"),
			target)

		recs, err := journal.ListMoves(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("empty labels rejected", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, stubProvenance{}, stubTitles{})
		source := newSourceFile(t, mtime)

		_, err := eng.ProcessWithLabels(context.Background(), source, model.Labels{})
		assert.ErrorIs(t, err, common.ErrUnrecognizedLabel)
	})
}

func TestHandleArrival(t *testing.T) {
	mtime := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

	t.Run("success queues a result", func(t *testing.T) {
		eng, baseRoot, _ := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("1234")},
			stubTitles{loggedIn: true, title: "[Acme][P100]Door sensor broken"})
		source := newSourceFile(t, mtime)

		require.NoError(t, eng.handleArrival(context.Background(), source))

		select {
		case res := <-eng.Results():
			require.NoError(t, res.Err)
			assert.Equal(t, source, res.Path)
			assert.Equal(t, "1234", res.Issue)
			assert.Equal(t,
				filepath.Join(baseRoot, "Acme", "P100", "Door sensor broken", "20240305", "report.pdf"),
				res.Target)
		default:
			t.Fatal("expected a queued result")
		}
	})

	t.Run("failure is caught at the task boundary", func(t *testing.T) {
		eng, _, _ := newTestEngine(t,
			stubProvenance{attrs: trustedAttrs("5")},
			stubTitles{loggedIn: true, title: "no brackets"})
		source := newSourceFile(t, mtime)

		err := eng.handleArrival(context.Background(), source)
		assert.ErrorIs(t, err, common.ErrUnrecognizedLabel)

		select {
		case res := <-eng.Results():
			assert.ErrorIs(t, res.Err, common.ErrUnrecognizedLabel)
		default:
			t.Fatal("expected a queued result")
		}
	})

	t.Run("untrusted file is silent", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, stubProvenance{}, stubTitles{loggedIn: true})
		source := newSourceFile(t, mtime)

		require.NoError(t, eng.handleArrival(context.Background(), source))

		select {
		case res := <-eng.Results():
			t.Fatalf("expected no result for an unidentified file, got %+v", res)
		default:
		}
	})
}
