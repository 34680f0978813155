// Package service defines the interfaces for the external capabilities the
// pipeline consumes. The core never implements these itself; concrete
// adapters live in their own packages and are injected at construction time.
package service

import (
	"context"

	"github.com/ysakai/filedrop/internal/model"
)

// Provenance attribute keys as they appear in the Zone.Identifier tag.
const (
	AttrReferrerURL = "ReferrerUrl"
	AttrHostURL     = "HostUrl"
	AttrZoneID      = "ZoneId"
)

// ProvenanceLookup reads the OS-attached download metadata for a file.
// A file without a provenance tag yields a nil map and a nil error.
type ProvenanceLookup interface {
	Lookup(ctx context.Context, path string) (map[string]string, error)
}

// TitleLookup fetches the human-readable title for a tracker issue. It
// requires an externally managed login session.
type TitleLookup interface {
	FetchTitle(ctx context.Context, issue string) (string, error)
	IsLoggedIn() bool
}

// Notifier delivers a fire-and-forget desktop notification.
type Notifier interface {
	Notify(title, message string)
}

// MoveJournal records completed moves for later inspection.
type MoveJournal interface {
	SaveMove(ctx context.Context, rec *model.MoveRecord) error
	ListMoves(ctx context.Context, limit int) ([]model.MoveRecord, error)
	Close() error
}
