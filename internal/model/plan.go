package model

import "time"

// DestinationPlan is the deterministic output of the path builder. Identical
// (labels, reference time) inputs always produce the same target directory.
type DestinationPlan struct {
	TargetDirectory string
	Levels          int
}

// MoveRecord is one completed move as stored in the journal.
type MoveRecord struct {
	MovedAt time.Time
	Source  string
	Target  string
	Issue   string
	Title   string
	ID      int64
}
