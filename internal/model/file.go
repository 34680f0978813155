// Package model defines the core domain models used throughout the application.
package model

import "time"

// FileState tracks where a watched file is in the arrival pipeline.
type FileState string

// File state constants.
const (
	StateDiscovered FileState = "DISCOVERED"
	StateSettling   FileState = "SETTLING"
	StateReady      FileState = "READY"
	StateProcessed  FileState = "PROCESSED"
	StateRejected   FileState = "REJECTED"
)

// SizeSample is one size probe taken while waiting for a file to settle.
type SizeSample struct {
	Taken time.Time
	Bytes int64
}

// WatchedFile represents one filesystem entry under observation. It is
// created when a notification names a new path and discarded as soon as it
// reaches StateProcessed or StateRejected.
type WatchedFile struct {
	Path        string
	SizeHistory []SizeSample
	State       FileState
}

// NewWatchedFile creates a watched file in the discovered state.
func NewWatchedFile(path string) *WatchedFile {
	return &WatchedFile{
		Path:  path,
		State: StateDiscovered,
	}
}

// RecordSample appends a size probe to the history.
func (f *WatchedFile) RecordSample(s SizeSample) {
	f.SizeHistory = append(f.SizeHistory, s)
}

// Done reports whether the file has reached a terminal state.
func (f *WatchedFile) Done() bool {
	return f.State == StateProcessed || f.State == StateRejected
}
