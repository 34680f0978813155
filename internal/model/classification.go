package model

// ClassificationKind says whether a file's provenance identified it as a
// tracker download.
type ClassificationKind string

// Classification kind constants.
const (
	KindIdentified   ClassificationKind = "IDENTIFIED"
	KindUnidentified ClassificationKind = "UNIDENTIFIED"
)

// Classification is the result of classifying a ready file. It is derived
// once, from the provenance metadata present at settle time, and never
// mutated afterward.
type Classification struct {
	Kind         ClassificationKind
	IssueNumber  string
	AttachmentID string
	Referrer     string
	HostURL      string
}

// Identified reports whether the file came from the trusted tracker host.
func (c Classification) Identified() bool {
	return c.Kind == KindIdentified
}

// Labels holds the folder segments parsed from a ticket title, in order.
// A 3-level title yields three segments, a 2-level title two.
type Labels struct {
	Segments []string
}

// Levels returns the number of label segments.
func (l Labels) Levels() int {
	return len(l.Segments)
}
