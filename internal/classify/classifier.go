// Package classify derives a semantic label for an arrived file from its
// download provenance, and parses ticket titles into folder segments.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/ysakai/filedrop/internal/model"
	"github.com/ysakai/filedrop/internal/service"
)

var (
	issueRe      = regexp.MustCompile(`/issues/(\d+)`)
	attachmentRe = regexp.MustCompile(`/attachments/(\d+)`)
)

// Classifier decides whether a file came from the trusted tracker host.
type Classifier struct {
	lookup      service.ProvenanceLookup
	trustedHost string
}

// New creates a classifier using the given provenance lookup. trustedHost is
// the substring that must appear in the referrer or host attribute.
func New(lookup service.ProvenanceLookup, trustedHost string) *Classifier {
	return &Classifier{lookup: lookup, trustedHost: trustedHost}
}

// Classify derives a classification for path. It is a pure function of the
// provenance attributes at call time: a failed or empty lookup, or an
// untrusted host, yields Unidentified. The issue number is optional even
// within an identified result.
func (c *Classifier) Classify(ctx context.Context, path string) model.Classification {
	unidentified := model.Classification{Kind: model.KindUnidentified}

	attrs, err := c.lookup.Lookup(ctx, path)
	if err != nil || len(attrs) == 0 {
		return unidentified
	}

	referrer := attrs[service.AttrReferrerURL]
	hostURL := attrs[service.AttrHostURL]
	if c.trustedHost == "" {
		return unidentified
	}
	if !strings.Contains(referrer, c.trustedHost) && !strings.Contains(hostURL, c.trustedHost) {
		return unidentified
	}

	cl := model.Classification{
		Kind:     model.KindIdentified,
		Referrer: referrer,
		HostURL:  hostURL,
	}
	// The referrer is the more reliable source for the issue number.
	if m := issueRe.FindStringSubmatch(referrer); m != nil {
		cl.IssueNumber = m[1]
	}
	if m := attachmentRe.FindStringSubmatch(referrer); m != nil {
		cl.AttachmentID = m[1]
	}
	return cl
}
