package classify

import (
	"regexp"
	"strings"

	"github.com/ysakai/filedrop/internal/model"
)

// Ticket title grammar: "[seg1][seg2]rest" or "[seg1]rest". Segments cannot
// contain a closing bracket. The 3-level pattern is tried first; only if it
// fails is the 2-level pattern tried.
var (
	threeLevelRe = regexp.MustCompile(`^\[([^\]]+)\]\[([^\]]+)\](.+)$`)
	twoLevelRe   = regexp.MustCompile(`^\[([^\]]+)\](.+)$`)
)

// ParseTitle splits a ticket title into folder segments. The trailing text
// becomes the last segment, trimmed. A title matching neither pattern
// returns nil: the file cannot be filed automatically.
func ParseTitle(title string) *model.Labels {
	title = strings.TrimSpace(title)

	if m := threeLevelRe.FindStringSubmatch(title); m != nil {
		return &model.Labels{Segments: []string{m[1], m[2], strings.TrimSpace(m[3])}}
	}
	if m := twoLevelRe.FindStringSubmatch(title); m != nil {
		return &model.Labels{Segments: []string{m[1], strings.TrimSpace(m[2])}}
	}
	return nil
}
