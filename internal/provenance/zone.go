// Package provenance reads the Zone.Identifier metadata Windows attaches to
// downloaded files.
package provenance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// The tag lives in an NTFS alternate data stream, readable as a regular file
// at "<path>:Zone.Identifier". Filesystems without stream support simply
// report it as absent.
const streamSuffix = ":Zone.Identifier"

// ZoneReader implements service.ProvenanceLookup against the local
// filesystem.
type ZoneReader struct{}

// NewZoneReader creates a Zone.Identifier reader.
func NewZoneReader() *ZoneReader {
	return &ZoneReader{}
}

// Lookup returns the key/value attributes of path's Zone.Identifier stream,
// or a nil map when the file has none.
func (r *ZoneReader) Lookup(_ context.Context, path string) (map[string]string, error) {
	f, err := os.Open(path + streamSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read provenance tag: %w", err)
	}
	defer func() { _ = f.Close() }()

	attrs := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Section headers like [ZoneTransfer] carry no attributes.
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read provenance tag: %w", err)
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	return attrs, nil
}
