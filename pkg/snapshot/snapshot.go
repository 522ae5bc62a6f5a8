// Package snapshot reads weekly snapshot directories produced by weeksnap.
//
// A snapshot directory is named YYYYMMDD-YYYYMMDD after its window and holds
// one raw_<source>.json document per collected source. Each document maps a
// query label to the tool's JSON output, the raw text when the output was
// not JSON, "" when it was empty, or an error marker of the form
// {"error": "...", "kind": "..."}.
//
// The encoding cannot tell a tool that printed the JSON string "" from one
// that printed nothing, and a tool object with exactly the keys "error" and
// "kind" is indistinguishable from an error marker. AsError treats such an
// object as a marker.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoSource is returned when the snapshot has no document for a source.
var ErrNoSource = errors.New("source not in snapshot")

const (
	artifactPrefix = "raw_"
	artifactSuffix = ".json"
	folderLayout   = "20060102"
)

// Snapshot is an opened snapshot directory.
type Snapshot struct {
	Dir     string
	sources []string
}

// ErrorMarker is a query that failed when the snapshot was taken.
type ErrorMarker struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Open lists the source documents in dir.
func Open(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}

	s := &Snapshot{Dir: dir}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, artifactPrefix) || !strings.HasSuffix(name, artifactSuffix) {
			continue
		}
		source := strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), artifactSuffix)
		if source != "" {
			s.sources = append(s.sources, source)
		}
	}
	sort.Strings(s.sources)
	return s, nil
}

// Sources returns the collected source names, sorted.
func (s *Snapshot) Sources() []string {
	return append([]string(nil), s.sources...)
}

// Has reports whether the snapshot holds a document for source.
func (s *Snapshot) Has(source string) bool {
	i := sort.SearchStrings(s.sources, source)
	return i < len(s.sources) && s.sources[i] == source
}

// Window parses the snapshot's date range from its directory name.
func (s *Snapshot) Window() (start, end time.Time, err error) {
	base := filepath.Base(s.Dir)
	from, to, ok := strings.Cut(base, "-")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("snapshot directory %q is not named after a window", base)
	}
	if start, err = time.Parse(folderLayout, from); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("snapshot start: %w", err)
	}
	if end, err = time.Parse(folderLayout, to); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("snapshot end: %w", err)
	}
	return start, end, nil
}

// Load decodes one source's document. Values are left undecoded.
func (s *Snapshot) Load(source string) (map[string]json.RawMessage, error) {
	if !s.Has(source) {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, source)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, artifactPrefix+source+artifactSuffix))
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", source, err)
	}
	return doc, nil
}

// Decode unmarshals the value stored under label in source's document into v.
func (s *Snapshot) Decode(source, label string, v any) error {
	doc, err := s.Load(source)
	if err != nil {
		return err
	}
	raw, ok := doc[label]
	if !ok {
		return fmt.Errorf("%s has no entry %q", source, label)
	}
	if m, failed := AsError(raw); failed {
		return fmt.Errorf("%s/%s failed when collected (%s): %s", source, label, m.Kind, m.Error)
	}
	return json.Unmarshal(raw, v)
}

// Failures returns the error markers in source's document, keyed by label.
func (s *Snapshot) Failures(source string) (map[string]ErrorMarker, error) {
	doc, err := s.Load(source)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ErrorMarker)
	for label, raw := range doc {
		if m, failed := AsError(raw); failed {
			out[label] = m
		}
	}
	return out, nil
}

// AsError reports whether raw is an error marker: an object with exactly
// the keys "error" and "kind". Tool output of that shape also matches.
func AsError(raw json.RawMessage) (ErrorMarker, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return ErrorMarker{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) != 2 {
		return ErrorMarker{}, false
	}
	if _, ok := fields["error"]; !ok {
		return ErrorMarker{}, false
	}
	if _, ok := fields["kind"]; !ok {
		return ErrorMarker{}, false
	}
	var m ErrorMarker
	if err := json.Unmarshal(raw, &m); err != nil {
		return ErrorMarker{}, false
	}
	return m, true
}
