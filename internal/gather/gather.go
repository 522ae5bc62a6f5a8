// Package gather defines how one source's data is collected for a window:
// the Collector capability, the Document it produces, and QueryCollector, the
// shared implementation that drives a source's command-line tool.
//
// The persisted encoding of an Entry is lossy in two places. A tool that
// prints the JSON string "" is stored the same way as a tool that printed
// nothing, and a tool whose output is an object with exactly the keys
// "error" and "kind" reads back as an error marker. Readers that need the
// distinction must use the in-memory Document, not the artifact.
package gather

import (
	"context"
	"errors"
)

// ErrPreflight is returned by a collector whose identity or authorization
// check failed. No artifact is written in that case.
var ErrPreflight = errors.New("preflight check failed")

// Collector is the interface for all data sources.
type Collector interface {
	// Name returns the source identifier. It determines the artifact name.
	Name() string
	// Collect gathers the source's data for w, persists it under dir and
	// returns the persisted document. A non-nil error means the source
	// failed as a whole.
	Collect(ctx context.Context, w Window, dir string) (*Document, error)
}

// ArtifactWriter persists one source's document inside a run directory and
// returns the path written.
type ArtifactWriter interface {
	WriteArtifact(dir, name string, v any) (string, error)
}

// ArtifactName returns the file name a source's document is stored under.
func ArtifactName(source string) string {
	return "raw_" + source + ".json"
}
