package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"weeksnap/internal/domain"
)

var (
	// ErrNotDirectory is returned when the run path exists as a file.
	ErrNotDirectory = errors.New("output path is not a directory")
	// ErrDirectoryExists is returned when the run directory exists and there
	// is neither a force override nor a prompter to ask.
	ErrDirectoryExists = errors.New("output directory already exists")
)

// Compile-time interface check.
var _ ArtifactStore = (*OutputStore)(nil)

// Prompter asks the user what to do with an existing run directory. It
// returns DecisionReplaced, DecisionKeepExisting or DecisionCancelled.
type Prompter interface {
	Ask(dir string) (domain.Decision, error)
}

// OutputStore implements ArtifactStore on the local filesystem. Run
// directories live directly under Root.
type OutputStore struct {
	Root   string
	force  bool
	prompt Prompter
	log    *slog.Logger
}

// NewOutputStore creates an OutputStore rooted at root. When force is set an
// existing run directory is always replaced without asking.
func NewOutputStore(root string, force bool, prompt Prompter, log *slog.Logger) *OutputStore {
	if root == "" {
		root = "."
	}
	if log == nil {
		log = slog.Default()
	}
	return &OutputStore{Root: root, force: force, prompt: prompt, log: log.With("component", "output")}
}

// Path returns the directory for the named run. Absolute names are used
// as-is.
func (s *OutputStore) Path(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(s.Root, name)
}

// Prepare creates the run directory, or resolves a clash with an existing
// one. Replacing removes everything inside before any collector writes.
func (s *OutputStore) Prepare(name string) (domain.Decision, error) {
	if err := checkRunName(name); err != nil {
		return "", err
	}
	dir := s.Path(name)

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
		s.log.Info("created output directory", "dir", dir)
		return domain.DecisionCreated, nil
	case err != nil:
		return "", fmt.Errorf("checking %s: %w", dir, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	decision := domain.DecisionReplaced
	if !s.force {
		if s.prompt == nil {
			return "", fmt.Errorf("%w: %s (use --force to replace it)", ErrDirectoryExists, dir)
		}
		decision, err = s.prompt.Ask(dir)
		if err != nil {
			return "", fmt.Errorf("asking about %s: %w", dir, err)
		}
	}

	switch decision {
	case domain.DecisionReplaced:
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("removing %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("recreating %s: %w", dir, err)
		}
		s.log.Info("deleted and recreated output directory", "dir", dir)
	case domain.DecisionKeepExisting:
		s.log.Info("keeping existing data", "dir", dir)
	default:
		decision = domain.DecisionCancelled
		s.log.Info("operation cancelled", "dir", dir)
	}
	return decision, nil
}

// WriteArtifact marshals v with two-space indentation and writes it to
// dir/name in one call, replacing any previous file.
func (s *OutputStore) WriteArtifact(dir, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// checkRunName refuses names that would make Prepare operate on the root
// itself or above it.
func checkRunName(name string) error {
	switch filepath.Clean(name) {
	case ".", "..", string(filepath.Separator):
		return fmt.Errorf("invalid output directory name %q", name)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("invalid output directory name %q", name)
	}
	return nil
}

// ---------------------------------------------------------------------------
// LinePrompter
// ---------------------------------------------------------------------------

// LinePrompter asks on Out and reads one line from In. An empty answer or
// "1" replaces, "2" keeps the existing data, anything else cancels. End of
// input without an answer cancels.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Ask implements Prompter.
func (p *LinePrompter) Ask(dir string) (domain.Decision, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	fmt.Fprintf(p.Out, "\nFolder %s already exists. What would you like to do?\n", dir)
	fmt.Fprintln(p.Out, "1. Delete and regenerate everything (default - press Enter)")
	fmt.Fprintln(p.Out, "2. Keep existing data and exit")
	fmt.Fprintln(p.Out, "3. Cancel operation")
	fmt.Fprint(p.Out, "Choice [1]: ")

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.Out)
		return domain.DecisionCancelled, nil
	}

	switch strings.TrimSpace(line) {
	case "", "1":
		return domain.DecisionReplaced, nil
	case "2":
		return domain.DecisionKeepExisting, nil
	default:
		return domain.DecisionCancelled, nil
	}
}
