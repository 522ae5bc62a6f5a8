package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSnapshot(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "20240602-20240608")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"raw_github.json": `{
  "prs_created": [{"number": 7}],
  "commits": {"error": "timed out after 30s", "kind": "timeout"}
}`,
		"raw_slack.json": `{"messages_from_me": "Found 3 messages", "activity_summary": ""}`,
		"notes.txt":      "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestOpen(t *testing.T) {
	s, err := Open(writeSnapshot(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := s.Sources()
	if len(got) != 2 || got[0] != "github" || got[1] != "slack" {
		t.Errorf("Sources() = %v, want [github slack]", got)
	}
	if !s.Has("slack") || s.Has("gmail") {
		t.Error("Has() mismatch")
	}

	start, end, err := s.Window()
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if !start.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Window() = %s..%s", start, end)
	}
}

func TestOpenMissingDirectory(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Open should fail for a missing directory")
	}
}

func TestDecode(t *testing.T) {
	s, err := Open(writeSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}

	var prs []struct {
		Number int `json:"number"`
	}
	if err := s.Decode("github", "prs_created", &prs); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(prs) != 1 || prs[0].Number != 7 {
		t.Errorf("prs = %+v", prs)
	}

	var text string
	if err := s.Decode("slack", "messages_from_me", &text); err != nil || text != "Found 3 messages" {
		t.Errorf("Decode(raw) = %q, %v", text, err)
	}

	var commits []any
	if err := s.Decode("github", "commits", &commits); err == nil {
		t.Error("Decode of an error marker should fail")
	}

	if err := s.Decode("gmail", "stats", &text); !errors.Is(err, ErrNoSource) {
		t.Errorf("Decode(missing source) error = %v, want ErrNoSource", err)
	}
}

func TestFailures(t *testing.T) {
	s, err := Open(writeSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	failures, err := s.Failures("github")
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures["commits"].Kind != "timeout" {
		t.Errorf("Failures() = %+v", failures)
	}
}

func TestAsError(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`{"error": "x", "kind": "timeout"}`, true},
		// A tool's own object of this shape cannot be told apart.
		{`{"error": "", "kind": "report"}`, true},
		{`{"error": "x"}`, false},
		{`{"error": "x", "kind": "timeout", "extra": 1}`, false},
		{`"error"`, false},
		{`[]`, false},
	}
	for _, tc := range cases {
		if _, got := AsError([]byte(tc.raw)); got != tc.want {
			t.Errorf("AsError(%s) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
