package gather

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"weeksnap/internal/command"
)

func TestParseOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want EntryKind
	}{
		{"array", `[{"number": 1}]`, EntryParsed},
		{"object with trailing newline", "{\"ok\": true}\n", EntryParsed},
		{"empty", "", EntryEmpty},
		{"whitespace", " \n\t", EntryEmpty},
		{"plain text", "Found 3 messages\n", EntryRaw},
		{"two values", `{"a":1} {"b":2}`, EntryRaw},
		{"json then junk", `{"a":1} trailing`, EntryRaw},
		{"truncated", `[{"a":`, EntryRaw},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseOutput(tc.in)
			if got.Kind != tc.want {
				t.Errorf("ParseOutput(%q).Kind = %q, want %q", tc.in, got.Kind, tc.want)
			}
			if got.Kind == EntryRaw && got.Text != tc.in {
				t.Errorf("raw text = %q, want verbatim %q", got.Text, tc.in)
			}
		})
	}
}

func TestParseOutputKeepsLargeNumbers(t *testing.T) {
	e := ParseOutput(`{"id": 12345678901234567890}`)
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"id":12345678901234567890}` {
		t.Errorf("round trip = %s", out)
	}
}

func TestEntryFor(t *testing.T) {
	failed := command.Result{Failure: &command.Failure{Kind: command.KindTimeout}}
	if e := EntryFor(failed); e.Kind != EntryError || e.FailureKind != "timeout" {
		t.Errorf("EntryFor(timeout) = %+v", e)
	}
	if e := EntryFor(command.Result{Stdout: "[]"}); e.Kind != EntryParsed {
		t.Errorf("EntryFor([]) kind = %q, want parsed", e.Kind)
	}
}

func TestDocumentMarshalOrder(t *testing.T) {
	doc := NewDocument("github")
	doc.Set("zeta", ParseOutput(`[1,2]`))
	doc.Set("alpha", ParseOutput("some text"))
	doc.Set("mid", ParseOutput(""))
	doc.Set("err", ErrorEntry("nonzero_exit", "exit status 1: no auth"))
	doc.Set("zeta", ParseOutput(`[3]`))

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"zeta":[3],"alpha":"some text","mid":"","err":{"error":"exit status 1: no auth","kind":"nonzero_exit"}}`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("document JSON mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid", "err"}, doc.Labels()); diff != "" {
		t.Errorf("Labels() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"err"}, doc.Failed()); diff != "" {
		t.Errorf("Failed() mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentIndentedMarshal(t *testing.T) {
	doc := NewDocument("slack")
	doc.Set("summary", ParseOutput(`{"count": 2}`))

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	want := "{\n  \"summary\": {\n    \"count\": 2\n  }\n}"
	if string(out) != want {
		t.Errorf("MarshalIndent = %q, want %q", out, want)
	}
}

func TestEmptyDocumentMarshal(t *testing.T) {
	out, err := json.Marshal(NewDocument("drive"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "{}" {
		t.Errorf("empty document = %s, want {}", out)
	}
}

func TestEntryEncodingCollisions(t *testing.T) {
	quoted := ParseOutput(`""`)
	if quoted.Kind != EntryParsed {
		t.Fatalf(`ParseOutput("\"\"").Kind = %q, want parsed`, quoted.Kind)
	}
	lookalike := ParseOutput(`{"error": "none", "kind": "report"}`)
	if lookalike.Kind != EntryParsed {
		t.Fatalf("lookalike Kind = %q, want parsed", lookalike.Kind)
	}

	pairs := []struct {
		name       string
		tool, mark Entry
	}{
		{"empty string", quoted, ParseOutput("")},
		{"error object", lookalike, ErrorEntry("report", "none")},
	}
	for _, tc := range pairs {
		a, err := json.Marshal(tc.tool)
		if err != nil {
			t.Fatal(err)
		}
		b, err := json.Marshal(tc.mark)
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Errorf("%s: tool output %s and marker %s should encode identically", tc.name, a, b)
		}
	}
}
