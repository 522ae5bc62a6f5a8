package gather

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"weeksnap/internal/command"
)

// EntryKind says what a sub-query produced.
type EntryKind string

const (
	// EntryParsed holds structured JSON decoded from the tool's output.
	EntryParsed EntryKind = "parsed"
	// EntryRaw holds output that was not valid JSON, kept verbatim.
	EntryRaw EntryKind = "raw"
	// EntryEmpty means the tool succeeded but printed nothing.
	EntryEmpty EntryKind = "empty"
	// EntryError means the command itself failed.
	EntryError EntryKind = "error"
)

// Entry is the result of one sub-query.
type Entry struct {
	Kind        EntryKind
	Value       any    // EntryParsed
	Text        string // EntryRaw
	Error       string // EntryError
	FailureKind string // EntryError
}

// ParseOutput classifies a successful command's stdout. Output that is a
// single JSON value becomes EntryParsed; whitespace-only output is
// EntryEmpty; anything else is EntryRaw with the text untouched.
func ParseOutput(out string) Entry {
	if strings.TrimSpace(out) == "" {
		return Entry{Kind: EntryEmpty}
	}

	dec := json.NewDecoder(strings.NewReader(out))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Entry{Kind: EntryRaw, Text: out}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Entry{Kind: EntryRaw, Text: out}
	}
	return Entry{Kind: EntryParsed, Value: v}
}

// EntryFor converts a command result into an entry.
func EntryFor(res command.Result) Entry {
	if res.Failure != nil {
		return ErrorEntry(string(res.Failure.Kind), res.Failure.Error())
	}
	return ParseOutput(res.Stdout)
}

// ErrorEntry builds an explicit failure marker.
func ErrorEntry(kind, msg string) Entry {
	return Entry{Kind: EntryError, Error: msg, FailureKind: kind}
}

// MarshalJSON renders parsed entries as their value, raw entries as a
// string, empty entries as "" and errors as {"error": ..., "kind": ...}.
// Parsed values that look like the last two are written unchanged.
func (e Entry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EntryParsed:
		return json.Marshal(e.Value)
	case EntryRaw:
		return json.Marshal(e.Text)
	case EntryError:
		return json.Marshal(struct {
			Error string `json:"error"`
			Kind  string `json:"kind,omitempty"`
		}{e.Error, e.FailureKind})
	default:
		return []byte(`""`), nil
	}
}

// Document is one source's merged sub-query results. Labels keep the order
// in which they were first set.
type Document struct {
	Source string
	// Path is where the document was persisted; empty until written.
	Path string

	labels  []string
	entries map[string]Entry
}

// NewDocument creates an empty document for source.
func NewDocument(source string) *Document {
	return &Document{Source: source, entries: make(map[string]Entry)}
}

// Set records the entry for label.
func (d *Document) Set(label string, e Entry) {
	if _, ok := d.entries[label]; !ok {
		d.labels = append(d.labels, label)
	}
	d.entries[label] = e
}

// Get returns the entry for label.
func (d *Document) Get(label string) (Entry, bool) {
	e, ok := d.entries[label]
	return e, ok
}

// Labels returns the labels in insertion order.
func (d *Document) Labels() []string {
	return append([]string(nil), d.labels...)
}

// Len returns the number of entries.
func (d *Document) Len() int { return len(d.labels) }

// Failed returns the labels whose command failed.
func (d *Document) Failed() []string {
	var out []string
	for _, l := range d.labels {
		if d.entries[l].Kind == EntryError {
			out = append(out, l)
		}
	}
	return out
}

// MarshalJSON writes the document as a JSON object with keys in label order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range d.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.entries[l])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
