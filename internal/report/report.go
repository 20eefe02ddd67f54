// Package report builds and writes the JSON output documents.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// OutlineEntry is one heading in an outline document.
type OutlineEntry struct {
	Level doctree.Level `json:"level"`
	Text  string        `json:"text"`
	Page  int           `json:"page"`
}

// OutlineDoc is the per-document output of the outline pipeline.
type OutlineDoc struct {
	Title   string         `json:"title"`
	Outline []OutlineEntry `json:"outline"`
}

// NewOutlineDoc converts an outline into its output form.
func NewOutlineDoc(o doctree.Outline) OutlineDoc {
	doc := OutlineDoc{Title: o.Title, Outline: make([]OutlineEntry, 0, len(o.Headings))}
	for _, h := range o.Headings {
		doc.Outline = append(doc.Outline, OutlineEntry{Level: h.Level, Text: h.Text(), Page: h.Page})
	}
	return doc
}

// ToOutline rebuilds an outline from its output form.
func (d OutlineDoc) ToOutline() doctree.Outline {
	o := doctree.Outline{Title: d.Title, Headings: make([]doctree.HeadingCandidate, 0, len(d.Outline))}
	for _, e := range d.Outline {
		o.Headings = append(o.Headings, doctree.HeadingCandidate{
			Line:  doctree.Line{Text: e.Text, Page: e.Page},
			Level: e.Level,
			Page:  e.Page,
		})
	}
	return o
}

// Metadata describes one ranking run.
type Metadata struct {
	InputDocuments      []string       `json:"input_documents"`
	Persona             map[string]any `json:"persona"`
	JobToBeDone         map[string]any `json:"job_to_be_done"`
	ProcessingTimestamp string         `json:"processing_timestamp"`
}

// Section is one ranked heading in the ranking output.
type Section struct {
	Level          doctree.Level `json:"level"`
	Text           string        `json:"text"`
	Page           int           `json:"page"`
	ImportanceRank int           `json:"importance_rank"`
	RefinedText    string        `json:"refined_text"`
	Document       string        `json:"document"`
}

// RankingDoc is the combined output of the ranking pipeline.
type RankingDoc struct {
	Metadata          Metadata  `json:"metadata"`
	ExtractedSections []Section `json:"extracted_sections"`
}

// NewRankingDoc assembles the ranking output. refined_text mirrors text.
func NewRankingDoc(inputs []string, persona, job map[string]any, ranked []doctree.RankedHeading, at time.Time) RankingDoc {
	if inputs == nil {
		inputs = []string{}
	}
	if persona == nil {
		persona = map[string]any{}
	}
	if job == nil {
		job = map[string]any{}
	}
	doc := RankingDoc{
		Metadata: Metadata{
			InputDocuments:      inputs,
			Persona:             persona,
			JobToBeDone:         job,
			ProcessingTimestamp: Timestamp(at),
		},
		ExtractedSections: make([]Section, 0, len(ranked)),
	}
	for _, r := range ranked {
		doc.ExtractedSections = append(doc.ExtractedSections, Section{
			Level:          r.Level,
			Text:           r.Text(),
			Page:           r.Page,
			ImportanceRank: r.ImportanceRank,
			RefinedText:    r.Text(),
			Document:       r.Document,
		})
	}
	return doc
}

// Timestamp formats t as UTC ISO-8601 with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Marshal encodes v as indented JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes v to dir/name, creating dir if needed. The file is
// written to a temporary name and renamed into place.
func WriteJSON(dir, name string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}
