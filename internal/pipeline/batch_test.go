package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/report"
	"github.com/dgallion1/docoutline/internal/store"
)

const alphaMD = `# Alpha Report

Some body text.

#### Budget Summary

More body text.

#### Data Analysis Methods
`

const betaMD = `# Beta Notes

###### tiny heading ignored
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.InputDir = filepath.Join(t.TempDir(), "input")
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	cfg.Strategy = "absolute"
	cfg.SourceExtensions = []string{".md", ".docx"}
	return cfg
}

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newBatch(t *testing.T, cfg config.Config, cache *store.Cache) *Batch {
	t.Helper()
	proc, err := NewProcessor(cfg, cache, discard())
	if err != nil {
		t.Fatalf("processor: %v", err)
	}
	b := NewBatch(proc, cfg, discard())
	b.now = func() time.Time { return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC) }
	return b
}

func readOutline(t *testing.T, path string) report.OutlineDoc {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var doc report.OutlineDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return doc
}

func TestRunOutlines_WritesPerDocument(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg.InputDir, "alpha.md", alphaMD)
	writeInput(t, cfg.InputDir, "beta.md", betaMD)
	writeInput(t, cfg.InputDir, "notes.txt", "# Not Picked Up")
	writeInput(t, cfg.InputDir, "broken.docx", "not a zip archive")

	sum, err := newBatch(t, cfg, nil).RunOutlines(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Discovered != 3 || sum.Processed != 2 || sum.Skipped != 1 || sum.Written != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}

	alpha := readOutline(t, filepath.Join(cfg.OutputDir, "alpha.json"))
	if alpha.Title != "alpha" {
		t.Errorf("expected stem title, got %q", alpha.Title)
	}
	want := []report.OutlineEntry{
		{Level: "H1", Text: "Alpha Report", Page: 1},
		{Level: "H2", Text: "Budget Summary", Page: 1},
		{Level: "H2", Text: "Data Analysis Methods", Page: 1},
	}
	if len(alpha.Outline) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), alpha.Outline)
	}
	for i, w := range want {
		if alpha.Outline[i] != w {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, alpha.Outline[i])
		}
	}

	beta := readOutline(t, filepath.Join(cfg.OutputDir, "beta.json"))
	if len(beta.Outline) != 1 || beta.Outline[0].Text != "Beta Notes" {
		t.Errorf("unexpected beta outline %+v", beta.Outline)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "broken.json")); !os.IsNotExist(err) {
		t.Error("expected no output for the unparsable document")
	}
}

func TestRunOutlines_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg.InputDir, "alpha.md", alphaMD)
	path := filepath.Join(cfg.OutputDir, "alpha.json")

	if _, err := newBatch(t, cfg, nil).RunOutlines(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)

	cfg.BatchWorkers = 4
	if _, err := newBatch(t, cfg, nil).RunOutlines(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("expected byte-identical output:\n%s\n---\n%s", first, second)
	}
}

func TestRunOutlines_EmptyAndMissingInput(t *testing.T) {
	cfg := testConfig(t)

	sum, err := newBatch(t, cfg, nil).RunOutlines(context.Background())
	if err != nil || sum.Written != 0 {
		t.Fatalf("expected missing input dir to succeed with nothing written, got %+v %v", sum, err)
	}

	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	sum, err = newBatch(t, cfg, nil).RunOutlines(context.Background())
	if err != nil || sum.Written != 0 {
		t.Fatalf("expected empty input dir to succeed with nothing written, got %+v %v", sum, err)
	}
	if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
		t.Error("expected output dir to stay absent")
	}
}

func TestRunOutlines_UnwritableOutput(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg.InputDir, "alpha.md", alphaMD)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.OutputDir = filepath.Join(blocker, "out")

	if _, err := newBatch(t, cfg, nil).RunOutlines(context.Background()); err == nil {
		t.Error("expected error for unwritable output dir")
	}
}

func TestRunRanking(t *testing.T) {
	cfg := testConfig(t)
	pdfs := filepath.Join(cfg.InputDir, RankingSourceDir)
	writeInput(t, pdfs, "alpha.md", alphaMD)
	writeInput(t, pdfs, "beta.md", betaMD)
	writeInput(t, cfg.InputDir, PersonaFile, `{"role": "Analyst"}`)
	writeInput(t, cfg.InputDir, JobFile, `{"task": "data analysis", "focus": ["budget"]}`)

	sum, err := newBatch(t, cfg, nil).RunRanking(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Written != 1 || sum.Processed != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, RankingOutputFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc report.RankingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	if len(doc.Metadata.InputDocuments) != 2 || doc.Metadata.InputDocuments[0] != "alpha.md" {
		t.Errorf("unexpected input documents %v", doc.Metadata.InputDocuments)
	}
	if doc.Metadata.Persona["role"] != "Analyst" {
		t.Errorf("expected persona echoed, got %v", doc.Metadata.Persona)
	}
	if doc.Metadata.ProcessingTimestamp != "2025-07-01T09:00:00.000Z" {
		t.Errorf("unexpected timestamp %q", doc.Metadata.ProcessingTimestamp)
	}

	want := []struct {
		text string
		rank int
		doc  string
	}{
		{"Budget Summary", 3, "alpha.md"},
		{"Data Analysis Methods", 3, "alpha.md"},
		{"Alpha Report", 1, "alpha.md"},
		{"Beta Notes", 1, "beta.md"},
	}
	if len(doc.ExtractedSections) != len(want) {
		t.Fatalf("expected %d sections, got %+v", len(want), doc.ExtractedSections)
	}
	for i, w := range want {
		s := doc.ExtractedSections[i]
		if s.Text != w.text || s.ImportanceRank != w.rank || s.Document != w.doc || s.RefinedText != s.Text {
			t.Errorf("section %d: expected %+v, got %+v", i, w, s)
		}
	}
}

func TestRunRanking_MissingIntentFiles(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, filepath.Join(cfg.InputDir, RankingSourceDir), "alpha.md", alphaMD)

	if _, err := newBatch(t, cfg, nil).RunRanking(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(cfg.OutputDir, RankingOutputFile))
	var doc report.RankingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, s := range doc.ExtractedSections {
		if s.ImportanceRank != 1 {
			t.Errorf("expected baseline rank without intent, got %+v", s)
		}
	}
}

func TestProcessor_UsesCache(t *testing.T) {
	cfg := testConfig(t)
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	proc, err := NewProcessor(cfg, cache, discard())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	first, cached, err := proc.Outline(ctx, "alpha.md", []byte(alphaMD))
	if err != nil || cached {
		t.Fatalf("expected fresh outline, got cached=%v err=%v", cached, err)
	}
	second, cached, err := proc.Outline(ctx, "alpha.md", []byte(alphaMD))
	if err != nil || !cached {
		t.Fatalf("expected cached outline, got cached=%v err=%v", cached, err)
	}
	a, _ := report.Marshal(report.NewOutlineDoc(first))
	b, _ := report.Marshal(report.NewOutlineDoc(second))
	if string(a) != string(b) {
		t.Errorf("expected cached outline to match:\n%s\n%s", a, b)
	}

	snap := proc.Stats().Snapshot()
	if snap.Documents != 2 || snap.CacheHits != 1 {
		t.Errorf("unexpected stats %+v", snap)
	}

	cfg.Strategy = "relative"
	other, err := NewProcessor(cfg, cache, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, cached, _ := other.Outline(ctx, "alpha.md", []byte(alphaMD)); cached {
		t.Error("expected a different strategy to miss the cache")
	}
}

func TestNewClassifier_UnknownStrategy(t *testing.T) {
	cfg := config.Defaults()
	cfg.Strategy = "fuzzy"
	if _, err := NewClassifier(cfg); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestRunOutlines_SharedStemKeepsBothOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.SourceExtensions = []string{".md", ".markdown"}
	writeInput(t, cfg.InputDir, "alpha.md", alphaMD)
	writeInput(t, cfg.InputDir, "x.md", alphaMD)
	writeInput(t, cfg.InputDir, "x.markdown", betaMD)

	sum, err := newBatch(t, cfg, nil).RunOutlines(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	want := []string{"alpha.json", "x.markdown.json", "x.md.json"}
	if len(got) != len(want) {
		t.Fatalf("expected outputs %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if sum.Written != len(got) {
		t.Errorf("expected Written to match files on disk (%d), got %+v", len(got), sum)
	}

	if doc := readOutline(t, filepath.Join(cfg.OutputDir, "x.markdown.json")); len(doc.Outline) != 1 || doc.Outline[0].Text != "Beta Notes" {
		t.Errorf("expected x.markdown outline, got %+v", doc)
	}
	if doc := readOutline(t, filepath.Join(cfg.OutputDir, "x.md.json")); len(doc.Outline) != 3 {
		t.Errorf("expected x.md outline, got %+v", doc)
	}
}

func TestOutputNames(t *testing.T) {
	got := outputNames([]string{"a.pdf", "x.markdown", "x.md", "x.md.pdf", "Y.pdf", "y.docx"})
	want := map[string]string{
		"a.pdf":      "a.json",
		"x.markdown": "x.markdown.json",
		"x.md":       "x.md.json",
		"x.md.pdf":   "x.md.pdf.json",
		"Y.pdf":      "Y.pdf.json",
		"y.docx":     "y.docx.json",
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s: expected %q, got %q", name, w, got[name])
		}
	}
}

func TestRunRanking_EmptyInputStillWrites(t *testing.T) {
	cfg := testConfig(t)

	sum, err := newBatch(t, cfg, nil).RunRanking(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Discovered != 0 || sum.Written != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, RankingOutputFile))
	if err != nil {
		t.Fatalf("expected output.json without sources: %v", err)
	}
	for _, want := range []string{`"input_documents": []`, `"extracted_sections": []`, `"persona": {}`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in:\n%s", want, data)
		}
	}
}

func TestProcessor_CacheRederivesFilenameTitle(t *testing.T) {
	cfg := testConfig(t)
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()
	ctx := context.Background()

	proc, err := NewProcessor(cfg, cache, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := proc.Outline(ctx, "alpha.md", []byte(alphaMD)); err != nil {
		t.Fatal(err)
	}
	o, cached, err := proc.Outline(ctx, "copy.md", []byte(alphaMD))
	if err != nil || !cached {
		t.Fatalf("expected cache hit, got cached=%v err=%v", cached, err)
	}
	if o.Title != "copy" {
		t.Errorf("expected title from the new filename, got %q", o.Title)
	}

	// Under the relative strategy the largest line is the title, which is
	// part of the content and survives the cache as is.
	cfg.Strategy = "relative"
	rel, err := NewProcessor(cfg, cache, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := rel.Outline(ctx, "a.md", []byte(alphaMD)); err != nil {
		t.Fatal(err)
	}
	o, cached, err = rel.Outline(ctx, "b.md", []byte(alphaMD))
	if err != nil || !cached {
		t.Fatalf("expected cache hit, got cached=%v err=%v", cached, err)
	}
	if o.Title != "Alpha Report" || !o.TitleFromText {
		t.Errorf("expected text title from cache, got %q (from text=%v)", o.Title, o.TitleFromText)
	}
}

func TestFingerprint_KeywordCaseInsensitive(t *testing.T) {
	a := config.Defaults()
	a.HeadingKeywords = []string{"Summary", "APPENDIX"}
	b := config.Defaults()
	b.HeadingKeywords = []string{"summary", "appendix"}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("expected keyword case not to change the fingerprint")
	}
	b.HeadingKeywords = []string{"summary"}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("expected a different keyword list to change the fingerprint")
	}
}

func TestProcessor_OutlinesPDF(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "report.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.SourceExtensions = []string{".pdf"}
	proc, err := NewProcessor(cfg, nil, discard())
	if err != nil {
		t.Fatal(err)
	}

	o, _, err := proc.Outline(context.Background(), "report.pdf", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := report.NewOutlineDoc(o)
	if got.Title != "report" {
		t.Errorf("expected stem title, got %q", got.Title)
	}
	want := []report.OutlineEntry{
		{Level: "H1", Text: "Annual Report 2024", Page: 1},
		{Level: "H2", Text: "Budget Summary", Page: 1},
		{Level: "H2", Text: "Data Analysis Methods", Page: 2},
		{Level: "H3", Text: "Sampling", Page: 2},
	}
	if len(got.Outline) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got.Outline)
	}
	for i, w := range want {
		if got.Outline[i] != w {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, got.Outline[i])
		}
	}
}
