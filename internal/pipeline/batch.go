package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/rank"
	"github.com/dgallion1/docoutline/internal/report"
)

// Batch-mode file layout under the input and output directories.
const (
	RankingSourceDir  = "pdfs"
	PersonaFile       = "persona.json"
	JobFile           = "job.json"
	RankingOutputFile = "output.json"
)

// Summary counts what a batch run did.
type Summary struct {
	Discovered int
	Processed  int
	Skipped    int
	Written    int
}

// Batch runs the pipeline over a directory of source documents.
type Batch struct {
	proc *Processor
	cfg  config.Config
	log  *slog.Logger
	now  func() time.Time
}

func NewBatch(proc *Processor, cfg config.Config, log *slog.Logger) *Batch {
	return &Batch{proc: proc, cfg: cfg, log: log, now: time.Now}
}

// NamedOutline is an outline paired with its source filename.
type NamedOutline struct {
	Name    string
	Outline doctree.Outline
}

// RunOutlines writes one <stem>.json per source document in the input
// directory. A missing or empty input directory writes nothing.
func (b *Batch) RunOutlines(ctx context.Context) (Summary, error) {
	names, err := b.sources(b.cfg.InputDir)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Discovered: len(names)}
	if len(names) == 0 {
		b.log.Info("no source documents", "dir", b.cfg.InputDir)
		return sum, nil
	}

	outlines, err := b.process(ctx, b.cfg.InputDir, names)
	if err != nil {
		return sum, err
	}
	sum.Processed = len(outlines)
	sum.Skipped = len(names) - len(outlines)

	outputs := outputNames(names)
	for _, no := range outlines {
		name := outputs[no.Name]
		if name != doctree.Stem(no.Name)+".json" {
			b.log.Warn("output name shared by several sources, keeping extension", "document", no.Name, "output", name)
		}
		path, err := report.WriteJSON(b.cfg.OutputDir, name, report.NewOutlineDoc(no.Outline))
		if err != nil {
			return sum, err
		}
		sum.Written++
		b.log.Info("outline written", "document", no.Name, "path", path, "headings", len(no.Outline.Headings))
	}
	return sum, nil
}

// RunRanking ranks the headings of every document under <input>/pdfs against
// the persona and job descriptions and writes a single output.json. The file
// is written even when there are no source documents.
func (b *Batch) RunRanking(ctx context.Context) (Summary, error) {
	dir := filepath.Join(b.cfg.InputDir, RankingSourceDir)
	names, err := b.sources(dir)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Discovered: len(names)}
	if len(names) == 0 {
		b.log.Info("no source documents", "dir", dir)
	}

	persona := b.readIntent(filepath.Join(b.cfg.InputDir, PersonaFile))
	job := b.readIntent(filepath.Join(b.cfg.InputDir, JobFile))

	var outlines []NamedOutline
	if len(names) > 0 {
		outlines, err = b.process(ctx, dir, names)
		if err != nil {
			return sum, err
		}
	}
	sum.Processed = len(outlines)
	sum.Skipped = len(names) - len(outlines)

	doc := RankDocuments(names, outlines, persona, job, b.now())
	path, err := report.WriteJSON(b.cfg.OutputDir, RankingOutputFile, doc)
	if err != nil {
		return sum, err
	}
	sum.Written = 1
	b.log.Info("ranking written", "path", path, "documents", len(outlines), "sections", len(doc.ExtractedSections))
	return sum, nil
}

// RankDocuments scores every heading of the given outlines against persona
// and job in a single run.
func RankDocuments(inputs []string, outlines []NamedOutline, persona, job rank.Intent, at time.Time) report.RankingDoc {
	var sections []rank.Section
	for _, no := range outlines {
		for _, h := range no.Outline.Headings {
			sections = append(sections, rank.Section{Heading: h, Document: no.Name})
		}
	}
	ranked := rank.Rank(sections, rank.IntentKeywords(persona, job))
	return report.NewRankingDoc(inputs, persona.Echo(), job.Echo(), ranked, at)
}

// outputNames maps each source to its outline filename, normally <stem>.json.
// Sources whose output would clash, compared case-insensitively, keep their
// extension instead (x.md -> x.md.json), so every source gets its own file.
func outputNames(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = doctree.Stem(n) + ".json"
	}
	for {
		claims := make(map[string][]string)
		for _, n := range names {
			key := strings.ToLower(out[n])
			claims[key] = append(claims[key], n)
		}
		changed := false
		for _, group := range claims {
			if len(group) < 2 {
				continue
			}
			for _, n := range group {
				if full := n + ".json"; out[n] != full {
					out[n] = full
					changed = true
				}
			}
		}
		if !changed {
			return out
		}
	}
}

// sources lists accepted regular files in dir, sorted by name.
func (b *Batch) sources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.log.Warn("input directory missing", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !b.cfg.Accepts(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// process builds outlines with at most BatchWorkers documents in flight.
// Failed documents are logged and left out; the rest keep input order.
func (b *Batch) process(ctx context.Context, dir string, names []string) ([]NamedOutline, error) {
	results := make([]*NamedOutline, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.BatchWorkers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := b.log.With("document", name)
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				log.Warn("skipping unreadable document", "error", err)
				return nil
			}
			o, cached, err := b.proc.Outline(gctx, name, data)
			if err != nil {
				log.Warn("skipping document", "error", err)
				return nil
			}
			log.Info("document processed", "headings", len(o.Headings), "cached", cached)
			results[i] = &NamedOutline{Name: name, Outline: o}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]NamedOutline, 0, len(names))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// readIntent loads a persona or job file. A missing or malformed file is an
// empty intent.
func (b *Batch) readIntent(path string) rank.Intent {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			b.log.Warn("intent file unreadable", "path", path, "error", err)
		}
		return rank.Intent{}
	}
	in := rank.ParseIntent(data)
	if len(in) == 0 {
		b.log.Warn("intent file empty or malformed", "path", path)
	}
	return in
}
