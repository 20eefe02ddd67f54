package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docoutline/internal/classify"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/extract"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/report"
	"github.com/dgallion1/docoutline/internal/store"
)

// Processor turns one source document into its outline. It is safe for
// concurrent use; every call gets its own font profile and seen set.
type Processor struct {
	cfg         config.Config
	classifier  *classify.Classifier
	cache       *store.Cache
	fingerprint string
	stats       *Stats
	log         *slog.Logger
}

// NewProcessor builds a Processor from configuration. cache may be nil.
func NewProcessor(cfg config.Config, cache *store.Cache, log *slog.Logger) (*Processor, error) {
	c, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return &Processor{
		cfg:         cfg,
		classifier:  c,
		cache:       cache,
		fingerprint: Fingerprint(cfg),
		stats:       NewStats(time.Hour),
		log:         log,
	}, nil
}

// NewClassifier builds the classifier the configuration describes.
func NewClassifier(cfg config.Config) (*classify.Classifier, error) {
	policy, err := classify.NewPolicy(cfg.Strategy, classify.Absolute{
		H1:             cfg.AbsoluteH1,
		H2:             cfg.AbsoluteH2,
		H3:             cfg.AbsoluteH3,
		H2RequiresBold: cfg.H2RequiresBold,
	})
	if err != nil {
		return nil, err
	}
	gates := classify.DefaultGates()
	gates.MinLength = cfg.MinHeadingLength
	gates.ExcludeBodyShape = cfg.ExcludeBodyShape
	gates.MinSignals = cfg.MinSignals
	gates.PromoteKeywords = cfg.PromoteKeywords
	if len(cfg.HeadingKeywords) > 0 {
		gates.Keywords = lowerAll(cfg.HeadingKeywords)
	}
	return classify.New(policy, gates), nil
}

// Fingerprint identifies the settings that affect an outline, so cached
// results are never served across configurations.
func Fingerprint(cfg config.Config) string {
	key := fmt.Sprintf("v2|%s|%g|%g|%g|%t|%d|%t|%d|%t|%s|%g|%t",
		cfg.Strategy, cfg.AbsoluteH1, cfg.AbsoluteH2, cfg.AbsoluteH3, cfg.H2RequiresBold,
		cfg.MinHeadingLength, cfg.ExcludeBodyShape, cfg.MinSignals, cfg.PromoteKeywords,
		strings.Join(lowerAll(cfg.HeadingKeywords), ","), cfg.LineTolerance, cfg.PDFFallbackPdfcpu)
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h[:8])
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

// Stats returns the processing statistics.
func (p *Processor) Stats() *Stats {
	return p.stats
}

// Outline returns the outline of one document. cached reports whether it
// came from the outline cache.
func (p *Processor) Outline(ctx context.Context, filename string, data []byte) (o doctree.Outline, cached bool, err error) {
	start := time.Now()
	log := p.log.With("document", filename)
	hash := ContentHashHex(data)

	if o, ok := p.lookup(ctx, log, hash, filename); ok {
		p.stats.Record(time.Since(start), true)
		return o, true, nil
	}

	pr, err := parser.ForFile(filename, parser.Options{PDFFallback: p.cfg.PDFFallbackPdfcpu})
	if err != nil {
		p.stats.RecordFailure()
		return doctree.Outline{}, false, err
	}
	doc, err := pr.Parse(bytes.NewReader(data), filename)
	if err != nil {
		p.stats.RecordFailure()
		return doctree.Outline{}, false, fmt.Errorf("parse %s: %w", filename, err)
	}

	o = p.Assemble(doc)
	p.remember(ctx, log, hash, filename, o)
	p.stats.Record(time.Since(start), false)
	log.Debug("outline built", "pages", len(doc.Pages), "headings", len(o.Headings))
	return o, false, nil
}

// Assemble groups a parsed document's fragments into lines and classifies them.
func (p *Processor) Assemble(doc *doctree.Document) doctree.Outline {
	pages := make([][]doctree.Line, 0, len(doc.Pages))
	for _, pg := range doc.Pages {
		pages = append(pages, extract.GroupLines(pg, p.cfg.LineTolerance))
	}
	return outline.Assemble(doc.Name, pages, p.classifier)
}

// cachedOutline is the cache value. The content hash says nothing about the
// filename, so a title taken from the filename is re-derived on every hit.
type cachedOutline struct {
	report.OutlineDoc
	TitleFromText bool `json:"title_from_text"`
}

func (p *Processor) lookup(ctx context.Context, log *slog.Logger, hash, filename string) (doctree.Outline, bool) {
	if p.cache == nil {
		return doctree.Outline{}, false
	}
	data, ok, err := p.cache.Get(ctx, hash, p.fingerprint)
	if err != nil {
		log.Warn("cache lookup failed", "error", err)
		return doctree.Outline{}, false
	}
	if !ok {
		return doctree.Outline{}, false
	}
	var entry cachedOutline
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Warn("cached outline unreadable", "error", err)
		return doctree.Outline{}, false
	}
	o := entry.ToOutline()
	o.TitleFromText = entry.TitleFromText
	if !o.TitleFromText {
		o.Title = doctree.Stem(filename)
	}
	return o, true
}

func (p *Processor) remember(ctx context.Context, log *slog.Logger, hash, filename string, o doctree.Outline) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(cachedOutline{OutlineDoc: report.NewOutlineDoc(o), TitleFromText: o.TitleFromText})
	if err != nil {
		log.Warn("encode outline for cache", "error", err)
		return
	}
	if err := p.cache.Put(ctx, hash, p.fingerprint, filename, data); err != nil {
		log.Warn("cache write failed", "error", err)
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
