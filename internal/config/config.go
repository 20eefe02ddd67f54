// Package config loads settings from defaults, an optional YAML file and the
// environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Batch directories
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	// Classification
	Strategy         string   `yaml:"strategy"` // relative | absolute
	AbsoluteH1       float64  `yaml:"absolute_h1"`
	AbsoluteH2       float64  `yaml:"absolute_h2"`
	AbsoluteH3       float64  `yaml:"absolute_h3"`
	H2RequiresBold   bool     `yaml:"h2_requires_bold"`
	MinHeadingLength int      `yaml:"min_heading_length"`
	ExcludeBodyShape bool     `yaml:"exclude_body_shape"`
	MinSignals       int      `yaml:"min_signals"`
	PromoteKeywords  bool     `yaml:"promote_keywords"`
	HeadingKeywords  []string `yaml:"heading_keywords"`

	// Extraction
	LineTolerance     float64  `yaml:"line_tolerance"`
	SourceExtensions  []string `yaml:"source_extensions"`
	PDFFallbackPdfcpu bool     `yaml:"pdf_fallback_pdfcpu"`

	// Batch runs
	BatchWorkers int    `yaml:"batch_workers"`
	CachePath    string `yaml:"cache_path"`

	// HTTP server
	Port           string        `yaml:"port"`
	APIKey         string        `yaml:"api_key"`
	WorkerCount    int           `yaml:"worker_count"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	JobTTL         time.Duration `yaml:"job_ttl"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		InputDir:  "/app/input",
		OutputDir: "/app/output",

		Strategy:         "relative",
		AbsoluteH1:       17,
		AbsoluteH2:       15,
		AbsoluteH3:       13,
		MinHeadingLength: 4,

		LineTolerance:     1.0,
		SourceExtensions:  []string{".pdf"},
		PDFFallbackPdfcpu: true,

		BatchWorkers: 1,

		Port:           "8090",
		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 52428800, // 50MB
		JobTTL:         1 * time.Hour,

		LogLevel: "info",
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it, while a named file that cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.InputDir = envOr("INPUT_DIR", c.InputDir)
	c.OutputDir = envOr("OUTPUT_DIR", c.OutputDir)

	c.Strategy = envOr("STRATEGY", c.Strategy)
	c.AbsoluteH1 = envFloat("ABSOLUTE_H1", c.AbsoluteH1)
	c.AbsoluteH2 = envFloat("ABSOLUTE_H2", c.AbsoluteH2)
	c.AbsoluteH3 = envFloat("ABSOLUTE_H3", c.AbsoluteH3)
	c.H2RequiresBold = envBool("H2_REQUIRES_BOLD", c.H2RequiresBold)
	c.MinHeadingLength = envInt("MIN_HEADING_LENGTH", c.MinHeadingLength)
	c.ExcludeBodyShape = envBool("EXCLUDE_BODY_SHAPE", c.ExcludeBodyShape)
	c.MinSignals = envInt("MIN_SIGNALS", c.MinSignals)
	c.PromoteKeywords = envBool("PROMOTE_KEYWORDS", c.PromoteKeywords)
	c.HeadingKeywords = envList("HEADING_KEYWORDS", c.HeadingKeywords)

	c.LineTolerance = envFloat("LINE_TOLERANCE", c.LineTolerance)
	c.SourceExtensions = envList("SOURCE_EXTENSIONS", c.SourceExtensions)
	c.PDFFallbackPdfcpu = envBool("PDF_FALLBACK_PDFCPU", c.PDFFallbackPdfcpu)

	c.BatchWorkers = envInt("BATCH_WORKERS", c.BatchWorkers)
	c.CachePath = envOr("CACHE_PATH", c.CachePath)

	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("API_KEY", c.APIKey)
	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)

	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
}

func (c *Config) clamp() {
	d := Defaults()
	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.MinHeadingLength < 0 {
		c.MinHeadingLength = d.MinHeadingLength
	}
	if c.MinSignals < 0 {
		c.MinSignals = 0
	}
	if c.LineTolerance <= 0 {
		c.LineTolerance = d.LineTolerance
	}
	if c.AbsoluteH1 <= 0 || c.AbsoluteH2 <= 0 || c.AbsoluteH3 <= 0 {
		c.AbsoluteH1, c.AbsoluteH2, c.AbsoluteH3 = d.AbsoluteH1, d.AbsoluteH2, d.AbsoluteH3
	}

	exts := c.SourceExtensions[:0:0]
	for _, e := range c.SourceExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	if len(exts) == 0 {
		exts = d.SourceExtensions
	}
	c.SourceExtensions = exts

	if c.BatchWorkers <= 0 {
		c.BatchWorkers = d.BatchWorkers
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.Port == "" {
		c.Port = d.Port
	}
}

// Validate checks settings every command depends on.
func (c Config) Validate() error {
	switch c.Strategy {
	case "relative", "absolute":
	default:
		return fmt.Errorf("STRATEGY must be relative or absolute, got %q", c.Strategy)
	}
	if !(c.AbsoluteH1 >= c.AbsoluteH2 && c.AbsoluteH2 >= c.AbsoluteH3) {
		return fmt.Errorf("absolute thresholds must satisfy H1 >= H2 >= H3, got %v/%v/%v",
			c.AbsoluteH1, c.AbsoluteH2, c.AbsoluteH3)
	}
	return nil
}

// ValidateServe additionally checks settings the HTTP server requires.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	return nil
}

// Accepts reports whether filename has one of the configured source
// extensions.
func (c Config) Accepts(filename string) bool {
	name := strings.ToLower(filename)
	for _, e := range c.SourceExtensions {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
