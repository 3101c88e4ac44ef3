// Package loader implements the one-shot CSV bulk import. Entity types
// declare their files and dependencies; the loader orders them with a
// topological sort, resolves foreign-key references row by row and creates
// records idempotently, so re-running over the same files is safe.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"gorm.io/gorm"
)

// Row is one CSV record keyed by header column.
type Row map[string]string

// LoadFunc imports a single row. It reports whether a new record was
// created (false means the record already existed).
type LoadFunc func(ctx context.Context, tx *gorm.DB, refs *RefMap, row Row) (created bool, err error)

// EntitySpec describes one importable entity type.
type EntitySpec struct {
	Name      string   // entity name, also the RefMap namespace
	FileName  string   // optional; defaults to <Name>.csv
	DependsOn []string // entity names that must be loaded first
	Load      LoadFunc
}

// File returns the CSV file name for the entity, defaulting to "<name>.csv".
func (s EntitySpec) File() string {
	if s.FileName != "" {
		return s.FileName
	}
	return s.Name + ".csv"
}

// FileReport accumulates per-file outcome counts.
type FileReport struct {
	Entity  string
	File    string
	Skipped bool // file absent
	Created int
	Failed  int
}

// Summary is the outcome of a whole run.
type Summary struct {
	Files     []FileReport
	Succeeded int // files processed without a single row failure
	Failed    int // files with at least one failure
}

type Loader struct {
	db        *gorm.DB
	logger    *slog.Logger
	specs     []EntitySpec
	delimiter rune
	decoder   *encoding.Decoder
}

// Option configures a Loader.
type Option func(*Loader)

// WithDelimiter overrides the default comma field delimiter.
func WithDelimiter(d rune) Option {
	return func(l *Loader) { l.delimiter = d }
}

// WithEncoding selects the text encoding of the CSV files.
// Supported: utf-8 (default), latin-1 / iso-8859-1, windows-1251.
func WithEncoding(name string) Option {
	return func(l *Loader) { l.decoder = decoderFor(name) }
}

func decoderFor(name string) *encoding.Decoder {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8.NewDecoder()
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder()
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder()
	default:
		return unicode.UTF8.NewDecoder()
	}
}

func New(db *gorm.DB, logger *slog.Logger, specs []EntitySpec, opts ...Option) *Loader {
	l := &Loader{
		db:        db,
		logger:    logger,
		specs:     specs,
		delimiter: ',',
		decoder:   unicode.UTF8.NewDecoder(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run imports every registered entity file found under dir. The whole run
// happens inside one transaction, so a crash mid-run leaves the database
// untouched. Row-level failures are counted, not fatal.
func (l *Loader) Run(ctx context.Context, dir string) (*Summary, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory %q not found", dir)
	}

	ordered, err := sortSpecs(l.specs)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.processAll(ctx, tx, dir, ordered, summary)
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (l *Loader) processAll(ctx context.Context, tx *gorm.DB, dir string, ordered []EntitySpec, summary *Summary) error {
	refs := NewRefMap()
	for _, spec := range ordered {
		report := l.processFile(ctx, tx, filepath.Join(dir, spec.File()), spec, refs)
		summary.Files = append(summary.Files, report)
		switch {
		case report.Skipped:
			// not counted either way
		case report.Failed > 0:
			summary.Failed++
		default:
			summary.Succeeded++
		}
	}
	return nil
}

// processFile imports one entity file. A bad row is logged and counted but
// never aborts the file.
func (l *Loader) processFile(ctx context.Context, tx *gorm.DB, path string, spec EntitySpec, refs *RefMap) FileReport {
	report := FileReport{Entity: spec.Name, File: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		l.logger.Warn("file not found, skipping entity", "entity", spec.Name, "file", path)
		report.Skipped = true
		return report
	}
	defer f.Close()

	reader := csv.NewReader(l.decoder.Reader(f))
	reader.Comma = l.delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		l.logger.Error("failed to read header", "entity", spec.Name, "file", path, "error", err)
		report.Failed++
		return report
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Error("failed to read row", "entity", spec.Name, "error", err)
			report.Failed++
			continue
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		created, err := spec.Load(ctx, tx, refs, row)
		if err != nil {
			l.logger.Error("failed to create record",
				"entity", spec.Name, "row", fmt.Sprintf("%v", record), "error", err)
			report.Failed++
			continue
		}
		if created {
			report.Created++
		}
	}

	l.logger.Info("file processed",
		"entity", spec.Name, "file", report.File,
		"created", report.Created, "failed", report.Failed)
	return report
}

// sortSpecs orders specs so every entity comes after its declared
// dependencies (Kahn's algorithm, registration order as tie-break). A cycle
// is a hard error before any file is read.
func sortSpecs(specs []EntitySpec) ([]EntitySpec, error) {
	byName := make(map[string]EntitySpec, len(specs))
	indegree := make(map[string]int, len(specs))
	dependents := make(map[string][]string, len(specs))

	for _, s := range specs {
		byName[s.Name] = s
		indegree[s.Name] = 0
	}
	for _, s := range specs {
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("entity %q depends on unregistered entity %q", s.Name, dep)
			}
			indegree[s.Name]++
			dependents[dep] = append(dependents[dep], s.Name)
		}
	}

	var ordered []EntitySpec
	var ready []string
	for _, s := range specs {
		if indegree[s.Name] == 0 {
			ready = append(ready, s.Name)
		}
	}

	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(specs) {
		var cyclic []string
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		return nil, &CycleError{Entities: cyclic}
	}
	return ordered, nil
}
