package usage

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"hsplit/internal/compiledb"
	"hsplit/internal/paths"
)

// UnitExtractor reads the symbols a translation unit mentions.
type UnitExtractor interface {
	ExtractUnit(ctx context.Context, file, dir string, flags []string) ([]string, error)
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Workers bounds concurrent extractions. Zero means DefaultWorkers().
	Workers int
	// Marker is stripped from unit paths, see paths.UnitID.
	Marker   string
	FlagMode compiledb.FlagMode
	Logger   *slog.Logger
}

// UnitFailure is a unit whose extraction failed and was left out of the index.
type UnitFailure struct {
	Unit  string `json:"unit" yaml:"unit"`
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// Report summarizes an index build.
type Report struct {
	Entries  int                    `json:"entries" yaml:"entries"`
	Indexed  int                    `json:"indexed" yaml:"indexed"`
	Units    int                    `json:"units" yaml:"units"`
	Symbols  int                    `json:"symbols" yaml:"symbols"`
	Failed   []UnitFailure          `json:"failed,omitempty" yaml:"failed,omitempty"`
	Invalid  []compiledb.EntryError `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	Workers  int                    `json:"workers" yaml:"workers"`
	Duration time.Duration          `json:"durationNs" yaml:"durationNs"`
}

// Builder runs symbol extraction over a compilation database.
type Builder struct {
	extractor UnitExtractor
	opts      BuilderOptions
	logger    *slog.Logger
}

// DefaultWorkers returns half the available CPUs, rounded up.
func DefaultWorkers() int {
	return (runtime.NumCPU() + 1) / 2
}

// NewBuilder creates a Builder that extracts with ex.
func NewBuilder(ex UnitExtractor, opts BuilderOptions) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.FlagMode == "" {
		opts.FlagMode = compiledb.FlagModeParsed
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{extractor: ex, opts: opts, logger: logger}
}

type unitResult struct {
	record  compiledb.Record
	unit    string
	symbols []string
	err     error
}

// Build extracts every valid entry and merges the results into a new index.
// Malformed entries and failed units are reported and skipped; the returned
// error is non-nil only when ctx is cancelled.
func (b *Builder) Build(ctx context.Context, entries []compiledb.Entry) (*Index, *Report, error) {
	start := time.Now()
	records, invalid := compiledb.Records(entries, b.opts.FlagMode)
	report := &Report{
		Entries: len(entries),
		Invalid: invalid,
		Workers: b.opts.Workers,
	}
	for _, e := range invalid {
		b.logger.Warn("Skipping invalid compilation database entry", "index", e.Index, "file", e.File, "reason", e.Reason)
	}

	b.logger.Info("Building usage index", "units", len(records), "workers", b.opts.Workers, "flagMode", string(b.opts.FlagMode))

	p := pool.NewWithResults[unitResult]().WithMaxGoroutines(b.opts.Workers)
	for _, rec := range records {
		p.Go(func() unitResult {
			return b.extract(ctx, rec)
		})
	}
	results := p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].record.Index < results[j].record.Index
	})

	ix := NewIndex()
	for _, res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, UnitFailure{
				Unit:  res.unit,
				File:  res.record.SourceFile,
				Error: res.err.Error(),
			})
			b.logger.Warn("Extraction failed", "unit", res.unit, "error", res.err.Error())
			continue
		}
		ix.Add(res.unit, res.symbols)
		report.Indexed++
	}

	report.Units = ix.UnitCount()
	report.Symbols = ix.SymbolCount()
	report.Duration = time.Since(start)
	b.logger.Info("Usage index built",
		"units", report.Units,
		"symbols", report.Symbols,
		"failed", len(report.Failed),
		"invalid", len(report.Invalid),
		"duration", report.Duration.String(),
	)
	return ix, report, nil
}

func (b *Builder) extract(ctx context.Context, rec compiledb.Record) unitResult {
	res := unitResult{record: rec, unit: paths.UnitID(rec.SourceFile, b.opts.Marker)}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}
	res.symbols, res.err = b.extractor.ExtractUnit(ctx, rec.SourceFile, rec.WorkingDirectory, rec.Flags)
	if res.err == nil {
		b.logger.Debug("Extracted unit", "unit", res.unit, "symbols", len(res.symbols))
	}
	return res
}
