package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hsplit/internal/compiledb"
	"hsplit/internal/errors"
	"hsplit/internal/usage"
)

var (
	indexCompileDB string
	indexOutput    string
	indexMarker    string
	indexWorkers   int
	indexFlagMode  string
	indexNoDB      bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the symbol usage index from a compilation database",
	Long: `Parses every translation unit listed in compile_commands.json, following
#include directives, and records which units reference which symbols.

The index is written as JSON (zstd-compressed when the output ends in .zst)
and, unless disabled, stored as a new build in .hsplit/hsplit.db.

Units that fail to parse are reported and left out; they never abort the run.

Examples:
  hsplit index                                  # ./compile_commands.json
  hsplit index -c build/compile_commands.json --marker myproj/
  hsplit index -o .hsplit/usage.json.zst -j 8
  hsplit index --flag-mode positional           # legacy flag slicing`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexCompileDB, "compile-db", "c", "compile_commands.json", "Path to compile_commands.json")
	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "", "Index file to write (default: index.path from config)")
	indexCmd.Flags().StringVar(&indexMarker, "marker", "", "Project root marker stripped from unit paths (default: projectRootMarker)")
	indexCmd.Flags().IntVarP(&indexWorkers, "workers", "j", 0, "Concurrent extractions (default: index.workers, else half the CPUs)")
	indexCmd.Flags().StringVar(&indexFlagMode, "flag-mode", "", "Compiler flag derivation: parsed or positional (default: index.flagMode)")
	indexCmd.Flags().BoolVar(&indexNoDB, "no-db", false, "Do not store the build in .hsplit/hsplit.db")
	rootCmd.AddCommand(indexCmd)
}

// IndexResponse is the result of an index run.
type IndexResponse struct {
	Output  string        `json:"output" yaml:"output"`
	BuildID string        `json:"buildId,omitempty" yaml:"buildId,omitempty"`
	Meta    usage.Meta    `json:"meta" yaml:"meta"`
	Report  *usage.Report `json:"report" yaml:"report"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := app.cfg
	logger := app.logger

	marker := cfg.ProjectRootMarker
	if cmd.Flags().Changed("marker") {
		marker = indexMarker
	}
	workers := cfg.Index.Workers
	if cmd.Flags().Changed("workers") {
		workers = indexWorkers
	}
	modeName := cfg.Index.FlagMode
	if indexFlagMode != "" {
		modeName = indexFlagMode
	}
	mode, err := compiledb.ParseFlagMode(modeName)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "invalid flag mode", err, nil)
	}

	dbPath, err := filepath.Abs(indexCompileDB)
	if err != nil {
		return errors.New(errors.InternalError, "failed to resolve compilation database path", err, nil)
	}
	entries, err := compiledb.Load(dbPath)
	if err != nil {
		return errors.New(errors.CompileDBInvalid, fmt.Sprintf("cannot use %s", dbPath), err, nil)
	}
	fingerprint, err := compiledb.Fingerprint(dbPath)
	if err != nil {
		return errors.New(errors.CompileDBInvalid, "failed to fingerprint compilation database", err, nil)
	}

	ex, err := app.newExtractor()
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	builder := usage.NewBuilder(ex, usage.BuilderOptions{
		Workers:  workers,
		Marker:   marker,
		FlagMode: mode,
		Logger:   logger,
	})
	ix, report, err := builder.Build(ctx, entries)
	if err != nil {
		return errors.New(errors.InternalError, "index build interrupted", err, nil)
	}

	meta := usage.Meta{
		CreatedAt:   time.Now().UTC(),
		CompileDB:   dbPath,
		Fingerprint: fingerprint,
		Marker:      marker,
		FlagMode:    string(mode),
		Units:       ix.UnitCount(),
		Symbols:     ix.SymbolCount(),
		Failed:      len(report.Failed),
	}

	if cfg.Index.Database && !indexNoDB {
		db, store, err := app.openStore()
		if err != nil {
			return err
		}
		meta, err = store.Save(ix, meta)
		_ = db.Close()
		if err != nil {
			return errors.New(errors.InternalError, "failed to store index build", err, nil)
		}
		logger.Info("Stored index build", "buildId", meta.BuildID, "db", db.Path())
	}

	output := app.indexPath(indexOutput)
	if err := usage.WriteFile(output, ix, meta); err != nil {
		return errors.New(errors.InternalError, fmt.Sprintf("failed to write %s", output), err, nil)
	}
	logger.Info("Wrote usage index", "path", output, "symbols", meta.Symbols, "units", meta.Units)

	return app.print(cmd.OutOrStdout(), &IndexResponse{
		Output:  output,
		BuildID: meta.BuildID,
		Meta:    meta,
		Report:  report,
	})
}
