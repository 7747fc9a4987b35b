package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hsplit/internal/errors"
	"hsplit/internal/usage"
)

var (
	importOutput string
	importNoDB   bool
)

var importCmd = &cobra.Command{
	Use:   "import <dump>",
	Short: "Convert a legacy per-unit symbol dump into a usage index",
	Long: `Reads a text dump with one line per translation unit,

  path/to/unit.c : {sym1, sym2, ...}

and writes the equivalent usage index. Lines that do not match are skipped.

Examples:
  hsplit import symbols.txt
  hsplit import symbols.txt -o usage.json.zst --no-db`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Index file to write (default: index.path)")
	importCmd.Flags().BoolVar(&importNoDB, "no-db", false, "Do not store the build in .hsplit/hsplit.db")
	rootCmd.AddCommand(importCmd)
}

// ImportResponse is the result of a dump import.
type ImportResponse struct {
	Source  string     `json:"source" yaml:"source"`
	Output  string     `json:"output" yaml:"output"`
	BuildID string     `json:"buildId,omitempty" yaml:"buildId,omitempty"`
	Skipped int        `json:"skipped" yaml:"skipped"`
	Meta    usage.Meta `json:"meta" yaml:"meta"`
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.New(errors.IndexMissing, fmt.Sprintf("cannot open %s", args[0]), err, nil)
	}
	defer func() { _ = f.Close() }()

	ix, skipped, err := usage.ParseDump(f)
	if err != nil {
		return errors.New(errors.InternalError, "failed to read dump", err, nil)
	}
	if skipped > 0 {
		app.logger.Warn("Skipped malformed dump lines", "count", skipped)
	}

	meta := usage.Meta{
		CreatedAt: time.Now().UTC(),
		Units:     ix.UnitCount(),
		Symbols:   ix.SymbolCount(),
	}
	if app.cfg.Index.Database && !importNoDB {
		db, store, err := app.openStore()
		if err != nil {
			return err
		}
		meta, err = store.Save(ix, meta)
		_ = db.Close()
		if err != nil {
			return errors.New(errors.InternalError, "failed to store imported index", err, nil)
		}
	}

	output := app.indexPath(importOutput)
	if err := usage.WriteFile(output, ix, meta); err != nil {
		return errors.New(errors.InternalError, fmt.Sprintf("failed to write %s", output), err, nil)
	}
	app.logger.Info("Imported legacy dump", "source", args[0], "units", meta.Units, "symbols", meta.Symbols)

	return app.print(cmd.OutOrStdout(), &ImportResponse{
		Source:  args[0],
		Output:  output,
		BuildID: meta.BuildID,
		Skipped: skipped,
		Meta:    meta,
	})
}
