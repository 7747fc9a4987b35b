package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"hsplit/internal/errors"
	"hsplit/internal/proximity"
)

var (
	proximityIndex string
	proximityBuild string
	proximityLimit int
)

var proximityCmd = &cobra.Command{
	Use:   "proximity <header>",
	Short: "List co-usage counts for the symbols of a header",
	Long: `Prints, for every pair of symbols declared in the header, the number of
translation units that use both, highest first. Pairs that never co-occur are
omitted; symbols no unit references are listed separately.

Examples:
  hsplit proximity include/big.h
  hsplit proximity include/big.h -n 20 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runProximity,
}

func init() {
	proximityCmd.Flags().StringVar(&proximityIndex, "index", "", "Usage index file (default: index.path)")
	proximityCmd.Flags().StringVar(&proximityBuild, "build", "", "Use this stored build id instead of the index file")
	proximityCmd.Flags().IntVarP(&proximityLimit, "limit", "n", 0, "Show only the first n pairs (0 shows all)")
	rootCmd.AddCommand(proximityCmd)
}

// ProximityResponse is the co-usage listing for one header.
type ProximityResponse struct {
	Header      string            `json:"header" yaml:"header"`
	IndexSource string            `json:"indexSource" yaml:"indexSource"`
	Symbols     []string          `json:"symbols" yaml:"symbols"`
	Pairs       []proximity.Entry `json:"pairs" yaml:"pairs"`
	TotalPairs  int               `json:"totalPairs" yaml:"totalPairs"`
	Unused      []string          `json:"unused,omitempty" yaml:"unused,omitempty"`
	Warnings    []*errors.HsError `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func runProximity(cmd *cobra.Command, args []string) error {
	header, err := filepath.Abs(args[0])
	if err != nil {
		return errors.New(errors.InternalError, "failed to resolve header path", err, nil)
	}
	loaded, err := app.loadIndex(app.indexPath(proximityIndex), proximityBuild)
	if err != nil {
		return err
	}
	ex, err := app.newExtractor()
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	res, err := proximity.NewComputer(ex, app.logger).Compute(ctx, header, loaded.Index)
	if err != nil {
		return errors.New(errors.ExtractionFailed, "failed to extract header symbols", err, nil)
	}

	pairs := res.Map.Entries()
	resp := &ProximityResponse{
		Header:      header,
		IndexSource: loaded.Source,
		Symbols:     res.Symbols,
		Pairs:       pairs,
		TotalPairs:  len(pairs),
		Unused:      res.Unused,
	}
	if proximityLimit > 0 && len(pairs) > proximityLimit {
		resp.Pairs = pairs[:proximityLimit]
	}
	if warn := app.staleWarning(loaded.Meta); warn != nil {
		resp.Warnings = append(resp.Warnings, warn)
	}
	return app.print(cmd.OutOrStdout(), resp)
}
