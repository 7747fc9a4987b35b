package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hsplit/internal/errors"
	"hsplit/internal/partition"
)

var (
	batchIndex string
	batchBuild string
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.toml>",
	Short: "Recommend splits for every header listed in a manifest",
	Long: `Runs split for several headers against one loaded usage index.

Manifest format:

  method = "average"     # optional, defaults to cluster.method
  k = 2                  # optional, defaults to cluster.k

  [[header]]
  path = "include/big.h"
  k = 4                  # optional per-header override
  method = "ward"        # optional per-header override
  plan = "plans/big.toml"  # optional TOML split plan

Relative paths are resolved against the manifest's directory. A header that
fails is reported and the remaining headers still run.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchIndex, "index", "", "Usage index file (default: index.path)")
	batchCmd.Flags().StringVar(&batchBuild, "build", "", "Use this stored build id instead of the index file")
	rootCmd.AddCommand(batchCmd)
}

// BatchItem is the outcome for one manifest header.
type BatchItem struct {
	Header         string                    `json:"header" yaml:"header"`
	PlanPath       string                    `json:"planPath,omitempty" yaml:"planPath,omitempty"`
	Recommendation *partition.Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	Error          *errors.HsError           `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResponse is the result of a batch run.
type BatchResponse struct {
	Manifest    string            `json:"manifest" yaml:"manifest"`
	IndexSource string            `json:"indexSource" yaml:"indexSource"`
	Items       []BatchItem       `json:"items" yaml:"items"`
	Failed      int               `json:"failed" yaml:"failed"`
	Warnings    []*errors.HsError `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest, err := partition.LoadManifest(args[0])
	if err != nil {
		return errors.New(errors.ConfigInvalid, "invalid batch manifest", err, nil)
	}
	defaults, err := clusterOptions(cmd, "", 0)
	if err != nil {
		return err
	}
	jobs, err := manifest.Jobs(defaults)
	if err != nil {
		return err
	}

	loaded, err := app.loadIndex(app.indexPath(batchIndex), batchBuild)
	if err != nil {
		return err
	}
	ex, err := app.newExtractor()
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	results, err := partition.New(ex, app.logger).RecommendAll(ctx, jobs, loaded.Index)
	if err != nil {
		return errors.New(errors.InternalError, "batch interrupted", err, nil)
	}

	resp := &BatchResponse{Manifest: args[0], IndexSource: loaded.Source}
	if warn := app.staleWarning(loaded.Meta); warn != nil {
		resp.Warnings = append(resp.Warnings, warn)
	}
	for _, r := range results {
		item := BatchItem{Header: r.Job.Header, Recommendation: r.Recommendation}
		if r.Err != nil {
			item.Error = asHsError(r.Err)
			resp.Failed++
		} else if r.Job.Plan != "" && !r.Recommendation.NothingToPartition {
			if err := partition.WritePlan(r.Job.Plan, partition.NewPlan(r.Recommendation)); err != nil {
				item.Error = errors.New(errors.InternalError, "failed to write split plan", err, nil)
				resp.Failed++
			} else {
				item.PlanPath = r.Job.Plan
			}
		}
		if item.Recommendation != nil && !app.debug {
			item.Recommendation.Proximity = nil
			item.Recommendation.Dendrogram = nil
			item.Recommendation.LinkageMatrix = nil
		}
		resp.Items = append(resp.Items, item)
	}

	if err := app.print(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d headers failed", resp.Failed, len(results))
	}
	return nil
}
