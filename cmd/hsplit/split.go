package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hsplit/internal/cluster"
	"hsplit/internal/errors"
	"hsplit/internal/partition"
)

var (
	splitMethod     string
	splitK          int
	splitIndex      string
	splitBuild      string
	splitPlan       string
	splitDendrogram string
)

var splitCmd = &cobra.Command{
	Use:   "split <header>",
	Short: "Recommend how to split a header into k sub-headers",
	Long: `Extracts the symbols declared in the header itself, counts in how many
translation units each pair is used together, and clusters them with the
chosen linkage method into k groups.

Linkage methods: single, complete, average, weighted, centroid, median, ward.

Examples:
  hsplit split include/big.h                   # k and method from config
  hsplit split include/big.h -k 4 -m ward
  hsplit split include/big.h --plan big.toml   # write a TOML split plan
  hsplit split include/big.h --dendrogram tree.json
  hsplit split include/big.h -d                # show proximity counts`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().StringVarP(&splitMethod, "method", "m", "", "Linkage method (default: cluster.method)")
	splitCmd.Flags().IntVarP(&splitK, "clusters", "k", 0, "Number of sub-headers (default: cluster.k)")
	splitCmd.Flags().StringVar(&splitIndex, "index", "", "Usage index file (default: index.path)")
	splitCmd.Flags().StringVar(&splitBuild, "build", "", "Use this stored build id instead of the index file")
	splitCmd.Flags().StringVar(&splitPlan, "plan", "", "Write a TOML split plan to this path")
	splitCmd.Flags().StringVar(&splitDendrogram, "dendrogram", "", "Write the dendrogram (merges and linkage matrix) as JSON")
	rootCmd.AddCommand(splitCmd)
}

// SplitResponse is the result of a split run.
type SplitResponse struct {
	Recommendation *partition.Recommendation `json:"recommendation" yaml:"recommendation"`

	IndexSource    string            `json:"indexSource" yaml:"indexSource"`
	PlanPath       string            `json:"planPath,omitempty" yaml:"planPath,omitempty"`
	DendrogramPath string            `json:"dendrogramPath,omitempty" yaml:"dendrogramPath,omitempty"`
	Warnings       []*errors.HsError `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Debug          bool              `json:"-" yaml:"-"`
}

// clusterOptions resolves -m and -k against the config.
func clusterOptions(cmd *cobra.Command, method string, k int) (partition.Options, error) {
	name := app.cfg.Cluster.Method
	if method != "" {
		name = method
	}
	linkage, err := cluster.ParseLinkage(name)
	if err != nil {
		return partition.Options{}, errors.New(errors.InvalidLinkage, "invalid linkage method", err, nil)
	}
	opts := partition.Options{Method: linkage, K: app.cfg.Cluster.K}
	if cmd.Flags().Changed("clusters") {
		opts.K = k
	}
	return opts, nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	opts, err := clusterOptions(cmd, splitMethod, splitK)
	if err != nil {
		return err
	}
	header, err := filepath.Abs(args[0])
	if err != nil {
		return errors.New(errors.InternalError, "failed to resolve header path", err, nil)
	}

	loaded, err := app.loadIndex(app.indexPath(splitIndex), splitBuild)
	if err != nil {
		return err
	}
	resp := &SplitResponse{IndexSource: loaded.Source, Debug: app.debug}
	if warn := app.staleWarning(loaded.Meta); warn != nil {
		resp.Warnings = append(resp.Warnings, warn)
	}

	ex, err := app.newExtractor()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	rec, err := partition.New(ex, app.logger).Recommend(ctx, header, loaded.Index, opts)
	if err != nil {
		return err
	}
	resp.Recommendation = rec

	if splitPlan != "" && !rec.NothingToPartition {
		if err := partition.WritePlan(splitPlan, partition.NewPlan(rec)); err != nil {
			return errors.New(errors.InternalError, "failed to write split plan", err, nil)
		}
		resp.PlanPath = splitPlan
	}
	if splitDendrogram != "" && rec.Dendrogram != nil {
		if err := writeDendrogram(splitDendrogram, rec); err != nil {
			return errors.New(errors.InternalError, "failed to write dendrogram", err, nil)
		}
		resp.DendrogramPath = splitDendrogram
	}

	if !app.debug {
		rec.Proximity = nil
		rec.Dendrogram = nil
		rec.LinkageMatrix = nil
	}
	return app.print(cmd.OutOrStdout(), resp)
}

// dendrogramExport is the file format read by external plotters.
type dendrogramExport struct {
	Header        string          `json:"header"`
	Labels        []string        `json:"labels"`
	Method        cluster.Linkage `json:"method"`
	Merges        []cluster.Merge `json:"merges"`
	LinkageMatrix [][4]float64    `json:"linkageMatrix"`
}

func writeDendrogram(path string, rec *partition.Recommendation) error {
	data, err := json.MarshalIndent(dendrogramExport{
		Header:        rec.Header,
		Labels:        rec.Dendrogram.Labels,
		Method:        rec.Dendrogram.Method,
		Merges:        rec.Dendrogram.Merges,
		LinkageMatrix: rec.LinkageMatrix,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dendrogram: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
