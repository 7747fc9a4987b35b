package main

import (
	"github.com/spf13/cobra"

	"hsplit/internal/errors"
	"hsplit/internal/usage"
)

var (
	buildsLimit int
	buildsPrune int
)

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "List index builds stored in .hsplit/hsplit.db",
	Long: `Shows the stored index builds, newest first, with the compilation database
each was built from. Any build id can be passed to split --build.

Examples:
  hsplit builds
  hsplit builds --prune 3     # keep only the three newest builds`,
	Args: cobra.NoArgs,
	RunE: runBuilds,
}

func init() {
	buildsCmd.Flags().IntVarP(&buildsLimit, "limit", "n", 20, "Number of builds to show")
	buildsCmd.Flags().IntVar(&buildsPrune, "prune", 0, "Delete all but the newest N builds")
	rootCmd.AddCommand(buildsCmd)
}

// BuildsResponse lists stored builds.
type BuildsResponse struct {
	Database string       `json:"database" yaml:"database"`
	Builds   []usage.Meta `json:"builds" yaml:"builds"`
	Pruned   int          `json:"pruned,omitempty" yaml:"pruned,omitempty"`
}

func runBuilds(cmd *cobra.Command, args []string) error {
	db, store, err := app.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	resp := &BuildsResponse{Database: db.Path()}
	if cmd.Flags().Changed("prune") {
		if buildsPrune < 1 {
			return errors.Newf(errors.ConfigInvalid, "--prune must keep at least one build")
		}
		if resp.Pruned, err = store.Prune(buildsPrune); err != nil {
			return errors.New(errors.InternalError, "failed to prune builds", err, nil)
		}
		app.logger.Info("Pruned index builds", "deleted", resp.Pruned, "kept", buildsPrune)
	}

	if resp.Builds, err = store.List(buildsLimit); err != nil {
		return errors.New(errors.InternalError, "failed to list builds", err, nil)
	}
	return app.print(cmd.OutOrStdout(), resp)
}
