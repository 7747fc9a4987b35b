package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hsplit/internal/extract"
	"hsplit/internal/version"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{skipValidation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.format == FormatHuman {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		}
		return app.print(cmd.OutOrStdout(), &VersionResponse{
			Version:     version.Version,
			Commit:      version.Commit,
			BuildDate:   version.BuildDate,
			IndexFormat: version.IndexFormatVersion,
			CFrontEnd:   extract.IsAvailable(),
		})
	},
}

// VersionResponse is the machine-readable version.
type VersionResponse struct {
	Version     string `json:"version" yaml:"version"`
	Commit      string `json:"commit" yaml:"commit"`
	BuildDate   string `json:"buildDate" yaml:"buildDate"`
	IndexFormat int    `json:"indexFormat" yaml:"indexFormat"`
	CFrontEnd   bool   `json:"cFrontEnd" yaml:"cFrontEnd"`
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
