package cmd

import (
	"github.com/spf13/cobra"
)

// bundleCmd represents the bundle command
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Commands to manage bundles",
	Long: `Commands to manage bundles.

A bundle is an immutable, versioned package of RDF contexts and auxiliary
files, installed under the bundles directory.
`,
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}
