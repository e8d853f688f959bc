package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/graphknit/graphknit/pkg/dlogger"
)

const (
	bundlesDirFlag = "bundles-dir"
	bundlesDirKey  = "bundles_dir"
	logLevelFlag   = "log-level"
	logLevelKey    = "log_level"
)

type paramsT struct {
	bundlesDir string
	logLevel   string
	install    struct {
		manifest string
		source   string
		version  int
	}
}

var params paramsT

func addBundlesDirFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&params.bundlesDir, bundlesDirFlag, "bundles",
		"Directory holding installed bundles")
}

func addLogLevelFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&params.logLevel, logLevelFlag, dlogger.LogLevelInfo,
		"Log level (debug, info, warn, error, none)")
}

func addManifestFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.install.manifest, "manifest", "",
		"Path to the bundle manifest")
	return "manifest"
}

func addSourceFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&params.install.source, "source", ".",
		"Staging directory holding the graphs and files to package")
}

func addVersionFlag(cmd *cobra.Command) {
	cmd.Flags().IntVar(&params.install.version, "version", 0,
		"Bundle version to install (default: one past the latest)")
}

func mustLogger() *zap.Logger {
	l, err := dlogger.New(params.logLevel)
	if err != nil {
		logFatalln(err)
	}
	return l
}
