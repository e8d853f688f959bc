package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/graphknit/graphknit/pkg/bundle"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/rdf"
)

var bundleInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a bundle from a staging directory",
	Long: `Install a bundle from a staging directory.

The manifest names the contexts to include, the files to carry along and the
bundles depended upon. The staging directory holds the serialized contexts
under graphs/ plus any files the manifest selects. Installing never touches
an existing version: a new version directory is allocated unless --version
pins one.
`,
	Run: func(cmd *cobra.Command, args []string) {
		fs := afero.NewOsFs()
		f, err := os.Open(params.install.manifest)
		if err != nil {
			logFatalln(err)
		}
		desc, err := model.Load(f)
		_ = f.Close()
		if err != nil {
			logFatalln(err)
		}
		if params.install.version > 0 {
			desc.Version = params.install.version
		}
		g, err := bundle.ReadGraphDir(fs, params.install.source)
		if err != nil {
			logFatalln(err)
		}
		installer := bundle.NewInstaller(params.install.source, params.bundlesDir,
			bundle.InstallerGraph(g),
			bundle.InstallerImportsContext(rdf.ImportsContext),
			bundle.InstallerFS(fs),
			bundle.InstallerLogger(mustLogger()),
		)
		dir, err := installer.Install(desc)
		if err != nil {
			logFatalln(err)
		}
		fmt.Println("installed", desc.ID, "at", dir)
	},
}

func init() {
	bundleCmd.AddCommand(bundleInstallCmd)
	required := addManifestFlag(bundleInstallCmd)
	addSourceFlag(bundleInstallCmd)
	addVersionFlag(bundleInstallCmd)
	if err := bundleInstallCmd.MarkFlagRequired(required); err != nil {
		logFatalln(err)
	}
}
