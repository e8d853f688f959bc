package cmd

import (
	"fmt"
	"strconv"

	"github.com/docker/go-units"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/graphknit/graphknit/pkg/bundle"
)

var bundleListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List installed bundles",
	Long:    `List every bundle installed under the bundles directory, with its latest version and size.`,
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		infos, err := bundle.ListBundles(afero.NewOsFs(), params.bundlesDir)
		if err != nil {
			logFatalln(err)
		}
		for _, info := range infos {
			fmt.Printf("%s\t%d\t%s\n", info.ID, info.Latest(), units.HumanSize(float64(info.Size)))
		}
	},
}

var bundleVersionsCmd = &cobra.Command{
	Use:   "versions <bundle>",
	Short: "List the installed versions of a bundle",
	Long:  `List the installed versions of a bundle, lowest first.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := bundle.NewDirLoader(params.bundlesDir)
		versions, err := l.BundleVersions(args[0])
		if err != nil {
			logFatalln(err)
		}
		for _, v := range versions {
			fmt.Println(strconv.Itoa(v))
		}
	},
}

func init() {
	bundleCmd.AddCommand(bundleListCmd)
	bundleCmd.AddCommand(bundleVersionsCmd)
}
