package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "graphknit",
	Short: "Graphknit manages versioned bundles of RDF contexts",
	Long: `Graphknit packages RDF contexts into immutable, versioned,
content-addressed bundles and resolves their dependency trees back into
queryable stores.

A bundle lists the contexts it includes, the files it carries along and the
bundles it depends on. Installed bundles never change; a new install of the
same bundle gets the next version number.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// used to patch over calls to os.Exit() during test
var logFatalln = log.Fatalln

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addBundlesDirFlag(rootCmd)
	addLogLevelFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if os.Getenv("GRAPHKNIT_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("GRAPHKNIT_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".graphknit")
	}

	viper.SetEnvPrefix("graphknit")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	if !rootCmd.PersistentFlags().Changed(bundlesDirFlag) && viper.GetString(bundlesDirKey) != "" {
		params.bundlesDir = viper.GetString(bundlesDirKey)
	}
	if !rootCmd.PersistentFlags().Changed(logLevelFlag) && viper.GetString(logLevelKey) != "" {
		params.logLevel = viper.GetString(logLevelKey)
	}
}
