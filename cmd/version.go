package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the backend it talks to",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Fprintf(stdout, "%s version: %s\n", app, version)
		if api := viper.GetString("api-url"); api != "" {
			fmt.Fprintf(stdout, "api: %s\n", api)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
