// Package cmd wires the sitepack command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sitepack",
	Short: "sitepack - site package installer and builder",
	Long: `sitepack installs, inspects, builds and exports site packages:
archives bundling content schema, templates, stylesheets, macros,
dictionary items, languages, content and files.`,
	SilenceUsage: true,
}

// Execute runs the CLI with build metadata injected by the linker.
func Execute(version, commit, date string) error {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sitepack.toml)")
}
