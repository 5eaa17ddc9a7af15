package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/sitepack/internal/packaging"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List created package definitions and installed packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(func(a *app) error {
			created, err := a.created.GetAll()
			if err != nil {
				return err
			}
			installed, err := a.installed.GetAll()
			if err != nil {
				return err
			}
			color.Blue("Created packages (%d)", len(created))
			printDefinitions(created)
			color.Blue("Installed packages (%d)", len(installed))
			printDefinitions(installed)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func printDefinitions(defs []*packaging.PackageDefinition) {
	for _, d := range defs {
		line := fmt.Sprintf("  #%d  %s %s", d.ID, d.Name, d.Version)
		if d.PackagePath != "" {
			line += "  -> " + d.PackagePath
		}
		fmt.Println(line)
	}
}
