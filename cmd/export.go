package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [definition-id]",
	Short: "Build the archive for a created package definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("definition id must be a number: %q", args[0])
		}
		return runWithApp(func(a *app) error {
			def, err := a.created.GetByID(id)
			if err != nil {
				return err
			}
			if def == nil {
				return fmt.Errorf("no package definition with id %d", id)
			}
			path, err := a.exporter().Export(def)
			if err != nil {
				return err
			}
			color.Green("Exported %q to %s", def.Name, path)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
