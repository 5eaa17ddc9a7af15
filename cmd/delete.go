package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [definition-id]",
	Short: "Delete a created package definition",
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
			if err := a.created.Delete(id); err != nil {
				return err
			}
			color.Green("Deleted package definition #%d (%s)", id, def.Name)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
