package cmd

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [record-id]",
	Short: "Remove an installed package's entities from the site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		output, _ := cmd.Flags().GetString("output")
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("record id must be a number: %q", args[0])
		}
		return runWithApp(func(a *app) error {
			return runUninstall(a, id, yes, output)
		})
	},
}

func init() {
	uninstallCmd.Flags().BoolP("yes", "y", false, "uninstall without confirmation")
	uninstallCmd.Flags().StringP("output", "o", "text", "summary output format (text|yaml)")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(a *app, id int, yes bool, output string) error {
	def, err := a.installed.GetByID(id)
	if err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("no installed package with record id %d", id)
	}

	if !yes {
		var proceed bool
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Remove %q %s and everything it installed?", def.Name, def.Version),
			Default: false,
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return fmt.Errorf("survey failed: %w", err)
		}
		if !proceed {
			return fmt.Errorf("uninstallation cancelled by user")
		}
	}

	summary, err := a.installer().Uninstall(def)
	if err != nil {
		return err
	}
	if err := a.installed.Delete(def.ID); err != nil {
		return fmt.Errorf("remove package record: %w", err)
	}
	if err := printSummary(output, summary); err != nil {
		return err
	}
	color.Green("Package %q uninstalled (%d entities removed)", def.Name, summary.EntityCount())
	return nil
}
