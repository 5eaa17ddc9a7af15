package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bnema/sitepack/internal/packaging"
	"github.com/bnema/sitepack/pkg/archive"
	"github.com/bnema/sitepack/pkg/manifest"
)

var installCmd = &cobra.Command{
	Use:   "install [archive.zip]",
	Short: "Install a package archive into the site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		output, _ := cmd.Flags().GetString("output")
		dataOnly, _ := cmd.Flags().GetBool("data-only")
		return runWithApp(func(a *app) error {
			return runInstall(a, args[0], yes, dataOnly, output)
		})
	},
}

func init() {
	installCmd.Flags().BoolP("yes", "y", false, "install without prompting on conflicts")
	installCmd.Flags().Bool("data-only", false, "import entities but skip the archive's files")
	installCmd.Flags().StringP("output", "o", "text", "summary output format (text|yaml)")
	rootCmd.AddCommand(installCmd)
}

func runInstall(a *app, archivePath string, yes, dataOnly bool, output string) error {
	r, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := r.ReadFile(packaging.ManifestFileName)
	if err != nil {
		return fmt.Errorf("archive has no manifest: %w", err)
	}
	m, err := manifest.DecodeBytes(data)
	if err != nil {
		return err
	}
	color.Blue("Installing package: %s %s", m.Info.Package.Name, m.Info.Package.Version)

	ok, err := m.CheckRequirements(a.cfg.PlatformVersion)
	if err != nil {
		return err
	}
	if !ok {
		color.Yellow("Package targets platform %s, this site runs %s",
			m.Info.Package.Requirements.MinVersion(), a.cfg.PlatformVersion)
	}

	if missing := r.MissingFiles(fileNames(m)); len(missing) > 0 {
		color.Yellow("Archive is missing %d file(s) listed in the manifest", len(missing))
	}

	conflicts, err := a.conflictChecker().Check(m)
	if err != nil {
		return err
	}
	if !conflicts.IsEmpty() && !yes {
		printConflicts(conflicts)
		var proceed bool
		prompt := &survey.Confirm{
			Message: "Conflicts were found. Install anyway?",
			Default: false,
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return fmt.Errorf("survey failed: %w", err)
		}
		if !proceed {
			return fmt.Errorf("installation cancelled by user")
		}
	}

	summary, record, err := a.installer().InstallData(m)
	if err != nil {
		return err
	}
	if !dataOnly {
		files, err := a.installer().InstallFiles(r, m, a.cfg.SiteRoot)
		summary.Files = files
		if err != nil {
			color.Yellow("File copy finished with problems: %v", err)
		}
		record.Files = files
	}
	if err := a.installed.Save(record); err != nil {
		return fmt.Errorf("record installed package: %w", err)
	}

	if err := printSummary(output, summary); err != nil {
		return err
	}
	color.Green("Package installed (record #%d)", record.ID)
	return nil
}

func fileNames(m *manifest.Manifest) []string {
	names := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		names = append(names, f.Guid)
	}
	return names
}

func printConflicts(c *packaging.Conflicts) {
	for _, alias := range c.Macros {
		color.Yellow("  macro %q already exists", alias)
	}
	for _, alias := range c.Templates {
		color.Yellow("  template %q already exists", alias)
	}
	for _, name := range c.Stylesheets {
		color.Yellow("  stylesheet %q already exists", name)
	}
	for _, f := range c.UnsafeFiles {
		color.Red("  file %s lands in a code-loading location", f)
	}
	for _, f := range c.OverwrittenFiles {
		color.Yellow("  file %s will be overwritten", f)
	}
}

func printSummary(format string, v any) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	case "text", "":
		switch s := v.(type) {
		case *packaging.InstallationSummary:
			printKind("data types", s.DataTypes)
			printKind("languages", s.Languages)
			printKind("dictionary items", s.DictionaryItems)
			printKind("macros", s.Macros)
			printKind("templates", s.Templates)
			printKind("document types", s.DocumentTypes)
			printKind("stylesheets", s.Stylesheets)
			printKind("content", s.Content)
			printKind("files", s.Files)
			printKind("actions", s.Actions)
		case *packaging.UninstallationSummary:
			printKind("content", s.Content)
			printKind("document types", s.DocumentTypes)
			printKind("templates", s.Templates)
			printKind("stylesheets", s.Stylesheets)
			printKind("macros", s.Macros)
			printKind("dictionary items", s.DictionaryItems)
			printKind("languages", s.Languages)
			printKind("data types", s.DataTypes)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printKind(label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Printf("  %s (%d):\n", label, len(names))
	for _, n := range names {
		fmt.Printf("    - %s\n", n)
	}
}
