package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/sitepack/internal/packaging"
	"github.com/bnema/sitepack/pkg/archive"
	"github.com/bnema/sitepack/pkg/manifest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [archive.zip]",
	Short: "Show what a package archive contains and how it would clash with the site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(func(a *app) error {
			return runInspect(a, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(a *app, archivePath string) error {
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

	pkg := m.Info.Package
	color.Blue("%s %s", pkg.Name, pkg.Version)
	fmt.Printf("  author:   %s (%s)\n", m.Info.Author.Name, m.Info.Author.Website)
	fmt.Printf("  license:  %s (%s)\n", pkg.License, pkg.LicenseURL)
	strictness := "loose"
	if pkg.Requirements.Strict {
		strictness = "strict"
	}
	fmt.Printf("  requires: platform %s (%s)\n", pkg.Requirements.MinVersion(), strictness)
	if ok, err := m.CheckRequirements(a.cfg.PlatformVersion); err != nil {
		color.Red("  requirement not met: %v", err)
	} else if !ok {
		color.Yellow("  this site runs %s, older than the package targets", a.cfg.PlatformVersion)
	}

	fmt.Printf("  data types: %d  languages: %d  dictionary items: %d\n",
		len(m.DataTypes), len(m.Languages), len(m.DictionaryItems))
	fmt.Printf("  macros: %d  templates: %d  document types: %d  stylesheets: %d\n",
		len(m.Macros), len(m.Templates), len(m.DocumentTypes), len(m.Stylesheets))
	fmt.Printf("  document sets: %d  files: %d\n", len(m.Documents), len(m.Files))

	if actions, err := manifest.ParseActions(m.Actions); err != nil {
		color.Red("  bad actions fragment: %v", err)
	} else {
		for _, act := range actions {
			fmt.Printf("  action %q at %s (undo: %t)\n", act.Alias, act.RunAt, act.Undo)
		}
	}

	if dups := r.DuplicateNames(); len(dups) > 0 {
		color.Yellow("  duplicate file names across archive directories: %v", dups)
	}
	if missing := r.MissingFiles(fileNames(m)); len(missing) > 0 {
		color.Yellow("  manifest lists %d file(s) the archive does not contain", len(missing))
	}

	conflicts, err := a.conflictChecker().Check(m)
	if err != nil {
		return err
	}
	if conflicts.IsEmpty() {
		color.Green("  no conflicts with this site")
	} else {
		printConflicts(conflicts)
	}
	return nil
}
