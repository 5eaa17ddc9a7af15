package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bnema/sitepack/internal/packaging"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or update a package definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(func(a *app) error {
			return runCreate(a, cmd)
		})
	},
}

func init() {
	createCmd.Flags().Int("id", 0, "definition id to update (omit to create)")
	createCmd.Flags().String("name", "", "package name")
	createCmd.Flags().String("pkg-version", "1.0.0", "package version")
	createCmd.Flags().String("url", "", "package homepage")
	createCmd.Flags().String("license", "MIT", "license name")
	createCmd.Flags().String("license-url", "", "license url")
	createCmd.Flags().String("author", "", "author name")
	createCmd.Flags().String("author-url", "", "author website")
	createCmd.Flags().String("readme", "", "readme text")
	createCmd.Flags().String("content", "", "key of the content node to bundle")
	createCmd.Flags().Bool("content-children", false, "bundle the content node's descendants too")
	createCmd.Flags().String("datatypes", "", "comma-separated data type ids")
	createCmd.Flags().String("languages", "", "comma-separated language ids")
	createCmd.Flags().String("dictionary", "", "comma-separated dictionary item ids")
	createCmd.Flags().String("macros", "", "comma-separated macro ids")
	createCmd.Flags().String("templates", "", "comma-separated template ids")
	createCmd.Flags().String("doctypes", "", "comma-separated document type ids")
	createCmd.Flags().String("mediatypes", "", "comma-separated media type ids")
	createCmd.Flags().String("stylesheets", "", "comma-separated stylesheet ids")
	createCmd.Flags().StringSlice("file", nil, "site-relative file to bundle (repeatable)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(a *app, cmd *cobra.Command) error {
	id, _ := cmd.Flags().GetInt("id")
	def := &packaging.PackageDefinition{}
	if id != 0 {
		existing, err := a.created.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("no package definition with id %d", id)
		}
		def = existing
	}

	name, _ := cmd.Flags().GetString("name")
	if name != "" {
		def.Name = name
	}
	if def.Name == "" {
		return fmt.Errorf("a package definition needs a name")
	}
	def.Version, _ = cmd.Flags().GetString("pkg-version")
	def.URL, _ = cmd.Flags().GetString("url")
	def.License, _ = cmd.Flags().GetString("license")
	def.LicenseURL, _ = cmd.Flags().GetString("license-url")
	def.AuthorName, _ = cmd.Flags().GetString("author")
	def.AuthorURL, _ = cmd.Flags().GetString("author-url")
	def.Readme, _ = cmd.Flags().GetString("readme")
	def.ContentNodeID, _ = cmd.Flags().GetString("content")
	def.LoadChildNodes, _ = cmd.Flags().GetBool("content-children")
	def.PlatformVersion = a.cfg.PlatformVersion

	var err error
	if def.DataTypes, err = idFlag(cmd, "datatypes"); err != nil {
		return err
	}
	if def.Languages, err = idFlag(cmd, "languages"); err != nil {
		return err
	}
	if def.DictionaryItems, err = idFlag(cmd, "dictionary"); err != nil {
		return err
	}
	if def.Macros, err = idFlag(cmd, "macros"); err != nil {
		return err
	}
	if def.Templates, err = idFlag(cmd, "templates"); err != nil {
		return err
	}
	if def.DocumentTypes, err = idFlag(cmd, "doctypes"); err != nil {
		return err
	}
	if def.MediaTypes, err = idFlag(cmd, "mediatypes"); err != nil {
		return err
	}
	if def.Stylesheets, err = idFlag(cmd, "stylesheets"); err != nil {
		return err
	}
	def.Files, _ = cmd.Flags().GetStringSlice("file")

	if err := a.created.Save(def); err != nil {
		return err
	}
	color.Green("Saved package definition #%d (%s)", def.ID, def.Name)
	return nil
}

func idFlag(cmd *cobra.Command, name string) ([]int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("--%s: %q is not a number", name, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
