package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/bnema/sitepack/cmd"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cmd.Execute(version, commit, date); err != nil {
		os.Exit(1)
	}
}
