// Package main provides the link_agent CLI, which crawls a site and recommends internal links.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "link_agent",
	Short: "Internal link planner",
	Long: `link_agent crawls a single website, groups its pages into topic clusters and recommends
contextual internal links from supporting pages to each cluster's pillar page.

Nothing is changed on the site; recommendations are written to CSV, JSON or XLSX files.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
