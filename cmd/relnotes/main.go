package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var changelogFile string

var rootCmd = &cobra.Command{
	Use:   "relnotes",
	Short: "Release notes tooling for the permission hub changelog",
	Long: `relnotes reads CHANGELOG.md, which follows the Keep a Changelog
format, and extracts or checks its contents. The show subcommand is used
by the release pipeline to produce the notes attached to a tagged
release.`,
}

var showCmd = &cobra.Command{
	Use:   "show <version>",
	Short: "Print the notes for one release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := loadHistory()
		if err != nil {
			return err
		}

		release := history.Find(args[0])
		if release == nil {
			return fmt.Errorf("no changelog entry for version %s", args[0])
		}

		if release.Date != "" {
			fmt.Printf("## [%s] - %s\n\n", release.Version, release.Date)
		} else {
			fmt.Printf("## [%s]\n\n", release.Version)
		}
		fmt.Println(release.Body)
		if ref, ok := history.Refs[release.Version]; ok {
			fmt.Printf("\n[%s]: %s\n", release.Version, ref)
		}
		return nil
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the versions recorded in the changelog",
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := loadHistory()
		if err != nil {
			return err
		}

		for _, release := range history.Releases {
			if release.Date != "" {
				fmt.Printf("%s\t%s\n", release.Version, release.Date)
			} else {
				fmt.Println(release.Version)
			}
		}
		return nil
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check that the changelog follows the Keep a Changelog format",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(changelogFile)
		if err != nil {
			return err
		}

		problems := Lint(source)
		if len(problems) == 0 {
			fmt.Printf("%s: ok\n", changelogFile)
			return nil
		}

		for _, p := range problems {
			if p.Line > 0 {
				fmt.Fprintf(os.Stderr, "%s:%d: %s\n", changelogFile, p.Line, p.Text)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %s\n", changelogFile, p.Text)
			}
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	},
}

func loadHistory() (*History, error) {
	source, err := os.ReadFile(changelogFile)
	if err != nil {
		return nil, err
	}
	return ParseHistory(source)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&changelogFile, "file", "f", "CHANGELOG.md", "Path to the changelog")
	rootCmd.AddCommand(showCmd, versionsCmd, lintCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
