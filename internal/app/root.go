// Package app contains the Cobra command tree for peep.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "peep [path]",
	Short: "Summarize the software projects under a directory",
	Long: heredoc.Doc(`
		peep walks a directory tree, finds the folders that look like software
		projects and prints one line per project: its name, the technologies
		it uses, outstanding TODO and issue counts, and the checked out git
		branch.

		A folder is a project when it holds a README, a build manifest
		(package.json, go.mod, Cargo.toml, ...) or version control metadata.
		Project folders are not searched for nested projects.

		The path defaults to the current directory.
	`),
	Example: heredoc.Doc(`
		peep ~/code
		peep --depth 2 --exclude 'archive*' ~/code
		peep -r=false --format yaml .
	`),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr(), flagVerbose)
	},
	RunE: runScan,
}

// setupLogging routes the standard logger. Warnings about unreadable files
// and failed git lookups are only shown with --verbose.
func setupLogging(w io.Writer, verbose bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !verbose {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(w)
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/peep/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log warnings to stderr")
}
