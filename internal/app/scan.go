package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robotpony/peep/internal/analyzer"
	"github.com/robotpony/peep/internal/config"
	"github.com/robotpony/peep/internal/output"
	"github.com/robotpony/peep/internal/scanner"
	"github.com/robotpony/peep/internal/walker"
)

var (
	scanFlagRecursive bool
	scanFlagDepth     int
	scanFlagExclude   []string
	scanFlagFormat    string
	scanFlagSort      string
	scanFlagNoGit     bool
	scanFlagWorkers   int
)

var sortKeys = []string{"folder", "name", "todos", "issues", "severity"}

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&scanFlagRecursive, "recursive", "r", true, "Search subdirectories below the first level")
	f.IntVar(&scanFlagDepth, "depth", 0, "Maximum directory depth to search (default from config)")
	f.StringSliceVar(&scanFlagExclude, "exclude", nil, "Additional directory names or globs to skip (can be repeated)")
	f.StringVar(&scanFlagFormat, "format", "", "Output format: table, json, yaml (default from config)")
	f.StringVar(&scanFlagSort, "sort", "folder", "Sort by: "+strings.Join(sortKeys, ", "))
	f.BoolVar(&scanFlagNoGit, "no-git", false, "Skip git branch lookup")
	f.IntVar(&scanFlagWorkers, "workers", 0, "Projects summarized in parallel (default from config)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyScanFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !slices.Contains(sortKeys, scanFlagSort) {
		return fmt.Errorf("unknown sort key %q (want one of %s)", scanFlagSort, strings.Join(sortKeys, ", "))
	}

	output.SetNoColor(flagNoColor || !output.ColorEnabled(os.Stdout, cfg.Output.Color))

	progress := output.NewScanProgress(os.Stderr,
		cfg.Output.Format == "table" && !flagVerbose && output.IsTerminal(os.Stderr))
	defer progress.Finish()

	var git *scanner.GitBranchResolver
	if !scanFlagNoGit {
		git = scanner.NewGitBranchResolver(scanner.NewGitCache(cfg.GitCacheSize), nil, cfg.GitTimeoutDuration())
	}

	s := scanner.NewScanner(scanner.ScanOptions{
		Options: scanner.Options{
			Walk:            walker.Options{MaxDepth: cfg.MaxScanDepth, Exclude: cfg.ExcludeDirs},
			CustomTechFiles: cfg.CustomTechMap(),
		},
		MaxNameLength: cfg.MaxProjectNameLength,
		Workers:       cfg.Workers,
		Git:           git,
		Progress: func(ev scanner.ProgressEvent) {
			if ev.Found {
				progress.Found(ev.Total)
				return
			}
			progress.Built(ev.Done, ev.Total)
		},
	})

	records, err := s.Scan(cmd.Context(), root)
	if err != nil {
		return err
	}
	progress.Finish()

	sortRecords(records, scanFlagSort)

	w := cmd.OutOrStdout()
	switch cfg.Output.Format {
	case "json":
		return renderScanJSON(w, records)
	case "yaml":
		return renderScanYAML(w, records)
	default:
		if err := renderScanTable(w, records); err != nil {
			return err
		}
		renderScanSummary(w, records)
		return nil
	}
}

// applyScanFlags overrides configuration with explicitly set flags.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("depth") {
		cfg.MaxScanDepth = scanFlagDepth
	}
	if !scanFlagRecursive {
		cfg.MaxScanDepth = min(cfg.MaxScanDepth, 1)
	}
	if len(scanFlagExclude) > 0 {
		cfg.ExcludeDirs = append(slices.Clone(cfg.ExcludeDirs), scanFlagExclude...)
	}
	if flags.Changed("workers") {
		cfg.Workers = scanFlagWorkers
	}
	if flags.Changed("format") {
		cfg.Output.Format = scanFlagFormat
	}
	if flagJSON {
		cfg.Output.Format = "json"
	}
}

// sortRecords orders records in place. "folder" keeps walk order, which is
// already lexical by path.
func sortRecords(records []scanner.ProjectRecord, sortBy string) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch sortBy {
		case "name":
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case "todos":
			return openTodos(a) > openTodos(b)
		case "issues":
			return openIssues(a) > openIssues(b)
		case "severity":
			return a.Issues.Metadata.SeverityScore > b.Issues.Metadata.SeverityScore
		default:
			return false
		}
	})
}

func openTodos(r scanner.ProjectRecord) int {
	return r.Todos.Items.Open + r.Todos.Inline.Sum()
}

func openIssues(r scanner.ProjectRecord) int {
	return r.Issues.Items.Open + r.Issues.Inline.Sum()
}

func renderScanJSON(w io.Writer, records []scanner.ProjectRecord) error {
	if records == nil {
		records = []scanner.ProjectRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderScanYAML(w io.Writer, records []scanner.ProjectRecord) error {
	if records == nil {
		records = []scanner.ProjectRecord{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

func renderScanTable(w io.Writer, records []scanner.ProjectRecord) error {
	fmt.Fprintln(w, output.Section("Projects"))
	fmt.Fprintln(w)

	tbl := output.NewTable("Folder", "Name", "Technologies", "TODOs", "Issues", "Severity", "Branch")
	for _, r := range records {
		techs := strings.Join(r.Technologies, ", ")
		if len(r.Technologies) == 1 && r.Technologies[0] == scanner.NotApplicable {
			techs = output.StyleMuted.Render(techs)
		}

		branch := output.StyleMuted.Render("-")
		if r.GitBranch != "" {
			branch = r.GitBranch
		}

		tbl.AddRow(
			r.Folder,
			r.Name,
			techs,
			workCell(r.Todos.Items, r.Todos.Inline.Sum()),
			workCell(r.Issues.Items, r.Issues.Inline.Sum()),
			output.Severity(r.Issues.Metadata.SeverityScore),
			branch,
		)
	}
	return tbl.Fprint(w)
}

// workCell shows checklist completion plus any inline comment markers.
func workCell(items analyzer.ItemCounts, inline int) string {
	cell := output.CompletionBar(items.Completed, items.Total, 6)
	if inline > 0 {
		cell += output.StyleMuted.Render(fmt.Sprintf(" +%d inline", inline))
	}
	return cell
}

func renderScanSummary(w io.Writer, records []scanner.ProjectRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render("\n No projects found."))
		return
	}

	var todos, issues, high, shells, onBranch int
	for _, r := range records {
		todos += openTodos(r)
		issues += openIssues(r)
		high += r.Issues.Metadata.Priorities[analyzer.PriorityHigh]
		if slices.Equal(r.Technologies, []string{scanner.NotApplicable}) {
			shells++
		}
		if r.GitBranch != "" {
			onBranch++
		}
	}

	fmt.Fprintln(w, output.Section("Summary"))
	fmt.Fprintln(w)
	summaryLine(w, "Projects:", len(records))
	summaryLine(w, "Open TODOs:", todos)
	summaryLine(w, "Open issues:", issues)
	summaryLine(w, "High priority:", high)
	summaryLine(w, "No code yet:", shells)
	summaryLine(w, "Git branches:", onBranch)
	fmt.Fprintln(w)
}

func summaryLine(w io.Writer, label string, n int) {
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render(label), output.StyleValue.Render(fmt.Sprintf("%d", n)))
}
