package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// CompletionBar renders completed/total as a compact bar.
// Example: "███░░ 3/5"
func CompletionBar(completed, total, width int) string {
	if total <= 0 {
		return StyleMuted.Render("─")
	}
	if width <= 0 {
		width = 10
	}
	filled := completed * width / total
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := StyleWarning
	switch {
	case completed >= total:
		style = StyleSuccess
	case completed == 0:
		style = StyleError
	}
	return fmt.Sprintf("%s %s", style.Render(bar), StyleMuted.Render(fmt.Sprintf("%d/%d", completed, total)))
}

// Severity thresholds for coloring issue scores.
const (
	severityWarn   = 1.0
	severityDanger = 10.0
)

// Severity renders an issue severity score, colored by magnitude.
func Severity(score float64) string {
	text := fmt.Sprintf("%.0f", score)
	switch {
	case score >= severityDanger:
		return StyleError.Render(text)
	case score >= severityWarn:
		return StyleWarning.Render(text)
	default:
		return StyleSuccess.Render(text)
	}
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// ScanProgress reports scan progress on an interactive writer. While the
// tree is walked it shows a spinner with the number of projects found, then
// a bar while records are built. The zero value and a disabled instance do
// nothing. Methods are safe for concurrent use.
type ScanProgress struct {
	mu  sync.Mutex
	w   io.Writer
	bar *progressbar.ProgressBar
	max int
}

// NewScanProgress returns a progress reporter writing to w, or a no-op
// reporter when enabled is false.
func NewScanProgress(w io.Writer, enabled bool) *ScanProgress {
	if !enabled {
		return &ScanProgress{}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &ScanProgress{w: w, bar: bar, max: -1}
}

// Found records that the walk has found n projects so far.
func (p *ScanProgress) Found(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bar.Describe(fmt.Sprintf("scanning: %d projects found", n))
	_ = p.bar.Add(1)
}

// Built records that done of total project summaries are finished.
func (p *ScanProgress) Built(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	if p.max != total {
		_ = p.bar.Clear()
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("summarizing"),
			progressbar.OptionSetWidth(18),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		p.max = total
	}
	_ = p.bar.Set(done)
}

// Finish clears the progress display.
func (p *ScanProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
