// Package output renders run progress to the terminal and writes generated
// documents to disk.
//
// Key types:
//   - [Printer] draws the run header, per-step progress and the final summary box
//   - [Writer] writes page documents and the run summary atomically
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"contentpipe/internal/pipeline"
)

const boxWidth = 65

// Printer writes styled run progress to an [io.Writer].
//
// Colors follow the capabilities of the destination: a buffer or a pipe
// gets plain text with box borders only.
type Printer struct {
	out    io.Writer
	header lipgloss.Style
	step   lipgloss.Style
	item   lipgloss.Style
	ok     lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out: w,
		header: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1).
			Width(boxWidth),
		step: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			Width(boxWidth).
			Bold(true),
		item: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(boxWidth),
		ok:    r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:  r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("214")),
		muted: r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// RunHeader prints the banner shown before the first step.
func (p *Printer) RunHeader(workflow, input string, steps []string) {
	lines := []string{
		"Content Pipeline: " + workflow,
		"Input: " + input,
		"Steps: " + strings.Join(steps, " → "),
	}
	fmt.Fprintf(p.out, "\n%s\n\n", p.header.Render(strings.Join(lines, "\n")))
}

// StepStart prints the progress box for step index of total.
func (p *Printer) StepStart(index, total int, name string) {
	fmt.Fprintln(p.out, p.step.Render(fmt.Sprintf("[%d/%d] %s", index, total, name)))
}

// RunComplete prints the summary box of a run that reached its report.
func (p *Printer) RunComplete(outcome *pipeline.Outcome, files []string, duration time.Duration) {
	report := outcome.Report

	var b strings.Builder
	if report.Passed() {
		b.WriteString(p.ok.Render("✓ " + pipeline.StatusPassed))
	} else {
		b.WriteString(p.fail.Render("✗ " + report.Status))
	}
	fmt.Fprintf(&b, "\nRun: %s", outcome.RunID)
	fmt.Fprintf(&b, "\nFAQ items: %d  Benefits: %d  Comparison rows: %d",
		report.Stats["faq_count"], report.Stats["benefits_count"], report.Stats["comparison_rows"])

	for _, e := range report.Errors {
		b.WriteString("\n" + p.fail.Render("✗ "+e))
	}
	for _, w := range report.Warnings {
		b.WriteString("\n" + p.warn.Render("! "+w))
	}
	if len(files) > 0 {
		b.WriteString("\nFiles:")
		for _, f := range files {
			b.WriteString("\n  " + f)
		}
	}
	b.WriteString("\n" + p.muted.Render("Total: "+duration.Round(time.Millisecond).String()))

	fmt.Fprintf(p.out, "\n%s\n", p.header.Render(b.String()))
}

// RunFailed prints the summary box of a run ended by a fatal step fault.
func (p *Printer) RunFailed(runID string, err error, duration time.Duration) {
	lines := []string{p.fail.Render("✗ RUN FAILED")}
	if runID != "" {
		lines = append(lines, "Run: "+runID)
	}
	lines = append(lines,
		"Error: "+err.Error(),
		p.muted.Render("Duration: "+duration.Round(time.Millisecond).String()),
	)
	fmt.Fprintf(p.out, "\n%s\n", p.header.Render(strings.Join(lines, "\n")))
}

// BatchResult is the outcome of one product of a batch run.
type BatchResult struct {
	Name     string
	Status   string
	Duration time.Duration
}

// BatchHeader prints the banner shown before the first product of a batch.
func (p *Printer) BatchHeader(names []string) {
	lines := []string{
		fmt.Sprintf("Content Batch: %d products", len(names)),
		"Products: " + truncate(strings.Join(names, ", "), 50),
	}
	fmt.Fprintf(p.out, "\n%s\n\n", p.header.Render(strings.Join(lines, "\n")))
}

// BatchItem prints the box announcing product index of total.
func (p *Printer) BatchItem(index, total int, name string) {
	fmt.Fprintln(p.out, p.item.Render(fmt.Sprintf("BATCH [%d/%d]: %s", index, total, name)))
}

// BatchSummary prints the final box of a batch. Products of names without a
// result are listed as skipped.
func (p *Printer) BatchSummary(results []BatchResult, names []string, duration time.Duration) {
	passed, failed := 0, 0
	for _, r := range results {
		if r.Status == pipeline.StatusPassed {
			passed++
		} else {
			failed++
		}
	}
	remaining := len(names) - len(results)

	var b strings.Builder
	if failed == 0 && remaining == 0 {
		b.WriteString(p.ok.Render("✓ BATCH COMPLETE"))
	} else {
		b.WriteString(p.fail.Render("✗ BATCH STOPPED"))
	}
	fmt.Fprintf(&b, "\nPassed: %d | Failed: %d | Remaining: %d", passed, failed, remaining)
	for _, r := range results {
		mark := "✓"
		if r.Status != pipeline.StatusPassed {
			mark = "✗"
		}
		fmt.Fprintf(&b, "\n%s %-30s %-7s %s", mark, truncate(r.Name, 30), r.Status, r.Duration.Round(time.Millisecond))
	}
	for i := len(results); i < len(names); i++ {
		fmt.Fprintf(&b, "\n○ %-30s (skipped)", truncate(names[i], 30))
	}
	b.WriteString("\n" + p.muted.Render("Total: "+duration.Round(time.Millisecond).String()))

	fmt.Fprintf(p.out, "\n%s\n", p.header.Render(b.String()))
}

// RunStatus prints a stored run summary.
func (p *Printer) RunStatus(sum *RunSummary) {
	var b strings.Builder
	switch {
	case sum.Error != "":
		b.WriteString(p.fail.Render("✗ RUN FAILED"))
	case sum.Report != nil && sum.Report.Passed():
		b.WriteString(p.ok.Render("✓ " + pipeline.StatusPassed))
	case sum.Report != nil:
		b.WriteString(p.fail.Render("✗ " + sum.Report.Status))
	default:
		b.WriteString(p.warn.Render("? UNKNOWN"))
	}
	fmt.Fprintf(&b, "\nWorkflow: %s", sum.Workflow)
	fmt.Fprintf(&b, "\nRun: %s", sum.Summary.RunID)
	if sum.Input != "" {
		fmt.Fprintf(&b, "\nInput: %s", sum.Input)
	}
	if sum.Summary.WorkflowStart != nil {
		fmt.Fprintf(&b, "\nStarted: %s", sum.Summary.WorkflowStart.Format(time.DateTime))
	}
	for _, name := range sum.StepOrder() {
		fmt.Fprintf(&b, "\n  %-24s %s", name, sum.Summary.StepStatuses[name])
	}
	if sum.Error != "" {
		b.WriteString("\n" + p.fail.Render("Error: "+sum.Error))
	}
	if sum.Report != nil {
		for _, e := range sum.Report.Errors {
			b.WriteString("\n" + p.fail.Render("✗ "+e))
		}
		for _, w := range sum.Report.Warnings {
			b.WriteString("\n" + p.warn.Render("! "+w))
		}
	}
	fmt.Fprintf(p.out, "\n%s\n", p.header.Render(b.String()))
}

// Text prints s followed by a newline.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.out, s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
