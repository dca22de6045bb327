package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"contentpipe/internal/content"
	"contentpipe/internal/pipeline"
	"contentpipe/internal/state"
)

// Page file names inside the output directory.
const (
	FAQFile            = "faq.json"
	ProductPageFile    = "product_page.json"
	ComparisonPageFile = "comparison_page.json"
	DefaultSummaryFile = "run-summary.yaml"
)

// RunSummary is the document written to the summary file after every run,
// passed or not.
type RunSummary struct {
	Workflow string           `yaml:"workflow"`
	Input    string           `yaml:"input,omitempty"`
	Error    string           `yaml:"error,omitempty"`
	Report   *pipeline.Report `yaml:"report,omitempty"`
	Summary  state.Summary    `yaml:"summary"`
	Events   []state.Event    `yaml:"events"`
}

// NewRunSummary builds a RunSummary from a run outcome. runErr is the error
// the run returned, if any; the report is omitted when the run failed.
func NewRunSummary(workflow, input string, outcome *pipeline.Outcome, runErr error) RunSummary {
	sum := RunSummary{Workflow: workflow, Input: input}
	if outcome != nil {
		sum.Summary = outcome.Summary
		sum.Events = outcome.Events
		if runErr == nil {
			report := outcome.Report
			sum.Report = &report
		}
	}
	if runErr != nil {
		sum.Error = runErr.Error()
	}
	return sum
}

// StepOrder returns the steps of the summary in the order they first
// changed status. Steps known only from the status map follow, sorted.
func (s *RunSummary) StepOrder() []string {
	seen := make(map[string]bool, len(s.Summary.StepStatuses))
	var order []string
	for _, ev := range s.Events {
		if ev.Type != state.EventStatusChange {
			continue
		}
		name, _ := ev.Data["step"].(string)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	var rest []string
	for name := range s.Summary.StepStatuses {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// Writer writes run artifacts into a directory.
type Writer struct {
	dir         string
	summaryFile string
}

// NewWriter creates a Writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:         dir,
		summaryFile: DefaultSummaryFile,
	}
}

// SetSummaryFile overrides the summary file name.
func (w *Writer) SetSummaryFile(name string) {
	if name != "" {
		w.summaryFile = name
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WritePages writes the three pages as indented JSON and returns the paths
// written, in page order.
func (w *Writer) WritePages(pages content.Pages) ([]string, error) {
	docs := []struct {
		file string
		doc  any
	}{
		{FAQFile, pages.FAQ},
		{ProductPageFile, pages.ProductPage},
		{ComparisonPageFile, pages.Comparison},
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		data, err := json.MarshalIndent(d.doc, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("failed to marshal %s: %w", d.file, err)
		}
		path, err := w.write(d.file, append(data, '\n'))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteSummary writes sum as YAML to the summary file and returns its path.
func (w *Writer) WriteSummary(sum RunSummary) (string, error) {
	data, err := yaml.Marshal(&sum)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return w.write(w.summaryFile, data)
}

// write replaces name inside the output directory atomically: the data goes
// to a temp file which is then renamed over the target.
func (w *Writer) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	fullPath := filepath.Join(w.dir, name)
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return fullPath, nil
}
