package output

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SummaryPathEnv overrides the summary location for [ResolveSummaryPath].
const SummaryPathEnv = "CONTENTPIPE_SUMMARY_PATH"

// ResolveSummaryPath returns the location of a run summary.
//
// Resolution order:
//  1. CONTENTPIPE_SUMMARY_PATH environment variable (used as-is if set)
//  2. file inside dir, with [DefaultSummaryFile] when file is empty
func ResolveSummaryPath(dir, file string) string {
	if envPath := os.Getenv(SummaryPathEnv); envPath != "" {
		return envPath
	}
	if file == "" {
		file = DefaultSummaryFile
	}
	return filepath.Join(dir, file)
}

// ReadSummary reads a run summary written by [Writer.WriteSummary].
func ReadSummary(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}

	var sum RunSummary
	if err := yaml.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}
	return &sum, nil
}
