package pipeline

import "fmt"

// Report statuses.
const (
	StatusPassed = "PASSED"
	StatusFailed = "FAILED"
)

// Report is the consolidated result of a run's final validation pass.
// External callers branch on Status and enumerate Errors and Warnings.
type Report struct {
	Status   string         `json:"status" yaml:"status"`
	Errors   []string       `json:"errors" yaml:"errors"`
	Warnings []string       `json:"warnings" yaml:"warnings"`
	Stats    map[string]int `json:"stats" yaml:"stats"`
}

// NewReport returns an empty report with non-nil collections.
func NewReport() *Report {
	return &Report{
		Errors:   []string{},
		Warnings: []string{},
		Stats:    map[string]int{},
	}
}

// Errorf appends a formatted error.
func (r *Report) Errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Warnf appends a formatted warning.
func (r *Report) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Finalize sets Status from the collected errors and returns the report.
func (r *Report) Finalize() Report {
	r.Status = StatusPassed
	if len(r.Errors) > 0 {
		r.Status = StatusFailed
	}
	return *r
}

// Passed reports whether the run passed validation.
func (r Report) Passed() bool {
	return r.Status == StatusPassed
}
