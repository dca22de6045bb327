package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"contentpipe/internal/content"
	"contentpipe/internal/output"
	"contentpipe/internal/pipeline"
)

// MockRunner is a Runner double returning a scripted outcome.
type MockRunner struct {
	// Outcome and Err are returned from every Run call.
	Outcome *pipeline.Outcome
	Err     error
	// Inputs records the raw input of each call, in order.
	Inputs []any
}

func (m *MockRunner) Run(_ context.Context, _ pipeline.Workflow, raw any) (*pipeline.Outcome, error) {
	m.Inputs = append(m.Inputs, raw)
	return m.Outcome, m.Err
}

// MockPrompter is a Prompter double.
type MockPrompter struct {
	Text    string
	Payload map[string]any
	Err     error
	// Prompts records every prompt received.
	Prompts []string
}

func (m *MockPrompter) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Text, m.Err
}

func (m *MockPrompter) GenerateStructured(_ context.Context, prompt string) (map[string]any, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Payload, nil
}

// MockArtifactWriter records what a run tried to persist.
type MockArtifactWriter struct {
	Dir       string
	Pages     []content.Pages
	Summaries []output.RunSummary
	Err       error
}

func (m *MockArtifactWriter) WritePages(pages content.Pages) ([]string, error) {
	m.Pages = append(m.Pages, pages)
	if m.Err != nil {
		return nil, m.Err
	}
	return []string{filepath.Join(m.Dir, output.FAQFile)}, nil
}

func (m *MockArtifactWriter) WriteSummary(sum output.RunSummary) (string, error) {
	m.Summaries = append(m.Summaries, sum)
	if m.Err != nil {
		return "", m.Err
	}
	return filepath.Join(m.Dir, output.DefaultSummaryFile), nil
}

// writeProductFile writes a product description into tmpDir and returns its path.
func writeProductFile(t *testing.T, tmpDir string, product map[string]any) string {
	t.Helper()

	data, err := json.Marshal(product)
	if err != nil {
		t.Fatalf("failed to encode product: %v", err)
	}
	path := filepath.Join(tmpDir, "product.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write product file: %v", err)
	}
	return path
}

func glowBoostInput() map[string]any {
	return map[string]any{
		"Product Name":    "GlowBoost Vitamin C Serum",
		"Concentration":   "10% Vitamin C",
		"Skin Type":       "Oily, Combination",
		"Key Ingredients": "Vitamin C, Hyaluronic Acid",
		"Benefits":        "Brightening, Fades dark spots",
		"How to Use":      "Apply 2-3 drops in the morning before sunscreen",
		"Side Effects":    "Mild tingling for sensitive skin",
		"Price":           "₹699",
	}
}
