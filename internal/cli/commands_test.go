package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"contentpipe/internal/backend"
	"contentpipe/internal/config"
	"contentpipe/internal/content"
	"contentpipe/internal/output"
	"contentpipe/internal/pipeline"
	"contentpipe/internal/schema"
)

// newMockApp wires the real workflow to the offline mock backend.
func newMockApp(t *testing.T, buf *bytes.Buffer) (*App, *content.MockBackend) {
	t.Helper()

	mock := content.NewMockBackend()
	client := backend.NewClient(mock, zap.NewNop())
	client.SetSleeper(func(time.Duration) {})

	printer := output.NewPrinterWithWriter(buf)
	orch := pipeline.NewOrchestrator(zap.NewNop())
	orch.SetPause(0)
	orch.SetProgressCallback(printer.StepStart)

	cfg := config.DefaultConfig()
	cfg.Backend.Provider = config.ProviderMock
	return &App{
		Config:   cfg,
		Runner:   orch,
		Workflow: content.NewWorkflow(client, schema.MustNew(), content.DefaultThresholds(), zap.NewNop()),
		Client:   client,
		Printer:  printer,
	}, mock
}

func execute(app *App, args ...string) (ExecuteResult, string) {
	rootCmd := NewRootCommand(app)
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return Run(context.Background(), rootCmd, args), out.String()
}

func TestGenerateCommand_MockRun(t *testing.T) {
	tmpDir := t.TempDir()
	input := writeProductFile(t, tmpDir, glowBoostInput())
	outDir := filepath.Join(tmpDir, "out")
	buf := &bytes.Buffer{}
	app, mock := newMockApp(t, buf)

	result, _ := execute(app, "generate", "--input", input, "--output-dir", outDir)

	require.NoError(t, result.Err)
	assert.Equal(t, ExitOK, result.ExitCode)
	assert.Equal(t, 4, mock.Calls())

	for _, name := range []string{output.FAQFile, output.ProductPageFile, output.ComparisonPageFile, output.DefaultSummaryFile} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	printed := buf.String()
	assert.Contains(t, printed, "Content Pipeline: product-content")
	assert.Contains(t, printed, "[1/7] extract-product")
	assert.Contains(t, printed, "[7/7] validate-quality")
	assert.Contains(t, printed, "✓ PASSED")

	data, err := os.ReadFile(filepath.Join(outDir, output.DefaultSummaryFile))
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, yaml.Unmarshal(data, &summary))
	assert.Equal(t, "PASSED", summary["report"].(map[string]any)["status"])
	assert.NotEmpty(t, summary["events"])
}

func TestGenerateCommand_YAMLInput(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "product.yaml")
	doc, err := yaml.Marshal(glowBoostInput())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(input, doc, 0644))
	buf := &bytes.Buffer{}
	app, _ := newMockApp(t, buf)

	result, _ := execute(app, "generate", "-i", input, "-o", filepath.Join(tmpDir, "out"))

	assert.Equal(t, ExitOK, result.ExitCode, buf.String())
}

func TestGenerateCommand_InvalidProductIsRunError(t *testing.T) {
	tmpDir := t.TempDir()
	input := writeProductFile(t, tmpDir, map[string]any{"Price": "₹699"})
	outDir := filepath.Join(tmpDir, "out")
	buf := &bytes.Buffer{}
	app, mock := newMockApp(t, buf)

	result, _ := execute(app, "generate", "--input", input, "--output-dir", outDir)

	assert.Equal(t, ExitRunError, result.ExitCode)
	assert.Zero(t, mock.Calls())
	assert.Contains(t, buf.String(), "✗ RUN FAILED")
	assert.Contains(t, buf.String(), "extract-product")
	assert.FileExists(t, filepath.Join(outDir, output.DefaultSummaryFile), "failed runs still leave a summary")
	assert.NoFileExists(t, filepath.Join(outDir, output.FAQFile))
}

func TestGenerateCommand_ExitCodes(t *testing.T) {
	failedPages := map[string]any{
		content.StepFAQ:         content.FAQPage{ProductName: "A"},
		content.StepProductPage: content.ProductPage{Title: "A"},
		content.StepComparison:  content.ComparisonPage{ProductAName: "A", ProductBName: "B"},
	}

	tests := []struct {
		name          string
		runner        *MockRunner
		wantCode      int
		wantPages     int
		wantSummaries int
		wantPrinted   string
	}{
		{
			name: "report failed",
			runner: &MockRunner{Outcome: &pipeline.Outcome{
				RunID:   "run-1",
				Report:  pipeline.Report{Status: pipeline.StatusFailed, Errors: []string{"Usage guide is empty"}},
				Results: failedPages,
			}},
			wantCode:      ExitReportError,
			wantPages:     1,
			wantSummaries: 1,
			wantPrinted:   "✗ Usage guide is empty",
		},
		{
			name: "fatal step fault",
			runner: &MockRunner{
				Outcome: &pipeline.Outcome{RunID: "run-2"},
				Err:     &pipeline.StepError{Step: content.StepFAQ, Err: backend.ErrBackendUnavailable},
			},
			wantCode:      ExitRunError,
			wantSummaries: 1,
			wantPrinted:   "step generate-faq failed",
		},
		{
			name: "pages missing from a passed run",
			runner: &MockRunner{Outcome: &pipeline.Outcome{
				RunID:  "run-3",
				Report: pipeline.Report{Status: pipeline.StatusPassed},
			}},
			wantCode:      ExitRunError,
			wantSummaries: 1,
			wantPrinted:   "no FAQ page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			input := writeProductFile(t, tmpDir, glowBoostInput())
			writer := &MockArtifactWriter{Dir: tmpDir}
			buf := &bytes.Buffer{}
			app := &App{
				Config:    config.DefaultConfig(),
				Runner:    tt.runner,
				Printer:   output.NewPrinterWithWriter(buf),
				NewWriter: func(string) ArtifactWriter { return writer },
			}

			result, _ := execute(app, "generate", "--input", input)

			require.Error(t, result.Err)
			code, ok := IsExitError(result.Err)
			assert.True(t, ok, "error should be an ExitError")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode, result.ExitCode)
			assert.Len(t, writer.Pages, tt.wantPages)
			assert.Len(t, writer.Summaries, tt.wantSummaries)
			assert.Contains(t, buf.String(), tt.wantPrinted)
			require.Len(t, tt.runner.Inputs, 1)
			assert.Equal(t, "GlowBoost Vitamin C Serum", tt.runner.Inputs[0].(map[string]any)["Product Name"])
		})
	}
}

func TestGenerateCommand_SummaryCarriesRunError(t *testing.T) {
	tmpDir := t.TempDir()
	input := writeProductFile(t, tmpDir, glowBoostInput())
	writer := &MockArtifactWriter{Dir: tmpDir}
	runErr := &pipeline.StepError{Step: content.StepComparison, Err: errors.New("boom")}
	app := &App{
		Config:    config.DefaultConfig(),
		Runner:    &MockRunner{Outcome: &pipeline.Outcome{RunID: "run-4"}, Err: runErr},
		Printer:   output.NewPrinterWithWriter(&bytes.Buffer{}),
		NewWriter: func(string) ArtifactWriter { return writer },
	}

	execute(app, "generate", "--input", input)

	require.Len(t, writer.Summaries, 1)
	assert.Equal(t, "step generate-comparison failed: boom", writer.Summaries[0].Error)
	assert.Nil(t, writer.Summaries[0].Report)
}

func TestGenerateCommand_UnreadableInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "missing file", want: "failed to read input"},
		{name: "malformed json", content: `{"Product Name": `, want: "failed to parse input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := filepath.Join(t.TempDir(), "product.json")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(input, []byte(tt.content), 0644))
			}
			runner := &MockRunner{}
			buf := &bytes.Buffer{}
			app := &App{Config: config.DefaultConfig(), Runner: runner, Printer: output.NewPrinterWithWriter(buf)}

			result, _ := execute(app, "generate", "--input", input)

			assert.Equal(t, ExitRunError, result.ExitCode)
			assert.Empty(t, runner.Inputs, "runner should not be called")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

const batchCatalog = `Product Name,Concentration,Skin Type,Key Ingredients,Benefits,How to Use,Side Effects,Price
GlowBoost Vitamin C Serum,10% Vitamin C,"Oily, Combination","Vitamin C, Hyaluronic Acid","Brightening, Fades dark spots",Apply 2-3 drops in the morning,Mild tingling,₹699
HydraCalm Night Cream,2% Ceramides,"Dry, Sensitive","Ceramides, Squalane","Repairs barrier, Deep hydration",Massage a pea-sized amount at night,,₹549
`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestBatchCommand_RunsEveryProduct(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := writeCatalog(t, tmpDir, batchCatalog)
	outDir := filepath.Join(tmpDir, "out")
	buf := &bytes.Buffer{}
	app, mock := newMockApp(t, buf)

	result, _ := execute(app, "batch", catalogPath, "--output-dir", outDir)

	require.NoError(t, result.Err, buf.String())
	assert.Equal(t, ExitOK, result.ExitCode)
	assert.Equal(t, 8, mock.Calls())
	for _, slug := range []string{"glowboost-vitamin-c-serum", "hydracalm-night-cream"} {
		assert.FileExists(t, filepath.Join(outDir, slug, output.FAQFile))
		assert.FileExists(t, filepath.Join(outDir, slug, output.DefaultSummaryFile))
	}

	printed := buf.String()
	assert.Contains(t, printed, "Content Batch: 2 products")
	assert.Contains(t, printed, "BATCH [2/2]: HydraCalm Night Cream")
	assert.Contains(t, printed, "✓ BATCH COMPLETE")
	assert.Contains(t, printed, "Passed: 2 | Failed: 0 | Remaining: 0")
}

func TestBatchCommand_StopsOnFirstFailure(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := writeCatalog(t, tmpDir, `Product Name,Price,Skin Type,Key Ingredients,Benefits,How to Use
Broken Serum,,,,,
GlowBoost Vitamin C Serum,₹699,Oily,Vitamin C,Brightening,Apply daily
`)
	outDir := filepath.Join(tmpDir, "out")
	buf := &bytes.Buffer{}
	app, mock := newMockApp(t, buf)

	result, _ := execute(app, "batch", catalogPath, "-o", outDir)

	assert.Equal(t, ExitRunError, result.ExitCode)
	assert.Zero(t, mock.Calls())
	assert.NoDirExists(t, filepath.Join(outDir, "glowboost-vitamin-c-serum"))

	printed := buf.String()
	assert.Contains(t, printed, "✗ BATCH STOPPED")
	assert.Contains(t, printed, "Passed: 0 | Failed: 1 | Remaining: 1")
	assert.Contains(t, printed, "○ GlowBoost Vitamin C Serum")
	assert.Contains(t, printed, "(skipped)")
}

func TestBatchCommand_MissingCatalog(t *testing.T) {
	buf := &bytes.Buffer{}
	app, _ := newMockApp(t, buf)

	result, _ := execute(app, "batch", filepath.Join(t.TempDir(), "missing.csv"))

	assert.Equal(t, ExitRunError, result.ExitCode)
	assert.Contains(t, buf.String(), "failed to open catalog")
}

func TestStatusCommand(t *testing.T) {
	t.Setenv(output.SummaryPathEnv, "")

	tests := []struct {
		name     string
		outcome  *pipeline.Outcome
		runErr   error
		wantCode int
		wantText string
	}{
		{
			name:     "passed",
			outcome:  &pipeline.Outcome{RunID: "run-1", Report: pipeline.Report{Status: pipeline.StatusPassed}},
			wantCode: ExitOK,
			wantText: "✓ PASSED",
		},
		{
			name:     "report failed",
			outcome:  &pipeline.Outcome{RunID: "run-2", Report: pipeline.Report{Status: pipeline.StatusFailed}},
			wantCode: ExitReportError,
			wantText: "✗ FAILED",
		},
		{
			name:     "run error",
			outcome:  &pipeline.Outcome{RunID: "run-3"},
			runErr:   errors.New("step extract-product failed"),
			wantCode: ExitRunError,
			wantText: "✗ RUN FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := output.NewWriter(dir).WriteSummary(output.NewRunSummary("product-content", "product.json", tt.outcome, tt.runErr))
			require.NoError(t, err)
			buf := &bytes.Buffer{}
			app, _ := newMockApp(t, buf)

			result, _ := execute(app, "status", "--output-dir", dir)

			assert.Equal(t, tt.wantCode, result.ExitCode)
			assert.Contains(t, buf.String(), tt.wantText)
		})
	}
}

func TestStatusCommand_NoSummary(t *testing.T) {
	t.Setenv(output.SummaryPathEnv, "")
	buf := &bytes.Buffer{}
	app, _ := newMockApp(t, buf)

	result, _ := execute(app, "status", "-o", t.TempDir())

	assert.Equal(t, ExitRunError, result.ExitCode)
	assert.Contains(t, buf.String(), "failed to read run summary")
}

func TestRawCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		prompter := &MockPrompter{Text: "Vitamin C brightens skin."}
		app := &App{Client: prompter, Printer: output.NewPrinterWithWriter(&bytes.Buffer{})}

		result, out := execute(app, "raw", "Describe", "vitamin", "C")

		assert.Equal(t, ExitOK, result.ExitCode)
		assert.Equal(t, []string{"Describe vitamin C"}, prompter.Prompts)
		assert.Equal(t, "Vitamin C brightens skin.\n", out)
	})

	t.Run("json", func(t *testing.T) {
		prompter := &MockPrompter{Payload: map[string]any{"ok": true}}
		app := &App{Client: prompter, Printer: output.NewPrinterWithWriter(&bytes.Buffer{})}

		result, out := execute(app, "raw", "--json", "Return ok")

		assert.Equal(t, ExitOK, result.ExitCode)
		assert.JSONEq(t, `{"ok": true}`, out)
	})

	t.Run("backend error", func(t *testing.T) {
		prompter := &MockPrompter{Err: backend.ErrBackendUnavailable}
		buf := &bytes.Buffer{}
		app := &App{Client: prompter, Printer: output.NewPrinterWithWriter(buf)}

		result, _ := execute(app, "raw", "hello")

		assert.Equal(t, ExitRunError, result.ExitCode)
		assert.Contains(t, buf.String(), "Error:")
	})

	t.Run("requires a prompt", func(t *testing.T) {
		app := &App{Client: &MockPrompter{}, Printer: output.NewPrinterWithWriter(&bytes.Buffer{})}

		result, _ := execute(app, "raw")

		assert.Equal(t, ExitRunError, result.ExitCode)
		_, ok := IsExitError(result.Err)
		assert.False(t, ok, "argument errors come from cobra")
	})
}

func TestExtractCommand(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		app := &App{Printer: output.NewPrinterWithWriter(&bytes.Buffer{})}
		rootCmd := NewRootCommand(app)
		out := &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetIn(strings.NewReader("Sure! Here it is:\n```json\n{\"name\": \"GlowBoost\"}\n```"))

		result := Run(context.Background(), rootCmd, []string{"extract"})

		assert.Equal(t, ExitOK, result.ExitCode)
		assert.JSONEq(t, `{"name": "GlowBoost"}`, out.String())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "completion.txt")
		require.NoError(t, os.WriteFile(path, []byte(`The answer is {"a": {"b": 1}} as requested.`), 0644))
		app := &App{Printer: output.NewPrinterWithWriter(&bytes.Buffer{})}

		result, out := execute(app, "extract", path)

		assert.Equal(t, ExitOK, result.ExitCode)
		assert.JSONEq(t, `{"a": {"b": 1}}`, out)
	})

	t.Run("no object", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "completion.txt")
		require.NoError(t, os.WriteFile(path, []byte("no structured data here"), 0644))
		buf := &bytes.Buffer{}
		app := &App{Printer: output.NewPrinterWithWriter(buf)}

		result, _ := execute(app, "extract", path)

		assert.Equal(t, ExitRunError, result.ExitCode)
		assert.Contains(t, buf.String(), "Error:")
	})
}

func TestRun_UnknownCommand(t *testing.T) {
	result, _ := execute(&App{}, "publish")

	assert.Equal(t, ExitRunError, result.ExitCode)
	require.Error(t, result.Err)
}

func TestExitError(t *testing.T) {
	err := NewExitError(ExitReportError)
	assert.Equal(t, "exit status 2", err.Error())

	code, ok := IsExitError(err)
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	_, ok = IsExitError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = IsExitError(nil)
	assert.False(t, ok)
}

func TestIsOffline(t *testing.T) {
	rootCmd := NewRootCommand(&App{})

	for name, want := range map[string]bool{"extract": true, "status": true, "generate": false, "batch": false, "raw": false} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, want, IsOffline(cmd), name)
	}
}
