// Command contentpipe generates product marketing pages (FAQ, product page and
// competitor comparison) from a structured product description.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"contentpipe/internal/backend"
	"contentpipe/internal/claude"
	"contentpipe/internal/cli"
	"contentpipe/internal/config"
	"contentpipe/internal/content"
	"contentpipe/internal/logging"
	"contentpipe/internal/output"
	"contentpipe/internal/pipeline"
	"contentpipe/internal/schema"
	"contentpipe/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

const stopTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{}
	var container *fx.App

	rootCmd := cli.NewRootCommand(app)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cli.IsOffline(cmd) {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Printer = output.NewPrinter()
			return nil
		}
		container = fx.New(graph(app))
		if err := container.Err(); err != nil {
			return err
		}
		return container.Start(cmd.Context())
	}

	result := cli.Run(ctx, rootCmd, os.Args[1:])

	if container != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := container.Stop(stopCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
		}
	}

	if result.Err != nil {
		if _, ok := cli.IsExitError(result.Err); !ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", result.Err)
		}
	}
	return result.ExitCode
}

// graph assembles the application and copies the result into app.
func graph(app *cli.App) fx.Option {
	return fx.Options(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			loadConfig,
			newLogger,
			newBackend,
			newClient,
			schema.New,
			output.NewPrinter,
			newOrchestrator,
			newWorkflow,
		),
		fx.Invoke(startTelemetry),
		fx.Invoke(func(cfg *config.Config, logger *zap.Logger, orch *pipeline.Orchestrator, wf pipeline.Workflow, client *backend.Client, printer *output.Printer) {
			*app = cli.App{
				Config:   cfg,
				Runner:   orch,
				Workflow: wf,
				Client:   client,
				Printer:  printer,
				Logger:   logger,
			}
		}),
	)
}

func loadConfig() (*config.Config, error) {
	return config.NewLoader().Load()
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, closeFn, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		return closeFn()
	}})
	return logger, nil
}

func startTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) error {
	shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.Insecure,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		logger.Debug("telemetry export enabled", zap.String("endpoint", cfg.Telemetry.OTLPEndpoint))
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
		return shutdown(ctx)
	}})
	return nil
}

// newBackend selects the generative backend named by backend.provider.
func newBackend(cfg *config.Config, logger *zap.Logger) (backend.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("backend selected", zap.String("provider", cfg.Backend.Provider))
	switch cfg.Backend.Provider {
	case config.ProviderClaude:
		executor := claude.NewExecutor(claude.ExecutorConfig{
			BinaryPath:   cfg.Claude.BinaryPath,
			OutputFormat: cfg.Claude.OutputFormat,
		}, logger)
		return claude.NewBackend(executor), nil
	case config.ProviderMock:
		return content.NewMockBackend(), nil
	default:
		return backend.NewHTTPBackend(backend.HTTPConfig{
			BaseURL:     cfg.Backend.BaseURL,
			APIKey:      cfg.Backend.APIKey,
			Model:       cfg.Backend.Model,
			Temperature: &cfg.Backend.Temperature,
			Timeout:     cfg.Backend.Timeout(),
		}), nil
	}
}

func newClient(b backend.Backend, cfg *config.Config, logger *zap.Logger) *backend.Client {
	client := backend.NewClient(b, logger)
	client.SetMaxAttempts(cfg.Backend.MaxAttempts)
	client.SetBackoff(cfg.Backend.Backoff())
	return client
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger, printer *output.Printer) *pipeline.Orchestrator {
	orch := pipeline.NewOrchestrator(logger)
	orch.SetPause(cfg.Pipeline.StepPause())
	orch.SetProgressCallback(printer.StepStart)
	return orch
}

func newWorkflow(client *backend.Client, validator *schema.Validator, cfg *config.Config, logger *zap.Logger) pipeline.Workflow {
	th := content.Thresholds{
		MinFAQItems:       cfg.Quality.MinFAQItems,
		MinBenefits:       cfg.Quality.MinBenefits,
		MinComparisonRows: cfg.Quality.MinComparisonRows,
	}
	return content.NewWorkflow(client, validator, th, logger)
}
