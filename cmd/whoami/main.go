package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/config"
	"github.com/lorenzotomasdiez/who-am-i/internal/logger"
	"github.com/lorenzotomasdiez/who-am-i/internal/metrics"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

const spinnerCharset = 14

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

func main() {
	a := &app{}
	root := newRootCmd(a)
	err := root.Execute()
	if a.log != nil {
		_ = a.log.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "whoami",
		Short: "Play \"Who Am I?\" against a language model",
		Long: heredoc.Doc(`
			Play "Who Am I?" against a language model.

			In classic mode the model secretly becomes a character and you ask
			yes/no questions until you name it. In reverse mode you think of a
			character and the model asks the questions.

			Settings come from WHOAMI_* environment variables, an optional .env
			file, and the flags below, in increasing order of precedence.`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("env-file", ".env", "Path of an optional .env file")
	pf.String("backend", "", "Oracle backend: openrouter, openai or ollama (overrides WHOAMI_BACKEND)")
	pf.String("api-key", "", "API key (overrides WHOAMI_API_KEY / OPENROUTER_API_KEY / OPENAI_API_KEY)")
	pf.String("base-url", "", "Backend base URL (overrides WHOAMI_BASE_URL)")
	pf.String("model", "", "Model name (overrides WHOAMI_MODEL)")
	pf.Duration("timeout", 0, "Per-request timeout (overrides WHOAMI_TIMEOUT)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (overrides WHOAMI_LOG_LEVEL)")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	root.AddCommand(newClassicCmd(a))
	root.AddCommand(newReverseCmd(a))
	root.AddCommand(newModelsCmd(a))
	return root
}

// setup loads .env and the environment, applies flag overrides, and builds
// the logger. Validation is left to the commands that need a working oracle.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	overrideString := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	overrideString("backend", &cfg.Backend)
	overrideString("api-key", &cfg.APIKey)
	overrideString("base-url", &cfg.BaseURL)
	overrideString("model", &cfg.Model)
	overrideString("log-level", &cfg.LogLevel)
	overrideString("metrics-addr", &cfg.MetricsAddr)
	overrideString("theme", &cfg.Theme)
	overrideString("strategy", &cfg.Strategy)
	overrideString("detector", &cfg.WinDetector)
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("summary-every") {
		cfg.SummaryEvery, _ = flags.GetInt("summary-every")
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.metrics = metrics.New()
	return nil
}

// loadOracle validates the configuration, builds the backend and loads it
// behind a spinner. It also starts the metrics endpoint when configured.
func (a *app) loadOracle(ctx context.Context) (oracle.Loader, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	if a.cfg.MetricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, a.cfg.MetricsAddr, a.log); err != nil {
				a.log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	backend, err := oracle.FromConfig(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	o := a.metrics.Instrument(backend)

	var loadErr error
	thinking("loading model", func() { loadErr = o.Load(ctx) })
	if loadErr != nil {
		return nil, fmt.Errorf("loading %s: %w", backend.Name(), loadErr)
	}
	fmt.Printf("Playing with %s\n\n", o.Name())
	return o, nil
}

// thinking runs fn behind a spinner on stderr. The spinner stays silent when
// stderr is not a terminal.
func thinking(suffix string, fn func()) {
	s := spinner.New(spinner.CharSets[spinnerCharset], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr),
		spinner.WithSuffix(" "+suffix+"..."),
	)
	s.Start()
	defer s.Stop()
	fn()
}
