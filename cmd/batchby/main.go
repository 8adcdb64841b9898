package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/batchby/internal/app"
	"github.com/bft-labs/batchby/internal/cliconfig"
	logAdapter "github.com/bft-labs/batchby/pkg/log"
	"github.com/bft-labs/batchby/pkg/metrics"
	"github.com/bft-labs/batchby/pkg/sink"
	"github.com/bft-labs/batchby/pkg/state"
)

var longHelp = strings.TrimSpace(`
Group consecutive NDJSON records that share a property into batches.

Every maximal run of adjacent records with an equal value under --key becomes
one batch. Batches are written as JSON lines and, with --sink-url, posted to
a collector. A record with a different value closes the current batch; the
last batch is flushed when the input ends.

Configuration is read from $HOME/.batchby/config.toml, then BATCHBY_*
environment variables, then flags, each overriding the previous.
`)

var exampleUsage = strings.TrimSpace(`
  batchby --key order_id --input orders.ndjson
  batchby --key order_id --input orders.ndjson --follow --resume --sink-url https://collector.local
  cat events.ndjson | batchby -k session --pretty
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath, envFile string

	log := cliconfig.Logger(zerolog.InfoLevel)

	root := &cobra.Command{
		Use:           "batchby",
		Short:         "Group consecutive NDJSON records sharing a property into batches",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cliconfig.LoadEnvFile(envFile); err != nil {
				return err
			}

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (BATCHBY_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			level, _ := cfg.Level()
			log = log.Level(level)

			// Log configuration (masking API key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			log.Debug().Interface("config", logCfg).Msg("configuration")

			return run(cmd.Context(), cfg, logAdapter.NewZerologAdapterWithLogger(log))
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.batchby/config.toml)")
	root.Flags().StringVar(&envFile, "env-file", "", "load BATCHBY_* variables from a .env file")

	root.Flags().StringVarP(&cfg.Key, "key", "k", cfg.Key, "property to group consecutive records on (required)")
	root.Flags().StringVarP(&cfg.Input, "input", "i", cfg.Input, `NDJSON input file, "-" for stdin`)
	root.Flags().StringVarP(&cfg.Output, "output", "o", cfg.Output, `batch output file, "-" for stdout`)
	root.Flags().BoolVarP(&cfg.Follow, "follow", "f", cfg.Follow, "keep reading the input as it grows")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "poll interval when following an idle input")

	root.Flags().StringVar(&cfg.SinkURL, "sink-url", cfg.SinkURL, "collector base URL; batches are posted to <url>/v1/batches")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for the collector")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries per batch after the first attempt")

	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "checkpoint directory (defaults to the input directory)")
	root.Flags().BoolVar(&cfg.Resume, "resume", cfg.Resume, "continue after the last delivered batch of a previous run")
	root.Flags().BoolVar(&cfg.SkipEmpty, "skip-empty", cfg.SkipEmpty, "emit nothing for an empty input")
	root.Flags().BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "indent batch output")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve prometheus metrics on this address")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("batchby")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, logger *logAdapter.ZerologAdapter) error {
	out, err := openSink(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("close sink", logAdapter.Err(err))
		}
	}()

	var repo state.Repository
	if cfg.Input != cliconfig.StdStream {
		repo = state.NewInputRepository(cfg.StateDir, cfg.Input)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	runner := app.NewRunner(app.Config{
		Key:          cfg.Key,
		Input:        cfg.Input,
		Follow:       cfg.Follow,
		PollInterval: cfg.PollInterval,
		Resume:       cfg.Resume,
		SkipEmpty:    cfg.SkipEmpty,
		MetricsAddr:  cfg.MetricsAddr,
	}, out, repo,
		app.WithLogger(logger.With(logAdapter.String("key", cfg.Key))),
		app.WithMetrics(m, reg),
	)

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Warn("interrupted, pending batch dropped")
		return nil
	}
	return err
}

func openSink(cfg cliconfig.Config, logger *logAdapter.ZerologAdapter) (sink.Sink, error) {
	var sinks sink.Multi

	if cfg.Output != "" {
		jl, err := sink.OpenJSONLines(cfg.Output, cfg.Pretty)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		sinks = append(sinks, jl)
	}

	if cfg.SinkURL != "" {
		hostname, _ := os.Hostname()
		sinks = append(sinks, sink.NewHTTPSink(&http.Client{Timeout: cfg.HTTPTimeout}, sink.HTTPOptions{
			URL:        cfg.SinkURL,
			AuthKey:    cfg.AuthKey,
			Hostname:   hostname,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		}))
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}
