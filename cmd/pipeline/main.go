// Package main runs the northbound factor pipeline: load inputs, build the
// factor table, classify, write reports and persist to the configured stores.
// With app.schedule set it keeps running on that cron schedule until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/logging"
	"northbound-factor-lab/internal/observability"
	"northbound-factor-lab/internal/pipeline"
)

const variantBoth = "both"

type options struct {
	configPath  string
	envFile     string
	outputDir   string
	variant     string
	logLevel    string
	once        bool
	useFixtures bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config (defaults apply when empty)")
	flag.StringVar(&opts.envFile, "env", ".env", "Dotenv file loaded before the config")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Override output.dir")
	flag.StringVar(&opts.variant, "variant", "", "Override run.variant: threshold, joint or both")
	flag.StringVar(&opts.logLevel, "log-level", "", "Override app.log_level")
	flag.BoolVar(&opts.once, "once", false, "Run once even when app.schedule is set")
	flag.BoolVar(&opts.useFixtures, "use-fixtures", false, "Use built-in demo data instead of the configured inputs")
	flag.Parse()

	if err := run(opts); err != nil {
		logger := logging.NewConsole("info")
		logger.Error().Err(err).Msg("pipeline exited")
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run(opts options) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runBoth := opts.variant == variantBoth
	if opts.variant != "" && !runBoth {
		cfg.Run.Variant = opts.variant
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	if opts.logLevel != "" {
		cfg.App.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.App.LogLevel, os.Stdout)

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sinks, err := pipeline.OpenSinks(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer sinks.Close()

	metrics := observability.NewMetrics("")
	p := pipeline.New(cfg, log).WithSinks(sinks).WithMetrics(metrics)

	if cfg.App.MetricsAddr != "" {
		srv := startHTTPServer(cfg.App.MetricsAddr, metrics, log)
		defer shutdownHTTPServer(srv, log)
	}

	runOnce := func() error {
		var in pipeline.Inputs
		if opts.useFixtures {
			in = pipeline.Fixtures()
		} else {
			loaded, err := pipeline.LoadInputs(ctx, cfg)
			if err != nil {
				return err
			}
			in = loaded
		}

		if runBoth {
			outs, err := p.RunBoth(ctx, in)
			for _, out := range outs {
				logOutput(log, out)
			}
			return err
		}
		out, err := p.Run(ctx, in)
		if err == nil {
			logOutput(log, out)
		}
		return err
	}

	if cfg.App.Schedule == "" || opts.once {
		return runOnce()
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.App.Schedule, func() {
		if err := runOnce(); err != nil {
			log.Error().Err(err).Msg("scheduled run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.App.Schedule, err)
	}

	c.Start()
	log.Info().Str("schedule", cfg.App.Schedule).Msg("scheduler started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	<-c.Stop().Done()
	return nil
}

func logOutput(log zerolog.Logger, out *pipeline.Output) {
	counts := map[domain.Signal]int{}
	for _, r := range out.Signals {
		counts[r.Sig]++
	}
	log.Info().
		Str("variant", string(out.Variant)).
		Str("run_id", out.RunID).
		Str("dir", out.Dir).
		Int("rows", len(out.Signals)).
		Int("buy", counts[domain.SignalBuy]).
		Int("hold", counts[domain.SignalHold]).
		Int("sell", counts[domain.SignalSell]).
		Int("gaps", len(out.Factor.Gaps)).
		Msg("pipeline completed")
}

// startHTTPServer serves /health and /metrics in the background.
func startHTTPServer(addr string, m *observability.Metrics, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics up")
	return srv
}

func shutdownHTTPServer(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}
}
