// Package main regenerates signals.csv, data_gaps.csv and REPORT.md from a
// signal series persisted by an earlier pipeline run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/factor"
	"northbound-factor-lab/internal/logging"
	"northbound-factor-lab/internal/pipeline"
	"northbound-factor-lab/internal/reporting"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	envFile := flag.String("env", ".env", "Dotenv file loaded before the config")
	source := flag.String("source", pipeline.SinkPostgres, "Store to read from: postgres or clickhouse")
	variant := flag.String("variant", "", "Signal variant (default run.variant)")
	outputDir := flag.String("output-dir", "", "Output directory (default output.dir/report)")
	flag.Parse()

	if err := run(*configPath, *envFile, *source, *variant, *outputDir); err != nil {
		logger := logging.NewConsole("info")
		logger.Error().Err(err).Msg("report failed")
		os.Exit(1)
	}
}

func run(configPath, envFile, source, variant, outputDir string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.App.LogLevel, os.Stdout)

	v := cfg.Variant()
	if variant != "" {
		v = domain.Variant(variant)
	}
	if !v.IsValid() {
		return fmt.Errorf("unknown variant %q", v)
	}
	dir := outputDir
	if dir == "" {
		dir = filepath.Join(cfg.Output.Dir, "report")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sinks, err := pipeline.OpenSinks(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer sinks.Close()

	store, ok := sinks.Signals[source]
	if !ok {
		return fmt.Errorf("source store %q is not configured", source)
	}

	rows, err := store.GetByVariant(ctx, cfg.Run.Instrument, v)
	if err != nil {
		return fmt.Errorf("load %s signals: %w", v, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no %s signals stored", v)
	}

	factorRows := make([]domain.FactorRow, len(rows))
	for i, r := range rows {
		factorRows[i] = r.FactorRow
	}
	gaps := factor.DataGaps(factorRows)

	params := reporting.RunParameters{
		Instrument: cfg.Run.Instrument,
		Variant:    v,
		StartDate:  rows[0].Date,
		EndDate:    rows[len(rows)-1].Date,
	}
	report := reporting.NewGenerator().Summarize(params, rows, gaps)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := map[string]string{
		pipeline.SignalsFile:  reporting.RenderSignalCSV(rows),
		pipeline.DataGapsFile: reporting.RenderGapCSV(report.Gaps),
		pipeline.ReportFile:   reporting.RenderMarkdown(report),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	log.Info().
		Str("source", source).
		Str("variant", string(v)).
		Int("rows", len(rows)).
		Int("gaps", len(gaps)).
		Str("dir", dir).
		Msg("report regenerated")
	return nil
}
