// Package pipeline wires factor construction, classification, reporting and
// persistence into a single run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"northbound-factor-lab/internal/config"
	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/factor"
	"northbound-factor-lab/internal/idhash"
	"northbound-factor-lab/internal/ingest"
	"northbound-factor-lab/internal/observability"
	"northbound-factor-lab/internal/reporting"
	"northbound-factor-lab/internal/signal"
	"northbound-factor-lab/internal/storage"
)

// Output file names.
const (
	FactorTableFile = "factor_table.csv"
	SignalsFile     = "signals.csv"
	DataGapsFile    = "data_gaps.csv"
	ReportFile      = "REPORT.md"
)

// Inputs are the raw tables for one run.
type Inputs struct {
	Stocks  []domain.StockDailyRecord
	Futures []domain.FuturesDailyRecord
	Flows   []domain.NorthFlowRecord

	// Digests identify the files the tables were read from. Optional.
	Digests []reporting.InputDigest
}

// Output is the result of one classified run.
type Output struct {
	RunID   string
	Variant domain.Variant
	Factor  *factor.Result
	Signals []domain.SignalRow
	Report  *reporting.Report
	Dir     string // where the files were written
}

type namedFactorStore struct {
	name  string
	store storage.FactorRowStore
}

type namedSignalStore struct {
	name  string
	store storage.SignalStore
}

// Pipeline runs factor construction and classification for one instrument.
type Pipeline struct {
	cfg          *config.Config
	log          zerolog.Logger
	builder      *factor.Builder
	reportGen    *reporting.Generator
	adjuster     signal.Adjuster
	adjusterName string
	factorStores []namedFactorStore
	signalStores []namedSignalStore
	metrics      *observability.Metrics
	outputDir    string
	clock        func() time.Time
}

// New creates a pipeline for cfg. The adjuster defaults to signal.PassThrough.
func New(cfg *config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		log:          log,
		builder:      factor.NewBuilder(log),
		reportGen:    reporting.NewGenerator(),
		adjuster:     signal.PassThrough{},
		adjusterName: "pass-through",
		metrics:      observability.NewMetrics(""),
		outputDir:    cfg.Output.Dir,
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithAdjuster replaces the post-classification adjuster of the threshold variant.
func (p *Pipeline) WithAdjuster(name string, a signal.Adjuster) *Pipeline {
	p.adjuster = a
	p.adjusterName = name
	return p
}

// WithFactorStore adds a sink for factor tables. name labels metrics and logs.
func (p *Pipeline) WithFactorStore(name string, s storage.FactorRowStore) *Pipeline {
	p.factorStores = append(p.factorStores, namedFactorStore{name, s})
	return p
}

// WithSignalStore adds a sink for signal series.
func (p *Pipeline) WithSignalStore(name string, s storage.SignalStore) *Pipeline {
	p.signalStores = append(p.signalStores, namedSignalStore{name, s})
	return p
}

// WithMetrics replaces the pipeline's metrics.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// WithOutputDir overrides cfg.Output.Dir.
func (p *Pipeline) WithOutputDir(dir string) *Pipeline {
	p.outputDir = dir
	return p
}

// Metrics returns the metrics the pipeline records to.
func (p *Pipeline) Metrics() *observability.Metrics {
	return p.metrics
}

// Run builds the factor table, classifies it with the configured variant and
// writes to the output directory:
//   - factor_table.csv
//   - signals.csv
//   - data_gaps.csv
//   - REPORT.md
//
// The factor table and signals are then written to every configured store.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Output, error) {
	variant := p.cfg.Variant()
	start := p.clock()

	res, err := p.build(in)
	if err != nil {
		p.metrics.RecordPipelineRun(variant, observability.StatusFailure, p.clock().Sub(start), p.clock())
		return nil, err
	}
	if err := p.persistFactor(ctx, res.Rows); err != nil {
		p.metrics.RecordPipelineRun(variant, observability.StatusFailure, p.clock().Sub(start), p.clock())
		return nil, err
	}

	out, err := p.emit(ctx, variant, res, in.Digests, p.outputDir)
	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusFailure
	}
	p.metrics.RecordPipelineRun(variant, status, p.clock().Sub(start), p.clock())
	return out, err
}

// RunBoth builds the factor table once and classifies it with both variants.
// Each variant's files go to a subdirectory named after the variant.
func (p *Pipeline) RunBoth(ctx context.Context, in Inputs) ([]*Output, error) {
	res, err := p.build(in)
	if err != nil {
		return nil, err
	}
	if err := p.persistFactor(ctx, res.Rows); err != nil {
		return nil, err
	}

	var outs []*Output
	for _, v := range []domain.Variant{domain.VariantThreshold, domain.VariantJoint} {
		start := p.clock()
		out, err := p.emit(ctx, v, res, in.Digests, filepath.Join(p.outputDir, string(v)))
		if err != nil {
			p.metrics.RecordPipelineRun(v, observability.StatusFailure, p.clock().Sub(start), p.clock())
			return nil, err
		}
		p.metrics.RecordPipelineRun(v, observability.StatusSuccess, p.clock().Sub(start), p.clock())
		outs = append(outs, out)
	}
	return outs, nil
}

func (p *Pipeline) build(in Inputs) (*factor.Result, error) {
	start, end := p.cfg.StartDate(), p.cfg.EndDate()
	stocks := ingest.FilterStocks(in.Stocks, start, end)
	futures := ingest.FilterFutures(in.Futures, start, end)
	flows := ingest.FilterNorthFlow(in.Flows, start, end)

	res, err := p.builder.Build(stocks, flows, futures)
	if err != nil {
		return nil, fmt.Errorf("build factor table: %w", err)
	}

	p.metrics.RecordFactorTable(len(res.Rows), len(res.Gaps))
	p.log.Info().
		Str("instrument", p.cfg.Run.Instrument).
		Int("stock_records", len(stocks)).
		Int("futures_bars", len(futures)).
		Int("flow_records", len(flows)).
		Int("factor_rows", len(res.Rows)).
		Int("gaps", len(res.Gaps)).
		Msg("inputs joined")
	return res, nil
}

// Classify applies variant to rows. Only the threshold variant is adjusted.
func (p *Pipeline) Classify(variant domain.Variant, rows []domain.FactorRow) []domain.SignalRow {
	switch variant {
	case domain.VariantJoint:
		return signal.ClassifyJoint(rows, p.cfg.JointParams())
	default:
		return p.adjuster.Adjust(signal.ClassifyThreshold(rows, p.cfg.ThresholdParams()))
	}
}

func (p *Pipeline) emit(ctx context.Context, variant domain.Variant, res *factor.Result, digests []reporting.InputDigest, dir string) (*Output, error) {
	signals := p.Classify(variant, res.Rows)
	p.metrics.RecordSignals(variant, signals)

	params := p.parameters(variant)
	report := p.reportGen.Summarize(params, signals, res.Gaps)
	report.Inputs = digests
	report.RunID = idhash.ComputeRunID(runKey(params, digests))

	if err := writeFiles(dir, res.Rows, signals, report); err != nil {
		return nil, err
	}
	p.metrics.ReportsGenerated.Inc()

	for _, s := range p.signalStores {
		begin := time.Now()
		err := s.store.UpsertBulk(ctx, p.cfg.Run.Instrument, variant, signals)
		if err := p.checkWrite(s.name, len(signals), time.Since(begin), err); err != nil {
			return nil, err
		}
	}

	p.log.Info().
		Str("variant", string(variant)).
		Str("run_id", report.RunID).
		Str("dir", dir).
		Int("transitions", len(report.Transitions)).
		Msg("signals written")

	return &Output{
		RunID:   report.RunID,
		Variant: variant,
		Factor:  res,
		Signals: signals,
		Report:  report,
		Dir:     dir,
	}, nil
}

func (p *Pipeline) persistFactor(ctx context.Context, rows []domain.FactorRow) error {
	for _, s := range p.factorStores {
		begin := time.Now()
		err := s.store.UpsertBulk(ctx, p.cfg.Run.Instrument, rows)
		if err := p.checkWrite(s.name, len(rows), time.Since(begin), err); err != nil {
			return err
		}
	}
	return nil
}

// checkWrite records a store write. Stores upsert, so re-runs over dates an
// earlier run persisted replace those rows and add any new ones.
func (p *Pipeline) checkWrite(store string, rows int, took time.Duration, err error) error {
	p.metrics.RecordStoreWrite(store, rows, took, err)
	if err != nil {
		return fmt.Errorf("write %s: %w", store, err)
	}
	p.log.Debug().Str("store", store).Int("rows", rows).Msg("rows persisted")
	return nil
}

func (p *Pipeline) parameters(variant domain.Variant) reporting.RunParameters {
	params := reporting.RunParameters{
		Instrument: p.cfg.Run.Instrument,
		Variant:    variant,
		StartDate:  p.cfg.StartDate(),
		EndDate:    p.cfg.EndDate(),
	}
	switch variant {
	case domain.VariantJoint:
		j := p.cfg.JointParams()
		params.Rules = []reporting.ParamRow{
			{Name: "factor_upper", Value: j.FactorUpper},
			{Name: "factor_lower", Value: j.FactorLower},
			{Name: "ratio_upper", Value: j.RatioUpper},
			{Name: "ratio_lower", Value: j.RatioLower},
		}
	default:
		t := p.cfg.ThresholdParams()
		params.Rules = []reporting.ParamRow{
			{Name: "upper", Value: t.Upper},
			{Name: "lower", Value: t.Lower},
		}
		params.Adjuster = p.adjusterName
	}
	return params
}

func runKey(params reporting.RunParameters, digests []reporting.InputDigest) idhash.RunKey {
	k := idhash.RunKey{
		Instrument: params.Instrument,
		Variant:    params.Variant,
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
		Params:     make(map[string]float64, len(params.Rules)),
		Inputs:     make(map[string]string, len(digests)),
	}
	for _, r := range params.Rules {
		k.Params[r.Name] = r.Value
	}
	for _, d := range digests {
		k.Inputs[d.Name] = d.SHA256
	}
	return k
}

func writeFiles(dir string, rows []domain.FactorRow, signals []domain.SignalRow, report *reporting.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{FactorTableFile, reporting.RenderFactorCSV(rows)},
		{SignalsFile, reporting.RenderSignalCSV(signals)},
		{DataGapsFile, reporting.RenderGapCSV(report.Gaps)},
		{ReportFile, reporting.RenderMarkdown(report)},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}
