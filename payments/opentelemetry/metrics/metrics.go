package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/LerianStudio/payments-engine/payments/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MetricsFactory creates and caches OpenTelemetry instruments. It is safe for
// concurrent use.
type MetricsFactory struct {
	meter      metric.Meter
	counters   sync.Map // string -> metric.Int64Counter
	gauges     sync.Map // string -> metric.Int64Gauge
	histograms sync.Map // string -> metric.Int64Histogram
	logger     log.Logger
}

// ErrNilMeter indicates that a nil OTEL meter was provided.
var ErrNilMeter = errors.New("metric meter cannot be nil")

// Metric describes one instrument.
type Metric struct {
	Name        string
	Description string
	Unit        string
	// Buckets are histogram boundaries; ignored for counters and gauges.
	Buckets []float64
}

var (
	MetricEventsProcessed = Metric{
		Name:        "payments.events_processed",
		Unit:        "{event}",
		Description: "Events applied to an account.",
	}

	MetricEventsRejected = Metric{
		Name:        "payments.events_rejected",
		Unit:        "{event}",
		Description: "Events dropped without a state change, by rejection code.",
	}

	MetricAccountsCreated = Metric{
		Name:        "payments.accounts_created",
		Unit:        "{account}",
		Description: "Client accounts opened on first reference.",
	}

	MetricAccountsLocked = Metric{
		Name:        "payments.accounts_locked",
		Unit:        "{account}",
		Description: "Accounts locked by a chargeback.",
	}

	MetricDisputesOpened = Metric{
		Name:        "payments.disputes_opened",
		Unit:        "{dispute}",
		Description: "Transactions moved into the disputed state.",
	}

	MetricOpenAccounts = Metric{
		Name:        "payments.accounts_open",
		Unit:        "{account}",
		Description: "Accounts known to the engine at the end of a run.",
	}

	MetricRunDuration = Metric{
		Name:        "payments.run_duration",
		Unit:        "ms",
		Description: "Wall time of one pipeline run.",
	}

	MetricAssertionFailed = Metric{
		Name:        "payments.assertion_failed",
		Unit:        "1",
		Description: "Ledger invariant checks that failed.",
	}

	MetricChunkEvents = Metric{
		Name:        "payments.chunk_events",
		Unit:        "{event}",
		Description: "Events decoded per input chunk.",
	}
)

var (
	// DefaultDurationBuckets are millisecond boundaries for run durations.
	DefaultDurationBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 120000}

	// DefaultEventBuckets fit event counts per chunk.
	DefaultEventBuckets = []float64{1, 16, 64, 256, 1024, 4096, 16384, 65536}
)

// NewMetricsFactory creates a factory over meter.
func NewMetricsFactory(meter metric.Meter, logger log.Logger) (*MetricsFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	if logger == nil {
		logger = log.NewNop()
	}

	return &MetricsFactory{meter: meter, logger: logger}, nil
}

// NewNopFactory returns a factory backed by the OpenTelemetry no-op meter.
func NewNopFactory() *MetricsFactory {
	return &MetricsFactory{
		meter:  noop.NewMeterProvider().Meter("nop"),
		logger: log.NewNop(),
	}
}

func (f *MetricsFactory) Counter(m Metric) (*CounterBuilder, error) {
	counter, err := f.getOrCreateCounter(m)
	if err != nil {
		return nil, err
	}

	return &CounterBuilder{counter: counter, name: m.Name}, nil
}

func (f *MetricsFactory) Gauge(m Metric) (*GaugeBuilder, error) {
	gauge, err := f.getOrCreateGauge(m)
	if err != nil {
		return nil, err
	}

	return &GaugeBuilder{gauge: gauge, name: m.Name}, nil
}

// Histogram returns a builder for m. Without explicit buckets the defaults are
// picked from the unit.
func (f *MetricsFactory) Histogram(m Metric) (*HistogramBuilder, error) {
	if m.Buckets == nil {
		m.Buckets = selectDefaultBuckets(m)
	}

	histogram, err := f.getOrCreateHistogram(m)
	if err != nil {
		return nil, err
	}

	return &HistogramBuilder{histogram: histogram, name: m.Name}, nil
}

func selectDefaultBuckets(m Metric) []float64 {
	if m.Unit == "ms" || strings.Contains(strings.ToLower(m.Name), "duration") {
		return DefaultDurationBuckets
	}

	return DefaultEventBuckets
}

func (f *MetricsFactory) getOrCreateCounter(m Metric) (metric.Int64Counter, error) {
	if cached, ok := f.counters.Load(m.Name); ok {
		if c, ok := cached.(metric.Int64Counter); ok {
			return c, nil
		}

		return nil, fmt.Errorf("counter cache contains invalid type for %q", m.Name)
	}

	var opts []metric.Int64CounterOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	counter, err := f.meter.Int64Counter(m.Name, opts...)
	if err != nil {
		f.logCreateFailure("counter", m.Name, err)
		return nil, fmt.Errorf("create counter %q: %w", m.Name, err)
	}

	// another goroutine may have won the race
	actual, _ := f.counters.LoadOrStore(m.Name, counter)
	if c, ok := actual.(metric.Int64Counter); ok {
		return c, nil
	}

	return nil, fmt.Errorf("counter cache contains invalid type for %q", m.Name)
}

func (f *MetricsFactory) getOrCreateGauge(m Metric) (metric.Int64Gauge, error) {
	if cached, ok := f.gauges.Load(m.Name); ok {
		if g, ok := cached.(metric.Int64Gauge); ok {
			return g, nil
		}

		return nil, fmt.Errorf("gauge cache contains invalid type for %q", m.Name)
	}

	var opts []metric.Int64GaugeOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	gauge, err := f.meter.Int64Gauge(m.Name, opts...)
	if err != nil {
		f.logCreateFailure("gauge", m.Name, err)
		return nil, fmt.Errorf("create gauge %q: %w", m.Name, err)
	}

	actual, _ := f.gauges.LoadOrStore(m.Name, gauge)
	if g, ok := actual.(metric.Int64Gauge); ok {
		return g, nil
	}

	return nil, fmt.Errorf("gauge cache contains invalid type for %q", m.Name)
}

// getOrCreateHistogram keys the cache by name and bucket layout, so two
// layouts of the same name get distinct instruments.
func (f *MetricsFactory) getOrCreateHistogram(m Metric) (metric.Int64Histogram, error) {
	key := histogramCacheKey(m.Name, m.Buckets)

	if cached, ok := f.histograms.Load(key); ok {
		if h, ok := cached.(metric.Int64Histogram); ok {
			return h, nil
		}

		return nil, fmt.Errorf("histogram cache contains invalid type for %q", key)
	}

	var opts []metric.Int64HistogramOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	if m.Buckets != nil {
		opts = append(opts, metric.WithExplicitBucketBoundaries(m.Buckets...))
	}

	histogram, err := f.meter.Int64Histogram(m.Name, opts...)
	if err != nil {
		f.logCreateFailure("histogram", m.Name, err)
		return nil, fmt.Errorf("create histogram %q: %w", m.Name, err)
	}

	actual, _ := f.histograms.LoadOrStore(key, histogram)
	if h, ok := actual.(metric.Int64Histogram); ok {
		return h, nil
	}

	return nil, fmt.Errorf("histogram cache contains invalid type for %q", key)
}

func (f *MetricsFactory) logCreateFailure(kind, name string, err error) {
	if f.logger == nil {
		return
	}

	f.logger.Log(context.Background(), log.LevelError, "failed to create "+kind+" metric",
		log.String("metric_name", name), log.Err(err))
}

func histogramCacheKey(name string, buckets []float64) string {
	if len(buckets) == 0 {
		return name
	}

	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)

	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}

	return name + ":" + strings.Join(parts, ",")
}
