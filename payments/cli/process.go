package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/LerianStudio/payments-engine/payments"
	"github.com/LerianStudio/payments-engine/payments/codec"
	"github.com/LerianStudio/payments-engine/payments/config"
	"github.com/LerianStudio/payments-engine/payments/engine"
	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/LerianStudio/payments-engine/payments/pipeline"
	"github.com/LerianStudio/payments-engine/payments/snapshot/sqlite"
	"github.com/LerianStudio/payments-engine/payments/zap"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zapcore"
)

const (
	entityEvent  = "Event"
	syncTimeout  = 2 * time.Second
	stdinArg     = "-"
	fileOpenMode = 0o600
)

func runProcess(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := zap.New(zap.Config{
		Environment: zap.Environment(cfg.Environment),
		Level:       cfg.LogLevel,
		Encoding:    zap.Encoding(cfg.LogEncoding),
		Output:      zapcore.AddSync(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncTimeout)
		defer cancel()

		_ = logger.Sync(syncCtx)
	}()

	factory, err := metrics.NewMetricsFactory(otel.GetMeterProvider().Meter(payments.TracerName), logger)
	if err != nil {
		return err
	}

	runID := payments.NewRunID()
	ctx = payments.ContextWithRunID(ctx, runID)
	ctx = payments.ContextWithLogger(ctx, logger.With(log.String("run_id", runID)))
	ctx = payments.ContextWithMetricFactory(ctx, factory)
	ctx = payments.ContextWithTracer(ctx, otel.Tracer(payments.TracerName))

	enc, err := codec.NewEncoder(cfg.OutputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	input, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer input.Close()

	opts := []engine.Option{
		engine.WithLogger(payments.NewLoggerFromContext(ctx)),
		engine.WithMetrics(factory),
	}

	if cfg.PreallocateAccounts {
		opts = append(opts, engine.WithPreallocatedAccounts())
	}

	if cfg.RejectionsPath != "" {
		report, err := os.OpenFile(cfg.RejectionsPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileOpenMode)
		if err != nil {
			return fmt.Errorf("open rejections report: %w", err)
		}

		rejections := codec.NewRejectionWriter(report)
		opts = append(opts, engine.WithRejectionHook(rejections.Record))

		defer func() {
			err = errors.Join(err, closeReport(rejections, report))
		}()
	}

	eng := engine.New(opts...)

	if _, err := pipeline.Run(ctx, input, eng, pipeline.Options{
		Workers:   cfg.Workers(),
		ChunkSize: cfg.DecodeChunkSize,
	}); err != nil {
		production := zap.Environment(cfg.Environment) == zap.EnvironmentProduction
		log.SafeError(payments.NewLoggerFromContext(ctx), ctx, "run aborted", err, production)

		return payments.ValidateBusinessError(err, entityEvent)
	}

	accounts, err := eng.Snapshot()
	if err != nil {
		return payments.ValidateBusinessError(err, entityEvent)
	}

	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}

	if cfg.SnapshotDB != "" {
		if err := sqlite.Export(ctx, cfg.SnapshotDB, runID, accounts); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}

		payments.NewLoggerFromContext(ctx).Log(ctx, log.LevelInfo, "snapshot exported",
			log.String("path", cfg.SnapshotDB),
			log.Int("accounts", len(accounts)),
		)
	}

	return nil
}

// loadConfig layers the changed flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString(flagConfig)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed(flagLogLevel) {
		cfg.LogLevel, _ = flags.GetString(flagLogLevel)
	}

	if flags.Changed(flagFormat) {
		cfg.OutputFormat, _ = flags.GetString(flagFormat)
	}

	if flags.Changed(flagWorkers) {
		cfg.DecodeWorkers, _ = flags.GetInt(flagWorkers)
	}

	if flags.Changed(flagChunkSize) {
		cfg.DecodeChunkSize, _ = flags.GetInt(flagChunkSize)
	}

	if flags.Changed(flagRejections) {
		cfg.RejectionsPath, _ = flags.GetString(flagRejections)
	}

	if flags.Changed(flagSnapshotDB) {
		cfg.SnapshotDB, _ = flags.GetString(flagSnapshotDB)
	}

	if flags.Changed(flagPreallocate) {
		cfg.PreallocateAccounts, _ = flags.GetBool(flagPreallocate)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == stdinArg {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	return f, nil
}

func closeReport(rejections *codec.RejectionWriter, file *os.File) error {
	return errors.Join(rejections.Close(), file.Close())
}
