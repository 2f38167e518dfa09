package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mrzor/compiler-monitor/internal/cache"
	"github.com/mrzor/compiler-monitor/internal/capture"
	"github.com/mrzor/compiler-monitor/internal/config"
	"github.com/mrzor/compiler-monitor/internal/metrics"
	"github.com/mrzor/compiler-monitor/internal/otel"
	"github.com/mrzor/compiler-monitor/internal/pattern"
	"github.com/mrzor/compiler-monitor/internal/procmeta"
	"github.com/mrzor/compiler-monitor/internal/rspfile"
	"github.com/mrzor/compiler-monitor/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// openHost is replaced in tests.
var openHost = procmeta.OpenHost

func newRecordCmd(opts *globalOptions) *cobra.Command {
	var patternFlag, cacheDir string

	cmd := &cobra.Command{
		Use:     "record",
		Aliases: []string{"r"},
		Short:   "Record compiler invocations into the cache directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("pattern") {
					c.Pattern = patternFlag
				}
				if cmd.Flags().Changed("cache-dir") {
					c.CacheDir = cacheDir
				}
			})
			if err != nil {
				return err
			}
			return record(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&patternFlag, "pattern", "p", "", "Process name glob (default \"cl.exe\")")
	cmd.Flags().StringVarP(&cacheDir, "cache-dir", "c", "", "Cache directory (default \".compiler_monitor_cache\")")

	return cmd
}

// record scans until ctx is cancelled.
func record(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := logger.WithField("session", uuid.NewString())

	matcher, err := pattern.Compile(cfg.Pattern)
	if err != nil {
		return err
	}
	filter, err := capture.NewFilter(cfg.Filter)
	if err != nil {
		return err
	}

	host, err := openHost(log)
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			log.WithError(err).Warn("Error closing process sources")
		}
	}()

	writer, err := cache.NewWriter(cfg.CacheDir, log)
	if err != nil {
		return err
	}

	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return err
	}
	tp, err := otel.InitProvider(otelCfg, version, log)
	if err != nil {
		return fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			log.WithError(err).Warn("Error shutting down OTEL provider")
		}
	}()

	processor := capture.NewProcessor(
		rspfile.NewExpander(writer, log),
		writer,
		filter,
		otel.Tracer(tp),
		log,
	)

	sc := scanner.New(host.Lister, matcher, host.Resolver, processor, scanner.Config{
		Interval:   cfg.PollInterval,
		MaxTracked: cfg.MaxTracked,
	}, log)

	log.WithFields(logrus.Fields{
		"pattern":   matcher.String(),
		"cache_dir": writer.Dir(),
	}).Info("Recording compiler invocations, press Ctrl+C to stop")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sc.Run(ctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.MetricsAddr, log)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Recording stopped")
	return nil
}
