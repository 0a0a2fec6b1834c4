package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/partexpand/pkg/config"
	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/version"
)

// invocation is the state every subcommand run starts from.
type invocation struct {
	cfg        *config.Config
	providers  observability.Providers
	logger     *slog.Logger
	tracer     trace.Tracer
	conversion *observability.ConversionMetrics
}

// newInvocation loads configuration, applies overrides, validates the result
// and initializes observability. Logs go to the command's stderr so stdout
// stays a clean data stream.
func newInvocation(
	cmd *cobra.Command, opts *globalOptions, mode observability.AppMode, overrides ...func(*config.Config),
) (*invocation, error) {
	cfg, err := config.ReadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(cfg)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = cfg.ExportHeaders()
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	conversion, err := observability.NewConversionMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &invocation{
		cfg:        cfg,
		providers:  providers,
		logger:     providers.Logger,
		tracer:     providers.Tracer,
		conversion: conversion,
	}, nil
}

// close flushes telemetry and logs any failure.
func (rt *invocation) close() {
	err := rt.providers.Shutdown(context.Background())
	if err != nil {
		rt.logger.Warn("observability shutdown failed", "error", err)
	}
}

// fail records err on span and the error counter for stage, then returns it.
func (rt *invocation) fail(ctx context.Context, span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	rt.conversion.RecordError(ctx, stage)

	return err
}
