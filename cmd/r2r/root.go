package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/r2r"
	"github.com/kailas-cloud/r2r/internal/config"
	logpkg "github.com/kailas-cloud/r2r/internal/logger"
	"github.com/kailas-cloud/r2r/internal/version"
)

// app carries what every subcommand needs once the root pre-run has finished.
type app struct {
	client *r2r.Client
	logger *zap.Logger
}

type rootFlags struct {
	baseURL  string
	prefix   string
	timeout  time.Duration
	logLevel string
	dotenv   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "r2r",
		Short: "Command-line client for an R2R retrieval-and-generation service",
		Long: `r2r talks to an R2R service over HTTP: ingest files and documents,
search them, ask RAG questions (optionally streamed) and manage what is stored.

Configuration comes from config/<ENV>.yaml, R2R_* environment variables
(a .env file is loaded first) and, with the highest priority, flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, f)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.baseURL, "base-url", "", "R2R service URL (overrides config)")
	pf.StringVar(&f.prefix, "prefix", "", `API prefix (overrides config, "/" for none)`)
	pf.DurationVar(&f.timeout, "timeout", 0, "whole-request timeout, 0 for none")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&f.dotenv, "env-file", "", "load variables from this file instead of ./.env")

	cmd.AddCommand(
		newVersionCmd(),
		newHealthCmd(a),
		newAppSettingsCmd(a),
		newSearchCmd(a),
		newRAGCmd(a),
		newIngestCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newLogsCmd(a),
		newDocumentsOverviewCmd(a),
		newUsersOverviewCmd(a),
		newChunksCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command, f rootFlags) error {
	var envFiles []string
	if f.dotenv != "" {
		envFiles = append(envFiles, f.dotenv)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if f.baseURL != "" {
		cfg.Server.BaseURL = f.baseURL
	}
	if f.prefix != "" {
		cfg.Server.Prefix = f.prefix
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	if f.timeout > 0 {
		timeout = f.timeout
	}

	l, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = l

	opts := []r2r.Option{
		r2r.WithPrefix(cfg.Server.Prefix),
		r2r.WithTimeout(timeout),
		r2r.WithLogger(l),
	}
	for k, v := range cfg.Server.Headers {
		opts = append(opts, r2r.WithHeader(k, v))
	}
	c, err := r2r.New(cfg.Server.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	a.client = c

	l.Debug("client ready",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("endpoint", c.BaseURL()),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logpkg.ContextWithLogger(ctx, l))
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "r2r", version.String())
		},
	}
}
