package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asnlab/asninfo/pkg/api"
	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/config"
	"github.com/asnlab/asninfo/pkg/logging"
	"github.com/asnlab/asninfo/pkg/metrics"
	"github.com/asnlab/asninfo/pkg/provider"
	"github.com/asnlab/asninfo/pkg/refresh"
)

var (
	cfgFile         string
	serveBind       string
	serveRefresh    uint64
	serveSimplified bool
)

// init wires the serve subcommand and its flags into the CLI.
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "Path to the configuration file")
	serveCmd.Flags().StringVarP(&serveBind, "bind", "b", "", "Bind address, e.g., 0.0.0.0:8080")
	serveCmd.Flags().Uint64Var(&serveRefresh, "refresh-secs", 0, "Refresh interval in seconds for background updates")
	serveCmd.Flags().BoolVar(&serveSimplified, "simplified", false, "Use simplified mode (skip heavy datasets)")
}

var serveCmd = &cobra.Command{
	Use:           "serve",
	Short:         "Serve an HTTP API for ASN info lookup",
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("bind") {
			cfg.Server.Address = serveBind
		}
		if cmd.Flags().Changed("refresh-secs") {
			cfg.Refresh.IntervalSecs = serveRefresh
		}
		if cmd.Flags().Changed("simplified") {
			cfg.Refresh.Simplified = serveSimplified
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		baseLogger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = baseLogger.Sync() }()
		logger := logging.Component(baseLogger, "cli")

		runCtx, cancelRunCtx := context.WithCancel(context.Background())
		defer cancelRunCtx()

		mode := asinfo.ModeFull
		if cfg.Refresh.Simplified {
			mode = asinfo.ModeSimplified
		}

		store := asinfo.NewStore()
		metricsServer := metrics.NewServer(cfg.Metrics, logging.Component(baseLogger, "metrics-server"))
		metricsServer.SetReady(false)

		bgpkit := provider.NewBGPKit(cfg.Provider, logging.Component(baseLogger, "provider"))
		refresher := refresh.New(
			bgpkit,
			store,
			mode,
			cfg.RefreshInterval(),
			logging.Component(baseLogger, "refresher"),
			metricsServer.Instrumentation(),
		)

		// Serving must not start before the first snapshot is committed.
		if err := refresher.Bootstrap(runCtx); err != nil {
			logger.Error("could not load the initial dataset", zap.Error(err))
			return err
		}

		apiServer := api.NewServer(
			cfg.Server,
			api.NewHandler(store, cfg.Lookup.MaxASNs, logging.Component(baseLogger, "api"), metricsServer.Instrumentation()),
			logging.Component(baseLogger, "api-server"),
		)

		serversGroup, serversCtx := errgroup.WithContext(runCtx)

		serversGroup.Go(func() error {
			return metricsServer.Start(serversCtx)
		})

		serversGroup.Go(func() error {
			return refresher.Run(serversCtx)
		})

		serversGroup.Go(func() error {
			return apiServer.Start(serversCtx, func() { metricsServer.SetReady(true) })
		})

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigCh)

		done := make(chan struct{})
		defer close(done)

		go func() {
			select {
			case <-sigCh:
				logger.Info("shutdown signal received")
				cancelRunCtx()
				timeout := cfg.Shutdown.ShutdownTimeout()
				timer := time.NewTimer(timeout)
				defer timer.Stop()
				select {
				case <-done:
				case <-timer.C:
					logger.Error("shutdown timed out", zap.String("timeout", timeout.String()))
					os.Exit(1)
				}
			case <-done:
				return
			}
		}()

		if err := serversGroup.Wait(); err != nil && runCtx.Err() == nil {
			logger.Error("server exited with error", zap.Error(err))
			return err
		}
		return nil
	},
}
