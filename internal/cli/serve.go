package cli

import (
	"context"
	"os/signal"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"github.com/ppiankov/kubepulse/internal/logging"
	"github.com/ppiankov/kubepulse/internal/monitor"
	"github.com/ppiankov/kubepulse/internal/netpol"
	"github.com/ppiankov/kubepulse/internal/ratelimit"
	"github.com/ppiankov/kubepulse/internal/server"
	"github.com/ppiankov/kubepulse/internal/status"
	"github.com/ppiankov/kubepulse/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(viper.GetViper())
	if err != nil {
		return util.WithExitCode(util.ExitInvalidInput, err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return util.WithExitCode(util.ExitInvalidInput, err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting kubepulse",
		zap.String("version", version),
		zap.String("address", cfg.Address),
		zap.Duration("interval", cfg.Interval),
	)

	client, err := util.BuildKubeClient(cfg.Kubeconfig)
	if err != nil {
		log.Error("failed to build Kubernetes client", zap.Error(err))
		return util.WithExitCode(util.ExitRuntimeError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), util.ShutdownSignals()...)
	defer stop()

	return serve(ctx, client, cfg, log)
}

// serve runs the HTTP server and the control plane poller until ctx is
// cancelled or either of them fails.
func serve(ctx context.Context, client cluster.Client, cfg ServeConfig, log *zap.Logger) error {
	poller := monitor.NewPoller(client, cfg.Monitor(), log.Named("monitor"))

	deps := server.Deps{
		Cluster:      client,
		Reports:      status.NewAggregator(client, log.Named("status")),
		Policies:     netpol.NewCreator(client, log.Named("netpol")),
		Logger:       log.Named("http"),
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled() {
		limiter = ratelimit.New(cfg.RateLimit)
		deps.Limiter = limiter
		log.Info("network policy rate limit enabled",
			zap.Int("max_global", cfg.RateLimit.MaxGlobal),
			zap.Int("max_per_namespace", cfg.RateLimit.MaxPerNamespace),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}
	handler := server.NewRouter(deps)
	srv := server.New(cfg.Address, handler, log.Named("http"), cfg.ShutdownTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("kubepulse stopped with error", zap.Error(err))
		return err
	}

	snap := poller.GetState()
	fields := []zap.Field{
		zap.Int("checks", snap.CheckCount),
		zap.Int("failed_checks", snap.FailedCount),
	}
	if limiter != nil {
		fields = append(fields, zap.Int("rate_limited_writes", limiter.Denied()))
	}
	log.Info("kubepulse stopped", fields...)
	return nil
}
