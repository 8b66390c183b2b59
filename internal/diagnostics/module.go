package diagnostics

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/config"
	"ubmsbridge/internal/publisher"
)

// Module provides the diagnostics HTTP server and starts it only when
// cfg.DiagAddr is set.
var Module = fx.Module("diagnostics",
	fx.Invoke(RegisterLifecycle),
)

// RegisterLifecycle starts the loopback-only diagnostics server on OnStart
// when cfg.DiagAddr is non-empty, and shuts it down on OnStop. A DiagAddr
// whose host is not a loopback address is refused with an error.
func RegisterLifecycle(lc fx.Lifecycle, loop *publisher.Loop, cfg *config.Config, logger *zap.Logger) error {
	log := logger.With(zap.String("component", "diagnostics"))
	if cfg.DiagAddr == "" {
		log.Info("diagnostics server disabled")
		return nil
	}
	host, _, err := net.SplitHostPort(cfg.DiagAddr)
	if err != nil {
		return fmt.Errorf("diagnostics: invalid --diag-addr %q: %w", cfg.DiagAddr, err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("diagnostics: --diag-addr %q is not a loopback address", cfg.DiagAddr)
	}

	srv := &http.Server{
		Addr:    cfg.DiagAddr,
		Handler: New(loop, logger).Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting diagnostics server", zap.String("addr", cfg.DiagAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("diagnostics server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return nil
}
