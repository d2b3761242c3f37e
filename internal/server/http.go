package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cardlink-engine/pkg/config"
)

// Module provides the HTTP server and binds it to the application lifecycle.
var Module = fx.Module("http.server",
	fx.Provide(New),
	fx.Invoke(Run),
)

func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

// Run binds the listener during OnStart so port conflicts and bad TLS paths
// fail startup instead of surfacing later from a goroutine.
func Run(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config, srv *http.Server) {
	serve := func(ln net.Listener) error {
		if cfg.TLS.Enable {
			return srv.ServeTLS(ln, cfg.TLS.CertPath, cfg.TLS.KeyPath)
		}
		return srv.Serve(ln)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("http server listening",
				zap.String("addr", srv.Addr),
				zap.Bool("tls", cfg.TLS.Enable),
			)
			go func() {
				if err := serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server terminated", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("http server draining", zap.String("addr", srv.Addr))
			return srv.Shutdown(ctx)
		},
	})
}
