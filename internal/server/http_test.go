package server

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"cardlink-engine/pkg/config"
)

func TestRunLifecycle(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Addr = "127.0.0.1:0"

	srv := New(cfg, http.NewServeMux())
	lc := fxtest.NewLifecycle(t)
	Run(lc, zap.NewNop(), cfg, srv)

	lc.RequireStart()
	lc.RequireStop()
}

func TestRunFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := &config.Config{}
	cfg.Server.Addr = ln.Addr().String()

	srv := New(cfg, http.NewServeMux())
	lc := fxtest.NewLifecycle(t)
	Run(lc, zap.NewNop(), cfg, srv)

	require.Error(t, lc.Start(context.Background()))
}
