// Command bridged runs the host-side bridge daemon: an in-memory session,
// its command handlers, the host loop, and the bridge server on both
// channels. It stands in for the host application during development, so
// the control process has a real peer to talk to.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daw-bridge/config"
	"daw-bridge/dispatch"
	"daw-bridge/hostloop"
	"daw-bridge/middleware"
	"daw-bridge/server"
	"daw-bridge/session"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("bad configuration", "error", err)
		os.Exit(1)
	}

	sess := session.New()
	table := dispatch.NewTable()
	sess.RegisterHandlers(table)

	loop := hostloop.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	svr := server.NewServer(table, loop)
	svr.Logger = logger
	svr.Use(middleware.Recovery(logger))
	svr.Use(middleware.Logging(logger))
	svr.Use(middleware.RateLimit(100, 20))
	svr.HandleRealtime(sess.ApplyParam)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		if err := svr.Shutdown(5 * time.Second); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
		cancel()
	}()

	if err := svr.Serve(cfg.TCPAddr(), cfg.UDPAddr()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
