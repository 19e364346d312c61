package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/router"
	"github.com/nczempin/httpd-go-uring/server"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := cfg.NewLogger(os.Stderr)

	if cfg.Network == "unix" {
		// A stale socket from a previous run would make Listen fail
		os.Remove(cfg.Addr)
	}
	ln, err := net.Listen(cfg.Network, cfg.Addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Addr).Msg("failed to listen")
	}

	rt := router.New(files.NewHandler(cfg.Directory, logger), logger)
	srv := server.New(server.Options{Transport: cfg.Transport}, rt, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Close()
	}()

	if err := srv.Serve(ln); !errors.Is(err, server.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
