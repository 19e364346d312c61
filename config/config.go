// Package config turns command line flags into server settings.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

// Config holds everything the server binary is started with
type Config struct {
	Directory string
	Addr      string
	Network   string
	Transport transport.Kind
	LogLevel  zerolog.Level
	LogFormat string
}

// Parse reads flags from args, which excludes the program name
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("httpd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	directory := fs.String("directory", ".", "directory served under /files/")
	addr := fs.String("addr", "127.0.0.1:4221", "listen address, or socket path when --network=unix")
	network := fs.String("network", "tcp", "listener network: tcp or unix")
	kind := fs.String("transport", string(transport.KindNet), "connection I/O: net, uring or uring-v2")
	level := fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	format := fs.String("log-format", "console", "log format: console or json")

	if err := fs.Parse(args); err != nil {
		return nil, httperrors.NewInvalidArgumentError(err.Error())
	}
	if fs.NArg() > 0 {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " ")))
	}

	cfg := &Config{
		Directory: *directory,
		Addr:      *addr,
		Network:   *network,
		LogFormat: *format,
	}

	info, err := os.Stat(cfg.Directory)
	if err != nil || !info.IsDir() {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("--directory %q is not a directory", cfg.Directory))
	}

	if cfg.Network != "tcp" && cfg.Network != "unix" {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("unknown network %q", cfg.Network))
	}

	if cfg.Transport, err = transport.ParseKind(*kind); err != nil {
		return nil, err
	}
	if cfg.Network == "unix" && cfg.Transport != transport.KindNet {
		return nil, httperrors.NewInvalidArgumentError("io_uring transports require --network=tcp")
	}

	if cfg.LogLevel, err = zerolog.ParseLevel(*level); err != nil {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("invalid log level %q", *level))
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("unknown log format %q", cfg.LogFormat))
	}

	return cfg, nil
}

// NewLogger builds the root logger writing to w
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(c.LogLevel).With().Timestamp().Logger()
}
