// Package server implements the "s3bucmg server" CLI subcommand.
package server

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/astaXmjy/s3BucMg/internal/cmd"
	"github.com/astaXmjy/s3BucMg/internal/logging"
	srv "github.com/astaXmjy/s3BucMg/internal/server"
	"github.com/astaXmjy/s3BucMg/internal/version"
)

type Options struct {
	ConfigPath string
	LogLevel   string
}

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var opt Options
	var showVersion bool
	fs.StringVar(&opt.ConfigPath, "config", "./s3bucmg.yaml", "path to s3bucmg.yaml")
	fs.StringVar(&opt.LogLevel, "log-level", "", "override config log level: debug|info|warning|error")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("s3bucmg server %s\n", version.Version)
		return nil
	}

	cfg, err := cmd.LoadConfig(opt.ConfigPath)
	if err != nil {
		return err
	}
	// CLI overrides config.
	if strings.TrimSpace(opt.LogLevel) != "" {
		cfg.Log.Level = strings.TrimSpace(opt.LogLevel)
	}

	lg, err := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Default: true})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, srv.Options{Config: cfg, Logger: lg})
}
