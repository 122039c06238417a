// Package register implements the "s3bucmg register" CLI subcommand.
// It creates an account directly against the configured store, so the
// server does not need to be running.
package register

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/cmd"
	"github.com/astaXmjy/s3BucMg/internal/logging"
	srv "github.com/astaXmjy/s3BucMg/internal/server"
)

type Options struct {
	ConfigPath  string
	Username    string
	Level       string
	Password    string
	PasswordEnv bool
}

func Run(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.ConfigPath, "config", "./s3bucmg.yaml", "path to s3bucmg.yaml")
	fs.StringVar(&opt.Username, "user", "", "username to create")
	fs.StringVar(&opt.Level, "level", "pull", "access level: pull|push|both|full")
	fs.StringVar(&opt.Password, "password", "", "set password non-interactively")
	fs.BoolVar(&opt.PasswordEnv, "password-env", false, "read password from S3BUCMG_PASSWORD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opt.Username == "" {
		return fmt.Errorf("-user is required")
	}

	level, err := access.ParseLevel(opt.Level)
	if err != nil {
		return err
	}

	password := opt.Password
	if opt.PasswordEnv {
		password = strings.TrimSpace(os.Getenv("S3BUCMG_PASSWORD"))
	}
	if password == "" {
		password, err = cmd.PromptPassword("Password for " + opt.Username)
		if err != nil {
			return err
		}
	}

	cfg, err := cmd.LoadConfig(opt.ConfigPath)
	if err != nil {
		return err
	}
	lg, err := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Default: true})
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, st, err := srv.OpenService(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := svc.Register(ctx, opt.Username, password, level)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s)\n", rec.Username, rec.Level)
	for _, f := range rec.Folders {
		fmt.Printf("  folder %s\n", f)
	}
	return nil
}
