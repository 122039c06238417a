// Package users implements the "s3bucmg users" CLI subcommand: list
// accounts, inspect one, or change its level and status.
package users

import (
	"context"
	"flag"
	"fmt"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/cmd"
	"github.com/astaXmjy/s3BucMg/internal/logging"
	srv "github.com/astaXmjy/s3BucMg/internal/server"
)

type Options struct {
	ConfigPath string
	Username   string
	SetLevel   string
	Disable    bool
	Enable     bool
	Delete     bool
}

func Run(args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.ConfigPath, "config", "./s3bucmg.yaml", "path to s3bucmg.yaml")
	fs.StringVar(&opt.Username, "user", "", "act on a single account (default: list all)")
	fs.StringVar(&opt.SetLevel, "set-level", "", "change the account's level: pull|push|both|full")
	fs.BoolVar(&opt.Disable, "disable", false, "disable the account")
	fs.BoolVar(&opt.Enable, "enable", false, "re-enable the account")
	fs.BoolVar(&opt.Delete, "delete", false, "delete the account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opt.Username == "" && (opt.SetLevel != "" || opt.Disable || opt.Enable || opt.Delete) {
		return fmt.Errorf("-user is required with -set-level, -disable, -enable, or -delete")
	}
	if opt.Disable && opt.Enable {
		return fmt.Errorf("-disable and -enable are mutually exclusive")
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

	const actor = "cli"
	switch {
	case opt.Username == "":
		recs, err := svc.List(ctx)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			status := "enabled"
			if rec.Disabled {
				status = "disabled"
			}
			fmt.Printf("%s\t%s\t%s\t%d folders\n", rec.Username, rec.Level, status, len(rec.Folders))
		}
		return nil
	case opt.Delete:
		return svc.Delete(ctx, actor, opt.Username)
	case opt.SetLevel != "":
		level, err := access.ParseLevel(opt.SetLevel)
		if err != nil {
			return err
		}
		rec, err := svc.SetLevel(ctx, actor, opt.Username, level)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", rec.Username, rec.Level)
		return nil
	case opt.Disable || opt.Enable:
		rec, err := svc.SetDisabled(ctx, actor, opt.Username, opt.Disable)
		if err != nil {
			return err
		}
		status := "enabled"
		if rec.Disabled {
			status = "disabled"
		}
		fmt.Printf("%s is now %s\n", rec.Username, status)
		return nil
	}

	rec, err := svc.Get(ctx, opt.Username)
	if err != nil {
		return err
	}
	status := "enabled"
	if rec.Disabled {
		status = "disabled"
	}
	fmt.Printf("username: %s\nlevel: %s\nstatus: %s\n", rec.Username, rec.Level, status)
	fmt.Println("granted folders:")
	for _, f := range rec.Folders {
		fmt.Printf("  %s\n", f)
	}
	eff, err := access.EffectiveFolders(rec)
	if err != nil {
		return err
	}
	fmt.Println("effective folders:")
	for _, f := range eff {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
