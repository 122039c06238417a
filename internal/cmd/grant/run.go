// Package grant implements the "s3bucmg grant" CLI subcommand. It
// grants or revokes a folder on an account directly in the store.
package grant

import (
	"context"
	"flag"
	"fmt"

	"github.com/astaXmjy/s3BucMg/internal/cmd"
	"github.com/astaXmjy/s3BucMg/internal/logging"
	srv "github.com/astaXmjy/s3BucMg/internal/server"
)

type Options struct {
	ConfigPath string
	Username   string
	Folder     string
	Revoke     bool
}

func Run(args []string) error {
	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.ConfigPath, "config", "./s3bucmg.yaml", "path to s3bucmg.yaml")
	fs.StringVar(&opt.Username, "user", "", "username to modify")
	fs.StringVar(&opt.Folder, "folder", "", "folder prefix (may contain $username)")
	fs.BoolVar(&opt.Revoke, "revoke", false, "revoke the folder instead of granting it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opt.Username == "" || opt.Folder == "" {
		return fmt.Errorf("-user and -folder are required")
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
	var verb string
	if opt.Revoke {
		verb = "revoked"
		if _, err := svc.RevokeFolder(ctx, actor, opt.Username, opt.Folder); err != nil {
			return err
		}
	} else {
		verb = "granted"
		if _, err := svc.GrantFolder(ctx, actor, opt.Username, opt.Folder); err != nil {
			return err
		}
	}
	fmt.Printf("%s %s on %s\n", verb, opt.Folder, opt.Username)
	return nil
}
