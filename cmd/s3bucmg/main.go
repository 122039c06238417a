// Command s3bucmg is the main entry point for the CLI binary.
// It dispatches to subcommands like server, register, grant, and users.
package main

import (
	"fmt"
	"os"

	"github.com/astaXmjy/s3BucMg/internal/cmd/grant"
	"github.com/astaXmjy/s3BucMg/internal/cmd/register"
	"github.com/astaXmjy/s3BucMg/internal/cmd/server"
	"github.com/astaXmjy/s3BucMg/internal/cmd/users"
)

// main is the process entry point and forwards to run for testable logic.
func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run parses argv and invokes the matching subcommand handler.
// It returns an error for missing or unknown subcommands.
func run(argv []string) error {
	if len(argv) < 2 {
		usage()
		return fmt.Errorf("missing subcommand")
	}

	switch argv[1] {
	case "server":
		return server.Run(argv[2:])
	case "register":
		return register.Run(argv[2:])
	case "grant":
		return grant.Run(argv[2:])
	case "users":
		return users.Run(argv[2:])
	case "-h", "--help", "help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown subcommand: %s", argv[1])
	}
}

// usage prints the canonical CLI syntax to stderr.
func usage() {
	fmt.Fprintln(os.Stderr, "s3bucmg <server|register|grant|users> [flags]")
}
