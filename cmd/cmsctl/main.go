// Command cmsctl dispatches CMS commands against a configured store and runs
// the event infrastructure.
//
// Usage:
//
//	cmsctl exec -type language.create -json '{"siteId":"...","id":"...","name":"English","cultureName":"en-GB","url":"en"}'
//	cmsctl types
//	cmsctl serve
//	cmsctl credentials -type token -token s3cret
//
// Settings come from CMS_* environment variables, see pkg/config.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/secrets/localsecrets"

	"github.com/plaenen/cmscore/pkg/config"
)

func main() {
	cfg := config.Load()
	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "cmsctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(args) == 0 {
		usage(stderr)
		return fmt.Errorf("missing subcommand")
	}

	logger := cfg.Logger(stderr)
	switch args[0] {
	case "exec":
		return runExec(ctx, cfg, logger, args[1:], stdout)
	case "types":
		return runTypes(stdout)
	case "serve":
		return runServe(ctx, cfg, logger)
	case "credentials":
		return runCredentials(ctx, cfg, args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	}
	usage(stderr)
	return fmt.Errorf("unknown subcommand %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: cmsctl <command> [flags]

commands:
  exec          dispatch one command (-type, -json, -principal)
  types         list registered command types
  serve         run embedded NATS and the audit subscriber
  credentials   encrypt and store NATS credentials
`)
}
