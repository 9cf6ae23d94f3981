// Command siteadmin provisions the data the HTTP API cannot create for
// itself: site credentials, roles, and the first user accounts. It also
// prunes expired entries from the token ledger.
//
// Usage:
//
//	siteadmin <command> [flags]
//
// It reads the same GATEKEEP_* configuration as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericfisherdev/gatekeep/internal/config"
)

const usage = `usage: siteadmin <command> [flags]

commands:
  add-site      provision a site credential
  enable-site   re-enable a site
  disable-site  disable a site
  list-sites    list site ids and their state
  add-role      create a role
  list-roles    list roles
  add-user      create a user account
  prune-tokens  delete expired token ledger entries
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "siteadmin:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openAdmin(ctx, cfg, stdin, stdout)
	if err != nil {
		return err
	}
	defer a.close()

	return a.dispatch(ctx, args[0], args[1:])
}
