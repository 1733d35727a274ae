package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

var (
	urlFlag = &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "TickVault service base URL",
	}
	usernameFlag = &cli.StringFlag{
		Name:  "username",
		Usage: "SSO username for the client-credentials flow",
	}
	apiKeyFlag = &cli.StringFlag{
		Name:  "api-key",
		Usage: "SSO secret for the client-credentials flow",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "HTTP client timeout (e.g. 30s, 1m; default 30s)",
	}
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "profile file (default ~/.config/tickvault/config.yaml)",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log request lifecycle to stderr",
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "tickvault",
		Usage: "Query TickVault tick history",
		Flags: []cli.Flag{urlFlag, usernameFlag, apiKeyFlag, timeoutFlag, configFlag, verboseFlag},
		Commands: []*cli.Command{
			newQueryCommand(),
			newTokenCommand(),
			newPredicatesCommand(),
			newTUICommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
