package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newTokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Print an access token for the configured credentials",
		Action: tokenAction,
	}
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}

	token, err := client.Token(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, token)
	return nil
}
