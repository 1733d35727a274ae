package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tickvault/go-tickvault-client/pkg/predicate"
)

func newPredicatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "predicates",
		Usage: "Work with predicate expressions",
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Parse an expression and show its terms and wire parameters",
				ArgsUsage: "<expression>",
				Action:    parsePredicateAction,
			},
		},
	}
}

func parsePredicateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("expected 1 argument: the predicate expression")
	}
	input := strings.Join(cmd.Args().Slice(), " ")

	expr, err := predicate.Parse(input)
	if err != nil {
		return err
	}
	return printExpression(os.Stdout, expr)
}
