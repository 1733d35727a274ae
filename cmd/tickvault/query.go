package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	tickvault "github.com/tickvault/go-tickvault-client/client"
	"github.com/tickvault/go-tickvault-client/pkg/frame"
	"github.com/tickvault/go-tickvault-client/pkg/predicate"
)

func newQueryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Run a tabular query and render the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "system",
				Usage:    "system holding the dataset (e.g. prod)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dataset",
				Usage:    "dataset name (e.g. nyse_tick)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "source",
				Usage:    "data source; repeat or comma-separate to fan out over several",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "tickers",
				Usage:    "instruments to query (comma-separated or repeated)",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "start",
				Usage:    "start time, yyyyMMddHHmmss",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "end",
				Usage: "end time, yyyyMMddHHmmss (0 = no upper bound)",
			},
			&cli.StringSliceFlag{
				Name:  "fields",
				Usage: "restrict the returned columns",
			},
			&cli.StringFlag{
				Name:    "predicates",
				Aliases: []string{"p"},
				Usage:   "row filter, e.g. 'line_type = QA,QB and askprice >= 3'",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of rows",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format: table, csv or json",
				Value:   "table",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "write the rendered output to FILE instead of stdout",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "concurrent requests for multi-source fan-out",
				Value: 4,
			},
		},
		Action: queryAction,
	}
}

func queryAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("output")
	if !knownFormat(format) {
		return fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}

	base := tickvault.Query{
		System:  cmd.String("system"),
		Dataset: cmd.String("dataset"),
		Tickers: cmd.StringSlice("tickers"),
		Start:   cmd.Int64("start"),
		End:     cmd.Int64("end"),
		Fields:  cmd.StringSlice("fields"),
		Limit:   cmd.Int("limit"),
	}
	if raw := cmd.String("predicates"); raw != "" {
		// Parse up front so a bad expression fails before any request.
		expr, err := predicate.Parse(raw)
		if err != nil {
			return err
		}
		base.Predicates = expr
	}

	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}

	records, err := fetchRecords(ctx, client, base, cmd.StringSlice("source"), cmd.Int("workers"))
	if err != nil {
		return err
	}

	f, err := frame.FromRecords(records, frame.DefaultIndexColumn)
	if err != nil {
		return err
	}

	return writeOutput(cmd.String("out"), func(w io.Writer) error {
		return renderFrame(f, format, w)
	})
}

// fetchRecords runs the query against each source. A single source runs
// inline; several fan out through the batch pool, tagging each row with the
// source it came from. Sources that return no rows are skipped unless every
// source comes back empty.
func fetchRecords(ctx context.Context, client *tickvault.Client, base tickvault.Query, sources []string, workers int) ([]frame.Record, error) {
	service := client.Query()

	if len(sources) == 1 {
		base.Source = sources[0]
		return service.Run(ctx, base)
	}

	queries := make([]tickvault.Query, len(sources))
	for i, src := range sources {
		q := base
		q.Source = src
		queries[i] = q
	}

	results, err := service.RunBatch(ctx, queries, workers)
	if err != nil {
		return nil, err
	}

	var all []frame.Record
	for _, res := range results {
		if errors.Is(res.Err, tickvault.ErrEmptyResponse) {
			continue
		}
		if res.Err != nil {
			return nil, fmt.Errorf("source %s: %w", res.Query.Source, res.Err)
		}
		for _, rec := range res.Records {
			tagged := make(frame.Record, len(rec)+1)
			for k, v := range rec {
				tagged[k] = v
			}
			tagged["source"] = res.Query.Source
			all = append(all, tagged)
		}
	}
	if len(all) == 0 {
		return nil, tickvault.ErrEmptyResponse
	}
	return all, nil
}
