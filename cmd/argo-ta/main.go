package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-ta/internal/version"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-ta",
		Usage:   "Compute technical indicators over market data files",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "compute",
				Usage: "Run the indicator requests of a config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML config",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "latest",
						Usage: "Only output the final value of every line",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Override the output path from the config",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (debug, info, warn, error)",
						Value: "warn",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Hide the progress bar",
					},
				},
				Action: computeAction,
			},
			{
				Name:   "families",
				Usage:  "List the supported moving average families",
				Action: familiesAction,
			},
			{
				Name:   "indicators",
				Usage:  "List the indicators a request can name, with their parameters",
				Action: indicatorsAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
		},
	}
}

// Exit codes: exitInvalidInput for errors found before anything was
// computed (bad config, parameters or family codes), exitFailure otherwise.
const (
	exitFailure      = 1
	exitInvalidInput = 2
)

func exitCode(err error) int {
	if errors.IsValidation(err) {
		return exitInvalidInput
	}

	return exitFailure
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
