package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/internal/config"
	"github.com/rxtech-lab/argo-ta/internal/datasource"
	"github.com/rxtech-lab/argo-ta/internal/logger"
	"github.com/rxtech-lab/argo-ta/internal/runner"
	"github.com/rxtech-lab/argo-ta/internal/writer"
	"github.com/rxtech-lab/argo-ta/pkg/indicator"
	"github.com/rxtech-lab/argo-ta/pkg/ma"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func computeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.Bool("latest") {
		cfg.Latest = true
	}

	if output := cmd.String("output"); output != "" {
		cfg.Output = output
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// Results may go to stdout, so logs always go to stderr.
	log, err := logger.NewLoggerTo(cmd.String("log-level"), "stderr")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ds, err := datasource.NewDuckDBDataSource("", log)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := ds.Initialize(cfg.Data); err != nil {
		return err
	}

	onProgress := optional.None[runner.OnProgressCallback]()

	if !cmd.Bool("quiet") {
		bar := progressbar.NewOptions(len(cfg.Requests),
			progressbar.OptionSetDescription("Computing indicators"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(cmd.Root().ErrWriter),
			progressbar.OptionClearOnFinish(),
		)

		onProgress = optional.Some(runner.OnProgressCallback(func(done, _ int) {
			_ = bar.Set(done)
		}))
	}

	r := runner.NewRunner(indicator.NewDefaultRegistry(), log, cfg.Workers())

	report, err := r.RunConfig(ctx, cfg, ds, onProgress)
	if err != nil {
		return err
	}

	var w writer.ResultWriter

	switch cfg.OutputFormat() {
	case config.FormatParquet:
		w = writer.NewParquetWriter(cfg.Output, cfg.Precision, log)
	default:
		w = writer.NewCSVWriter(cfg.Output, cmd.Root().Writer, cfg.Precision)
	}
	defer w.Close()

	path, err := writer.WriteReport(w, report)
	if err != nil {
		return err
	}

	log.Info("Results written",
		zap.String("run_id", report.RunID),
		zap.String("path", path),
		zap.Int("rows", len(report.Times)),
		zap.Strings("columns", writer.Columns(report)),
	)

	return nil
}

func familiesAction(_ context.Context, cmd *cli.Command) error {
	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tINPUT\tPERIOD")

	for _, f := range ma.Families() {
		input := "series"
		if f.RequiresCandles() {
			input = "candles"
		}

		period := "yes"
		if f.Parameterless() {
			period = "no"
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", int(f), f, input, period)
	}

	return tw.Flush()
}

func indicatorsAction(_ context.Context, cmd *cli.Command) error {
	registry := indicator.NewDefaultRegistry()

	for _, name := range registry.ListIndicators() {
		ind, err := registry.GetIndicator(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", name, strings.Join(ind.Params(), ", "))
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := (&config.Config{}).GenerateSchemaJSON()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}
