package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/newthinker/finadict/internal/accuracy"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/display"
	"github.com/newthinker/finadict/internal/export"
	"github.com/newthinker/finadict/internal/instrument"
	"github.com/newthinker/finadict/internal/logger"
	"github.com/newthinker/finadict/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	// recentRows is how many scored points the table view prints
	recentRows = 10
)

var (
	predictMarket    string
	predictSymbol    string
	predictFrom      string
	predictTo        string
	predictInterval  string
	predictLookback  int
	predictExport    bool
	predictExportRaw bool
	predictFormat    string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast the next closing price of an instrument",
	Long: `Fetch the price history of an equity, forex pair or crypto pair, fit a
forecasting model and report the next closing price together with how
accurately the model tracked the history.`,
	Example: `  finadict predict --market equity --symbol TCS.NS --interval 1d --lookback 4
  finadict predict --market forex --from EUR --to USD --interval 60m
  finadict predict --market crypto --symbol ETH-USD --export`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictMarket, "market", "equity", "market kind: equity, forex or crypto")
	predictCmd.Flags().StringVar(&predictSymbol, "symbol", "", "equity ticker or crypto pair (BASE-QUOTE)")
	predictCmd.Flags().StringVar(&predictFrom, "from", "", "forex base currency")
	predictCmd.Flags().StringVar(&predictTo, "to", "", "forex quote currency")
	predictCmd.Flags().StringVar(&predictInterval, "interval", "1d", "sampling interval (5m, 15m, 30m, 60m, 1d, 1wk, 1mo)")
	predictCmd.Flags().IntVar(&predictLookback, "lookback", 0, "lookback length in the interval's unit (0 = default)")
	predictCmd.Flags().BoolVar(&predictExport, "export", false, "write the prediction CSV to the export store")
	predictCmd.Flags().BoolVar(&predictExportRaw, "export-raw", false, "write the raw bars CSV to the export store")
	predictCmd.Flags().StringVar(&predictFormat, "format", formatTable, "output format: table or json")

	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	if predictFormat != formatTable && predictFormat != formatJSON {
		return fmt.Errorf("unknown format %q (expected table or json)", predictFormat)
	}

	kind, err := core.ParseMarketKind(predictMarket)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := buildRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	out, err := rt.pipeline.Run(ctx, pipeline.Request{
		Instrument: instrument.Request{
			Kind:   kind,
			Symbol: predictSymbol,
			From:   predictFrom,
			To:     predictTo,
		},
		Interval: predictInterval,
		Lookback: predictLookback,
	})
	if err != nil {
		log.Debug("prediction failed", zap.Error(err))
		return fmt.Errorf("%s: %w", core.UserMessage(err), err)
	}

	if predictFormat == formatJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding outcome: %w", err)
		}
	} else {
		printOutcome(os.Stdout, out)
	}

	if !predictExport && !predictExportRaw {
		return nil
	}

	store, err := buildArchive(cfg.Export)
	if err != nil {
		return fmt.Errorf("opening export store: %w", err)
	}

	now := time.Now()
	if predictExport {
		if out.ViewOnly() {
			log.Warn("interval has no forecast, skipping prediction export", zap.String("interval", string(out.Policy.Code)))
		} else {
			data, err := export.Predictions(out.Report)
			if err != nil {
				return fmt.Errorf("rendering predictions: %w", err)
			}
			if err := writeExport(ctx, store, export.FileName(out.Instrument.Symbol, export.KindPrediction, now), data, log); err != nil {
				return err
			}
		}
	}
	if predictExportRaw {
		data, err := export.Series(out.Series)
		if err != nil {
			return fmt.Errorf("rendering series: %w", err)
		}
		if err := writeExport(ctx, store, export.FileName(out.Instrument.Symbol, export.KindRaw, now), data, log); err != nil {
			return err
		}
	}
	return nil
}

type putter interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

func writeExport(ctx context.Context, store putter, name string, data []byte, log *zap.Logger) error {
	location, err := store.Put(ctx, name, export.ContentType, data)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	log.Info("export written", zap.String("location", location), zap.Int("bytes", len(data)))
	fmt.Fprintf(os.Stderr, "Exported %s\n", location)
	return nil
}

// printOutcome renders the indicators and the most recent scored points
func printOutcome(w io.Writer, out *pipeline.Outcome) {
	inst := out.Instrument
	fmt.Fprintf(w, "=== %s ===\n", inst.Symbol)
	if inst.Name != "" {
		fmt.Fprintf(w, "Name:     %s\n", inst.Name)
	}
	fmt.Fprintf(w, "Market:   %s (%s)\n", inst.Kind, inst.Currency)
	fmt.Fprintf(w, "Interval: %s, lookback %d %s\n", out.Policy.Alias, out.Lookback, out.Policy.LookbackUnit)
	fmt.Fprintf(w, "Rows:     %d\n", out.Series.Len())
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	printIndicator(tw, out.Latest)
	if out.Predicted != nil {
		printIndicator(tw, *out.Predicted)
	}
	tw.Flush()

	if out.ViewOnly() {
		fmt.Fprintf(w, "\nForecasting is not available for the %s interval.\n", out.Policy.Alias)
		return
	}

	r := out.Report
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Mean accuracy: %s\n", display.FormatPercent(r.MeanAccuracy))
	fmt.Fprintf(w, "RMSPE:         %s\n", display.FormatPercent(r.RMSPE))
	if r.Degraded {
		fmt.Fprintln(w, "Warning: some points could not be scored (zero actual price)")
	}
	fmt.Fprintln(w)

	printPoints(w, r.Points, inst.Currency)
}

func printIndicator(w io.Writer, ind display.Indicator) {
	fmt.Fprintf(w, "%s\t%s\t%s\t\n", ind.Label, ind.Value, ind.Delta)
}

func printPoints(w io.Writer, points []accuracy.PointScore, currency string) {
	if len(points) > recentRows {
		points = points[len(points)-recentRows:]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tACTUAL\tPREDICTED\tACCURACY\tLOWER\tUPPER\t")
	fmt.Fprintln(tw, "----\t------\t---------\t--------\t-----\t-----\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Timestamp,
			display.FormatPrice(p.Actual, currency),
			display.FormatPrice(p.Predicted, currency),
			display.FormatPercent(p.Accuracy),
			display.FormatPrice(p.Lower, currency),
			display.FormatPrice(p.Upper, currency),
		)
	}
	tw.Flush()
}
