package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/logger"
	"github.com/spf13/cobra"
)

var intervalsCmd = &cobra.Command{
	Use:   "intervals",
	Short: "List sampling intervals and their lookback bounds",
	RunE:  runIntervals,
}

func init() {
	rootCmd.AddCommand(intervalsCmd)
}

func runIntervals(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	printIntervals(os.Stdout, interval.NewTable(cfg.Limits()))
	return nil
}

func printIntervals(w io.Writer, table *interval.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tALIAS\tUNIT\tMIN\tMAX\tDEFAULT\tFORECAST\t")
	fmt.Fprintln(tw, "----\t-----\t----\t---\t---\t-------\t--------\t")
	for _, p := range table.All() {
		forecast := "no"
		if p.ForecastEnabled {
			forecast = fmt.Sprintf("%d %s", p.Horizon, p.StepUnit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t\n",
			p.Code, p.Alias, p.LookbackUnit, p.MinLookback, p.MaxLookback, p.DefaultLookback, forecast)
	}
	tw.Flush()
}
