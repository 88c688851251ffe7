package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/tilestream/datarecording"
	"github.com/sarchlab/tilestream/tracing"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Summarize a trace recorded with run --trace-db.",
	Long: "Reads a trace database and prints the tasks per kind, the most " +
		"common reasons tasks waited, and the tasks that never finished.",
	Args: cobra.ExactArgs(1),
	RunE: summarizeTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().String("location", "",
		"Only count tasks whose location starts with this prefix.")
	traceCmd.Flags().Int("stalled", 10,
		"Number of unfinished tasks to list.")
}

func summarizeTrace(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return err
	}

	reader, err := datarecording.NewReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	location, _ := cmd.Flags().GetString("location")
	maxStalled, _ := cmd.Flags().GetInt("stalled")

	s, err := tracing.SummarizeTrace(cmd.Context(), reader, location)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "kind\ttasks\tunfinished\taverage (ns)\t")

	for _, k := range s.Kinds {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t\n",
			k.Kind, k.Count, k.Unfinished, float64(k.AverageTime())*1e9)
	}

	fmt.Fprintln(w, "\ncategory\treason\twaits\t")

	for _, b := range s.Blocking {
		fmt.Fprintf(w, "%s\t%s\t%d\t\n", b.Category, b.Reason, b.Count)
	}

	if len(s.Stalled) > 0 {
		fmt.Fprintln(w, "\nstalled\tkind\tlocation\tsince (ns)\t")
	}

	for i, t := range s.Stalled {
		if i == maxStalled {
			break
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t\n",
			t.What, t.Kind, t.Location, float64(t.StartTime)*1e9)
	}

	return w.Flush()
}
