package main

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/tilestream/memmap"
	"github.com/spf13/cobra"
)

var memmapCmd = &cobra.Command{
	Use:   "memmap",
	Short: "Plan the L1 memory map of a worker tile.",
	Long: "Plans the L1 layout of a worker tile and prints it, or writes it " +
		"as Go constants with --go-out. Planning fails when the layout does " +
		"not fit in L1.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		layout, err := memmap.WorkerLayout()
		if err != nil {
			return err
		}

		goOut, _ := cmd.Flags().GetString("go-out")
		if goOut == "" {
			return printLayout(cmd, layout)
		}

		pkg, _ := cmd.Flags().GetString("package")

		buf := bytes.NewBuffer(nil)
		if err := memmap.GenerateGo(buf, pkg, layout); err != nil {
			return err
		}

		return os.WriteFile(goOut, buf.Bytes(), 0o644)
	},
}

func init() {
	rootCmd.AddCommand(memmapCmd)
	memmapCmd.Flags().String("go-out", "",
		"Write the layout as Go constants into this file.")
	memmapCmd.Flags().String("package", "memmap",
		"Package of the generated file.")
}

func printLayout(cmd *cobra.Command, layout memmap.Layout) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, "region\tbase\tsize\tend\t")

	for _, r := range layout.Regions() {
		fmt.Fprintf(w, "%s\t0x%06x\t%d\t0x%06x\t\n", r.Name, r.Base, r.Size, r.End())
	}

	fmt.Fprintf(w, "unreserved\t0x%06x\t%d\t0x%06x\t\n",
		memmap.UnreservedBase(layout),
		layout.Capacity-memmap.UnreservedBase(layout),
		layout.Capacity)

	return w.Flush()
}
