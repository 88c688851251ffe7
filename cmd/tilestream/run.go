package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sarchlab/tilestream/datarecording"
	"github.com/sarchlab/tilestream/driver"
	"github.com/sarchlab/tilestream/kernel"
	"github.com/sarchlab/tilestream/monitoring"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/sim"
	"github.com/sarchlab/tilestream/tile"
	"github.com/sarchlab/tilestream/tracing"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy tiles from one DRAM buffer to another through a tile.",
	Long: "Fills a DRAM buffer with random tiles, streams them through the " +
		"reader, compute and writer roles of one tile, and checks the " +
		"destination buffer.",
	Args: cobra.NoArgs,
	RunE: runDataCopy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.Uint32("tiles", 2048, "Number of tiles to copy.")
	f.String("format", "Float32", "Tile format: Float32, Bfloat16 or Bfp8_b.")
	f.Uint32("page-size", 0, "Page size in bytes. Defaults to the tile size.")
	f.Uint32("in-pages", 1, "Capacity of the input channel in pages.")
	f.Uint32("out-pages", 1, "Capacity of the output channel in pages.")
	f.String("transform", "identity",
		"Compute transform: identity, relu or negate.")
	f.Int("cycles-per-tile", 0, "Compute latency per tile.")
	f.String("grid", "1x1", "Tile grid, columns x rows.")
	f.String("core", "0,0", "Coordinate of the tile that runs the copy.")
	f.Int("dram-banks", 8, "Number of DRAM banks.")
	f.Int("dram-latency", 100, "DRAM access latency in cycles.")
	f.Int("hop-latency", 1, "Interconnect latency per hop in cycles.")
	f.Int64("seed", 1, "Seed of the source data.")
	f.Duration("timeout", time.Minute, "Wall-clock limit of the run.")
	f.String("trace-db", "", "Record traces into this SQLite file.")
	f.Bool("monitor", false, "Serve the monitoring page while running.")
	f.Int("monitor-port", 0, "Port of the monitoring page.")
	f.Bool("open-browser", false, "Open the monitoring page in a browser.")
}

func parsePair(s, sep string) (int, int, error) {
	a, b, found := strings.Cut(s, sep)
	if !found {
		return 0, 0, fmt.Errorf("%q is not of the form a%sb", s, sep)
	}

	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}

	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}

	return x, y, nil
}

func parseTransform(name string) (kernel.Transform, error) {
	switch name {
	case "identity":
		return kernel.Identity{}, nil
	case "relu":
		return kernel.Unary{Op: kernel.ReLU}, nil
	case "negate":
		return kernel.Unary{Op: kernel.Negate}, nil
	default:
		return nil, fmt.Errorf("unknown transform %q", name)
	}
}

type runConfig struct {
	copy      driver.DataCopy
	format    tile.Format
	gridW     int
	gridH     int
	banks     int
	dramLat   int
	hopLat    int
	seed      int64
	timeout   time.Duration
	traceDB   string
	monitor   bool
	port      int
	openPage  bool
	transform string
}

func readRunConfig(cmd *cobra.Command) (runConfig, error) {
	f := cmd.Flags()
	c := runConfig{}

	formatName, _ := f.GetString("format")

	format, err := tile.ParseFormat(formatName)
	if err != nil {
		return c, err
	}

	c.format = format

	c.copy.NumTiles, _ = f.GetUint32("tiles")
	c.copy.PageSize, _ = f.GetUint32("page-size")
	c.copy.InPages, _ = f.GetUint32("in-pages")
	c.copy.OutPages, _ = f.GetUint32("out-pages")
	c.copy.CyclesPerTile, _ = f.GetInt("cycles-per-tile")

	if c.copy.PageSize == 0 {
		c.copy.PageSize = format.TileSize()
	}

	c.transform, _ = f.GetString("transform")

	c.copy.Transform, err = parseTransform(c.transform)
	if err != nil {
		return c, err
	}

	if c.transform != "identity" && format != tile.Bfloat16 {
		return c, fmt.Errorf("transform %s needs Bfloat16 tiles", c.transform)
	}

	grid, _ := f.GetString("grid")
	if c.gridW, c.gridH, err = parsePair(grid, "x"); err != nil {
		return c, fmt.Errorf("--grid: %w", err)
	}

	core, _ := f.GetString("core")

	x, y, err := parsePair(core, ",")
	if err != nil {
		return c, fmt.Errorf("--core: %w", err)
	}

	c.copy.Core = noc.Coord{X: x, Y: y}

	c.banks, _ = f.GetInt("dram-banks")
	c.dramLat, _ = f.GetInt("dram-latency")
	c.hopLat, _ = f.GetInt("hop-latency")
	c.seed, _ = f.GetInt64("seed")
	c.timeout, _ = f.GetDuration("timeout")
	c.traceDB, _ = f.GetString("trace-db")
	c.monitor, _ = f.GetBool("monitor")
	c.port, _ = f.GetInt("monitor-port")
	c.openPage, _ = f.GetBool("open-browser")

	return c, nil
}

func sourceData(c runConfig) []byte {
	if c.copy.PageSize == c.format.TileSize() {
		return tile.Random(c.format, c.seed, int(c.copy.NumTiles))
	}

	return tile.RandomBytes(c.seed, int(c.copy.NumTiles)*int(c.copy.PageSize))
}

func runDataCopy(cmd *cobra.Command, _ []string) error {
	c, err := readRunConfig(cmd)
	if err != nil {
		return err
	}

	engine := sim.NewSerialEngine()
	isBlock := func(t tracing.Task) bool { return t.Kind == tracing.KindBlock }
	isTransfer := func(t tracing.Task) bool { return t.Kind == tracing.KindReqOut }
	blockTime := tracing.NewTotalTimeTracer(engine, isBlock)
	phases := tracing.NewStepCountTracer(isBlock)
	niuBusy := tracing.NewBusyTimeTracer(engine, isTransfer)

	builder := driver.MakeDeviceBuilder().
		WithEngine(engine).
		WithGrid(c.gridW, c.gridH).
		WithDRAMBanks(c.banks).
		WithDRAMLatency(c.dramLat).
		WithHopLatency(c.hopLat).
		WithTracer(blockTime).
		WithTracer(phases).
		WithTracer(niuBusy)

	var trace *traceRecording

	if c.traceDB != "" {
		trace, err = startTraceRecording(c.traceDB, engine)
		if err != nil {
			return err
		}

		builder = builder.WithTracer(trace.tracer)
	}

	var monitor *monitoring.Monitor
	if c.monitor {
		monitor = monitoring.NewMonitor().
			WithPortNumber(c.port).
			WithBrowser(c.openPage)
		builder = builder.WithMonitor(monitor)
	}

	d := builder.Build("Device")

	if monitor != nil {
		monitor.StartServer()
	}

	dc, err := d.BuildDataCopy(c.copy)
	if err != nil {
		return err
	}

	src := sourceData(c)
	if err := d.WriteBuffer(dc.Src, src); err != nil {
		return err
	}

	if err := d.Launch(dc.Program); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	start := time.Now()
	res, runErr := d.Finish(ctx)
	elapsed := time.Since(start)

	printResult(cmd, res, elapsed)

	if trace != nil {
		trace.finish(res, runErr)
	}

	if runErr != nil {
		if errors.Is(runErr, driver.ErrTimeout) {
			slog.Error("the device did not finish; "+
				"check the channel capacities and tile counts",
				"timeout", c.timeout)
		}

		return runErr
	}

	dst, err := d.ReadBuffer(dc.Dst)
	if err != nil {
		return err
	}

	if err := verify(c, src, dst); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "verified %d bytes\n", len(dst))
	fmt.Fprintf(out, "blocks: %d, average %.0f ns\n",
		blockTime.TaskCount(), float64(blockTime.AverageTime())*1e9)
	fmt.Fprintf(out, "NIU busy: %.0f ns\n", float64(niuBusy.BusyTime())*1e9)

	for _, name := range phases.StepNames() {
		fmt.Fprintf(out, "  %-8s %d\n", name, phases.StepCount(name))
	}

	return nil
}

// traceRecording stores the traces and the execution info of a run in a
// SQLite file.
type traceRecording struct {
	recorder datarecording.DataRecorder
	exec     *datarecording.ExecRecorder
	tracer   *tracing.DBTracer
}

func startTraceRecording(path string, engine sim.Engine) (*traceRecording, error) {
	recorder, err := datarecording.New(path)
	if err != nil {
		return nil, err
	}

	r := &traceRecording{
		recorder: recorder,
		exec:     datarecording.NewExecRecorder(recorder),
		tracer:   tracing.NewDBTracer(engine, recorder),
	}
	r.exec.Start()
	engine.OnDrain(r)

	return r, nil
}

// Drained flushes the traces of a run that drained on its own.
func (r *traceRecording) Drained(now sim.VTimeInSec) {
	r.exec.Set("Drained At", fmt.Sprintf("%.9f", float64(now)))
	r.recorder.Flush()
}

// finish writes the tasks still running, which are the blocked ones after a
// timeout, and closes the file.
func (r *traceRecording) finish(res driver.Result, runErr error) {
	r.tracer.Terminate()

	r.exec.Set("Simulated Time", fmt.Sprintf("%.9f", float64(res.Time)))
	r.exec.Set("Result", resultString(runErr))
	r.exec.End()

	if err := r.recorder.Close(); err != nil {
		slog.Error("closing the trace database", "error", err)
	}
}

func resultString(err error) string {
	if err == nil {
		return "ok"
	}

	return err.Error()
}

func printResult(cmd *cobra.Command, res driver.Result, elapsed time.Duration) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "simulated %.0f ns in %s\n",
		float64(res.Time)*1e9, elapsed.Round(time.Millisecond))

	for _, r := range res.Roles {
		fmt.Fprintf(out, "%s %-8s %-14s %-8s %d/%d blocks\n",
			r.Tile, r.Role, r.Kernel, r.Status, r.Blocks, r.NumBlocks)
	}
}

func verify(c runConfig, src, dst []byte) error {
	if c.transform == "identity" {
		if !bytes.Equal(src, dst) {
			return errors.New("destination differs from source")
		}

		return nil
	}

	t, _ := parseTransform(c.transform)
	want := make([]byte, len(src))
	t.Apply(want, [][]byte{src})

	if !bytes.Equal(want, dst) {
		return fmt.Errorf("destination differs from %s(source)", c.transform)
	}

	return nil
}
