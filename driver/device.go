package driver

import (
	"fmt"
	"log"
	"time"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/kernel"
	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/mem/idealmemcontroller"
	"github.com/sarchlab/tilestream/memmap"
	"github.com/sarchlab/tilestream/monitoring"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/sim"
	"github.com/sarchlab/tilestream/tracing"
)

// A Tile is one worker tile of the device.
type Tile struct {
	name      string
	Coord     noc.Coord
	L1        *mem.Storage
	L1Ctrl    *idealmemcontroller.Comp
	Registers *circularbuffer.Registers
	Cores     [kernel.NumRoles]*kernel.Core
}

// Name returns the name of the tile.
func (t *Tile) Name() string {
	return t.name
}

// Core returns the core that runs a role.
func (t *Tile) Core(r kernel.Role) *kernel.Core {
	return t.Cores[r]
}

// Status reads the completion word of a role from the mailbox.
func (t *Tile) Status(r kernel.Role) kernel.Status {
	word, err := t.L1.ReadUint32(r.CompletionAddr())
	if err != nil {
		log.Panic(err)
	}

	return kernel.Status(word)
}

// Channels describes every configured channel of the tile.
func (t *Tile) Channels() []circularbuffer.Snapshot {
	var snapshots []circularbuffer.Snapshot

	for id := uint32(0); id < circularbuffer.MaxChannels; id++ {
		buf, err := t.L1.Read(kernel.ChannelConfigAddr(id),
			circularbuffer.ConfigEntryBytes)
		if err != nil {
			log.Panic(err)
		}

		if !circularbuffer.IsConfigured(buf) {
			continue
		}

		cfg, err := circularbuffer.DecodeConfig(id, buf)
		if err != nil {
			continue
		}

		snapshots = append(snapshots, circularbuffer.Observe(cfg, t.Registers))
	}

	return snapshots
}

// Roles reports the state of each core of the tile.
func (t *Tile) Roles() []monitoring.RoleReport {
	reports := make([]monitoring.RoleReport, 0, kernel.NumRoles)

	for r, c := range t.Cores {
		role := kernel.Role(r)
		done, total := c.Progress()
		report := monitoring.RoleReport{
			Core:      c.Name(),
			Role:      role.String(),
			State:     c.State().String(),
			Status:    t.Status(role).String(),
			Blocks:    done,
			NumBlocks: total,
		}

		if k := c.Kernel(); k != nil {
			report.Kernel = k.Name()
		}

		reports = append(reports, report)
	}

	return reports
}

// A DRAMBank is one bank of off-chip memory.
type DRAMBank struct {
	Coord   noc.Coord
	Storage *mem.Storage
	Ctrl    *idealmemcontroller.Comp
}

// Device is a grid of worker tiles and a set of interleaved DRAM banks,
// connected by the interconnect fabric.
type Device struct {
	engine       *sim.SerialEngine
	fabric       *noc.Fabric
	router       *noc.MapRouter
	tiles        []*Tile
	tileAt       map[noc.Coord]*Tile
	banks        []*DRAMBank
	bankCoords   []noc.Coord
	bankCapacity uint64
	dramNext     uint64
	monitor      *monitoring.Monitor
	pollInterval time.Duration

	launched *Program
}

// Engine returns the engine that drives the device.
func (d *Device) Engine() *sim.SerialEngine {
	return d.engine
}

// Fabric returns the interconnect.
func (d *Device) Fabric() *noc.Fabric {
	return d.fabric
}

// Tiles returns the worker tiles in row-major order.
func (d *Device) Tiles() []*Tile {
	return d.tiles
}

// Tile returns the tile at a coordinate.
func (d *Device) Tile(c noc.Coord) (*Tile, error) {
	t, found := d.tileAt[c]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchCore, c)
	}

	return t, nil
}

// DRAMBanks returns the DRAM banks in interleaving order.
func (d *Device) DRAMBanks() []*DRAMBank {
	return d.banks
}

// DeviceBuilder builds devices.
type DeviceBuilder struct {
	freq         sim.Freq
	gridW, gridH int
	numBanks     int
	bankCapacity uint64
	dramLatency  int
	l1Latency    int
	baseLatency  int
	hopLatency   int
	niuWidth     int
	niuBufSize   int
	pollInterval time.Duration
	engine       *sim.SerialEngine
	tracers      []tracing.Tracer
	monitor      *monitoring.Monitor
}

// MakeDeviceBuilder creates a builder with default parameters: one tile and
// eight DRAM banks of 64 MB.
func MakeDeviceBuilder() DeviceBuilder {
	return DeviceBuilder{
		freq:         1 * sim.GHz,
		gridW:        1,
		gridH:        1,
		numBanks:     8,
		bankCapacity: 64 * mem.MB,
		dramLatency:  100,
		l1Latency:    1,
		baseLatency:  4,
		hopLatency:   1,
		niuWidth:     1,
		niuBufSize:   16,
		pollInterval: 10 * time.Millisecond,
	}
}

// WithEngine sets the engine that drives the device. By default, the device
// creates its own.
func (b DeviceBuilder) WithEngine(engine *sim.SerialEngine) DeviceBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the clock of every component.
func (b DeviceBuilder) WithFreq(freq sim.Freq) DeviceBuilder {
	b.freq = freq
	return b
}

// WithGrid sets the number of tile columns and rows.
func (b DeviceBuilder) WithGrid(w, h int) DeviceBuilder {
	b.gridW = w
	b.gridH = h

	return b
}

// WithDRAMBanks sets the number of DRAM banks.
func (b DeviceBuilder) WithDRAMBanks(n int) DeviceBuilder {
	b.numBanks = n
	return b
}

// WithDRAMBankCapacity sets the capacity of each DRAM bank.
func (b DeviceBuilder) WithDRAMBankCapacity(bytes uint64) DeviceBuilder {
	b.bankCapacity = bytes
	return b
}

// WithDRAMLatency sets the access latency of the DRAM banks in cycles.
func (b DeviceBuilder) WithDRAMLatency(cycles int) DeviceBuilder {
	b.dramLatency = cycles
	return b
}

// WithL1Latency sets the latency of remote accesses to L1 in cycles.
func (b DeviceBuilder) WithL1Latency(cycles int) DeviceBuilder {
	b.l1Latency = cycles
	return b
}

// WithBaseLatency sets the fabric latency between ports at the same
// coordinate.
func (b DeviceBuilder) WithBaseLatency(cycles int) DeviceBuilder {
	b.baseLatency = cycles
	return b
}

// WithHopLatency sets the fabric latency added per hop.
func (b DeviceBuilder) WithHopLatency(cycles int) DeviceBuilder {
	b.hopLatency = cycles
	return b
}

// WithNIUWidth sets the number of packets an NIU can send per cycle.
func (b DeviceBuilder) WithNIUWidth(width int) DeviceBuilder {
	b.niuWidth = width
	return b
}

// WithPollInterval sets how often Finish looks at the device while it runs.
func (b DeviceBuilder) WithPollInterval(d time.Duration) DeviceBuilder {
	b.pollInterval = d
	return b
}

// WithTracer makes every component report its tasks to the tracer. It can
// be called more than once.
func (b DeviceBuilder) WithTracer(t tracing.Tracer) DeviceBuilder {
	b.tracers = append(b.tracers[:len(b.tracers):len(b.tracers)], t)
	return b
}

// WithMonitor registers the device with a monitor.
func (b DeviceBuilder) WithMonitor(m *monitoring.Monitor) DeviceBuilder {
	b.monitor = m
	return b
}

// Build creates the device. The DRAM banks sit in the column to the right
// of the grid.
func (b DeviceBuilder) Build(name string) *Device {
	b.parametersMustBeValid()

	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	d := &Device{
		engine:       engine,
		router:       noc.NewMapRouter(),
		tileAt:       make(map[noc.Coord]*Tile),
		bankCapacity: b.bankCapacity,
		monitor:      b.monitor,
		pollInterval: b.pollInterval,
	}

	d.fabric = noc.MakeFabricBuilder().
		WithEngine(d.engine).
		WithFreq(b.freq).
		WithBaseLatency(b.baseLatency).
		WithHopLatency(b.hopLatency).
		Build(name + ".Fabric")

	for i := 0; i < b.numBanks; i++ {
		d.banks = append(d.banks, b.buildBank(d, name, i))
	}

	for _, bank := range d.banks {
		d.bankCoords = append(d.bankCoords, bank.Coord)
	}

	for y := 0; y < b.gridH; y++ {
		for x := 0; x < b.gridW; x++ {
			t := b.buildTile(d, name, noc.Coord{X: x, Y: y})
			d.tiles = append(d.tiles, t)
			d.tileAt[t.Coord] = t
		}
	}

	if b.monitor != nil {
		b.monitor.RegisterEngine(d.engine)
	}

	return d
}

func (b DeviceBuilder) parametersMustBeValid() {
	if b.gridW < 1 || b.gridH < 1 || b.gridW > noc.MaxCoord ||
		b.gridH > noc.MaxCoord+1 {
		log.Panicf("invalid grid %dx%d", b.gridW, b.gridH)
	}

	if b.numBanks < 1 || b.numBanks > noc.MaxCoord+1 {
		log.Panicf("invalid number of DRAM banks %d", b.numBanks)
	}

	if b.bankCapacity > 1<<32 {
		log.Panicf("DRAM banks larger than 4 GB are not addressable")
	}
}

func (b DeviceBuilder) buildBank(d *Device, name string, i int) *DRAMBank {
	bank := &DRAMBank{
		Coord:   noc.Coord{X: b.gridW, Y: i},
		Storage: mem.NewStorage(b.bankCapacity),
	}

	bank.Ctrl = idealmemcontroller.MakeBuilder().
		WithEngine(d.engine).
		WithFreq(b.freq).
		WithLatency(b.dramLatency).
		WithStorage(bank.Storage).
		WithAddressConverter(noc.OffsetConverter{Coord: bank.Coord}).
		Build(fmt.Sprintf("%s.DRAM[%d]", name, i))

	d.fabric.PlugInAt(bank.Ctrl.TopPort(), bank.Coord, b.niuBufSize)
	d.router.Add(bank.Coord, bank.Ctrl.TopPort().AsRemote())
	b.observe(bank.Ctrl)

	return bank
}

func (b DeviceBuilder) buildTile(d *Device, name string, c noc.Coord) *Tile {
	t := &Tile{
		name:      fmt.Sprintf("%s.Tile[%d][%d]", name, c.X, c.Y),
		Coord:     c,
		L1:        mem.NewStorage(memmap.MemL1Size),
		Registers: circularbuffer.NewRegisters(),
	}

	t.L1Ctrl = idealmemcontroller.MakeBuilder().
		WithEngine(d.engine).
		WithFreq(b.freq).
		WithLatency(b.l1Latency).
		WithStorage(t.L1).
		WithAddressConverter(noc.OffsetConverter{Coord: c}).
		Build(t.name + ".L1")
	d.fabric.PlugInAt(t.L1Ctrl.TopPort(), c, b.niuBufSize)
	d.router.Add(c, t.L1Ctrl.TopPort().AsRemote())
	b.observe(t.L1Ctrl)

	for r := kernel.Role(0); r < kernel.NumRoles; r++ {
		coreName := t.name + "." + r.String()

		niu := noc.MakeNIUBuilder().
			WithEngine(d.engine).
			WithFreq(b.freq).
			WithCoord(c).
			WithL1(t.L1).
			WithRouter(d.router).
			WithWidth(b.niuWidth).
			WithBufferSize(b.niuBufSize).
			Build(coreName + ".NIU")
		d.fabric.PlugInAt(niu.Port(), c, b.niuBufSize)
		b.observe(niu)

		t.Cores[r] = kernel.MakeCoreBuilder().
			WithEngine(d.engine).
			WithFreq(b.freq).
			WithRole(r).
			WithCoord(c).
			WithL1(t.L1).
			WithRegisters(t.Registers).
			WithNIU(niu).
			WithDRAMBanks(d.bankCoords).
			Build(coreName)
		b.observe(t.Cores[r])
	}

	if b.monitor != nil {
		b.monitor.RegisterTile(t)
	}

	return t
}

func (b DeviceBuilder) observe(c sim.Component) {
	for _, t := range b.tracers {
		tracing.CollectTrace(c, t)
	}

	if b.monitor != nil {
		b.monitor.RegisterComponent(c)
	}
}
