package kernel

import (
	"fmt"
	"log"
	"log/slog"
	"sync/atomic"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/sim"
	"github.com/sarchlab/tilestream/tracing"
)

// A Kernel is the program of one role before it is bound to runtime
// arguments.
type Kernel interface {
	Name() string

	// Load binds the kernel to the environment of a core.
	Load(env *Env) (Program, error)
}

// State is the state of a core.
type State int32

// Core states, in the order a core goes through them.
const (
	StateIdle State = iota
	StateInit
	StateStreamLoop
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInit:
		return "INIT"
	case StateStreamLoop:
		return "STREAM_LOOP"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Core is the processing element that runs one role of a tile.
//
// A core that is waiting on a channel or a barrier keeps ticking and polls
// again on the next cycle. A core whose peer never supplies what it waits
// for therefore never stops, exactly as a hung device does.
type Core struct {
	*sim.TickingComponent

	role      Role
	coord     noc.Coord
	l1        *mem.Storage
	regs      *circularbuffer.Registers
	niu       *noc.NIU
	dramBanks []noc.Coord
	kernel    Kernel

	state     atomic.Int32
	blocks    atomic.Int64
	numBlocks atomic.Int64

	streamer *Streamer
	taskID   string
	err      error
}

// Role returns the role the core runs.
func (c *Core) Role() Role {
	return c.role
}

// NIU returns the core's network interface unit.
func (c *Core) NIU() *noc.NIU {
	return c.niu
}

// State returns the current state.
func (c *Core) State() State {
	return State(c.state.Load())
}

// Progress returns the number of blocks retired and the number of blocks of
// the program.
func (c *Core) Progress() (done, total int64) {
	return c.blocks.Load(), c.numBlocks.Load()
}

// Err returns why the core failed to start its program, if it did.
func (c *Core) Err() error {
	return c.err
}

// Kernel returns the kernel loaded on the core.
func (c *Core) Kernel() Kernel {
	return c.kernel
}

// Load installs a kernel. The core must not be running.
func (c *Core) Load(k Kernel) {
	if s := c.State(); s == StateInit || s == StateStreamLoop {
		log.Panicf("%s: cannot load a kernel while %s", c.Name(), s)
	}

	c.kernel = k
}

// Reset brings the core back to IDLE.
func (c *Core) Reset() {
	if s := c.State(); s == StateInit || s == StateStreamLoop {
		log.Panicf("%s: cannot reset while %s", c.Name(), s)
	}

	c.state.Store(int32(StateIdle))
	c.blocks.Store(0)
	c.numBlocks.Store(0)
	c.streamer = nil
	c.err = nil
}

// RingDoorbell makes an idle core look at the launch word.
func (c *Core) RingDoorbell() {
	c.TickLater()
}

// Tick runs one cycle of the state machine.
func (c *Core) Tick() bool {
	switch c.State() {
	case StateIdle:
		return c.checkLaunch()
	case StateInit:
		return c.init()
	case StateStreamLoop:
		return c.streamLoop()
	default:
		return false
	}
}

func (c *Core) checkLaunch() bool {
	if c.kernel == nil {
		return false
	}

	word, err := c.l1.ReadUint32(LaunchAddr)
	if err != nil {
		log.Panic(err)
	}

	if word != LaunchGo {
		return false
	}

	c.state.Store(int32(StateInit))

	return true
}

func (c *Core) init() bool {
	c.taskID = sim.GetIDGenerator().Generate()
	tracing.StartTask(c, tracing.Task{
		ID:     c.taskID,
		Kind:   tracing.KindRole,
		What:   c.kernel.Name(),
		Detail: c.role,
	})

	prog, err := c.loadProgram()
	if err != nil {
		c.fail(err)
		return true
	}

	c.numBlocks.Store(int64(prog.NumBlocks()))
	c.streamer = NewStreamer(prog, c, c, c.kernel.Name(), c.taskID)
	if c.niu != nil {
		c.streamer.AttributeTransfers(c.niu)
	}

	c.writeStatus(StatusRunning)
	c.state.Store(int32(StateStreamLoop))

	slog.Debug("core started",
		"core", c.Name(), "kernel", c.kernel.Name(),
		"blocks", prog.NumBlocks())

	return true
}

func (c *Core) loadProgram() (Program, error) {
	base, size := c.role.ArgsRegion()

	buf, err := c.l1.Read(base, size)
	if err != nil {
		return nil, err
	}

	args, err := DecodeRuntimeArgs(buf)
	if err != nil {
		return nil, err
	}

	env := newEnv(c.regs)
	env.Role = c.role
	env.Coord = c.coord
	env.Args = args
	env.L1 = c.l1
	env.NIU = c.niu
	env.DRAMBanks = c.dramBanks

	if err := env.loadChannels(); err != nil {
		return nil, err
	}

	return c.kernel.Load(env)
}

func (c *Core) streamLoop() bool {
	c.streamer.Step()
	c.blocks.Store(int64(c.streamer.Block()))

	if c.streamer.Done() {
		c.finish(StatusDone)
	}

	return true
}

func (c *Core) fail(err error) {
	c.err = fmt.Errorf("%s: %w", c.Name(), err)
	slog.Error("core failed to start", "core", c.Name(), "error", err)
	c.finish(StatusFailed)
}

func (c *Core) finish(s Status) {
	c.writeStatus(s)
	tracing.EndTask(c, c.taskID)
	c.state.Store(int32(StateDone))

	slog.Debug("core done", "core", c.Name(), "status", s,
		"time", c.CurrentTime())
}

func (c *Core) writeStatus(s Status) {
	if err := c.l1.WriteUint32(c.role.CompletionAddr(), uint32(s)); err != nil {
		log.Panic(err)
	}
}

// CoreBuilder builds cores.
type CoreBuilder struct {
	engine    sim.Engine
	freq      sim.Freq
	role      Role
	coord     noc.Coord
	l1        *mem.Storage
	regs      *circularbuffer.Registers
	niu       *noc.NIU
	dramBanks []noc.Coord
}

// MakeCoreBuilder creates a builder with default parameters.
func MakeCoreBuilder() CoreBuilder {
	return CoreBuilder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the engine.
func (b CoreBuilder) WithEngine(engine sim.Engine) CoreBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the clock.
func (b CoreBuilder) WithFreq(freq sim.Freq) CoreBuilder {
	b.freq = freq
	return b
}

// WithRole sets the role.
func (b CoreBuilder) WithRole(role Role) CoreBuilder {
	b.role = role
	return b
}

// WithCoord sets the coordinate of the tile.
func (b CoreBuilder) WithCoord(coord noc.Coord) CoreBuilder {
	b.coord = coord
	return b
}

// WithL1 sets the tile's local memory.
func (b CoreBuilder) WithL1(l1 *mem.Storage) CoreBuilder {
	b.l1 = l1
	return b
}

// WithRegisters sets the tile's channel counters.
func (b CoreBuilder) WithRegisters(regs *circularbuffer.Registers) CoreBuilder {
	b.regs = regs
	return b
}

// WithNIU sets the core's network interface unit.
func (b CoreBuilder) WithNIU(niu *noc.NIU) CoreBuilder {
	b.niu = niu
	return b
}

// WithDRAMBanks sets the coordinates of the DRAM banks, in bank order.
func (b CoreBuilder) WithDRAMBanks(banks []noc.Coord) CoreBuilder {
	b.dramBanks = banks
	return b
}

// Build creates the core.
func (b CoreBuilder) Build(name string) *Core {
	if b.l1 == nil || b.regs == nil {
		log.Panicf("core %s needs an L1 and channel registers", name)
	}

	c := &Core{
		role:      b.role,
		coord:     b.coord,
		l1:        b.l1,
		regs:      b.regs,
		niu:       b.niu,
		dramBanks: b.dramBanks,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	return c
}
