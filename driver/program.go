package driver

import (
	"fmt"
	"sort"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/kernel"
	"github.com/sarchlab/tilestream/memmap"
	"github.com/sarchlab/tilestream/noc"
)

// L1Align is the alignment of the circular buffers the driver allocates.
const L1Align = 32

type tileProgram struct {
	channels map[uint32]circularbuffer.Config
	kernels  [kernel.NumRoles]kernel.Kernel
	args     [kernel.NumRoles]kernel.RuntimeArgs
	next     uint64
}

func newTileProgram() *tileProgram {
	return &tileProgram{
		channels: make(map[uint32]circularbuffer.Config),
		next:     memmap.MemUnreservedBase,
	}
}

// A Program is the set of channels, kernels and runtime arguments to place on
// the tiles of a device.
type Program struct {
	device *Device
	tiles  map[noc.Coord]*tileProgram
}

// CreateProgram starts an empty program for the device.
func (d *Device) CreateProgram() *Program {
	return &Program{
		device: d,
		tiles:  make(map[noc.Coord]*tileProgram),
	}
}

func (p *Program) tile(c noc.Coord) (*tileProgram, error) {
	if _, err := p.device.Tile(c); err != nil {
		return nil, err
	}

	tp, found := p.tiles[c]
	if !found {
		tp = newTileProgram()
		p.tiles[c] = tp
	}

	return tp, nil
}

// coords returns the tiles the program uses in row-major order.
func (p *Program) coords() []noc.Coord {
	coords := make([]noc.Coord, 0, len(p.tiles))
	for c := range p.tiles {
		coords = append(coords, c)
	}

	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Y != coords[j].Y {
			return coords[i].Y < coords[j].Y
		}

		return coords[i].X < coords[j].X
	})

	return coords
}

// CreateCircularBuffer places a channel in the L1 of a tile. A zero base
// address asks the driver to allocate one after the channels created so
// far. The returned config carries the final base address.
func (p *Program) CreateCircularBuffer(
	core noc.Coord,
	cfg circularbuffer.Config,
) (circularbuffer.Config, error) {
	tp, err := p.tile(core)
	if err != nil {
		return cfg, err
	}

	if _, found := tp.channels[cfg.ID]; found {
		return cfg, fmt.Errorf("%w: channel %d already exists on %s",
			ErrCircularBufferConflict, cfg.ID, core)
	}

	if cfg.BaseAddress == 0 {
		base := memmap.AlignUp(tp.next, L1Align)
		if base > uint64(^uint32(0)) {
			return cfg, fmt.Errorf("%w: on %s", ErrL1Exhausted, core)
		}

		cfg.BaseAddress = uint32(base)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if uint64(cfg.Limit()) > memmap.MemL1Size {
		return cfg, fmt.Errorf("%w: channel %d needs [0x%x, 0x%x) on %s, "+
			"L1 ends at 0x%x", ErrL1Exhausted, cfg.ID, cfg.BaseAddress,
			cfg.Limit(), core, memmap.MemL1Size)
	}

	if err := tp.mustNotOverlap(cfg); err != nil {
		return cfg, fmt.Errorf("%w on %s", err, core)
	}

	tp.channels[cfg.ID] = cfg
	tp.next = max(tp.next, uint64(cfg.Limit()))

	return cfg, nil
}

func (tp *tileProgram) mustNotOverlap(cfg circularbuffer.Config) error {
	if uint64(cfg.BaseAddress) < memmap.MemUnreservedBase {
		return fmt.Errorf("%w: channel %d at 0x%x is in reserved L1",
			ErrCircularBufferConflict, cfg.ID, cfg.BaseAddress)
	}

	for _, other := range tp.channels {
		if cfg.BaseAddress < other.Limit() && other.BaseAddress < cfg.Limit() {
			return fmt.Errorf("%w: channel %d overlaps channel %d",
				ErrCircularBufferConflict, cfg.ID, other.ID)
		}
	}

	return nil
}

// CreateKernel assigns a kernel to a role of a tile.
func (p *Program) CreateKernel(
	core noc.Coord,
	role kernel.Role,
	k kernel.Kernel,
) error {
	if role < 0 || role >= kernel.NumRoles {
		return fmt.Errorf("%w: %s has no role %s", ErrNoSuchCore, core, role)
	}

	tp, err := p.tile(core)
	if err != nil {
		return err
	}

	tp.kernels[role] = k

	return nil
}

// SetRuntimeArgs sets the arguments a role reads when it starts.
func (p *Program) SetRuntimeArgs(
	core noc.Coord,
	role kernel.Role,
	values ...uint32,
) error {
	if role < 0 || role >= kernel.NumRoles {
		return fmt.Errorf("%w: %s has no role %s", ErrNoSuchCore, core, role)
	}

	tp, err := p.tile(core)
	if err != nil {
		return err
	}

	args := kernel.NewRuntimeArgs(values...)
	if _, err := args.Encode(); err != nil {
		return err
	}

	tp.args[role] = args

	return nil
}
