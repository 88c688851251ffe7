package kernel

import (
	"fmt"
	"log"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/mem"
)

// Compute applies a Transform to blocks of tiles taken from its input
// channels and puts the results into its output channel. Each block takes
// CyclesPerTile cycles per tile.
//
// Runtime arguments: number of tiles.
type Compute struct {
	Inputs        []uint32
	Output        uint32
	Transform     Transform
	BlockTiles    uint32
	CyclesPerTile int
}

// Name returns the kernel name.
func (k Compute) Name() string {
	return "compute_" + k.transform().Name()
}

func (k Compute) transform() Transform {
	if k.Transform == nil {
		return Identity{}
	}

	return k.Transform
}

// Load binds the kernel to a core.
func (k Compute) Load(env *Env) (Program, error) {
	if err := env.Args.Require(1, k.Name()); err != nil {
		return nil, err
	}

	t := k.transform()
	if len(k.Inputs) != t.NumInputs() {
		return nil, fmt.Errorf("%w: %s takes %d inputs, %d channels given",
			ErrBadArgs, t.Name(), t.NumInputs(), len(k.Inputs))
	}

	out, err := env.Producer(k.Output)
	if err != nil {
		return nil, err
	}

	p := &computeProgram{
		l1:         env.L1,
		transform:  t,
		out:        out,
		blockTiles: max(k.BlockTiles, 1),
		cycles:     k.CyclesPerTile,
	}

	for _, id := range k.Inputs {
		in, err := env.Consumer(id)
		if err != nil {
			return nil, err
		}

		if in.Config().PageSize != out.Config().PageSize {
			return nil, fmt.Errorf("%w: channel %d pages are %d bytes, "+
				"output pages are %d", ErrBadArgs, id,
				in.Config().PageSize, out.Config().PageSize)
		}

		p.ins = append(p.ins, in)
	}

	numTiles := env.Args.Arg(0)
	if numTiles%p.blockTiles != 0 {
		return nil, fmt.Errorf("%w: %d tiles in blocks of %d",
			ErrBadArgs, numTiles, p.blockTiles)
	}

	p.numBlocks = int(numTiles / p.blockTiles)

	return p, nil
}

type computeProgram struct {
	l1         *mem.Storage
	transform  Transform
	ins        []*circularbuffer.Consumer
	out        *circularbuffer.Producer
	numBlocks  int
	blockTiles uint32
	cycles     int
	remaining  int
}

func (p *computeProgram) NumBlocks() int {
	return p.numBlocks
}

func (p *computeProgram) Acquire(_ int) bool {
	for _, in := range p.ins {
		if _, ok := in.TryWait(p.blockTiles); !ok {
			return false
		}
	}

	_, ok := p.out.TryReserve(p.blockTiles)

	return ok
}

func (p *computeProgram) Issue(_ int) {
	size := uint64(p.blockTiles) * uint64(p.out.Config().PageSize)

	srcs := make([][]byte, len(p.ins))
	for i, in := range p.ins {
		data, err := p.l1.Read(uint64(in.ReadPtr()), size)
		if err != nil {
			log.Panic(err)
		}

		srcs[i] = data
	}

	dst := make([]byte, size)
	p.transform.Apply(dst, srcs)

	if err := p.l1.Write(uint64(p.out.WritePtr()), dst); err != nil {
		log.Panic(err)
	}

	p.remaining = int(p.blockTiles) * p.cycles
}

func (p *computeProgram) Settled(_ int) bool {
	if p.remaining > 0 {
		p.remaining--
		return false
	}

	return true
}

func (p *computeProgram) Retire(_ int) {
	p.out.Commit(p.blockTiles)

	for _, in := range p.ins {
		in.Release(p.blockTiles)
	}
}
