package kernel

import (
	"fmt"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/noc"
)

// UnaryWriter drains a channel into an interleaved DRAM buffer.
//
// Runtime arguments: buffer base address, number of tiles, and optionally
// the index of the first tile.
type UnaryWriter struct {
	Channel    uint32
	BlockTiles uint32
}

// Name returns the kernel name.
func (k UnaryWriter) Name() string { return "writer_unary" }

// Load binds the kernel to a core.
func (k UnaryWriter) Load(env *Env) (Program, error) {
	if err := env.Args.Require(2, k.Name()); err != nil {
		return nil, err
	}

	in, err := env.Consumer(k.Channel)
	if err != nil {
		return nil, err
	}

	if err := dataMoverMustBeWired(env, k.Name()); err != nil {
		return nil, err
	}

	bt := max(k.BlockTiles, 1)
	numTiles := env.Args.Arg(1)

	if numTiles%bt != 0 {
		return nil, fmt.Errorf("%w: %d tiles in blocks of %d",
			ErrBadArgs, numTiles, bt)
	}

	var first uint32
	if env.Args.Len() > 2 {
		first = env.Args.Arg(2)
	}

	return &unaryWriter{
		niu:        env.NIU,
		gen:        env.DRAMBuffer(env.Args.Arg(0), in.Config().PageSize),
		in:         in,
		numBlocks:  int(numTiles / bt),
		blockTiles: bt,
		first:      first,
	}, nil
}

type unaryWriter struct {
	niu        *noc.NIU
	gen        noc.InterleavedAddrGen
	in         *circularbuffer.Consumer
	numBlocks  int
	blockTiles uint32
	first      uint32
}

func (p *unaryWriter) NumBlocks() int {
	return p.numBlocks
}

func (p *unaryWriter) Acquire(_ int) bool {
	_, ok := p.in.TryWait(p.blockTiles)
	return ok
}

func (p *unaryWriter) Issue(block int) {
	ptr := uint64(p.in.ReadPtr())
	pageSize := uint64(p.gen.PageSize)
	firstTile := p.first + uint32(block)*p.blockTiles

	for i := uint32(0); i < p.blockTiles; i++ {
		p.niu.AsyncWriteTile(firstTile+i, p.gen, ptr+uint64(i)*pageSize)
	}
}

func (p *unaryWriter) Settled(_ int) bool {
	return p.niu.WritesFlushed()
}

func (p *unaryWriter) Retire(_ int) {
	p.in.Release(p.blockTiles)
}
