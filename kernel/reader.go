package kernel

import (
	"fmt"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/noc"
)

// UnaryReader streams the tiles of an interleaved DRAM buffer into a
// channel, BlockTiles tiles per block.
//
// Runtime arguments: buffer base address, number of tiles, and optionally
// the index of the first tile.
type UnaryReader struct {
	Channel    uint32
	BlockTiles uint32
}

// Name returns the kernel name.
func (k UnaryReader) Name() string { return "reader_unary" }

// Load binds the kernel to a core.
func (k UnaryReader) Load(env *Env) (Program, error) {
	if err := env.Args.Require(2, k.Name()); err != nil {
		return nil, err
	}

	out, err := env.Producer(k.Channel)
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

	return &tileStreamProgram{
		niu:        env.NIU,
		gen:        env.DRAMBuffer(env.Args.Arg(0), out.Config().PageSize),
		out:        out,
		numBlocks:  int(numTiles / bt),
		blockTiles: bt,
		tileOf: func(block int, i uint32) uint32 {
			return first + uint32(block)*bt + i
		},
	}, nil
}

func dataMoverMustBeWired(env *Env, kernel string) error {
	if env.NIU == nil {
		return fmt.Errorf("%w: %s runs on a core without an NIU",
			ErrBadArgs, kernel)
	}

	if len(env.DRAMBanks) == 0 {
		return fmt.Errorf("%w: %s needs DRAM banks", ErrBadArgs, kernel)
	}

	return nil
}

// tileStreamProgram reads a list of DRAM tiles into each block of a channel.
type tileStreamProgram struct {
	niu        *noc.NIU
	gen        noc.InterleavedAddrGen
	out        *circularbuffer.Producer
	numBlocks  int
	blockTiles uint32
	tileOf     func(block int, i uint32) uint32
}

func (p *tileStreamProgram) NumBlocks() int {
	return p.numBlocks
}

func (p *tileStreamProgram) Acquire(_ int) bool {
	_, ok := p.out.TryReserve(p.blockTiles)
	return ok
}

func (p *tileStreamProgram) Issue(block int) {
	ptr := uint64(p.out.WritePtr())
	pageSize := uint64(p.gen.PageSize)

	for i := uint32(0); i < p.blockTiles; i++ {
		p.niu.AsyncReadTile(p.tileOf(block, i), p.gen, ptr+uint64(i)*pageSize)
	}
}

func (p *tileStreamProgram) Settled(_ int) bool {
	return p.niu.ReadsFlushed()
}

func (p *tileStreamProgram) Retire(_ int) {
	p.out.Commit(p.blockTiles)
}

// Runtime argument positions of TileLayoutReader.
const (
	TLArgTensorAddr = iota
	TLArgStartTileID
	TLArgStrideW
	TLArgStrideH
	TLArgNextBlockStride
	TLArgBlockW
	TLArgBlockH
	TLArgBlockNumTiles
	TLArgNumBlocks
	TLArgMtKt
	TLArgBatch
	tlNumArgs
)

// TileLayout describes how the blocks of a tiled matrix operand are laid out
// in DRAM. A block is BlockH rows of BlockW tiles; tiles in a row are StrideW
// apart, rows are StrideH apart, and consecutive blocks start NextBlockStride
// apart. Each of the Batch batches holds NumBlocks blocks and starts MtKt
// tiles after the previous one.
type TileLayout struct {
	StartTileID     uint32
	StrideW         uint32
	StrideH         uint32
	NextBlockStride uint32
	BlockW          uint32
	BlockH          uint32
	NumBlocks       uint32
	MtKt            uint32
	Batch           uint32
}

func decodeTileLayout(a RuntimeArgs) TileLayout {
	return TileLayout{
		StartTileID:     a.Arg(TLArgStartTileID),
		StrideW:         a.Arg(TLArgStrideW),
		StrideH:         a.Arg(TLArgStrideH),
		NextBlockStride: a.Arg(TLArgNextBlockStride),
		BlockW:          a.Arg(TLArgBlockW),
		BlockH:          a.Arg(TLArgBlockH),
		NumBlocks:       a.Arg(TLArgNumBlocks),
		MtKt:            a.Arg(TLArgMtKt),
		Batch:           a.Arg(TLArgBatch),
	}
}

// Args returns the runtime arguments of a TileLayoutReader that reads this
// layout from the tensor at tensorAddr.
func (l TileLayout) Args(tensorAddr uint32) []uint32 {
	args := make([]uint32, tlNumArgs)
	args[TLArgTensorAddr] = tensorAddr
	args[TLArgStartTileID] = l.StartTileID
	args[TLArgStrideW] = l.StrideW
	args[TLArgStrideH] = l.StrideH
	args[TLArgNextBlockStride] = l.NextBlockStride
	args[TLArgBlockW] = l.BlockW
	args[TLArgBlockH] = l.BlockH
	args[TLArgBlockNumTiles] = l.BlockTiles()
	args[TLArgNumBlocks] = l.NumBlocks
	args[TLArgMtKt] = l.MtKt
	args[TLArgBatch] = l.Batch

	return args
}

// BlockTiles returns the number of tiles in one block.
func (l TileLayout) BlockTiles() uint32 {
	return l.BlockW * l.BlockH
}

// NumTiles returns the number of tiles read over all batches.
func (l TileLayout) NumTiles() uint32 {
	return l.Batch * l.NumBlocks * l.BlockTiles()
}

// TileID returns the DRAM tile read into position i of the given block,
// counting blocks across batches.
func (l TileLayout) TileID(block uint32, i uint32) uint32 {
	b, blk := block/l.NumBlocks, block%l.NumBlocks
	h, w := i/l.BlockW, i%l.BlockW

	return l.StartTileID +
		b*l.MtKt +
		blk*l.NextBlockStride +
		h*l.StrideH +
		w*l.StrideW
}

// TileLayoutReader reads the blocks of a tiled matrix operand, described by a
// TileLayout, into a channel one block at a time.
type TileLayoutReader struct {
	Channel uint32
}

// Name returns the kernel name.
func (k TileLayoutReader) Name() string { return "reader_bmm_tile_layout" }

// Load binds the kernel to a core.
func (k TileLayoutReader) Load(env *Env) (Program, error) {
	if err := env.Args.Require(tlNumArgs, k.Name()); err != nil {
		return nil, err
	}

	out, err := env.Producer(k.Channel)
	if err != nil {
		return nil, err
	}

	if err := dataMoverMustBeWired(env, k.Name()); err != nil {
		return nil, err
	}

	a := env.Args
	l := decodeTileLayout(a)

	if l.BlockTiles() != a.Arg(TLArgBlockNumTiles) || l.BlockTiles() == 0 {
		return nil, fmt.Errorf("%w: block of %dx%d tiles declared as %d",
			ErrBadArgs, l.BlockW, l.BlockH, a.Arg(TLArgBlockNumTiles))
	}

	return &tileStreamProgram{
		niu:        env.NIU,
		gen:        env.DRAMBuffer(a.Arg(TLArgTensorAddr), out.Config().PageSize),
		out:        out,
		numBlocks:  int(l.Batch * l.NumBlocks),
		blockTiles: l.BlockTiles(),
		tileOf: func(block int, i uint32) uint32 {
			return l.TileID(uint32(block), i)
		},
	}, nil
}
