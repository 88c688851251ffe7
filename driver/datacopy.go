package driver

import (
	"fmt"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/kernel"
	"github.com/sarchlab/tilestream/noc"
)

// Channels used by the data-copy pipeline.
const (
	DataCopyInChannel  uint32 = 0
	DataCopyOutChannel uint32 = 16
)

// DataCopy describes a pipeline on one tile: the reader streams the tiles of
// Src into the input channel, the compute role transforms them into the
// output channel, and the writer drains the output channel into Dst.
type DataCopy struct {
	Core          noc.Coord
	NumTiles      uint32
	PageSize      uint32
	InPages       uint32
	OutPages      uint32
	Transform     kernel.Transform
	CyclesPerTile int
}

// DataCopyRun is a data-copy program with its buffers.
type DataCopyRun struct {
	Program *Program
	Src     *Buffer
	Dst     *Buffer
	In      circularbuffer.Config
	Out     circularbuffer.Config
}

// BuildDataCopy allocates the buffers and channels of a data copy and
// assembles its program.
func (d *Device) BuildDataCopy(c DataCopy) (*DataCopyRun, error) {
	size := uint64(c.NumTiles) * uint64(c.PageSize)

	src, err := d.CreateBuffer(size, c.PageSize)
	if err != nil {
		return nil, err
	}

	dst, err := d.CreateBuffer(size, c.PageSize)
	if err != nil {
		return nil, err
	}

	return d.assemble(&DataCopyRun{Program: d.CreateProgram(), Src: src, Dst: dst},
		c.Core, c.PageSize, c.InPages, c.OutPages,
		[kernel.NumRoles]kernel.Kernel{
			kernel.RoleReader: kernel.UnaryReader{Channel: DataCopyInChannel},
			kernel.RoleCompute: kernel.Compute{
				Inputs:        []uint32{DataCopyInChannel},
				Output:        DataCopyOutChannel,
				Transform:     c.Transform,
				CyclesPerTile: c.CyclesPerTile,
			},
			kernel.RoleWriter: kernel.UnaryWriter{Channel: DataCopyOutChannel},
		},
		[kernel.NumRoles][]uint32{
			kernel.RoleReader:  {src.Address(), c.NumTiles},
			kernel.RoleCompute: {c.NumTiles},
			kernel.RoleWriter:  {dst.Address(), c.NumTiles},
		})
}

// assemble creates the two channels of a reader, compute, writer pipeline
// and binds the kernels and their arguments.
func (d *Device) assemble(
	run *DataCopyRun,
	core noc.Coord,
	pageSize, inPages, outPages uint32,
	kernels [kernel.NumRoles]kernel.Kernel,
	args [kernel.NumRoles][]uint32,
) (*DataCopyRun, error) {
	var err error

	p := run.Program

	run.In, err = p.CreateCircularBuffer(core, circularbuffer.Config{
		ID:       DataCopyInChannel,
		PageSize: pageSize,
		NumPages: inPages,
	})
	if err != nil {
		return nil, err
	}

	run.Out, err = p.CreateCircularBuffer(core, circularbuffer.Config{
		ID:       DataCopyOutChannel,
		PageSize: pageSize,
		NumPages: outPages,
	})
	if err != nil {
		return nil, err
	}

	for r, k := range kernels {
		role := kernel.Role(r)

		if err := p.CreateKernel(core, role, k); err != nil {
			return nil, err
		}

		if err := p.SetRuntimeArgs(core, role, args[r]...); err != nil {
			return nil, err
		}
	}

	return run, nil
}

// BlockGather describes a pipeline on one tile that reads the blocks of a
// tiled matrix operand in matmul order and writes them densely into Dst.
// InPages must hold a whole number of blocks.
type BlockGather struct {
	Core     noc.Coord
	Layout   kernel.TileLayout
	SrcTiles uint32
	PageSize uint32
	InPages  uint32
	OutPages uint32
}

// BuildBlockGather allocates the buffers and channels of a block gather and
// assembles its program. Dst holds Layout.NumTiles() tiles.
func (d *Device) BuildBlockGather(g BlockGather) (*DataCopyRun, error) {
	bt := g.Layout.BlockTiles()
	if bt == 0 || g.InPages%bt != 0 {
		return nil, fmt.Errorf("%w: %d input pages do not hold blocks of %d",
			kernel.ErrBadArgs, g.InPages, bt)
	}

	srcSize := uint64(g.SrcTiles) * uint64(g.PageSize)

	src, err := d.CreateBuffer(srcSize, g.PageSize)
	if err != nil {
		return nil, err
	}

	numTiles := g.Layout.NumTiles()

	dst, err := d.CreateBuffer(uint64(numTiles)*uint64(g.PageSize), g.PageSize)
	if err != nil {
		return nil, err
	}

	return d.assemble(&DataCopyRun{Program: d.CreateProgram(), Src: src, Dst: dst},
		g.Core, g.PageSize, g.InPages, g.OutPages,
		[kernel.NumRoles]kernel.Kernel{
			kernel.RoleReader: kernel.TileLayoutReader{
				Channel: DataCopyInChannel,
			},
			kernel.RoleCompute: kernel.Compute{
				Inputs: []uint32{DataCopyInChannel},
				Output: DataCopyOutChannel,
			},
			kernel.RoleWriter: kernel.UnaryWriter{Channel: DataCopyOutChannel},
		},
		[kernel.NumRoles][]uint32{
			kernel.RoleReader:  g.Layout.Args(src.Address()),
			kernel.RoleCompute: {numTiles},
			kernel.RoleWriter:  {dst.Address(), numTiles},
		})
}
