package driver

import (
	"bytes"
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/kernel"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/tile"
	"github.com/sarchlab/tilestream/tracing"
)

type kindCounter struct {
	lock  sync.Mutex
	kinds map[string]int
	ended int
}

func (c *kindCounter) StartTask(t tracing.Task) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.kinds[t.Kind]++
}

func (c *kindCounter) StepTask(_ tracing.Task) {}

func (c *kindCounter) EndTask(_ tracing.Task) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.ended++
}

func (c *kindCounter) AddMilestone(_ tracing.Milestone) {}

var _ = Describe("Data copy", func() {
	var (
		builder DeviceBuilder
		origin  noc.Coord
	)

	BeforeEach(func() {
		builder = MakeDeviceBuilder().
			WithDRAMBanks(4).
			WithDRAMLatency(20)
	})

	run := func(d *Device, c DataCopy, src []byte) (*DataCopyRun, Result, error) {
		dc, err := d.BuildDataCopy(c)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.WriteBuffer(dc.Src, src)).To(Succeed())
		Expect(d.Launch(dc.Program)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res, err := d.Finish(ctx)

		return dc, res, err
	}

	It("should copy 2048 tiles through single-page channels", func() {
		d := builder.Build("Device")
		src := tile.RandomBytes(1, 2048*1056)

		dc, res, err := run(d, DataCopy{
			Core:     origin,
			NumTiles: 2048,
			PageSize: 1056,
			InPages:  1,
			OutPages: 1,
		}, src)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done()).To(BeTrue())
		Expect(res.Roles).To(HaveLen(3))

		for _, r := range res.Roles {
			Expect(r.Status).To(Equal(kernel.StatusDone))
			Expect(r.Blocks).To(Equal(int64(2048)))
		}

		dst, err := d.ReadBuffer(dc.Dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.Equal(dst, src)).To(BeTrue())

		t, _ := d.Tile(origin)
		Expect(t.Registers.Received(DataCopyInChannel)).To(Equal(uint32(2048)))
		Expect(t.Registers.Acked(DataCopyOutChannel)).To(Equal(uint32(2048)))
	})

	It("should transform tiles on a remote tile", func() {
		d := builder.WithGrid(2, 2).Build("Device")
		src := tile.RandomBfloat16(2, 32, -1, 1)
		far := noc.Coord{X: 1, Y: 1}

		dc, _, err := run(d, DataCopy{
			Core:          far,
			NumTiles:      32,
			PageSize:      tile.Bfloat16.TileSize(),
			InPages:       4,
			OutPages:      2,
			Transform:     kernel.Unary{Op: kernel.ReLU},
			CyclesPerTile: 16,
		}, src)
		Expect(err).NotTo(HaveOccurred())

		dst, err := d.ReadBuffer(dc.Dst)
		Expect(err).NotTo(HaveOccurred())

		in := tile.UnpackBfloat16(src)
		for i, v := range tile.UnpackBfloat16(dst) {
			Expect(v).To(Equal(max(in[i], 0)))
		}

		Expect(d.Fabric().Stats().Hops).To(BeNumerically(">", 0))
	})

	It("should gather matmul blocks in read order", func() {
		d := builder.Build("Device")

		const pageSize = 64

		layout := kernel.TileLayout{
			StrideW:         1,
			StrideH:         4,
			NextBlockStride: 2,
			BlockW:          2,
			BlockH:          2,
			NumBlocks:       2,
			MtKt:            8,
			Batch:           2,
		}

		g, err := d.BuildBlockGather(BlockGather{
			Core:     origin,
			Layout:   layout,
			SrcTiles: 16,
			PageSize: pageSize,
			InPages:  8,
			OutPages: 2,
		})
		Expect(err).NotTo(HaveOccurred())

		src := make([]byte, 16*pageSize)
		for i := range src {
			src[i] = byte(i / pageSize)
		}
		Expect(d.WriteBuffer(g.Src, src)).To(Succeed())
		Expect(d.Launch(g.Program)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res, err := d.Finish(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done()).To(BeTrue())

		dst, err := d.ReadBuffer(g.Dst)
		Expect(err).NotTo(HaveOccurred())

		order := []byte{0, 1, 4, 5, 2, 3, 6, 7, 8, 9, 12, 13, 10, 11, 14, 15}
		for i, id := range order {
			Expect(dst[i*pageSize : (i+1)*pageSize]).
				To(Equal(bytes.Repeat([]byte{id}, pageSize)))
		}
	})

	It("should refuse an input channel that splits a block", func() {
		d := builder.Build("Device")

		_, err := d.BuildBlockGather(BlockGather{
			Core:     origin,
			Layout:   kernel.TileLayout{BlockW: 2, BlockH: 2, NumBlocks: 1, Batch: 1},
			SrcTiles: 4,
			PageSize: 64,
			InPages:  6,
			OutPages: 1,
		})
		Expect(err).To(MatchError(kernel.ErrBadArgs))
	})

	It("should report every block to the tracer", func() {
		tracer := &kindCounter{kinds: make(map[string]int)}
		d := builder.WithTracer(tracer).Build("Device")

		_, _, err := run(d, DataCopy{
			Core:     origin,
			NumTiles: 16,
			PageSize: 1056,
			InPages:  2,
			OutPages: 2,
		}, tile.RandomBytes(3, 16*1056))
		Expect(err).NotTo(HaveOccurred())

		Expect(tracer.kinds[tracing.KindRole]).To(Equal(3))
		Expect(tracer.kinds[tracing.KindBlock]).To(Equal(3 * 16))
		Expect(tracer.kinds[tracing.KindReqOut]).To(Equal(2 * 16))
	})

	It("should time out when the input channel has no capacity", func() {
		d := builder.Build("Device")
		src := tile.RandomBytes(4, 8*1056)

		dc, err := d.BuildDataCopy(DataCopy{
			Core:     origin,
			NumTiles: 8,
			PageSize: 1056,
			InPages:  0,
			OutPages: 1,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.WriteBuffer(dc.Src, src)).To(Succeed())

		before := bytes.Repeat([]byte{0xab}, 8*1056)
		Expect(d.WriteBuffer(dc.Dst, before)).To(Succeed())

		Expect(d.Launch(dc.Program)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(),
			200*time.Millisecond)
		defer cancel()

		res, err := d.Finish(ctx)
		Expect(err).To(MatchError(ErrTimeout))
		Expect(res.Done()).To(BeFalse())

		for _, r := range res.Roles {
			Expect(r.Status).To(Equal(kernel.StatusRunning))
			Expect(r.Blocks).To(BeZero())
		}

		t, _ := d.Tile(origin)
		Expect(t.Registers.Received(DataCopyInChannel)).To(BeZero())
		Expect(t.Registers.Received(DataCopyOutChannel)).To(BeZero())

		dst, err := d.ReadBuffer(dc.Dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(dst).To(Equal(before))

		Expect(d.Launch(dc.Program)).To(MatchError(ErrBusy))
	})

	It("should report kernels that cannot start", func() {
		d := builder.Build("Device")
		p := d.CreateProgram()

		Expect(p.CreateKernel(origin, kernel.RoleReader,
			kernel.UnaryReader{Channel: 0})).To(Succeed())
		Expect(d.Launch(p)).To(Succeed())

		res, err := d.Finish(context.Background())
		Expect(err).To(MatchError(ErrKernelFailed))
		Expect(err).To(MatchError(kernel.ErrBadArgs))
		Expect(res.Roles).To(HaveLen(1))
		Expect(res.Roles[0].Status).To(Equal(kernel.StatusFailed))
	})

	It("should refuse to finish before a launch", func() {
		d := builder.Build("Device")

		_, err := d.Finish(context.Background())
		Expect(err).To(MatchError(ErrIncomplete))
	})
})
