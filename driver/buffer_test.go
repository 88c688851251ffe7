package driver

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/tile"
)

var _ = Describe("Buffer", func() {
	var d *Device

	BeforeEach(func() {
		d = MakeDeviceBuilder().
			WithDRAMBanks(4).
			WithDRAMBankCapacity(1 * mem.MB).
			Build("Device")
	})

	It("should interleave pages across the banks", func() {
		b, err := d.CreateBuffer(10*1056, 1056)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.NumPages()).To(Equal(uint32(10)))
		Expect(b.Address()).To(Equal(uint32(0)))

		gen := b.AddrGen()
		Expect(noc.CoordOf(gen.PageAddr(0))).To(Equal(d.DRAMBanks()[0].Coord))
		Expect(noc.CoordOf(gen.PageAddr(5))).To(Equal(d.DRAMBanks()[1].Coord))
		Expect(noc.OffsetOf(gen.PageAddr(5))).To(Equal(uint64(1056)))
	})

	It("should give each buffer the same range on every bank", func() {
		a, err := d.CreateBuffer(10*1056, 1056)
		Expect(err).NotTo(HaveOccurred())

		b, err := d.CreateBuffer(4*2048, 2048)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Address()).To(Equal(uint32(3 * 1056)))
		Expect(uint64(b.Address())).To(BeNumerically(">=",
			uint64(a.Address())+3*a.AddrGen().SlotSize()))
	})

	It("should round-trip data through the backdoor", func() {
		b, err := d.CreateBuffer(7*2048, 2048)
		Expect(err).NotTo(HaveOccurred())

		data := tile.RandomBfloat16(3, 7, -2, 2)
		Expect(d.WriteBuffer(b, data)).To(Succeed())

		back, err := d.ReadBuffer(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(data))

		page3, err := d.DRAMBanks()[3].Storage.Read(0, 2048)
		Expect(err).NotTo(HaveOccurred())
		Expect(page3).To(Equal(data[3*2048 : 4*2048]))
	})

	It("should reject partial pages", func() {
		_, err := d.CreateBuffer(1000, 1056)
		Expect(err).To(MatchError(ErrInvalidBuffer))

		_, err = d.CreateBuffer(1056, 0)
		Expect(err).To(MatchError(ErrInvalidBuffer))
	})

	It("should reject writes of the wrong size", func() {
		b, err := d.CreateBuffer(2*1056, 1056)
		Expect(err).NotTo(HaveOccurred())

		Expect(d.WriteBuffer(b, make([]byte, 1056))).
			To(MatchError(ErrInvalidBuffer))
	})

	It("should run out of DRAM", func() {
		_, err := d.CreateBuffer(3*mem.MB, 1024)
		Expect(err).NotTo(HaveOccurred())

		_, err = d.CreateBuffer(2*mem.MB, 1024)
		Expect(err).To(MatchError(ErrDRAMExhausted))
	})
})
