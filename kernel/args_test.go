package kernel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/memmap"
)

var _ = Describe("RuntimeArgs", func() {
	It("should encode a count word followed by the values", func() {
		args := NewRuntimeArgs(0x1000, 2048, 7)

		buf, err := args.Encode()
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal([]byte{
			3, 0, 0, 0,
			0x00, 0x10, 0, 0,
			0x00, 0x08, 0, 0,
			7, 0, 0, 0,
		}))

		decoded, err := DecodeRuntimeArgs(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Values()).To(Equal([]uint32{0x1000, 2048, 7}))
	})

	It("should not share the caller's slice", func() {
		values := []uint32{1, 2}
		args := NewRuntimeArgs(values...)
		values[0] = 9

		Expect(args.Arg(0)).To(Equal(uint32(1)))
	})

	It("should panic on an argument out of range", func() {
		args := NewRuntimeArgs(1)

		Expect(func() { args.Arg(1) }).To(Panic())
		Expect(func() { args.Arg(-1) }).To(Panic())
	})

	It("should reject more values than fit", func() {
		_, err := NewRuntimeArgs(make([]uint32, MaxRuntimeArgs+1)...).Encode()
		Expect(err).To(MatchError(ErrBadArgs))

		_, err = NewRuntimeArgs(make([]uint32, MaxRuntimeArgs)...).Encode()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject a count word that does not fit", func() {
		_, err := DecodeRuntimeArgs([]byte{200, 0, 0, 0})
		Expect(err).To(MatchError(ErrBadArgs))
	})

	It("should check the number of arguments", func() {
		Expect(NewRuntimeArgs(1).Require(2, "k")).To(MatchError(ErrBadArgs))
		Expect(NewRuntimeArgs(1, 2).Require(2, "k")).To(Succeed())
	})
})

var _ = Describe("Role", func() {
	It("should place completion words after the launch word", func() {
		base := memmap.MemMailboxBase

		Expect(RoleReader.CompletionAddr()).To(Equal(base + 4))
		Expect(RoleCompute.CompletionAddr()).To(Equal(base + 8))
		Expect(RoleWriter.CompletionAddr()).To(Equal(base + 12))
		Expect(LaunchAddr).To(Equal(base))
	})

	It("should bind roles to processors", func() {
		Expect(RoleReader.Processor()).To(Equal(memmap.NCRISC))
		Expect(RoleWriter.Processor()).To(Equal(memmap.BRISC))
		Expect(RoleCompute.Processor()).To(Equal(memmap.TRISC0))
	})

	It("should use the argument regions of the memory map", func() {
		base, size := RoleWriter.ArgsRegion()

		Expect(base).To(Equal(memmap.MemWriterArgsBase))
		Expect(size).To(Equal(memmap.RuntimeArgsBytes))
	})

	It("should keep the channel table inside the mailbox", func() {
		last := ChannelConfigAddr(31) + memmap.CBConfigEntryBytes

		Expect(ChannelConfigAddr(0)).To(Equal(memmap.MemMailboxBase + 64))
		Expect(last).To(BeNumerically("<=",
			memmap.MemMailboxBase+memmap.MemMailboxSize))
	})
})
