package noc

// DRAMAlign is the alignment of a page slot in a DRAM bank.
const DRAMAlign = 32

// InterleavedAddrGen computes where the pages of an interleaved buffer live.
// Page n is stored on bank n mod len(Banks), in slot n / len(Banks) of that
// bank. Slots start at the same BankBaseAddress on every bank.
type InterleavedAddrGen struct {
	BankBaseAddress uint64
	PageSize        uint32
	Banks           []Coord
}

// SlotSize returns the distance between two pages on the same bank.
func (g InterleavedAddrGen) SlotSize() uint64 {
	return alignUp(uint64(g.PageSize), DRAMAlign)
}

// PageAddr returns the interconnect address of page n.
func (g InterleavedAddrGen) PageAddr(n uint32) uint64 {
	numBanks := uint32(len(g.Banks))
	bank := g.Banks[n%numBanks]
	offset := g.BankBaseAddress + uint64(n/numBanks)*g.SlotSize()

	return Addr(bank, offset)
}

func alignUp(x, align uint64) uint64 {
	return (x + align - 1) / align * align
}
