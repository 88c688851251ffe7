package driver

import (
	"fmt"

	"github.com/sarchlab/tilestream/noc"
)

// A Buffer is a range of pages interleaved across the DRAM banks. Page n
// lives on bank n mod B. Every bank reserves the same range for the buffer.
type Buffer struct {
	base     uint64
	size     uint64
	pageSize uint32
	banks    []noc.Coord
}

// Address returns the bank offset where the buffer starts. Kernels take it
// as a runtime argument.
func (b *Buffer) Address() uint32 {
	return uint32(b.base)
}

// Size returns the size of the buffer in bytes.
func (b *Buffer) Size() uint64 {
	return b.size
}

// PageSize returns the size of a page.
func (b *Buffer) PageSize() uint32 {
	return b.pageSize
}

// NumPages returns the number of pages.
func (b *Buffer) NumPages() uint32 {
	return uint32(b.size / uint64(b.pageSize))
}

// AddrGen returns the address generator of the buffer's pages.
func (b *Buffer) AddrGen() noc.InterleavedAddrGen {
	return noc.InterleavedAddrGen{
		BankBaseAddress: b.base,
		PageSize:        b.pageSize,
		Banks:           b.banks,
	}
}

// CreateBuffer allocates an interleaved buffer of size bytes. The size must
// be a whole number of pages.
func (d *Device) CreateBuffer(size uint64, pageSize uint32) (*Buffer, error) {
	if pageSize == 0 || size == 0 || size%uint64(pageSize) != 0 {
		return nil, fmt.Errorf("%w: %d bytes in pages of %d",
			ErrInvalidBuffer, size, pageSize)
	}

	b := &Buffer{
		base:     d.dramNext,
		size:     size,
		pageSize: pageSize,
		banks:    d.bankCoords,
	}

	numBanks := uint64(len(d.bankCoords))
	slots := (uint64(b.NumPages()) + numBanks - 1) / numBanks
	end := b.base + slots*b.AddrGen().SlotSize()

	if end > d.bankCapacity {
		return nil, fmt.Errorf("%w: %d bytes per bank needed at 0x%x, "+
			"banks hold %d", ErrDRAMExhausted, end-b.base, b.base,
			d.bankCapacity)
	}

	d.dramNext = end

	return b, nil
}

// WriteBuffer stores data into a buffer directly, without going through the
// interconnect.
func (d *Device) WriteBuffer(b *Buffer, data []byte) error {
	if uint64(len(data)) != b.size {
		return fmt.Errorf("%w: writing %d bytes to a %d-byte buffer",
			ErrInvalidBuffer, len(data), b.size)
	}

	ps := uint64(b.pageSize)
	for n := uint32(0); n < b.NumPages(); n++ {
		bank, offset := d.locatePage(b, n)
		page := data[uint64(n)*ps : uint64(n+1)*ps]

		if err := bank.Storage.Write(offset, page); err != nil {
			return err
		}
	}

	return nil
}

// ReadBuffer returns the content of a buffer, read directly from the banks.
func (d *Device) ReadBuffer(b *Buffer) ([]byte, error) {
	data := make([]byte, 0, b.size)

	for n := uint32(0); n < b.NumPages(); n++ {
		bank, offset := d.locatePage(b, n)

		page, err := bank.Storage.Read(offset, uint64(b.pageSize))
		if err != nil {
			return nil, err
		}

		data = append(data, page...)
	}

	return data, nil
}

func (d *Device) locatePage(b *Buffer, n uint32) (*DRAMBank, uint64) {
	bank := d.banks[int(n)%len(d.banks)]

	return bank, noc.OffsetOf(b.AddrGen().PageAddr(n))
}
