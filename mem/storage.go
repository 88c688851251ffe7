package mem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfRange is returned when an access falls outside of a storage.
var ErrOutOfRange = errors.New("access beyond storage capacity")

// A Storage keeps the data of the simulated device.
//
// The storage implementation manages the storage in units. The unit is
// similar to the concept of page in memory management. For the units that is
// not touched by Read and Write function, no memory will be allocated and
// reads return zeros.
//
// A Storage can be accessed from the simulation and from the host at the same
// time, so all the accesses are serialized.
type Storage struct {
	sync.Mutex

	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, 4*KB)
}

// NewStorageWithUnitSize creates a storage object with the specified capacity
// and allocation unit.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = unitSize
	storage.capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

// Capacity returns the number of bytes the storage holds.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) mustBeInRange(address, length uint64) error {
	if address > s.capacity || length > s.capacity-address {
		return fmt.Errorf("%w: [0x%x, 0x%x) with capacity 0x%x",
			ErrOutOfRange, address, address+length, s.capacity)
	}

	return nil
}

func (s *Storage) unit(baseAddr uint64, create bool) []byte {
	unit, ok := s.data[baseAddr]
	if !ok && create {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns a copy of length bytes starting at the address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.mustBeInRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	dataOffset := uint64(0)
	currAddr := address

	for dataOffset < length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := min(length-dataOffset, s.unitSize-inUnitAddr)

		if unit := s.unit(baseAddr, false); unit != nil {
			copy(res[dataOffset:dataOffset+lenToRead],
				unit[inUnitAddr:inUnitAddr+lenToRead])
		}

		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write stores the data starting at the address.
func (s *Storage) Write(address uint64, data []byte) error {
	s.Lock()
	defer s.Unlock()

	length := uint64(len(data))
	if err := s.mustBeInRange(address, length); err != nil {
		return err
	}

	dataOffset := uint64(0)
	currAddr := address

	for dataOffset < length {
		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := min(length-dataOffset, s.unitSize-inUnitAddr)

		unit := s.unit(baseAddr, true)
		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])

		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}

// ReadUint32 reads a little-endian 32-bit word.
func (s *Storage) ReadUint32(address uint64) (uint32, error) {
	data, err := s.Read(address, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(data), nil
}

// WriteUint32 writes a little-endian 32-bit word.
func (s *Storage) WriteUint32(address uint64, value uint32) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)

	return s.Write(address, data)
}
