// Package mem defines the storage and the request protocol shared by every
// memory in the device, including tile local memories and DRAM banks.
package mem

import "github.com/sarchlab/tilestream/sim"

// For capacity
const (
	_          = iota
	KB  uint64 = 1 << (10 * iota)
	MB
	GB
)

// AddressConverter translates the address carried by a request to the
// address inside a storage.
type AddressConverter interface {
	ConvertExternalToInternal(external uint64) uint64
	ConvertInternalToExternal(internal uint64) uint64
}

// AddressToPortMapper finds the port of the memory that holds an address.
type AddressToPortMapper interface {
	Find(address uint64) sim.RemotePort
}
