// Package noc models the interconnect of the device: the encoding of
// interconnect addresses, the fabric that carries packets between
// coordinates, and the network interface unit that lets a processing element
// issue asynchronous transfers and wait for them with a barrier.
package noc

import "fmt"

// Layout of an interconnect address.
const (
	OffsetBits = 36
	CoordBits  = 6

	xShift = OffsetBits
	yShift = OffsetBits + CoordBits

	offsetMask = 1<<OffsetBits - 1
	coordMask  = 1<<CoordBits - 1

	// MaxCoord is the largest X or Y value an address can carry.
	MaxCoord = coordMask
)

// A Coord locates an endpoint on the interconnect.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Hops returns the Manhattan distance between two coordinates.
func (c Coord) Hops(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

// Addr packs a coordinate and an offset into an interconnect address.
func Addr(c Coord, offset uint64) uint64 {
	if c.X < 0 || c.X > MaxCoord || c.Y < 0 || c.Y > MaxCoord {
		panic(fmt.Sprintf("noc: coordinate %s out of range", c))
	}

	if offset > offsetMask {
		panic(fmt.Sprintf("noc: offset 0x%x out of range", offset))
	}

	return uint64(c.Y)<<yShift | uint64(c.X)<<xShift | offset
}

// Decode splits an interconnect address into its coordinate and offset.
func Decode(addr uint64) (Coord, uint64) {
	c := Coord{
		X: int(addr >> xShift & coordMask),
		Y: int(addr >> yShift & coordMask),
	}

	return c, addr & offsetMask
}

// CoordOf returns the coordinate part of an address.
func CoordOf(addr uint64) Coord {
	c, _ := Decode(addr)
	return c
}

// OffsetOf returns the offset part of an address.
func OffsetOf(addr uint64) uint64 {
	return addr & offsetMask
}
