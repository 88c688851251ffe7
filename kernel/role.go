// Package kernel runs the programs of the three roles of a tile.
//
// A Reader streams tiles from DRAM into a channel, a Compute role transforms
// tiles from its input channels into an output channel, and a Writer drains a
// channel to DRAM. Each role runs on its own Core, a processing element that
// shares nothing with the other cores of its tile except L1 channel pages,
// the channel counters and the mailbox.
package kernel

import (
	"fmt"

	"github.com/sarchlab/tilestream/memmap"
)

// Role identifies the kind of program a core runs.
type Role int

// The roles of a tile.
const (
	RoleReader Role = iota
	RoleCompute
	RoleWriter
	NumRoles
)

func (r Role) String() string {
	switch r {
	case RoleReader:
		return "Reader"
	case RoleCompute:
		return "Compute"
	case RoleWriter:
		return "Writer"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Processor returns the processor the role runs on.
func (r Role) Processor() memmap.Processor {
	switch r {
	case RoleReader:
		return memmap.NCRISC
	case RoleWriter:
		return memmap.BRISC
	case RoleCompute:
		return memmap.TRISC0
	default:
		panic(fmt.Sprintf("kernel: unknown role %d", int(r)))
	}
}

// CompletionAddr returns the L1 address of the role's completion word in the
// mailbox.
func (r Role) CompletionAddr() uint64 {
	return memmap.MemMailboxBase + memmap.MailboxCompletionOffset +
		uint64(r)*memmap.CompletionWordStride
}

// ArgsRegion returns the L1 block that holds the role's runtime arguments.
func (r Role) ArgsRegion() (base, size uint64) {
	switch r {
	case RoleReader:
		return memmap.MemReaderArgsBase, memmap.MemReaderArgsSize
	case RoleCompute:
		return memmap.MemComputeArgsBase, memmap.MemComputeArgsSize
	case RoleWriter:
		return memmap.MemWriterArgsBase, memmap.MemWriterArgsSize
	default:
		panic(fmt.Sprintf("kernel: unknown role %d", int(r)))
	}
}

// LaunchAddr is the L1 address of the launch word.
const LaunchAddr = memmap.MemMailboxBase + memmap.MailboxLaunchOffset

// LaunchGo is the launch word value that starts the roles.
const LaunchGo uint32 = 1

// ChannelConfigAddr returns the L1 address of a channel's config entry in the
// mailbox.
func ChannelConfigAddr(id uint32) uint64 {
	return memmap.MemMailboxBase + memmap.MailboxCBConfigOffset +
		uint64(id)*memmap.CBConfigEntryBytes
}

// Status is the value of a completion word.
type Status uint32

// Completion word values.
const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", uint32(s))
	}
}
