package memmap

import "fmt"

// Hardware constants of a worker tile.
const (
	L1Capacity uint64 = 1464 * 1024

	// LocalMemBase is where each processor sees its private local memory.
	LocalMemBase uint64 = 0xFFB00000

	BootCodeSize     uint64 = 4
	L1BarrierAddr    uint64 = 12
	L1BarrierSize    uint64 = 4
	MailboxAddr      uint64 = 16
	MailboxSizeBytes uint64 = 1344
	ZerosSizeBytes   uint64 = 512
	ZerosAlign       uint64 = 32

	FirmwareAlign    uint64 = 16
	RuntimeArgsAlign uint64 = 16
	RuntimeArgsBytes uint64 = 256

	// UnreservedAlign is the alignment of the first address available to
	// circular buffers.
	UnreservedAlign uint64 = 32
)

// Mailbox sub-layout, as offsets from the mailbox base.
const (
	MailboxLaunchOffset     uint64 = 0
	MailboxCompletionOffset uint64 = 4
	MailboxCBConfigOffset   uint64 = 64

	CBConfigEntryBytes   uint64 = 16
	MaxCircularBuffers   uint64 = 32
	CompletionWordStride uint64 = 4
)

// Processor identifies one of the RISC-V cores of a worker tile.
type Processor int

// The processors of a worker tile.
const (
	BRISC Processor = iota
	NCRISC
	TRISC0
	TRISC1
	TRISC2
	NumProcessors
)

type processorSpec struct {
	name         string
	firmwareSize uint64
	localSize    uint64
	stackSize    uint64
}

var processorSpecs = [NumProcessors]processorSpec{
	BRISC:  {"brisc", 10 * 1024, 8 * 1024, 768},
	NCRISC: {"ncrisc", 16 * 1024, 8 * 1024, 768},
	TRISC0: {"trisc0", 16 * 1024, 4 * 1024, 256},
	TRISC1: {"trisc1", 16 * 1024, 4 * 1024, 256},
	TRISC2: {"trisc2", 16 * 1024, 4 * 1024, 768},
}

func (p Processor) String() string {
	if p < 0 || p >= NumProcessors {
		return fmt.Sprintf("Processor(%d)", int(p))
	}

	return processorSpecs[p].name
}

// FirmwareRegionName returns the name of the processor's firmware region.
func (p Processor) FirmwareRegionName() string {
	return p.String() + "_firmware"
}

// InitLocalRegionName returns the name of the L1 region that holds the
// initial image of the processor's local memory.
func (p Processor) InitLocalRegionName() string {
	return p.String() + "_init_local"
}

// LocalSize returns the size of the processor's private local memory.
func (p Processor) LocalSize() uint64 {
	return processorSpecs[p].localSize
}

// StackRegion returns the stack of the processor. Stacks live at the top of
// the private local memory and grow down.
func StackRegion(p Processor) Region {
	spec := processorSpecs[p]

	return Region{
		Name:  p.String() + "_stack",
		Role:  p.String(),
		Base:  LocalMemBase + spec.localSize - spec.stackSize,
		Size:  spec.stackSize,
		Align: 16,
	}
}

// Names of the fixed regions and the runtime argument regions.
const (
	RegionBootCode    = "boot_code"
	RegionL1Barrier   = "l1_barrier"
	RegionMailbox     = "mailbox"
	RegionZeros       = "zeros"
	RegionReaderArgs  = "reader_args"
	RegionComputeArgs = "compute_args"
	RegionWriterArgs  = "writer_args"
)

// WorkerPlanner returns a planner loaded with all the regions of a worker
// tile's L1.
func WorkerPlanner() *Planner {
	p := NewPlanner(L1Capacity)

	mailboxEnd := MailboxAddr + MailboxSizeBytes

	p.Fix(Region{Name: RegionBootCode, Role: "boot",
		Base: 0, Size: BootCodeSize, Align: 4})
	p.Fix(Region{Name: RegionL1Barrier, Role: "barrier",
		Base: L1BarrierAddr, Size: L1BarrierSize, Align: 4})
	p.Fix(Region{Name: RegionMailbox, Role: "mailbox",
		Base: MailboxAddr, Size: MailboxSizeBytes, Align: 16})
	p.Fix(Region{Name: RegionZeros, Role: "scratch",
		Base: AlignUp(mailboxEnd, ZerosAlign), Size: ZerosSizeBytes,
		Align: ZerosAlign})

	for proc := BRISC; proc < NumProcessors; proc++ {
		p.Add(Request{
			Name:  proc.FirmwareRegionName(),
			Role:  proc.String(),
			Size:  processorSpecs[proc].firmwareSize,
			Align: FirmwareAlign,
		})
	}

	for proc := BRISC; proc < NumProcessors; proc++ {
		p.Add(Request{
			Name:  proc.InitLocalRegionName(),
			Role:  proc.String(),
			Size:  processorSpecs[proc].localSize,
			Align: FirmwareAlign,
		})
	}

	for _, name := range []string{
		RegionReaderArgs, RegionComputeArgs, RegionWriterArgs,
	} {
		p.Add(Request{
			Name:  name,
			Role:  "args",
			Size:  RuntimeArgsBytes,
			Align: RuntimeArgsAlign,
		})
	}

	return p
}

// WorkerLayout plans the L1 of a worker tile.
func WorkerLayout() (Layout, error) {
	return WorkerPlanner().Plan()
}

// UnreservedBase returns the first address after the layout that circular
// buffers can use.
func UnreservedBase(l Layout) uint64 {
	return AlignUp(l.End(), UnreservedAlign)
}
