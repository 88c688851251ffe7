package kernel

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/noc"
)

// ErrNoChannel is returned when a kernel uses a channel that is not
// configured.
var ErrNoChannel = errors.New("kernel: channel not configured")

// Env is what a kernel sees of its core: its runtime arguments, its L1, its
// NIU and the channels configured in the mailbox. Channel mirrors are
// private to the core; the other roles build their own.
type Env struct {
	Role      Role
	Coord     noc.Coord
	Args      RuntimeArgs
	L1        *mem.Storage
	NIU       *noc.NIU
	DRAMBanks []noc.Coord

	regs      *circularbuffer.Registers
	configs   map[uint32]circularbuffer.Config
	producers map[uint32]*circularbuffer.Producer
	consumers map[uint32]*circularbuffer.Consumer
}

func newEnv(regs *circularbuffer.Registers) *Env {
	return &Env{
		regs:      regs,
		configs:   make(map[uint32]circularbuffer.Config),
		producers: make(map[uint32]*circularbuffer.Producer),
		consumers: make(map[uint32]*circularbuffer.Consumer),
	}
}

// loadChannels reads the channel config table from the mailbox.
func (e *Env) loadChannels() error {
	for id := uint32(0); id < circularbuffer.MaxChannels; id++ {
		buf, err := e.L1.Read(ChannelConfigAddr(id),
			circularbuffer.ConfigEntryBytes)
		if err != nil {
			return err
		}

		if !circularbuffer.IsConfigured(buf) {
			continue
		}

		cfg, err := circularbuffer.DecodeConfig(id, buf)
		if err != nil {
			return err
		}

		e.configs[id] = cfg
	}

	return nil
}

// Channel returns the config of a channel.
func (e *Env) Channel(id uint32) (circularbuffer.Config, error) {
	cfg, found := e.configs[id]
	if !found {
		return circularbuffer.Config{}, fmt.Errorf("%w: %d on %s %s",
			ErrNoChannel, id, e.Role, e.Coord)
	}

	return cfg, nil
}

// Producer returns the core's producer mirror of a channel.
func (e *Env) Producer(id uint32) (*circularbuffer.Producer, error) {
	if p, found := e.producers[id]; found {
		return p, nil
	}

	cfg, err := e.Channel(id)
	if err != nil {
		return nil, err
	}

	p := circularbuffer.NewProducer(cfg, e.regs)
	e.producers[id] = p

	return p, nil
}

// Consumer returns the core's consumer mirror of a channel.
func (e *Env) Consumer(id uint32) (*circularbuffer.Consumer, error) {
	if c, found := e.consumers[id]; found {
		return c, nil
	}

	cfg, err := e.Channel(id)
	if err != nil {
		return nil, err
	}

	c := circularbuffer.NewConsumer(cfg, e.regs)
	e.consumers[id] = c

	return c, nil
}

// DRAMBuffer returns the address generator of an interleaved DRAM buffer
// with the given base and page size.
func (e *Env) DRAMBuffer(base uint32, pageSize uint32) noc.InterleavedAddrGen {
	return noc.InterleavedAddrGen{
		BankBaseAddress: uint64(base),
		PageSize:        pageSize,
		Banks:           e.DRAMBanks,
	}
}
