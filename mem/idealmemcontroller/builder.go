package idealmemcontroller

import (
	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/sim"
)

// Builder creates ideal memory controllers.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	latency    int
	topBufSize int
	capacity   uint64
	storage    *mem.Storage
	conv       mem.AddressConverter
}

// MakeBuilder returns a builder for a 1 GHz controller that answers after
// 100 cycles.
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		latency:    100,
		topBufSize: 16,
		capacity:   1 * mem.GB,
	}
}

// WithEngine sets the engine that schedules the responses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock of the controller.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLatency sets the cycles between taking a request and answering it.
func (b Builder) WithLatency(cycles int) Builder {
	b.latency = cycles
	return b
}

// WithNewStorage makes the controller own a new storage of the given size.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	b.storage = nil

	return b
}

// WithStorage serves an existing storage, such as the L1 of a tile that its
// cores also access directly.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithAddressConverter maps request addresses to storage offsets.
func (b Builder) WithAddressConverter(conv mem.AddressConverter) Builder {
	b.conv = conv
	return b
}

// Build creates the controller.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		engine:  b.engine,
		freq:    b.freq,
		conv:    b.conv,
		Storage: b.storage,
		Latency: b.latency,
	}

	if c.Storage == nil {
		c.Storage = mem.NewStorage(b.capacity)
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.topPort = sim.NewPort(c, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	return c
}
