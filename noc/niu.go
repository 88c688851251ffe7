package noc

import (
	"log"
	"reflect"
	"sync/atomic"

	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/sim"
	"github.com/sarchlab/tilestream/tracing"
)

// MaxBurstBytes is the largest payload of one packet. Longer transfers are
// split.
const MaxBurstBytes = 8 * 1024

// A Spinner performs one step of a polling loop.
type Spinner interface {
	Spin()
}

// Stats counts the packets an NIU has issued and seen acknowledged.
type Stats struct {
	ReadsIssued  uint64 `json:"reads_issued"`
	ReadsAcked   uint64 `json:"reads_acked"`
	WritesIssued uint64 `json:"writes_issued"`
	WritesAcked  uint64 `json:"writes_acked"`
	BytesRead    uint64 `json:"bytes_read"`
	BytesWritten uint64 `json:"bytes_written"`
}

type packet struct {
	msg       sim.Msg
	localAddr uint64
	isRead    bool
}

// NIU is the network interface unit of one processing element. It turns
// asynchronous transfer calls into packets, sends them over the fabric, and
// applies read responses to the local L1 in the order they arrive.
//
// Issue never blocks. The only way to learn that a transfer completed is
// through the flush predicates, which cover every transfer issued so far.
type NIU struct {
	*sim.TickingComponent

	port   sim.Port
	coord  Coord
	l1     *mem.Storage
	router mem.AddressToPortMapper
	width  int

	toSend      []*packet
	inflight    map[string]*packet
	traceParent string

	readsIssued  atomic.Uint64
	readsAcked   atomic.Uint64
	writesIssued atomic.Uint64
	writesAcked  atomic.Uint64
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
}

// Port returns the port that connects the NIU to the fabric.
func (n *NIU) Port() sim.Port {
	return n.port
}

// Coord returns the coordinate of the tile the NIU belongs to.
func (n *NIU) Coord() Coord {
	return n.coord
}

// SetTraceParent sets the task that the packets issued from now on belong
// to.
func (n *NIU) SetTraceParent(taskID string) {
	n.traceParent = taskID
}

// AsyncRead copies size bytes from an interconnect address into local L1.
func (n *NIU) AsyncRead(src uint64, dstL1 uint64, size uint64) {
	for offset := uint64(0); offset < size; offset += MaxBurstBytes {
		burst := min(MaxBurstBytes, size-offset)

		req := mem.NewReadReq(n.port.AsRemote(), n.router.Find(src+offset),
			src+offset, burst)

		n.readsIssued.Add(1)
		n.enqueue(&packet{msg: req, localAddr: dstL1 + offset, isRead: true})
	}
}

// AsyncWrite copies size bytes from local L1 to an interconnect address.
// The source bytes are read from L1 only when each packet leaves the NIU, so
// the source must stay untouched until the write barrier.
func (n *NIU) AsyncWrite(srcL1 uint64, dst uint64, size uint64) {
	for offset := uint64(0); offset < size; offset += MaxBurstBytes {
		burst := min(MaxBurstBytes, size-offset)

		req := mem.NewWriteReq(n.port.AsRemote(), n.router.Find(dst+offset),
			dst+offset, make([]byte, burst))

		n.writesIssued.Add(1)
		n.enqueue(&packet{msg: req, localAddr: srcL1 + offset})
	}
}

// AsyncCopy copies between two interconnect addresses. One of them must be
// on the NIU's own tile.
func (n *NIU) AsyncCopy(src, dst uint64, size uint64) {
	switch {
	case CoordOf(dst) == n.coord:
		n.AsyncRead(src, OffsetOf(dst), size)
	case CoordOf(src) == n.coord:
		n.AsyncWrite(OffsetOf(src), dst, size)
	default:
		log.Panicf("noc: %s cannot copy from %s to %s, neither is local",
			n.Name(), CoordOf(src), CoordOf(dst))
	}
}

// AsyncReadTile reads page id of an interleaved buffer into local L1.
func (n *NIU) AsyncReadTile(id uint32, gen InterleavedAddrGen, dstL1 uint64) {
	n.AsyncRead(gen.PageAddr(id), dstL1, uint64(gen.PageSize))
}

// AsyncWriteTile writes one page from local L1 to page id of an interleaved
// buffer.
func (n *NIU) AsyncWriteTile(id uint32, gen InterleavedAddrGen, srcL1 uint64) {
	n.AsyncWrite(srcL1, gen.PageAddr(id), uint64(gen.PageSize))
}

func (n *NIU) enqueue(p *packet) {
	n.toSend = append(n.toSend, p)
	n.TickLater()
}

// ReadsFlushed tells whether every issued read has landed in L1.
func (n *NIU) ReadsFlushed() bool {
	return n.readsAcked.Load() == n.readsIssued.Load()
}

// WritesFlushed tells whether every issued write has been acknowledged.
func (n *NIU) WritesFlushed() bool {
	return n.writesAcked.Load() == n.writesIssued.Load()
}

// Flushed tells whether every issued transfer has completed.
func (n *NIU) Flushed() bool {
	return n.ReadsFlushed() && n.WritesFlushed()
}

// Barrier spins until every transfer issued so far has completed. It is for
// callers that run outside of the engine's goroutine while the engine runs.
func (n *NIU) Barrier(s Spinner) {
	for !n.Flushed() {
		s.Spin()
	}
}

// Stats returns the packet counters.
func (n *NIU) Stats() Stats {
	return Stats{
		ReadsIssued:  n.readsIssued.Load(),
		ReadsAcked:   n.readsAcked.Load(),
		WritesIssued: n.writesIssued.Load(),
		WritesAcked:  n.writesAcked.Load(),
		BytesRead:    n.bytesRead.Load(),
		BytesWritten: n.bytesWritten.Load(),
	}
}

// Tick sends queued packets and applies responses.
func (n *NIU) Tick() bool {
	madeProgress := false

	madeProgress = n.receive() || madeProgress
	madeProgress = n.send() || madeProgress

	return madeProgress
}

func (n *NIU) send() bool {
	madeProgress := false

	for i := 0; i < n.width && len(n.toSend) > 0; i++ {
		p := n.toSend[0]
		n.loadPayload(p)

		if err := n.port.Send(p.msg); err != nil {
			break
		}

		tracing.SendReq(n, p.msg, n.traceParent)

		n.toSend = n.toSend[1:]
		n.inflight[p.msg.Meta().ID] = p
		madeProgress = true
	}

	return madeProgress
}

// loadPayload fills a write packet with the current contents of its L1
// source.
func (n *NIU) loadPayload(p *packet) {
	req, ok := p.msg.(*mem.WriteReq)
	if !ok {
		return
	}

	data, err := n.l1.Read(p.localAddr, uint64(len(req.Data)))
	if err != nil {
		log.Panic(err)
	}

	copy(req.Data, data)
}

func (n *NIU) receive() bool {
	madeProgress := false

	for i := 0; i < n.width; i++ {
		msg := n.port.RetrieveIncoming()
		if msg == nil {
			break
		}

		switch msg := msg.(type) {
		case *mem.DataReadyRsp:
			n.applyRead(msg)
		case *mem.WriteDoneRsp:
			n.ackWrite(msg)
		default:
			log.Panicf("cannot handle message of type %s", reflect.TypeOf(msg))
		}

		madeProgress = true
	}

	return madeProgress
}

func (n *NIU) applyRead(rsp *mem.DataReadyRsp) {
	p := n.mustFindInflight(rsp.RespondTo)

	if err := n.l1.Write(p.localAddr, rsp.Data); err != nil {
		log.Panic(err)
	}

	delete(n.inflight, rsp.RespondTo)
	tracing.CompleteReq(n, p.msg)

	n.bytesRead.Add(uint64(len(rsp.Data)))
	n.readsAcked.Add(1)
}

func (n *NIU) ackWrite(rsp *mem.WriteDoneRsp) {
	p := n.mustFindInflight(rsp.RespondTo)

	delete(n.inflight, rsp.RespondTo)
	tracing.CompleteReq(n, p.msg)

	n.bytesWritten.Add(uint64(len(p.msg.(*mem.WriteReq).Data)))
	n.writesAcked.Add(1)
}

func (n *NIU) mustFindInflight(id string) *packet {
	p, found := n.inflight[id]
	if !found {
		log.Panicf("%s received a response to unknown request %s", n.Name(), id)
	}

	return p
}

// NIUBuilder builds NIUs.
type NIUBuilder struct {
	engine     sim.Engine
	freq       sim.Freq
	coord      Coord
	l1         *mem.Storage
	router     mem.AddressToPortMapper
	width      int
	bufferSize int
}

// MakeNIUBuilder creates a builder with default parameters.
func MakeNIUBuilder() NIUBuilder {
	return NIUBuilder{
		freq:       1 * sim.GHz,
		width:      1,
		bufferSize: 16,
	}
}

// WithEngine sets the engine.
func (b NIUBuilder) WithEngine(engine sim.Engine) NIUBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the clock.
func (b NIUBuilder) WithFreq(freq sim.Freq) NIUBuilder {
	b.freq = freq
	return b
}

// WithCoord sets the coordinate of the tile.
func (b NIUBuilder) WithCoord(c Coord) NIUBuilder {
	b.coord = c
	return b
}

// WithL1 sets the local memory that transfers read from and write to.
func (b NIUBuilder) WithL1(l1 *mem.Storage) NIUBuilder {
	b.l1 = l1
	return b
}

// WithRouter sets how remote addresses are resolved to ports.
func (b NIUBuilder) WithRouter(r mem.AddressToPortMapper) NIUBuilder {
	b.router = r
	return b
}

// WithWidth sets how many packets can be sent and received per cycle.
func (b NIUBuilder) WithWidth(width int) NIUBuilder {
	b.width = width
	return b
}

// WithBufferSize sets the number of responses the port can hold.
func (b NIUBuilder) WithBufferSize(n int) NIUBuilder {
	b.bufferSize = n
	return b
}

// Build creates the NIU.
func (b NIUBuilder) Build(name string) *NIU {
	if b.l1 == nil {
		log.Panicf("NIU %s needs an L1", name)
	}

	if b.router == nil {
		log.Panicf("NIU %s needs a router", name)
	}

	n := &NIU{
		coord:    b.coord,
		l1:       b.l1,
		router:   b.router,
		width:    b.width,
		inflight: make(map[string]*packet),
	}
	n.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, n)
	n.port = sim.NewPort(n, b.bufferSize, name+".Port")
	n.AddPort("Port", n.port)

	return n
}
