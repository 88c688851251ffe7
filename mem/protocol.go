package mem

import (
	"github.com/sarchlab/tilestream/sim"
)

// Header bytes that every request and response adds to its payload on the
// interconnect.
const (
	ReqHeaderBytes = 12
	RspHeaderBytes = 4
)

func newMeta(src, dst sim.RemotePort, traffic int) sim.MsgMeta {
	return sim.MsgMeta{
		ID:           sim.GetIDGenerator().Generate(),
		Src:          src,
		Dst:          dst,
		TrafficBytes: traffic,
	}
}

// reply addresses a response back to the sender of req.
func reply(req *sim.MsgMeta, traffic int) sim.MsgMeta {
	return newMeta(req.Dst, req.Src, traffic)
}

// A ReadReq asks a memory for Size bytes at Address.
type ReadReq struct {
	sim.MsgMeta

	Address uint64
	Size    uint64
}

// NewReadReq creates a read of size bytes at addr.
func NewReadReq(src, dst sim.RemotePort, addr, size uint64) *ReadReq {
	return &ReadReq{
		MsgMeta: newMeta(src, dst, ReqHeaderBytes),
		Address: addr,
		Size:    size,
	}
}

func (r *ReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone copies the request under a new ID.
func (r *ReadReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// A WriteReq asks a memory to store Data at Address.
type WriteReq struct {
	sim.MsgMeta

	Address uint64
	Data    []byte
}

// NewWriteReq creates a write of data at addr. The request owns data.
func NewWriteReq(src, dst sim.RemotePort, addr uint64, data []byte) *WriteReq {
	return &WriteReq{
		MsgMeta: newMeta(src, dst, ReqHeaderBytes+len(data)),
		Address: addr,
		Data:    data,
	}
}

func (r *WriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone copies the request under a new ID. The copy shares Data.
func (r *WriteReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// A DataReadyRsp carries the bytes a ReadReq asked for.
type DataReadyRsp struct {
	sim.MsgMeta

	RespondTo string
	Data      []byte
}

// NewDataReadyRsp answers req with data.
func NewDataReadyRsp(req *ReadReq, data []byte) *DataReadyRsp {
	return &DataReadyRsp{
		MsgMeta:   reply(&req.MsgMeta, RspHeaderBytes+len(data)),
		RespondTo: req.ID,
		Data:      data,
	}
}

func (r *DataReadyRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone copies the response under a new ID.
func (r *DataReadyRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetRspTo returns the ID of the read.
func (r *DataReadyRsp) GetRspTo() string {
	return r.RespondTo
}

// A WriteDoneRsp acknowledges that a WriteReq is stored.
type WriteDoneRsp struct {
	sim.MsgMeta

	RespondTo string
}

// NewWriteDoneRsp acknowledges req.
func NewWriteDoneRsp(req *WriteReq) *WriteDoneRsp {
	return &WriteDoneRsp{
		MsgMeta:   reply(&req.MsgMeta, RspHeaderBytes),
		RespondTo: req.ID,
	}
}

func (r *WriteDoneRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone copies the response under a new ID.
func (r *WriteDoneRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetRspTo returns the ID of the write.
func (r *WriteDoneRsp) GetRspTo() string {
	return r.RespondTo
}
