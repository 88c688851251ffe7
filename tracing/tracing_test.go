package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/sim"
	"go.uber.org/mock/gomock"
)

type domain struct {
	sim.HookableBase
	name string
}

func (d *domain) Name() string {
	return d.name
}

var _ = Describe("Task API", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		d          *domain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		d = &domain{name: "Tile[0][0].Reader"}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	block := func(id string) Task {
		return Task{ID: id, Kind: KindBlock, What: "stream"}
	}

	It("should not build tasks without hooks", func() {
		Expect(func() { StartTask(d, Task{}) }).NotTo(Panic())
	})

	It("should panic on incomplete tasks when hooked", func() {
		CollectTrace(d, NewTotalTimeTracer(timeTeller, nil))

		Expect(func() { StartTask(d, Task{Kind: KindBlock, What: "b"}) }).
			To(Panic())
		Expect(func() { StartTask(d, Task{ID: "1", What: "b"}) }).To(Panic())
	})

	It("should place tasks at the reporting domain", func() {
		var tasks []Task
		d.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosTaskStart {
				tasks = append(tasks, ctx.Item.(Task))
			}
		}))

		StartTask(d, block("1"))
		t := block("2")
		t.Location = "Fabric"
		StartTask(d, t)

		Expect(tasks).To(HaveLen(2))
		Expect(tasks[0].Location).To(Equal("Tile[0][0].Reader"))
		Expect(tasks[1].Location).To(Equal("Fabric"))
	})

	It("should measure total and average time", func() {
		tracer := NewTotalTimeTracer(timeTeller, func(t Task) bool {
			return t.Kind == KindBlock
		})
		CollectTrace(d, tracer)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		StartTask(d, block("1"))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		StartTask(d, block("2"))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		StartTask(d, Task{ID: "3", Kind: KindReqOut, What: "read"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(4))
		EndTask(d, "1")
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(6))
		EndTask(d, "2")

		Expect(tracer.TotalTime()).To(Equal(sim.VTimeInSec(7)))
		Expect(tracer.TaskCount()).To(Equal(uint64(2)))
		Expect(tracer.AverageTime()).To(Equal(sim.VTimeInSec(3.5)))
	})

	It("should merge overlapping busy time", func() {
		tracer := NewBusyTimeTracer(timeTeller, nil)
		CollectTrace(d, tracer)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		StartTask(d, block("1"))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		StartTask(d, block("2"))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(4))
		EndTask(d, "1")
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(6))
		EndTask(d, "2")
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(10))
		StartTask(d, block("3"))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(11))
		EndTask(d, "3")

		Expect(tracer.BusyTime()).To(Equal(sim.VTimeInSec(6)))
	})

	It("should count steps", func() {
		tracer := NewStepCountTracer(nil)
		CollectTrace(d, tracer)

		timeTeller.EXPECT().CurrentTime().AnyTimes()

		StartTask(d, block("1"))
		StepTask(d, "1", "acquire")
		StepTask(d, "1", "acquire")
		StepTask(d, "1", "retire")
		EndTask(d, "1")

		Expect(tracer.StepNames()).To(Equal([]string{"acquire", "retire"}))
		Expect(tracer.StepCount("acquire")).To(Equal(uint64(2)))
		Expect(tracer.TaskCount("acquire")).To(Equal(uint64(1)))
	})

	It("should link the two sides of a request", func() {
		var tasks []Task
		d.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosTaskStart {
				tasks = append(tasks, ctx.Item.(Task))
			}
		}))
		tracer := NewTotalTimeTracer(timeTeller, func(t Task) bool {
			return t.Kind == KindReqOut
		})
		CollectTrace(d, tracer)

		msg := &sampleMsg{}
		msg.ID = "m1"

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		SendReq(d, msg, "role")
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		ReceiveReq(d, msg)
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		ServeReq(d, msg)
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(5))
		CompleteReq(d, msg)

		Expect(ReqInID(msg, d)).To(Equal("m1@Tile[0][0].Reader"))
		Expect(tasks).To(HaveLen(2))
		Expect(tasks[0].ID).To(Equal("m1_req_out"))
		Expect(tasks[0].ParentID).To(Equal("role"))
		Expect(tasks[1].Kind).To(Equal(KindReqIn))
		Expect(tasks[1].ParentID).To(Equal(tasks[0].ID))
		Expect(tracer.TotalTime()).To(Equal(sim.VTimeInSec(4)))
		Expect(tracer.TaskCount()).To(Equal(uint64(1)))
	})
})

type sampleMsg struct {
	sim.MsgMeta
}

func (m *sampleMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

func (m *sampleMsg) Clone() sim.Msg {
	c := *m
	return &c
}
