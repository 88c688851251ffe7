package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type countingTicker struct {
	ticks    int
	maxTicks int
}

func (t *countingTicker) Tick() bool {
	t.ticks++
	return t.ticks < t.maxTicks
}

var _ = Describe("TickScheduler", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *MockEngine
		handler   *MockHandler
		scheduler *TickScheduler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		handler = NewMockHandler(mockCtrl)
		scheduler = NewTickScheduler(handler, engine, 1)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule a tick at the next cycle", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10))
		engine.EXPECT().Schedule(gomock.Any()).Do(func(evt Event) {
			Expect(evt.Time()).To(Equal(VTimeInSec(11)))
			Expect(evt.Handler()).To(BeIdenticalTo(handler))
			Expect(evt.IsSecondary()).To(BeFalse())
		})

		scheduler.TickLater()
	})

	It("should not schedule the same tick twice", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10)).Times(2)
		engine.EXPECT().Schedule(gomock.Any()).Times(1)

		scheduler.TickLater()
		scheduler.TickLater()
	})

	It("should schedule secondary ticks", func() {
		scheduler = NewSecondaryTickScheduler(handler, engine, 1)

		engine.EXPECT().CurrentTime().Return(VTimeInSec(10))
		engine.EXPECT().Schedule(gomock.Any()).Do(func(evt Event) {
			Expect(evt.Time()).To(Equal(VTimeInSec(10)))
			Expect(evt.IsSecondary()).To(BeTrue())
		})

		scheduler.TickNow()
	})
})

var _ = Describe("TickingComponent", func() {
	It("should keep ticking while making progress", func() {
		engine := NewSerialEngine()
		ticker := &countingTicker{maxTicks: 5}
		comp := NewTickingComponent("Comp", engine, 1*GHz, ticker)

		comp.TickLater()
		Expect(engine.Run()).To(Succeed())

		Expect(ticker.ticks).To(Equal(5))
		Expect(engine.CurrentTime()).To(BeNumerically("~", 5e-9, 1e-15))
	})
})
