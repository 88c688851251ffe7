package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockDataRecorder
		tracer     *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(taskTableName, gomock.Any())
		backend.EXPECT().CreateTable(milestoneTableName, gomock.Any())

		tracer = NewDBTracer(timeTeller, backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write finished tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{
			ID: "1", Kind: "transfer", What: "read", Location: "NIU",
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		backend.EXPECT().
			InsertData(taskTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(taskTableEntry)
				Expect(e.ID).To(Equal("1"))
				Expect(e.StartTime).To(Equal(1.0))
				Expect(e.EndTime).To(Equal(3.0))
				Expect(e.Finished).To(BeTrue())
			})

		tracer.EndTask(Task{ID: "1"})
	})

	It("should drop tasks outside the time range", func() {
		tracer.SetTimeRange(5, 10)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "1", Kind: "k", What: "w", Location: "l"})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(11))
		tracer.StartTask(Task{ID: "2", Kind: "k", What: "w", Location: "l"})
	})

	It("should panic on tasks without location", func() {
		Expect(func() {
			tracer.StartTask(Task{ID: "1", Kind: "k", What: "w"})
		}).To(Panic())
	})

	It("should write unfinished tasks on terminate", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(Task{ID: "1", Kind: "k", What: "w", Location: "l"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(9))
		backend.EXPECT().
			InsertData(taskTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(taskTableEntry)
				Expect(e.EndTime).To(Equal(9.0))
				Expect(e.Finished).To(BeFalse())
			})
		backend.EXPECT().Flush()

		tracer.Terminate()
		tracer.Terminate()
	})

	It("should record milestones", func() {
		m := Milestone{ID: "m", TaskID: "1", BlockingCategory: "channel"}
		backend.EXPECT().InsertData(milestoneTableName, m)

		tracer.AddMilestone(m)
	})
})
