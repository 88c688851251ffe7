package monitoring_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/driver"
	"github.com/sarchlab/tilestream/monitoring"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/tile"
)

var _ = Describe("Monitoring a device", func() {
	var (
		d      *driver.Device
		router http.Handler
	)

	get := func(url string, v any) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		if v != nil && rec.Code == http.StatusOK {
			Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
		}

		return rec.Code
	}

	BeforeEach(func() {
		m := monitoring.NewMonitor()
		d = driver.MakeDeviceBuilder().
			WithGrid(2, 1).
			WithDRAMBanks(2).
			WithDRAMLatency(10).
			WithMonitor(m).
			Build("Device")
		router = m.Router()

		dc, err := d.BuildDataCopy(driver.DataCopy{
			Core:     noc.Coord{},
			NumTiles: 8,
			PageSize: 64,
			InPages:  3,
			OutPages: 2,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.WriteBuffer(dc.Src, tile.RandomBytes(3, 8*64))).To(Succeed())
		Expect(d.Launch(dc.Program)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res, err := d.Finish(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Done()).To(BeTrue())
	})

	It("should list every tile of the grid", func() {
		var names []string
		Expect(get("/api/tiles", &names)).To(Equal(http.StatusOK))
		Expect(names).To(Equal([]string{
			"Device.Tile[0][0]", "Device.Tile[1][0]"}))
	})

	It("should report the finished roles from the mailbox", func() {
		var roles []monitoring.RoleReport
		Expect(get("/api/tile/Device.Tile[0][0]/mailbox", &roles)).
			To(Equal(http.StatusOK))

		Expect(roles).To(HaveLen(3))
		for _, r := range roles {
			Expect(r.Status).To(Equal("done"))
			Expect(r.Blocks).To(Equal(int64(8)))
			Expect(r.NumBlocks).To(Equal(int64(8)))
		}
		Expect(roles[0].Core).To(Equal("Device.Tile[0][0].Reader"))
	})

	It("should report drained channels of the copy tile", func() {
		var channels []circularbuffer.Snapshot
		Expect(get("/api/tile/Device.Tile[0][0]/channels", &channels)).
			To(Equal(http.StatusOK))

		Expect(channels).To(HaveLen(2))
		Expect(channels[0].ID).To(Equal(driver.DataCopyInChannel))
		Expect(channels[0].Capacity).To(Equal(uint32(3)))
		Expect(channels[0].WriteCursor).To(Equal(uint32(8 % 3)))
		Expect(channels[0].ReadCursor).To(Equal(uint32(8 % 3)))
		Expect(channels[1].ID).To(Equal(driver.DataCopyOutChannel))
		Expect(channels[1].Capacity).To(Equal(uint32(2)))

		for _, c := range channels {
			Expect(c.Available).To(BeZero())
			Expect(c.PageSize).To(Equal(uint32(64)))
		}
	})

	It("should report no channels on an idle tile", func() {
		var channels []circularbuffer.Snapshot
		Expect(get("/api/tile/Device.Tile[1][0]/channels", &channels)).
			To(Equal(http.StatusOK))
		Expect(channels).To(BeEmpty())
	})

	It("should list the buffers of the device components", func() {
		var levels []json.RawMessage
		Expect(get("/api/hangdetector/buffers", &levels)).
			To(Equal(http.StatusOK))
		Expect(levels).NotTo(BeEmpty())
	})

	It("should report the time the copy finished", func() {
		var state struct {
			Now    float64 `json:"now"`
			Paused bool    `json:"paused"`
		}
		Expect(get("/api/now", &state)).To(Equal(http.StatusOK))

		Expect(state.Now).To(BeNumerically(">", 0))
		Expect(state.Paused).To(BeFalse())
		Expect(state.Now).To(BeNumerically("~",
			float64(d.Engine().CurrentTime()), 1e-9))
	})
})
