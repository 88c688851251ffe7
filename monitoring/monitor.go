// Package monitoring turns a running device into a web server that can be
// inspected and controlled while the simulation runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/monitoring/web"
	"github.com/sarchlab/tilestream/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// RoleReport describes the core that runs one role of a tile.
type RoleReport struct {
	Core      string `json:"core"`
	Role      string `json:"role"`
	Kernel    string `json:"kernel"`
	State     string `json:"state"`
	Status    string `json:"status"`
	Blocks    int64  `json:"blocks"`
	NumBlocks int64  `json:"num_blocks"`
}

// A TileView exposes the mailbox and the channels of a tile.
type TileView interface {
	Name() string
	Channels() []circularbuffer.Snapshot
	Roles() []RoleReport
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine      sim.Engine
	components  []sim.Component
	buffers     []sim.Buffer
	tiles       []TileView
	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitoring page.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(c sim.Component) {
	m.components = append(m.components, c)

	m.registerBuffers(c)
}

// RegisterTile registers a tile whose mailbox and channels are reported.
func (m *Monitor) RegisterTile(t TileView) {
	m.tiles = append(m.tiles, t)
}

func (m *Monitor) registerBuffers(c sim.Component) {
	m.registerComponentOrPortBuffers(c)

	for _, p := range c.Ports() {
		m.registerComponentOrPortBuffers(p)
	}
}

func (m *Monitor) registerComponentOrPortBuffers(c any) {
	v := reflect.ValueOf(c).Elem()
	bufferType := reflect.TypeOf((*sim.Buffer)(nil)).Elem()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)

		if field.Type() == bufferType {
			fieldRef := reflect.NewAt(
				field.Type(),
				unsafe.Pointer(field.UnsafeAddr()),
			).Elem().Interface().(sim.Buffer)
			m.buffers = append(m.buffers, fieldRef)
		}
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/tick/{name}", m.tick)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/hangdetector/buffers", m.hangDetectorBuffers)
	r.HandleFunc("/api/hangdetector/channels", m.hangDetectorChannels)
	r.HandleFunc("/api/tiles", m.listTiles)
	r.HandleFunc("/api/tile/{name}/mailbox", m.tileMailbox)
	r.HandleFunc("/api/tile/{name}/channels", m.tileChannels)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.Assets()))

	return r
}

// StartServer starts the monitor as a web server. It returns the port the
// server listens on.
func (m *Monitor) StartServer() int {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Router())
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	return port
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%.10f,\"paused\":%t}",
		float64(now), m.engine.Paused())
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

type tickingComponent interface {
	TickLater()
}

func (m *Monitor) tick(w http.ResponseWriter, r *http.Request) {
	compName := mux.Vars(r)["name"]

	comp := m.findComponentOr404(w, compName)
	if comp == nil {
		return
	}

	tickingComp, ok := comp.(tickingComponent)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tickingComp.TickLater()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	if err := json.Unmarshal([]byte(jsonString), &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err := serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type bufferLevel struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
	Cap    int    `json:"cap"`
}

func (m *Monitor) hangDetectorBuffers(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := parseListParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	sorted := m.sortAndSelectBuffers(sortMethod, limit, offset)

	levels := make([]bufferLevel, 0, len(sorted))
	for _, b := range sorted {
		levels = append(levels, bufferLevel{
			Buffer: b.Name(),
			Level:  b.Size(),
			Cap:    b.Capacity(),
		})
	}

	writeJSON(w, levels)
}

func parseListParams(r *http.Request) (sort string, limit, offset int, err error) {
	sortMethod := r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, fmt.Errorf(
			"invalid sort method: %s. Allowed values are `level` and `percent`",
			sortMethod)
	}

	limit, err = intParam(r, "limit")
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offset, err = intParam(r, "offset")
	if err != nil {
		return sortMethod, limit, 0, err
	}

	if limit < 0 || offset < 0 {
		return sortMethod, 0, 0, errors.New("limit and offset must not be negative")
	}

	return sortMethod, limit, offset, nil
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}

	return strconv.Atoi(s)
}

// selectRange applies offset and limit to a list of n elements. A zero limit
// selects everything after the offset.
func selectRange(n, limit, offset int) (int, int) {
	start := min(offset, n)

	end := n
	if limit > 0 {
		end = min(start+limit, n)
	}

	return start, end
}

func bufferPercent(b sim.Buffer) float64 {
	if b.Capacity() == 0 {
		return 0
	}

	return float64(b.Size()) / float64(b.Capacity())
}

func (m *Monitor) sortAndSelectBuffers(
	sortMethod string,
	limit, offset int,
) []sim.Buffer {
	sorted := make([]sim.Buffer, len(m.buffers))
	copy(sorted, m.buffers)

	sort.SliceStable(sorted, func(i, j int) bool {
		sizeI, sizeJ := sorted[i].Size(), sorted[j].Size()
		percentI, percentJ := bufferPercent(sorted[i]), bufferPercent(sorted[j])

		if sortMethod == "level" {
			if sizeI != sizeJ {
				return sizeI > sizeJ
			}

			return percentI > percentJ
		}

		if percentI != percentJ {
			return percentI > percentJ
		}

		return sizeI > sizeJ
	})

	start, end := selectRange(len(sorted), limit, offset)

	return sorted[start:end]
}

type channelLevel struct {
	Tile string `json:"tile"`
	circularbuffer.Snapshot
}

func channelPercent(s circularbuffer.Snapshot) float64 {
	if s.Capacity == 0 {
		return 0
	}

	return float64(s.Available) / float64(s.Capacity)
}

// hangDetectorChannels lists the channels of all tiles, fullest first. A
// hung program shows up as a full channel whose consumer does not drain it
// or an empty channel whose producer does not fill it.
func (m *Monitor) hangDetectorChannels(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := parseListParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	var levels []channelLevel

	for _, t := range m.tiles {
		for _, s := range t.Channels() {
			levels = append(levels, channelLevel{Tile: t.Name(), Snapshot: s})
		}
	}

	sort.SliceStable(levels, func(i, j int) bool {
		if sortMethod == "level" {
			return levels[i].Available > levels[j].Available
		}

		return channelPercent(levels[i].Snapshot) >
			channelPercent(levels[j].Snapshot)
	})

	start, end := selectRange(len(levels), limit, offset)

	writeJSON(w, levels[start:end])
}

func (m *Monitor) listTiles(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.tiles))
	for _, t := range m.tiles {
		names = append(names, t.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) findTileOr404(w http.ResponseWriter, name string) TileView {
	for _, t := range m.tiles {
		if t.Name() == name {
			return t
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Tile not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) tileMailbox(w http.ResponseWriter, r *http.Request) {
	t := m.findTileOr404(w, mux.Vars(r)["name"])
	if t == nil {
		return
	}

	writeJSON(w, t.Roles())
}

func (m *Monitor) tileChannels(w http.ResponseWriter, r *http.Request) {
	t := m.findTileOr404(w, mux.Vars(r)["name"])
	if t == nil {
		return
	}

	writeJSON(w, t.Channels())
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBarState, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.State())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
