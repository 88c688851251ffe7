package sim

import (
	"log"
	"math"
)

// Freq is a clock frequency in Hz.
type Freq float64

// Frequency units.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period is the time of one cycle.
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("sim: zero frequency has no period")
	}

	return VTimeInSec(1 / f)
}

// Cycle is the number of the cycle that starts closest to t.
func (f Freq) Cycle(t VTimeInSec) uint64 {
	return uint64(math.Round(float64(t) * float64(f)))
}

// cycles converts now to cycles, rounded to a tenth of a cycle so that float
// error does not move a time that sits on a tick to the next one.
func (f Freq) cycles(now VTimeInSec) float64 {
	if math.IsNaN(float64(now)) {
		log.Panic("sim: time is NaN")
	}

	return math.Round(float64(now)*float64(f)*10) / 10
}

// ThisTick is now if now is on a tick, or else the next tick.
func (f Freq) ThisTick(now VTimeInSec) VTimeInSec {
	return VTimeInSec(math.Ceil(f.cycles(now)) / float64(f))
}

// NextTick is the first tick strictly after now.
func (f Freq) NextTick(now VTimeInSec) VTimeInSec {
	return VTimeInSec((math.Floor(f.cycles(now)) + 1) / float64(f))
}

// NCyclesLater is the tick n cycles after now.
func (f Freq) NCyclesLater(n int, now VTimeInSec) VTimeInSec {
	return f.ThisTick(now + VTimeInSec(float64(n)/float64(f)))
}
