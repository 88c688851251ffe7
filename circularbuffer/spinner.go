package circularbuffer

import "runtime"

// A Spinner performs one step of a polling loop.
type Spinner interface {
	Spin()
}

// SpinnerFunc adapts a function to the Spinner interface.
type SpinnerFunc func()

// Spin calls f.
func (f SpinnerFunc) Spin() {
	f()
}

// GoschedSpinner yields the processor on every step. It is the spinner for
// producers and consumers that run in their own goroutines.
type GoschedSpinner struct{}

// Spin yields.
func (GoschedSpinner) Spin() {
	runtime.Gosched()
}
