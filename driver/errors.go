// Package driver is the host side of the device. It builds the simulated
// device, places buffers in DRAM, assembles programs, launches them, and
// waits for the roles to report completion.
package driver

import "errors"

// Errors returned by the driver.
var (
	// ErrTimeout is returned by Finish when the context expires before all
	// the roles are done. The device is left paused where it was.
	ErrTimeout = errors.New("driver: timed out waiting for the device")

	// ErrIncomplete is returned by Finish when the device went idle while
	// some role had not reported DONE.
	ErrIncomplete = errors.New("driver: device stopped before all roles were done")

	// ErrKernelFailed is returned by Finish when a role could not start its
	// kernel.
	ErrKernelFailed = errors.New("driver: kernel failed to start")

	ErrNoSuchCore             = errors.New("driver: no such core")
	ErrL1Exhausted            = errors.New("driver: not enough L1")
	ErrDRAMExhausted          = errors.New("driver: not enough DRAM")
	ErrCircularBufferConflict = errors.New("driver: circular buffer conflict")
	ErrInvalidBuffer          = errors.New("driver: invalid buffer")

	// ErrBusy is returned by Launch when a previous program is still
	// running.
	ErrBusy = errors.New("driver: device is busy")
)
