package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarchlab/tilestream/circularbuffer"
	"github.com/sarchlab/tilestream/kernel"
	"github.com/sarchlab/tilestream/monitoring"
	"github.com/sarchlab/tilestream/noc"
	"github.com/sarchlab/tilestream/sim"
)

// Launch places a program on the device and starts its roles. It writes
// the channel table, the runtime arguments and the completion words into the
// mailbox of every tile the program uses, resets the channel counters,
// writes the launch word and rings the doorbell of every role that has a
// kernel.
func (d *Device) Launch(p *Program) error {
	if p.device != d {
		return fmt.Errorf("%w: program built for another device", ErrNoSuchCore)
	}

	if d.running() {
		return ErrBusy
	}

	for _, c := range p.coords() {
		t := d.tileAt[c]
		if err := d.prepareTile(t, p.tiles[c]); err != nil {
			return err
		}
	}

	for _, c := range p.coords() {
		t := d.tileAt[c]
		if err := t.L1.WriteUint32(kernel.LaunchAddr, kernel.LaunchGo); err != nil {
			return err
		}

		for r, k := range p.tiles[c].kernels {
			if k != nil {
				t.Cores[r].RingDoorbell()
			}
		}
	}

	d.launched = p

	slog.Info("program launched", "tiles", len(p.tiles))

	return nil
}

func (d *Device) running() bool {
	for _, t := range d.tiles {
		for _, c := range t.Cores {
			s := c.State()
			if s == kernel.StateInit || s == kernel.StateStreamLoop {
				return true
			}
		}
	}

	return false
}

func (d *Device) prepareTile(t *Tile, tp *tileProgram) error {
	if err := t.L1.WriteUint32(kernel.LaunchAddr, 0); err != nil {
		return err
	}

	empty := make([]byte, circularbuffer.ConfigEntryBytes)
	for id := uint32(0); id < circularbuffer.MaxChannels; id++ {
		entry := empty
		if cfg, found := tp.channels[id]; found {
			entry = cfg.Encode()
		}

		if err := t.L1.Write(kernel.ChannelConfigAddr(id), entry); err != nil {
			return err
		}
	}

	t.Registers.ResetAll()

	for r := kernel.Role(0); r < kernel.NumRoles; r++ {
		buf, err := tp.args[r].Encode()
		if err != nil {
			return err
		}

		base, _ := r.ArgsRegion()
		if err := t.L1.Write(base, buf); err != nil {
			return err
		}

		if err := t.L1.WriteUint32(r.CompletionAddr(),
			uint32(kernel.StatusIdle)); err != nil {
			return err
		}

		core := t.Cores[r]
		core.Reset()
		core.Load(tp.kernels[r])
	}

	return nil
}

// RoleResult is the outcome of one role of a launched program.
type RoleResult struct {
	Tile      noc.Coord
	Role      kernel.Role
	Kernel    string
	Status    kernel.Status
	Blocks    int64
	NumBlocks int64
	Err       error
}

// Result is the outcome of a launched program.
type Result struct {
	Roles []RoleResult
	Time  sim.VTimeInSec
}

// Done tells whether every role reported DONE.
func (r Result) Done() bool {
	for _, role := range r.Roles {
		if role.Status != kernel.StatusDone {
			return false
		}
	}

	return true
}

func (r Result) err() error {
	var errs []error

	for _, role := range r.Roles {
		switch role.Status {
		case kernel.StatusDone:
		case kernel.StatusFailed:
			errs = append(errs, fmt.Errorf("%w: %s %s: %w",
				ErrKernelFailed, role.Tile, role.Role, role.Err))
		default:
			errs = append(errs, fmt.Errorf("%w: %s %s is %s",
				ErrIncomplete, role.Tile, role.Role, role.Status))
		}
	}

	return errors.Join(errs...)
}

// Finish runs the device until every role of the launched program is done,
// or until ctx expires. On expiry the engine is paused and ErrTimeout is
// returned along with the state of the roles at that point.
func (d *Device) Finish(ctx context.Context) (Result, error) {
	if d.launched == nil {
		return Result{}, fmt.Errorf("%w: nothing launched", ErrIncomplete)
	}

	var bar *monitoring.ProgressBar
	if d.monitor != nil {
		bar = d.monitor.CreateProgressBar("Roles", uint64(d.numLaunchedRoles()))
		defer d.monitor.CompleteProgressBar(bar)
	}

	done := make(chan error, 1)
	go func() {
		done <- d.engine.Run()
	}()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				return Result{}, err
			}

			res := d.collect()

			return res, res.err()
		case <-ctx.Done():
			d.engine.Pause()
			res := d.collect()

			slog.Warn("device timed out", "time", res.Time, "cause", ctx.Err())

			return res, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		case <-ticker.C:
			if bar != nil {
				d.updateProgress(bar)
			}
		}
	}
}

func (d *Device) numLaunchedRoles() int {
	n := 0

	for _, tp := range d.launched.tiles {
		for _, k := range tp.kernels {
			if k != nil {
				n++
			}
		}
	}

	return n
}

// updateProgress runs while the engine does. It only reads the mailbox,
// which is safe to share.
func (d *Device) updateProgress(bar *monitoring.ProgressBar) {
	var finished, inProgress uint64

	for c, tp := range d.launched.tiles {
		t := d.tileAt[c]

		for r, k := range tp.kernels {
			if k == nil {
				continue
			}

			switch t.Status(kernel.Role(r)) {
			case kernel.StatusDone, kernel.StatusFailed:
				finished++
			case kernel.StatusRunning:
				inProgress++
			}
		}
	}

	bar.Set(finished, inProgress)
}

func (d *Device) collect() Result {
	res := Result{Time: d.engine.CurrentTime()}

	for _, c := range d.launched.coords() {
		t := d.tileAt[c]

		for r, k := range d.launched.tiles[c].kernels {
			if k == nil {
				continue
			}

			role := kernel.Role(r)
			core := t.Cores[r]
			done, total := core.Progress()

			res.Roles = append(res.Roles, RoleResult{
				Tile:      c,
				Role:      role,
				Kernel:    k.Name(),
				Status:    t.Status(role),
				Blocks:    done,
				NumBlocks: total,
				Err:       core.Err(),
			})
		}
	}

	return res
}
