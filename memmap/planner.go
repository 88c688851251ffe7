// Package memmap computes the static partition of a tile's local memory.
//
// A layout is an ordered table of regions. A few regions sit at addresses
// fixed by convention; all other regions are placed one after another in
// request order, each rounded up to its alignment. Layouts are planned when
// the program is built and exposed to the rest of the module as constants
// (see memmap_gen.go). Nothing is allocated at run time.
package memmap

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned by the planner.
var (
	ErrCapacityExceeded = errors.New(
		"memmap: layout exceeds local memory capacity")
	ErrBadAlignment = errors.New(
		"memmap: alignment must be a non-zero power of two")
	ErrOverlap       = errors.New("memmap: regions overlap")
	ErrDuplicateName = errors.New("memmap: duplicate region name")
	ErrEmptyName     = errors.New("memmap: region name must not be empty")
)

// AlignUp rounds x up to the next multiple of align. The alignment must be a
// power of two.
func AlignUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}

func isPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

// A Request asks for a region of the given size and alignment.
type Request struct {
	Name  string
	Role  string
	Size  uint64
	Align uint64
}

// A Region is a placed, non-overlapping address range.
type Region struct {
	Name  string
	Role  string
	Base  uint64
	Size  uint64
	Align uint64
}

// End returns the first address after the region.
func (r Region) End() uint64 {
	return r.Base + r.Size
}

func (r Region) overlaps(o Region) bool {
	return r.Base < o.End() && o.Base < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s [0x%x, 0x%x)", r.Name, r.Base, r.End())
}

// A Layout is the result of planning. Regions are kept in ascending address
// order.
type Layout struct {
	Capacity uint64

	regions []Region
	index   map[string]int
}

// Region returns the region with the given name.
func (l Layout) Region(name string) (Region, bool) {
	i, found := l.index[name]
	if !found {
		return Region{}, false
	}

	return l.regions[i], true
}

// MustRegion returns the region with the given name and panics if it does
// not exist.
func (l Layout) MustRegion(name string) Region {
	r, found := l.Region(name)
	if !found {
		panic(fmt.Sprintf("memmap: no region named %q", name))
	}

	return r
}

// Regions returns a copy of all the regions in ascending address order.
func (l Layout) Regions() []Region {
	regions := make([]Region, len(l.regions))
	copy(regions, l.regions)

	return regions
}

// End returns the first address after the highest region.
func (l Layout) End() uint64 {
	end := uint64(0)
	for _, r := range l.regions {
		end = max(end, r.End())
	}

	return end
}

// Verify checks that the regions are aligned, pairwise disjoint, and within
// the capacity.
func (l Layout) Verify() error {
	var reach Region

	for i, r := range l.regions {
		if !isPowerOfTwo(r.Align) || r.Base%r.Align != 0 {
			return fmt.Errorf("%w: %s with alignment %d",
				ErrBadAlignment, r, r.Align)
		}

		if r.End() > l.Capacity || r.End() < r.Base {
			return fmt.Errorf("%w: %s, capacity 0x%x",
				ErrCapacityExceeded, r, l.Capacity)
		}

		if i > 0 && reach.overlaps(r) {
			return fmt.Errorf("%w: %s and %s", ErrOverlap, reach, r)
		}

		if i == 0 || r.End() > reach.End() {
			reach = r
		}
	}

	return nil
}

// A Planner places regions in a local memory of a fixed capacity.
type Planner struct {
	capacity uint64
	start    uint64
	fixed    []Region
	requests []Request
}

// NewPlanner creates a planner for a memory of the given capacity.
func NewPlanner(capacity uint64) *Planner {
	return &Planner{capacity: capacity}
}

// StartAt sets the lowest address that relative requests can use.
func (p *Planner) StartAt(offset uint64) *Planner {
	p.start = offset
	return p
}

// Fix places a region at an absolute address. Fixed regions never move,
// whatever else is requested.
func (p *Planner) Fix(region Region) *Planner {
	if region.Align == 0 {
		region.Align = 1
	}

	p.fixed = append(p.fixed, region)

	return p
}

// Add queues a relative request. Requests are placed in the order they are
// added, after the highest fixed region.
func (p *Planner) Add(req Request) *Planner {
	p.requests = append(p.requests, req)
	return p
}

// Plan places all the requests and returns the layout.
func (p *Planner) Plan() (Layout, error) {
	layout := Layout{
		Capacity: p.capacity,
		index:    make(map[string]int),
	}

	names := make(map[string]bool)
	cursor := p.start

	for _, r := range p.fixed {
		if err := checkName(names, r.Name); err != nil {
			return Layout{}, err
		}

		cursor = max(cursor, r.End())
		layout.regions = append(layout.regions, r)
	}

	for _, req := range p.requests {
		if err := checkName(names, req.Name); err != nil {
			return Layout{}, err
		}

		if !isPowerOfTwo(req.Align) {
			return Layout{}, fmt.Errorf("%w: %s requests alignment %d",
				ErrBadAlignment, req.Name, req.Align)
		}

		base := AlignUp(cursor, req.Align)
		if base < cursor || base > p.capacity || req.Size > p.capacity-base {
			return Layout{}, fmt.Errorf(
				"%w: %s needs 0x%x bytes at 0x%x, capacity 0x%x",
				ErrCapacityExceeded, req.Name, req.Size, base, p.capacity)
		}

		layout.regions = append(layout.regions, Region{
			Name:  req.Name,
			Role:  req.Role,
			Base:  base,
			Size:  req.Size,
			Align: req.Align,
		})
		cursor = base + req.Size
	}

	sort.SliceStable(layout.regions, func(i, j int) bool {
		return layout.regions[i].Base < layout.regions[j].Base
	})

	for i, r := range layout.regions {
		layout.index[r.Name] = i
	}

	if err := layout.Verify(); err != nil {
		return Layout{}, err
	}

	return layout, nil
}

func checkName(names map[string]bool, name string) error {
	if name == "" {
		return ErrEmptyName
	}

	if names[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	names[name] = true

	return nil
}
