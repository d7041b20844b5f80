package cpu

import (
	"fmt"
	"sort"
	"strings"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// Region is one contiguous mapping of guest memory.
type Region struct {
	Addr uint64
	Size uint64
	Prot int
	Desc string
	Data []byte
}

func (r *Region) End() uint64 {
	return r.Addr + r.Size
}

func (r *Region) Contains(addr uint64) bool {
	return addr >= r.Addr && addr < r.End()
}

func (r *Region) String() string {
	prot := []byte("---")
	for i, c := range "rwx" {
		if r.Prot&(1<<uint(i)) != 0 {
			prot[i] = byte(c)
		}
	}
	desc := fmt.Sprintf("%#x-%#x %s", r.Addr, r.End(), prot)
	if r.Desc != "" {
		desc += fmt.Sprintf(" [%s]", r.Desc)
	}
	return desc
}

// cut returns the parts of r outside of [addr, addr+size), sharing r's backing data.
func (r *Region) cut(addr, size uint64) (left, right *Region) {
	end := addr + size
	if addr > r.Addr {
		n := addr - r.Addr
		left = &Region{Addr: r.Addr, Size: n, Prot: r.Prot, Desc: r.Desc, Data: r.Data[:n]}
	}
	if end < r.End() {
		o := end - r.Addr
		right = &Region{Addr: end, Size: r.End() - end, Prot: r.Prot, Desc: r.Desc, Data: r.Data[o:]}
	}
	return left, right
}

type Regions []*Region

func (rs Regions) String() string {
	s := make([]string, len(rs))
	for i, r := range rs {
		s[i] = r.String()
	}
	return strings.Join(s, "\n")
}

// MemSim is a sorted, non-overlapping set of regions.
type MemSim struct {
	regions Regions
}

// index of the region containing addr, or -1
func (m *MemSim) find(addr uint64) int {
	i := sort.Search(len(m.regions), func(i int) bool {
		return m.regions[i].End() > addr
	})
	if i < len(m.regions) && m.regions[i].Contains(addr) {
		return i
	}
	return -1
}

func (m *MemSim) Regions() Regions {
	return append(Regions(nil), m.regions...)
}

// Checks whether the address range exists in the currently-mapped memory.
// If prot > 0, ensures that each region has the entire protection mask provided.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.find(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, r := range m.regions[first:] {
		if !r.Contains(addr) {
			break
		}
		if prot > 0 && r.Prot&prot != prot {
			protGood = false
		}
		addr = r.End()
		if addr >= end {
			break
		}
	}
	return addr >= end, protGood
}

// Map maps a zeroed region at addr, replacing anything it overlaps.
func (m *MemSim) Map(addr, size uint64, prot int, desc string) *Region {
	m.Unmap(addr, size)
	r := &Region{Addr: addr, Size: size, Prot: prot, Desc: desc, Data: make([]byte, size)}
	m.regions = append(m.regions, r)
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].Addr < m.regions[j].Addr })
	return r
}

// Unmap removes every mapped byte in [addr, addr+size), splitting regions
// that straddle either end.
func (m *MemSim) Unmap(addr, size uint64) {
	end := addr + size
	out := make(Regions, 0, len(m.regions)+2)
	for _, r := range m.regions {
		if r.End() <= addr || r.Addr >= end {
			out = append(out, r)
			continue
		}
		left, right := r.cut(addr, size)
		if left != nil {
			out = append(out, left)
		}
		if right != nil {
			out = append(out, right)
		}
	}
	m.regions = out
}

func (m *MemSim) check(addr uint64, n, prot int, unmapped, protected int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(n), prot); !gmap {
		return &MemError{Addr: addr, Size: n, Enum: unmapped}
	} else if !gprot {
		return &MemError{Addr: addr, Size: n, Enum: protected}
	}
	return nil
}

// Read fills p from guest memory at addr. A prot of 0 skips protection checks.
func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	unmapped, protected := MEM_READ_UNMAPPED, MEM_READ_PROT
	if prot&PROT_EXEC == PROT_EXEC {
		unmapped, protected = MEM_FETCH_UNMAPPED, MEM_FETCH_PROT
	}
	if err := m.check(addr, len(p), prot, unmapped, protected); err != nil {
		return err
	}
	for i := m.find(addr); i >= 0 && i < len(m.regions) && len(p) > 0; i++ {
		r := m.regions[i]
		n := copy(p, r.Data[addr-r.Addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

// Write copies p into guest memory at addr. A prot of 0 skips protection checks.
func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if err := m.check(addr, len(p), prot, MEM_WRITE_UNMAPPED, MEM_WRITE_PROT); err != nil {
		return err
	}
	for i := m.find(addr); i >= 0 && i < len(m.regions) && len(p) > 0; i++ {
		r := m.regions[i]
		n := copy(r.Data[addr-r.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}
