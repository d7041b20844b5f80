package ppc

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

type RegVal struct {
	Name string
	Val  uint32
}

// Named lists the integer and special registers in display order.
func (r *Regs) Named() []RegVal {
	out := make([]RegVal, 0, len(r.Gpr)+6)
	for i, v := range r.Gpr {
		out = append(out, RegVal{fmt.Sprintf("r%d", i), v})
	}
	return append(out,
		RegVal{"pc", r.Pc}, RegVal{"lr", r.Lr}, RegVal{"ctr", r.Ctr},
		RegVal{"cr", r.Cr}, RegVal{"xer", r.Xer}, RegVal{"fpsc", r.Fpscr},
	)
}

func colorPad(s, color string, pad int) string {
	length := len(s)
	s = color + s + ansi.Reset
	if length < pad {
		s = strings.Repeat(" ", pad-length) + s
	}
	return s
}

type Change struct {
	Name     string
	Old, New uint32
}

func (c *Change) Changed() bool { return c.Old != c.New }

// String renders the new value, highlighting the hex digits that differ from
// the old one when color is set.
func (c *Change) String(color bool) string {
	s := fmt.Sprintf("%08x", c.New)
	if !c.Changed() {
		return fmt.Sprintf(" %4s 0x%s", c.Name, s)
	}
	if !color {
		return fmt.Sprintf("+%4s 0x%s", c.Name, s)
	}
	old := fmt.Sprintf("%08x", c.Old)
	var b strings.Builder
	fmt.Fprintf(&b, " %s 0x", colorPad(c.Name, chNew, 4))
	for i := range s {
		if s[i] != old[i] {
			b.WriteString(chNew)
		} else {
			b.WriteString(chSame)
		}
		b.WriteByte(s[i])
	}
	b.WriteString(ansi.Reset)
	return b.String()
}

type Changes []*Change

// String lays the changes out column-wise, four to a row.
func (cs Changes) String(color bool) string {
	const cols = 4
	rows := (len(cs) + cols - 1) / cols
	var b strings.Builder
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if k := j*rows + i; k < len(cs) {
				b.WriteString(cs[k].String(color))
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (cs Changes) Count() int {
	n := 0
	for _, c := range cs {
		if c.Changed() {
			n++
		}
	}
	return n
}

func (cs Changes) Find(name string) *Change {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Snapshotter is any backend that can copy out its register file.
type Snapshotter interface {
	Snapshot() Regs
}

// StatusDiff tracks register changes between calls to Changes.
type StatusDiff struct {
	cpu  Snapshotter
	prev *Regs
}

func NewStatusDiff(c Snapshotter) *StatusDiff {
	return &StatusDiff{cpu: c}
}

// Changes compares the current registers with those seen by the previous call.
// The first call compares against zero.
func (s *StatusDiff) Changes(onlyChanged bool) Changes {
	cur := s.cpu.Snapshot()
	var prev []RegVal
	if s.prev != nil {
		prev = s.prev.Named()
	}
	var cs Changes
	for i, reg := range cur.Named() {
		c := &Change{Name: reg.Name, New: reg.Val}
		if prev != nil {
			c.Old = prev[i].Val
		}
		if !onlyChanged || c.Changed() {
			cs = append(cs, c)
		}
	}
	s.prev = &cur
	return cs
}
