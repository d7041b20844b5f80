package ppc

import (
	"fmt"
	"strings"
)

// Regs is the user-visible register file of a 32-bit PowerPC.
type Regs struct {
	Gpr   [32]uint32
	Fpr   [32]float64
	Fpscr uint32
	Cr    uint32
	Xer   uint32
	Lr    uint32
	Ctr   uint32
	Pc    uint32
}

func (r *Regs) String() string {
	var b strings.Builder
	for i, v := range r.Gpr {
		fmt.Fprintf(&b, "r%-2d = %#08x", i, v)
		if i%4 == 3 {
			b.WriteByte('\n')
		} else {
			b.WriteString("  ")
		}
	}
	fmt.Fprintf(&b, "pc  = %#08x  lr  = %#08x  ctr = %#08x\n", r.Pc, r.Lr, r.Ctr)
	fmt.Fprintf(&b, "cr  = %#08x  xer = %#08x  fpscr = %#08x\n", r.Cr, r.Xer, r.Fpscr)
	return b.String()
}

// crField returns the 4-bit condition register field n (0 is the most significant).
func (r *Regs) crField(n int) uint32 {
	return (r.Cr >> uint(28-4*n)) & 0xf
}

func (r *Regs) setCrField(n int, v uint32) {
	shift := uint(28 - 4*n)
	r.Cr = r.Cr&^(0xf<<shift) | (v&0xf)<<shift
}

// crBit returns condition register bit n, numbered from the most significant bit.
func (r *Regs) crBit(n int) bool {
	return (r.Cr>>uint(31-n))&1 == 1
}
