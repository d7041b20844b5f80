package ppc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDis(t *testing.T) {
	tests := []struct {
		op   uint32
		addr uint32
		out  string
	}{
		{Li(3, 1), 0, "li r3, 0x1"},
		{Addi(1, 1, -16), 0, "addi r1, r1, -0x10"},
		{Lis(4, 0x1234), 0, "lis r4, 0x1234"},
		{Nop(), 0, "nop"},
		{Lwz(3, 1, 8), 0, "lwz r3, 8(r1)"},
		{Stw(0, 1, -4), 0, "stw r0, -4(r1)"},
		{Lfd(1, 3, 0), 0, "lfd f1, 0(r3)"},
		{Mr(3, 4), 0, "mr r3, r4"},
		{Add(3, 4, 5), 0, "add r3, r4, r5"},
		{Mflr(0), 0, "mflr r0"},
		{Mtctr(9), 0, "mtctr r9"},
		{Blr(), 0, "blr"},
		{Bctr(), 0, "bctr"},
		{Sc(), 0, "sc"},
		{B(0x10, false), 0x2000, "b 0x2010"},
		{B(-4, true), 0x2000, "bl 0x1ffc"},
		{Bdnz(-8), 0x14, "bdnz 0xc"},
		{Cmpwi(0, 3, 5), 0, "cmpwi cr0, r3, 0x5"},
		{0xfc000000, 0, ".long 0xfc000000"},
	}
	for _, test := range tests {
		assert.Equal(t, test.out, Dis(test.op, test.addr).String(), "%#08x", test.op)
	}
}
