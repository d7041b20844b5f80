package ppc

import "encoding/binary"

// Encoders for the instruction subset understood by the interpreter.

func dform(op uint32, d, a int, imm uint16) uint32 {
	return op<<26 | uint32(d&31)<<21 | uint32(a&31)<<16 | uint32(imm)
}

func xform(op uint32, d, a, b int, x uint32) uint32 {
	return op<<26 | uint32(d&31)<<21 | uint32(a&31)<<16 | uint32(b&31)<<11 | x<<1
}

func Addi(d, a int, v int16) uint32   { return dform(OP_ADDI, d, a, uint16(v)) }
func Addis(d, a int, v int16) uint32  { return dform(OP_ADDIS, d, a, uint16(v)) }
func Li(d int, v int16) uint32        { return Addi(d, 0, v) }
func Lis(d int, v uint16) uint32      { return dform(OP_ADDIS, d, 0, v) }
func Ori(a, s int, v uint16) uint32   { return dform(OP_ORI, s, a, v) }
func Oris(a, s int, v uint16) uint32  { return dform(OP_ORIS, s, a, v) }
func Nop() uint32                     { return Ori(0, 0, 0) }
func Lwz(d, a int, off int16) uint32  { return dform(OP_LWZ, d, a, uint16(off)) }
func Lbz(d, a int, off int16) uint32  { return dform(OP_LBZ, d, a, uint16(off)) }
func Lhz(d, a int, off int16) uint32  { return dform(OP_LHZ, d, a, uint16(off)) }
func Stw(s, a int, off int16) uint32  { return dform(OP_STW, s, a, uint16(off)) }
func Stb(s, a int, off int16) uint32  { return dform(OP_STB, s, a, uint16(off)) }
func Sth(s, a int, off int16) uint32  { return dform(OP_STH, s, a, uint16(off)) }
func Lfd(d, a int, off int16) uint32  { return dform(OP_LFD, d, a, uint16(off)) }
func Stfd(s, a int, off int16) uint32 { return dform(OP_STFD, s, a, uint16(off)) }
func Cmpwi(crf, a int, v int16) uint32 {
	return dform(OP_CMPI, crf<<2, a, uint16(v))
}
func Add(d, a, b int) uint32  { return xform(OP_X, d, a, b, XO_ADD) }
func Or(a, s, b int) uint32   { return xform(OP_X, s, a, b, XO_OR) }
func Mr(a, s int) uint32      { return Or(a, s, s) }
func Lwzx(d, a, b int) uint32 { return xform(OP_X, d, a, b, XO_LWZX) }
func Stwx(s, a, b int) uint32 { return xform(OP_X, s, a, b, XO_STWX) }
func Sc() uint32              { return OP_SC<<26 | 2 }

func Mfspr(d, n int) uint32 { return xform(OP_X, d, n&31, n>>5, XO_MFSPR) }
func Mtspr(n, s int) uint32 { return xform(OP_X, s, n&31, n>>5, XO_MTSPR) }
func Mflr(d int) uint32     { return Mfspr(d, SPR_LR) }
func Mtlr(s int) uint32     { return Mtspr(SPR_LR, s) }
func Mtctr(s int) uint32    { return Mtspr(SPR_CTR, s) }

// B encodes a relative branch; off is a byte displacement.
func B(off int32, link bool) uint32 {
	op := OP_B<<26 | uint32(off)&0x03fffffc
	if link {
		op |= 1
	}
	return op
}

// Bc encodes a relative conditional branch.
func Bc(bo, bi int, off int16) uint32 {
	return dform(OP_BC, bo, bi, uint16(off)&0xfffc)
}

func Blr() uint32           { return xform(OP_XL, 20, 0, 0, XO_BCLR) }
func Bctr() uint32          { return xform(OP_XL, 20, 0, 0, XO_BCCTR) }
func Bdnz(off int16) uint32 { return Bc(16, 0, off) }

// Assemble packs instruction words into big-endian bytes.
func Assemble(words ...uint32) []byte {
	p := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(p[i*4:], w)
	}
	return p
}
