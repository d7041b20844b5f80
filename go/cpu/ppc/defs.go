package ppc

// primary opcodes
const (
	OP_CMPI  = 11
	OP_ADDI  = 14
	OP_ADDIS = 15
	OP_BC    = 16
	OP_SC    = 17
	OP_B     = 18
	OP_XL    = 19
	OP_ORI   = 24
	OP_ORIS  = 25
	OP_X     = 31
	OP_LWZ   = 32
	OP_LBZ   = 34
	OP_STW   = 36
	OP_STB   = 38
	OP_LHZ   = 40
	OP_STH   = 44
	OP_LFD   = 50
	OP_STFD  = 54
)

// extended opcodes for OP_XL
const (
	XO_BCLR  = 16
	XO_BCCTR = 528
)

// extended opcodes for OP_X
const (
	XO_CMP   = 0
	XO_LWZX  = 23
	XO_STWX  = 151
	XO_ADD   = 266
	XO_MFSPR = 339
	XO_OR    = 444
	XO_MTSPR = 467
)

// special purpose registers reachable through mfspr/mtspr
const (
	SPR_XER = 1
	SPR_LR  = 8
	SPR_CTR = 9
)

// condition register field bits
const (
	CR_LT = 8
	CR_GT = 4
	CR_EQ = 2
	CR_SO = 1
)

const XER_SO = 1 << 31

func opcd(op uint32) uint32 { return op >> 26 }
func rD(op uint32) int      { return int(op>>21) & 31 }
func rA(op uint32) int      { return int(op>>16) & 31 }
func rB(op uint32) int      { return int(op>>11) & 31 }
func xo(op uint32) uint32   { return (op >> 1) & 0x3ff }
func simm(op uint32) int32  { return int32(int16(op)) }
func uimm(op uint32) uint32 { return op & 0xffff }

func spr(op uint32) int {
	return int(op>>16)&31 | (int(op>>11)&31)<<5
}

// sign-extended 26-bit branch displacement
func li(op uint32) int32 {
	return int32(op<<6) >> 6 &^ 3
}

// sign-extended 16-bit conditional branch displacement
func bd(op uint32) int32 {
	return int32(int16(op & 0xfffc))
}
