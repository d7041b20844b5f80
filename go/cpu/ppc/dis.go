package ppc

import (
	"fmt"
	"strings"
)

type Ins struct {
	Addr uint32
	Op   uint32
	Name string
	Args []string
}

func (i *Ins) String() string {
	if len(i.Args) == 0 {
		return i.Name
	}
	return i.Name + " " + i.OpStr()
}

func (i *Ins) OpStr() string {
	return strings.Join(i.Args, ", ")
}

func gpr(n int) string           { return fmt.Sprintf("r%d", n) }
func fpr(n int) string           { return fmt.Sprintf("f%d", n) }
func hex(v int32) string         { return fmt.Sprintf("%#x", v) }
func disp(d int32, a int) string { return fmt.Sprintf("%d(%s)", d, gpr(a)) }

var loadStore = map[uint32]string{
	OP_LWZ: "lwz", OP_LBZ: "lbz", OP_LHZ: "lhz",
	OP_STW: "stw", OP_STB: "stb", OP_STH: "sth",
}

var sprNames = map[int]string{SPR_XER: "xer", SPR_LR: "lr", SPR_CTR: "ctr"}

// Dis decodes a single instruction word. Unknown encodings disassemble as .long.
func Dis(op, addr uint32) *Ins {
	ins := &Ins{Addr: addr, Op: op}
	set := func(name string, args ...string) *Ins {
		ins.Name, ins.Args = name, args
		return ins
	}
	switch opcd(op) {
	case OP_ADDI:
		if rA(op) == 0 {
			return set("li", gpr(rD(op)), hex(simm(op)))
		}
		return set("addi", gpr(rD(op)), gpr(rA(op)), hex(simm(op)))
	case OP_ADDIS:
		if rA(op) == 0 {
			return set("lis", gpr(rD(op)), hex(int32(uimm(op))))
		}
		return set("addis", gpr(rD(op)), gpr(rA(op)), hex(simm(op)))
	case OP_ORI:
		if op == Nop() {
			return set("nop")
		}
		return set("ori", gpr(rA(op)), gpr(rD(op)), hex(int32(uimm(op))))
	case OP_ORIS:
		return set("oris", gpr(rA(op)), gpr(rD(op)), hex(int32(uimm(op))))
	case OP_CMPI:
		return set("cmpwi", fmt.Sprintf("cr%d", rD(op)>>2), gpr(rA(op)), hex(simm(op)))
	case OP_LWZ, OP_LBZ, OP_LHZ, OP_STW, OP_STB, OP_STH:
		return set(loadStore[opcd(op)], gpr(rD(op)), disp(simm(op), rA(op)))
	case OP_LFD:
		return set("lfd", fpr(rD(op)), disp(simm(op), rA(op)))
	case OP_STFD:
		return set("stfd", fpr(rD(op)), disp(simm(op), rA(op)))
	case OP_SC:
		return set("sc")
	case OP_B:
		name := "b"
		if op&1 != 0 {
			name += "l"
		}
		if op&2 != 0 {
			name += "a"
			return set(name, hex(li(op)))
		}
		return set(name, hex(int32(addr)+li(op)))
	case OP_BC:
		if rD(op) == 16 {
			return set("bdnz", hex(int32(addr)+bd(op)))
		}
		return set("bc", fmt.Sprint(rD(op)), fmt.Sprint(rA(op)), hex(int32(addr)+bd(op)))
	case OP_XL:
		switch xo(op) {
		case XO_BCLR:
			if rD(op) == 20 {
				return set("blr")
			}
			return set("bclr", fmt.Sprint(rD(op)), fmt.Sprint(rA(op)))
		case XO_BCCTR:
			if rD(op) == 20 {
				return set("bctr")
			}
			return set("bcctr", fmt.Sprint(rD(op)), fmt.Sprint(rA(op)))
		}
	case OP_X:
		switch xo(op) {
		case XO_ADD:
			return set("add", gpr(rD(op)), gpr(rA(op)), gpr(rB(op)))
		case XO_OR:
			if rD(op) == rB(op) {
				return set("mr", gpr(rA(op)), gpr(rD(op)))
			}
			return set("or", gpr(rA(op)), gpr(rD(op)), gpr(rB(op)))
		case XO_CMP:
			return set("cmpw", fmt.Sprintf("cr%d", rD(op)>>2), gpr(rA(op)), gpr(rB(op)))
		case XO_LWZX:
			return set("lwzx", gpr(rD(op)), gpr(rA(op)), gpr(rB(op)))
		case XO_STWX:
			return set("stwx", gpr(rD(op)), gpr(rA(op)), gpr(rB(op)))
		case XO_MFSPR:
			if name, ok := sprNames[spr(op)]; ok {
				return set("mf"+name, gpr(rD(op)))
			}
			return set("mfspr", gpr(rD(op)), fmt.Sprint(spr(op)))
		case XO_MTSPR:
			if name, ok := sprNames[spr(op)]; ok {
				return set("mt"+name, gpr(rD(op)))
			}
			return set("mtspr", fmt.Sprint(spr(op)), gpr(rD(op)))
		}
	}
	return set(".long", fmt.Sprintf("%#08x", op))
}
