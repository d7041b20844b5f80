package ppc

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sheepshaver/sheepbug/go/models"
	"github.com/sheepshaver/sheepbug/go/models/cpu"
)

// DecodeHook is called once per instruction, after fetch and before execution.
type DecodeHook interface {
	OnDecode(pc, opcode uint32) error
}

// Hooks is everything the interpreter reports to a debugger.
type Hooks interface {
	DecodeHook
	cpu.MemObserver
}

type IllegalError struct {
	Addr uint32
	Op   uint32
}

func (e *IllegalError) Error() string {
	return fmt.Sprintf("illegal instruction %#08x at %#x", e.Op, e.Addr)
}

// Cpu is a small 32-bit big-endian PowerPC interpreter covering integer
// arithmetic, loads/stores, branches and the lr/ctr/xer special registers.
type Cpu struct {
	*cpu.Mem

	regs  Regs
	hooks DecodeHook
	steps uint64
}

func NewCpu() *Cpu {
	return &Cpu{Mem: cpu.NewMem(binary.BigEndian)}
}

// Attach routes decode and data access events to h.
func (c *Cpu) Attach(h Hooks) {
	c.hooks = h
	c.Mem.SetObserver(h)
}

func (c *Cpu) Regs() *Regs                  { return &c.regs }
func (c *Cpu) Snapshot() Regs               { return c.regs }
func (c *Cpu) Steps() uint64                { return c.steps }
func (c *Cpu) SetPc(pc uint32)              { c.regs.Pc = pc }
func (c *Cpu) SetGpr(i int, v uint32)       { c.regs.Gpr[i] = v }
func (c *Cpu) Disas(op, addr uint32) string { return Dis(op, addr).String() }

// these implement the debugger's read-only view of the register file
func (c *Cpu) Gpr(i int) uint32  { return c.regs.Gpr[i] }
func (c *Cpu) Fpr(i int) float64 { return c.regs.Fpr[i] }
func (c *Cpu) Fpscr() uint32     { return c.regs.Fpscr }
func (c *Cpu) Cr() uint32        { return c.regs.Cr }
func (c *Cpu) Xer() uint32       { return c.regs.Xer }
func (c *Cpu) Lr() uint32        { return c.regs.Lr }
func (c *Cpu) Ctr() uint32       { return c.regs.Ctr }
func (c *Cpu) Pc() uint32        { return c.regs.Pc }

// Run steps until the program exits, an error occurs, ctx is cancelled or
// max steps have run (0 means no limit).
func (c *Cpu) Run(ctx context.Context, max uint64) error {
	for i := uint64(0); max == 0 || i < max; i++ {
		if i&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step fetches, reports and executes one instruction.
func (c *Cpu) Step() error {
	pc := c.regs.Pc
	word, err := c.ReadUint(pc, 4, cpu.PROT_EXEC)
	if err != nil {
		return err
	}
	op := uint32(word)
	if c.hooks != nil {
		if err := c.hooks.OnDecode(pc, op); err != nil {
			return err
		}
	}
	next, err := c.exec(pc, op)
	if err != nil {
		return err
	}
	c.regs.Pc = next
	c.steps++
	return nil
}

// effective address for D-form loads and stores
func (c *Cpu) ea(op uint32) uint32 {
	base := uint32(0)
	if a := rA(op); a != 0 {
		base = c.regs.Gpr[a]
	}
	return base + uint32(simm(op))
}

var accessSize = map[uint32]int{
	OP_LWZ: 4, OP_LHZ: 2, OP_LBZ: 1,
	OP_STW: 4, OP_STH: 2, OP_STB: 1,
}

func (c *Cpu) load(addr uint32, size int) (uint32, error) {
	v, err := c.ReadUint(addr, size, cpu.PROT_READ)
	return uint32(v), err
}

func (c *Cpu) store(addr uint32, size int, val uint32) error {
	return c.WriteUint(addr, size, cpu.PROT_WRITE, uint64(val))
}

func (c *Cpu) compare(crf int, a, b int32) {
	var v uint32
	switch {
	case a < b:
		v = CR_LT
	case a > b:
		v = CR_GT
	default:
		v = CR_EQ
	}
	if c.regs.Xer&XER_SO != 0 {
		v |= CR_SO
	}
	c.regs.setCrField(crf, v)
}

// branchTaken evaluates the BO/BI fields of a conditional branch, decrementing ctr if asked.
func (c *Cpu) branchTaken(op uint32) bool {
	bo, bi := rD(op), rA(op)
	ctrOk := true
	if bo&4 == 0 {
		c.regs.Ctr--
		ctrOk = (c.regs.Ctr != 0) != (bo&2 != 0)
	}
	condOk := bo&16 != 0 || c.regs.crBit(bi) == (bo&8 != 0)
	return ctrOk && condOk
}

func (c *Cpu) exec(pc, op uint32) (uint32, error) {
	r := &c.regs
	next := pc + 4
	var err error
	switch opcd(op) {
	case OP_ADDI:
		r.Gpr[rD(op)] = c.ea(op)
	case OP_ADDIS:
		base := uint32(0)
		if a := rA(op); a != 0 {
			base = r.Gpr[a]
		}
		r.Gpr[rD(op)] = base + uimm(op)<<16
	case OP_ORI:
		r.Gpr[rA(op)] = r.Gpr[rD(op)] | uimm(op)
	case OP_ORIS:
		r.Gpr[rA(op)] = r.Gpr[rD(op)] | uimm(op)<<16
	case OP_CMPI:
		c.compare(rD(op)>>2, int32(r.Gpr[rA(op)]), simm(op))

	case OP_LWZ, OP_LHZ, OP_LBZ:
		var v uint32
		if v, err = c.load(c.ea(op), accessSize[opcd(op)]); err == nil {
			r.Gpr[rD(op)] = v
		}
	case OP_STW, OP_STH, OP_STB:
		err = c.store(c.ea(op), accessSize[opcd(op)], r.Gpr[rD(op)])
	case OP_LFD:
		var v uint64
		if v, err = c.ReadUint(c.ea(op), 8, cpu.PROT_READ); err == nil {
			r.Fpr[rD(op)] = math.Float64frombits(v)
		}
	case OP_STFD:
		err = c.WriteUint(c.ea(op), 8, cpu.PROT_WRITE, math.Float64bits(r.Fpr[rD(op)]))

	case OP_SC:
		return pc, models.ExitStatus(r.Gpr[3])
	case OP_B:
		target := uint32(li(op))
		if op&2 == 0 {
			target += pc
		}
		if op&1 != 0 {
			r.Lr = next
		}
		next = target
	case OP_BC:
		if c.branchTaken(op) {
			target := uint32(bd(op))
			if op&2 == 0 {
				target += pc
			}
			if op&1 != 0 {
				r.Lr = next
			}
			next = target
		}
	case OP_XL:
		switch xo(op) {
		case XO_BCLR:
			target := r.Lr &^ 3
			if c.branchTaken(op) {
				if op&1 != 0 {
					r.Lr = next
				}
				next = target
			}
		case XO_BCCTR:
			if c.branchTaken(op|4<<21) {
				if op&1 != 0 {
					r.Lr = next
				}
				next = r.Ctr &^ 3
			}
		default:
			return pc, &IllegalError{Addr: pc, Op: op}
		}
	case OP_X:
		err = c.execX(pc, op)
	default:
		return pc, &IllegalError{Addr: pc, Op: op}
	}
	if err != nil {
		return pc, err
	}
	return next, nil
}

func (c *Cpu) execX(pc, op uint32) error {
	r := &c.regs
	var err error
	switch xo(op) {
	case XO_ADD:
		r.Gpr[rD(op)] = r.Gpr[rA(op)] + r.Gpr[rB(op)]
	case XO_OR:
		r.Gpr[rA(op)] = r.Gpr[rD(op)] | r.Gpr[rB(op)]
	case XO_CMP:
		c.compare(rD(op)>>2, int32(r.Gpr[rA(op)]), int32(r.Gpr[rB(op)]))
	case XO_LWZX, XO_STWX:
		addr := r.Gpr[rB(op)]
		if a := rA(op); a != 0 {
			addr += r.Gpr[a]
		}
		if xo(op) == XO_LWZX {
			var v uint32
			if v, err = c.load(addr, 4); err == nil {
				r.Gpr[rD(op)] = v
			}
		} else {
			err = c.store(addr, 4, r.Gpr[rD(op)])
		}
	case XO_MFSPR:
		switch spr(op) {
		case SPR_XER:
			r.Gpr[rD(op)] = r.Xer
		case SPR_LR:
			r.Gpr[rD(op)] = r.Lr
		case SPR_CTR:
			r.Gpr[rD(op)] = r.Ctr
		default:
			return &IllegalError{Addr: pc, Op: op}
		}
	case XO_MTSPR:
		switch spr(op) {
		case SPR_XER:
			r.Xer = r.Gpr[rD(op)]
		case SPR_LR:
			r.Lr = r.Gpr[rD(op)]
		case SPR_CTR:
			r.Ctr = r.Gpr[rD(op)]
		default:
			return &IllegalError{Addr: pc, Op: op}
		}
	default:
		return &IllegalError{Addr: pc, Op: op}
	}
	return err
}
