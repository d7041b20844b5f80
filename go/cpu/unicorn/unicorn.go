//go:build unicorn

package unicorn

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/models"
)

const pageSize = 0x1000

var order = binary.BigEndian

// access is a data access seen by unicorn, reported once the instruction
// that made it has finished.
type access struct {
	write bool
	size  int
	addr  uint32
}

// Cpu is a 32-bit big-endian PowerPC backed by unicorn. Decode events come
// from HOOK_CODE, data accesses from HOOK_MEM_READ and HOOK_MEM_WRITE.
type Cpu struct {
	uc.Unicorn
	dis Capstr

	hooks   ppc.Hooks
	pending []access
	steps   uint64
	// first error raised from inside a hook, returned by Run
	err error
}

func NewCpu() (*Cpu, error) {
	u, err := uc.NewUnicorn(uc.ARCH_PPC, uc.MODE_PPC32|uc.MODE_BIG_ENDIAN)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	c := &Cpu{Unicorn: u}
	if _, err := u.HookAdd(uc.HOOK_CODE, c.onCode, 1, 0); err != nil {
		u.Close()
		return nil, errors.Wrap(err, "failed to add code hook")
	}
	if _, err := u.HookAdd(uc.HOOK_MEM_READ|uc.HOOK_MEM_WRITE, c.onMem, 1, 0); err != nil {
		u.Close()
		return nil, errors.Wrap(err, "failed to add memory hook")
	}
	return c, nil
}

func (c *Cpu) Attach(h ppc.Hooks) { c.hooks = h }
func (c *Cpu) Steps() uint64      { return c.steps }

func (c *Cpu) reg(n int) uint32 {
	v, _ := c.RegRead(n)
	return uint32(v)
}

// these implement the debugger's read-only view of the register file
func (c *Cpu) Gpr(i int) uint32 { return c.reg(uc.PPC_REG_0 + i) }
func (c *Cpu) Fpscr() uint32    { return c.reg(uc.PPC_REG_FPSCR) }
func (c *Cpu) Cr() uint32       { return c.reg(uc.PPC_REG_CR) }
func (c *Cpu) Xer() uint32      { return c.reg(uc.PPC_REG_XER) }
func (c *Cpu) Lr() uint32       { return c.reg(uc.PPC_REG_LR) }
func (c *Cpu) Ctr() uint32      { return c.reg(uc.PPC_REG_CTR) }
func (c *Cpu) Pc() uint32       { return c.reg(uc.PPC_REG_PC) }

func (c *Cpu) Fpr(i int) float64 {
	v, _ := c.RegRead(uc.PPC_REG_FPR0 + i)
	return math.Float64frombits(v)
}

func (c *Cpu) SetPc(pc uint32)        { c.RegWrite(uc.PPC_REG_PC, uint64(pc)) }
func (c *Cpu) SetGpr(i int, v uint32) { c.RegWrite(uc.PPC_REG_0+i, uint64(v)) }

func (c *Cpu) Snapshot() ppc.Regs {
	var r ppc.Regs
	for i := range r.Gpr {
		r.Gpr[i] = c.Gpr(i)
	}
	for i := range r.Fpr {
		r.Fpr[i] = c.Fpr(i)
	}
	r.Fpscr, r.Cr, r.Xer = c.Fpscr(), c.Cr(), c.Xer()
	r.Lr, r.Ctr, r.Pc = c.Lr(), c.Ctr(), c.Pc()
	return r
}

// MemMapDesc maps a page-aligned range. Ranges that are already mapped,
// such as image segments loaded over RAM, only have their protection changed.
func (c *Cpu) MemMapDesc(addr, size uint64, prot int, desc string) error {
	start := addr &^ (pageSize - 1)
	end := (addr + size + pageSize - 1) &^ (pageSize - 1)
	if err := c.MemMapProt(start, end-start, prot); err != nil {
		if perr := c.MemProtect(start, end-start, prot); perr != nil {
			return errors.Wrapf(err, "failed to map %s at %#x", desc, addr)
		}
	}
	return nil
}

// DirectUint is an unobserved sized read. Unicorn only reports accesses made
// by guest code, so host reads never reach the hooks.
func (c *Cpu) DirectUint(addr uint32, size int) (uint64, error) {
	p, err := c.MemRead(uint64(addr), uint64(size))
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(p[0]), nil
	case 2:
		return uint64(order.Uint16(p)), nil
	case 4:
		return uint64(order.Uint32(p)), nil
	case 8:
		return order.Uint64(p), nil
	}
	return 0, errors.Errorf("unsupported uint size: %d", size)
}

func (c *Cpu) DirectPutUint(addr uint32, size int, val uint64) error {
	var buf [8]byte
	switch size {
	case 1:
		buf[0] = byte(val)
	case 2:
		order.PutUint16(buf[:], uint16(val))
	case 4:
		order.PutUint32(buf[:], uint32(val))
	case 8:
		order.PutUint64(buf[:], val)
	default:
		return errors.Errorf("unsupported uint size: %d", size)
	}
	return c.MemWrite(uint64(addr), buf[:size])
}

func (c *Cpu) Disas(op, addr uint32) string {
	var p [4]byte
	order.PutUint32(p[:], op)
	if s, err := c.dis.Dis(p[:], addr); err == nil {
		return s
	}
	return ppc.Dis(op, addr).String()
}

// fail records the first hook error and stops emulation.
func (c *Cpu) fail(err error) {
	if c.err == nil {
		c.err = err
	}
	c.Unicorn.Stop()
}

// flush reports data accesses of the previous instruction. Unicorn calls the
// memory hooks before the access lands, so they are queued until here.
func (c *Cpu) flush() error {
	pending := c.pending
	c.pending = c.pending[:0]
	if c.hooks == nil {
		return nil
	}
	for _, a := range pending {
		var err error
		if a.write {
			err = c.hooks.OnWrite(a.size, a.addr)
		} else {
			err = c.hooks.OnRead(a.size, a.addr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Cpu) onMem(_ uc.Unicorn, kind int, addr uint64, size int, _ int64) {
	c.pending = append(c.pending, access{write: kind == uc.MEM_WRITE, size: size, addr: uint32(addr)})
}

func (c *Cpu) onCode(_ uc.Unicorn, addr uint64, size uint32) {
	if c.err != nil {
		return
	}
	if err := c.flush(); err != nil {
		c.fail(err)
		return
	}
	pc := uint32(addr)
	op, err := c.DirectUint(pc, 4)
	if err != nil {
		c.fail(err)
		return
	}
	if c.hooks != nil {
		if err := c.hooks.OnDecode(pc, uint32(op)); err != nil {
			c.fail(err)
			return
		}
	}
	// sc exits the guest with r3, as in the interpreter
	if uint32(op) == ppc.Sc() {
		c.fail(models.ExitStatus(c.Gpr(3)))
		return
	}
	c.steps++
}

// Run emulates from pc until the program exits, an error occurs, ctx is
// cancelled or max instructions have run (0 means no limit).
func (c *Cpu) Run(ctx context.Context, max uint64) error {
	c.err = nil
	c.pending = c.pending[:0]
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Unicorn.Stop()
		case <-done:
		}
	}()
	err := c.StartWithOptions(uint64(c.Pc()), math.MaxUint64, &uc.UcOptions{Count: max})
	if c.err == nil {
		c.err = c.flush()
	}
	if c.err != nil {
		return c.err
	}
	if err != nil {
		return errors.Wrap(err, "emulation failed")
	}
	return ctx.Err()
}

func (c *Cpu) Close() error {
	c.dis.Close()
	return c.Unicorn.Close()
}
