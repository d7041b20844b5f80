package lua

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lunixbochs/luaish"
	"github.com/lunixbochs/luaish-luar"

	"github.com/sheepshaver/sheepbug/go/debug"
)

const moduleName = "sheepbug"

func (h *Host) printFunc(_ *lua.LState) int {
	h.Println(strings.Join(PrettyDump(h.getArgs(), false), " "))
	return 0
}

func (h *Host) intFunc(_ *lua.LState) int {
	switch v := h.CheckAny(1).(type) {
	case lua.LString:
		n, err := strconv.ParseInt(string(v), 0, 64)
		if err == nil {
			h.Push(lua.LInt(n))
			return 1
		}
	case lua.LFloat:
		h.Push(lua.LInt(v))
		return 1
	case lua.LInt:
		h.Push(v)
		return 1
	}
	return 0
}

func (h *Host) getArgs() []lua.LValue {
	lv := make([]lua.LValue, h.GetTop())
	for i := range lv {
		lv[i] = h.CheckAny(i + 1)
	}
	return lv
}

func (h *Host) loadBindings() error {
	h.SetGlobal("print", h.NewFunction(h.printFunc))
	h.SetGlobal("int", h.NewFunction(h.intFunc))

	b := &binding{
		h:    h,
		regs: debug.NewRegisters(h.cpu),
		mem:  debug.NewMemoryProxy(h.cpu),
		bp:   h.bp,
	}
	mod := h.SetFuncs(h.NewTable(), b.Exports())
	for k, v := range map[string]debug.Kind{"BP_READ": debug.Read, "BP_WRITE": debug.Write, "BP_EXEC": debug.Exec} {
		mod.RawSetString(k, lua.LInt(v))
	}
	h.PreloadModule(moduleName, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
	h.SetGlobal(moduleName, mod)
	return h.DoString(sugarRc)
}

type binding struct {
	h    *Host
	regs *debug.Registers
	mem  *debug.MemoryProxy
	bp   *debug.Registry
}

func (b *binding) Exports() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"gpr":   b.Gpr,
		"fpr":   b.Fpr,
		"fpscr": b.reg(b.regs.FPSCR),
		"cr":    b.reg(b.regs.CR),
		"xer":   b.reg(b.regs.XER),
		"lr":    b.reg(b.regs.LR),
		"ctr":   b.reg(b.regs.CTR),
		"pc":    b.reg(b.regs.PC),

		"read_byte": b.read(b.mem.Read8),
		"read_half": b.read(b.mem.Read16),
		"read_word": b.read(b.mem.Read32),

		"write_byte": b.write(b.mem.Write8),
		"write_half": b.write(b.mem.Write16),
		"write_word": b.write(b.mem.Write32),

		"add_bp":             b.AddBp,
		"remove_bp":          b.RemoveBp,
		"list_bp":            b.ListBp,
		"set_bp_opcode_on":   b.SetBpOpcodeOn,
		"set_bp_opcode":      b.SetBpOpcode,
		"set_bp_opcode_mask": b.SetBpOpcodeMask,

		"regs":    b.Regs,
		"status":  b.Status,
		"dis":     b.Dis,
		"console": b.Console,
		"log":     b.Log,
	}
}

func (b *binding) checkErr(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func checkAddr(L *lua.LState, n int) uint32 {
	return uint32(L.CheckUint64(n))
}

func (b *binding) Gpr(L *lua.LState) int {
	if v, ok := b.regs.GPR(L.CheckInt(1)); ok {
		L.Push(lua.LInt(v))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func (b *binding) Fpr(L *lua.LState) int {
	if v, ok := b.regs.FPR(L.CheckInt(1)); ok {
		L.Push(lua.LFloat(v))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func (b *binding) reg(fn func() uint32) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LInt(fn()))
		return 1
	}
}

func (b *binding) read(fn func(addr uint32) (uint32, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		v, err := fn(checkAddr(L, 1))
		b.checkErr(L, err)
		L.Push(lua.LInt(v))
		return 1
	}
}

func (b *binding) write(fn func(addr, val uint32) error) lua.LGFunction {
	return func(L *lua.LState) int {
		b.checkErr(L, fn(checkAddr(L, 1), uint32(L.CheckUint64(2))))
		return 0
	}
}

func (b *binding) AddBp(L *lua.LState) int {
	b.bp.Add(debug.Kind(L.CheckInt(1)), checkAddr(L, 2))
	return 0
}

func (b *binding) RemoveBp(L *lua.LState) int {
	b.bp.Remove(debug.Kind(L.CheckInt(1)), checkAddr(L, 2))
	return 0
}

func (b *binding) ListBp(L *lua.LState) int {
	tbl := L.NewTable()
	for i, addr := range b.bp.Addrs(debug.Kind(L.CheckInt(1))) {
		L.RawSetInt(tbl, i+1, lua.LInt(addr))
	}
	L.Push(tbl)
	return 1
}

// SetBpOpcodeOn takes a boolean or the integers 0 and 1.
func (b *binding) SetBpOpcodeOn(L *lua.LState) int {
	switch v := L.CheckAny(1).(type) {
	case lua.LBool:
		b.bp.SetOpcodeEnabled(bool(v))
	case lua.LInt:
		b.bp.SetOpcodeFlag(int64(v))
	case lua.LFloat:
		if f := float64(v); f == math.Trunc(f) {
			b.bp.SetOpcodeFlag(int64(f))
		} else {
			b.h.log.Warn("invalid opcode breakpoint flag", "flag", v.String())
		}
	default:
		b.h.log.Warn("invalid opcode breakpoint flag", "flag", v.String())
	}
	return 0
}

func (b *binding) SetBpOpcode(L *lua.LState) int {
	b.bp.SetOpcodeValue(uint32(L.CheckUint64(1)))
	return 0
}

func (b *binding) SetBpOpcodeMask(L *lua.LState) int {
	b.bp.SetOpcodeMask(uint32(L.CheckUint64(1)))
	return 0
}

// Regs returns a copy of the register file as userdata.
func (b *binding) Regs(L *lua.LState) int {
	regs := b.h.cpu.Snapshot()
	L.Push(luar.New(L, &regs))
	return 1
}

// Status returns the registers that changed since the last call.
func (b *binding) Status(L *lua.LState) int {
	L.Push(lua.LString(b.h.diff.Changes(true).String(b.h.color)))
	return 1
}

func (b *binding) Dis(L *lua.LState) int {
	addr := b.regs.PC()
	if L.GetTop() > 0 {
		addr = checkAddr(L, 1)
	}
	op, err := b.mem.Read32(addr)
	b.checkErr(L, err)
	L.Push(lua.LString(fmt.Sprintf("%#x: %s", addr, b.h.cpu.Disas(op, addr))))
	return 1
}

func (b *binding) Console(L *lua.LState) int {
	b.checkErr(L, b.h.Console())
	return 0
}

func (b *binding) Log(L *lua.LState) int {
	b.h.log.Info(strings.Join(PrettyDump(b.h.getArgs(), false), " "), "source", "lua")
	return 0
}
