package debug

import (
	"fmt"
	"log/slog"
	"sort"
)

// Kind selects one of the address breakpoint sets. The numeric values are
// part of the host-facing API.
type Kind int

const (
	Read  Kind = 1
	Write Kind = 2
	Exec  Kind = 3
)

func (k Kind) Valid() bool {
	return k >= Read && k <= Exec
}

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case Exec:
		return "exec"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// OpcodeBreakpoint matches any decoded instruction where (opcode & Mask) == Value.
type OpcodeBreakpoint struct {
	Enabled bool
	Value   uint32
	Mask    uint32
}

func (o OpcodeBreakpoint) Match(opcode uint32) bool {
	return o.Enabled && opcode&o.Mask == o.Value
}

type addrSet map[uint32]struct{}

// Registry holds the read, write and exec address sets and the opcode breakpoint.
// It is only touched from the emulation goroutine, including from inside hooks.
type Registry struct {
	sets   [3]addrSet
	opcode OpcodeBreakpoint
	log    *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{log: log}
	for i := range r.sets {
		r.sets[i] = make(addrSet)
	}
	return r
}

func (r *Registry) set(kind Kind, op string) addrSet {
	if !kind.Valid() {
		r.log.Warn("invalid breakpoint kind", "op", op, "kind", int(kind))
		return nil
	}
	return r.sets[kind-1]
}

// Add inserts addr into the kind's set. Adding a present address is a no-op.
func (r *Registry) Add(kind Kind, addr uint32) {
	if s := r.set(kind, "add"); s != nil {
		s[addr] = struct{}{}
	}
}

func (r *Registry) Remove(kind Kind, addr uint32) {
	if s := r.set(kind, "remove"); s != nil {
		delete(s, addr)
	}
}

func (r *Registry) Has(kind Kind, addr uint32) bool {
	if !kind.Valid() {
		return false
	}
	_, ok := r.sets[kind-1][addr]
	return ok
}

// Addrs returns a sorted copy of the kind's set.
func (r *Registry) Addrs(kind Kind) []uint32 {
	if !kind.Valid() {
		return nil
	}
	out := make([]uint32, 0, len(r.sets[kind-1]))
	for addr := range r.sets[kind-1] {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) SetOpcodeEnabled(on bool) { r.opcode.Enabled = on }
func (r *Registry) SetOpcodeValue(v uint32)  { r.opcode.Value = v }
func (r *Registry) SetOpcodeMask(m uint32)   { r.opcode.Mask = m }

// SetOpcodeFlag is the integer form of SetOpcodeEnabled. Only 0 and 1 are accepted.
func (r *Registry) SetOpcodeFlag(flag int64) {
	switch flag {
	case 0:
		r.SetOpcodeEnabled(false)
	case 1:
		r.SetOpcodeEnabled(true)
	default:
		r.log.Warn("invalid opcode breakpoint flag", "flag", flag)
	}
}

func (r *Registry) Opcode() OpcodeBreakpoint {
	return r.opcode
}
