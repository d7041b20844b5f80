package debug

import "fmt"

// HookKind tags the four events a host can be called for.
type HookKind int

const (
	HookPause HookKind = iota
	HookRead
	HookWrite
	HookDecode
)

var hookNames = [...]string{"pause", "read", "write", "decode"}

func (k HookKind) String() string {
	if k >= 0 && int(k) < len(hookNames) {
		return hookNames[k]
	}
	return fmt.Sprintf("hook(%d)", int(k))
}

// HookCall is one host invocation. Size and Addr are set for Read and Write,
// PC and Opcode for Decode.
type HookCall struct {
	Kind   HookKind
	Size   int
	Addr   uint32
	PC     uint32
	Opcode uint32
}

// Args returns the call's host-visible arguments in order.
func (c HookCall) Args() []uint64 {
	switch c.Kind {
	case HookRead, HookWrite:
		return []uint64{uint64(c.Size), uint64(c.Addr)}
	case HookDecode:
		return []uint64{uint64(c.PC), uint64(c.Opcode)}
	}
	return nil
}

func (c HookCall) String() string {
	switch c.Kind {
	case HookRead, HookWrite:
		return fmt.Sprintf("%s(%d, %#x)", c.Kind, c.Size, c.Addr)
	case HookDecode:
		return fmt.Sprintf("%s(%#x, %#08x)", c.Kind, c.PC, c.Opcode)
	}
	return c.Kind.String() + "()"
}

// Host receives hook calls. Call blocks until the host returns, and any value
// the host returns is discarded.
type Host interface {
	Call(c HookCall) error
}

// HostFunc adapts a plain function to Host.
type HostFunc func(c HookCall) error

func (f HostFunc) Call(c HookCall) error { return f(c) }

// HookError wraps a failure raised by the host during a hook call.
type HookError struct {
	Call HookCall
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s failed: %v", e.Call, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
func (e *HookError) Cause() error  { return e.Err }
