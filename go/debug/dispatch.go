package debug

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// Policy decides what a host failure does to the emulation.
type Policy int

const (
	// Continue logs the failure and keeps emulating.
	Continue Policy = iota
	// Halt returns the failure to the emulator loop.
	Halt
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "continue":
		return Continue, nil
	case "halt":
		return Halt, nil
	}
	return Continue, errors.Errorf("unknown host error policy %q", s)
}

func (p Policy) String() string {
	if p == Halt {
		return "halt"
	}
	return "continue"
}

// Recorder is told about every hook that fires, before the host is called.
type Recorder interface {
	Record(c HookCall) error
}

type Options struct {
	Policy Policy
	// CompatDecodeWriteSet checks the decoded pc against the Write set instead
	// of the Exec set.
	CompatDecodeWriteSet bool
	Journal              Recorder
	Log                  *slog.Logger
}

type Stats struct {
	Pause, Read, Write, Decode uint64
}

// Dispatcher turns emulator events into host calls. OnDecode is the only
// point where a pending pause request is consumed.
type Dispatcher struct {
	bp    *Registry
	pause *PauseSignal
	host  Host
	opts  Options
	log   *slog.Logger
	stats Stats
}

func NewDispatcher(bp *Registry, pause *PauseSignal, host Host, opts Options) *Dispatcher {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{bp: bp, pause: pause, host: host, opts: opts, log: log}
}

func (d *Dispatcher) Registry() *Registry { return d.bp }
func (d *Dispatcher) Pause() *PauseSignal { return d.pause }
func (d *Dispatcher) Stats() Stats        { return d.stats }

func (d *Dispatcher) decodeSet() Kind {
	if d.opts.CompatDecodeWriteSet {
		return Write
	}
	return Exec
}

// OnDecode runs once per instruction, after fetch and before execution.
func (d *Dispatcher) OnDecode(pc, opcode uint32) error {
	if d.pause.Consume() {
		d.stats.Pause++
		if err := d.fire(HookCall{Kind: HookPause}); err != nil {
			return err
		}
	}
	if d.bp.Has(d.decodeSet(), pc) || d.bp.Opcode().Match(opcode) {
		d.stats.Decode++
		return d.fire(HookCall{Kind: HookDecode, PC: pc, Opcode: opcode})
	}
	return nil
}

// OnRead runs after a data read by the emulated program.
func (d *Dispatcher) OnRead(size int, addr uint32) error {
	if !d.bp.Has(Read, addr) {
		return nil
	}
	d.stats.Read++
	return d.fire(HookCall{Kind: HookRead, Size: size, Addr: addr})
}

// OnWrite runs after a data write by the emulated program.
func (d *Dispatcher) OnWrite(size int, addr uint32) error {
	if !d.bp.Has(Write, addr) {
		return nil
	}
	d.stats.Write++
	return d.fire(HookCall{Kind: HookWrite, Size: size, Addr: addr})
}

func (d *Dispatcher) fire(c HookCall) error {
	if d.opts.Journal != nil {
		if err := d.opts.Journal.Record(c); err != nil {
			d.log.Warn("journal write failed", "hook", c.Kind.String(), "err", err)
		}
	}
	if err := d.call(c); err != nil {
		return d.fail(c, err)
	}
	return nil
}

// call never lets a host panic escape into the emulator loop.
func (d *Dispatcher) call(c HookCall) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return d.host.Call(c)
}

func (d *Dispatcher) fail(c HookCall, err error) error {
	herr := &HookError{Call: c, Err: err}
	if d.opts.Policy == Halt {
		return herr
	}
	d.log.Error("host hook failed", "hook", c.String(), "err", fmt.Sprint(err))
	return nil
}
