package lua

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lunixbochs/luaish"
	"github.com/pkg/errors"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/debug"
)

// names resolved from the hook module, in resolution order
const (
	initFunc   = "init_debugger"
	pauseFunc  = "hook_pause"
	readFunc   = "hook_read"
	writeFunc  = "hook_write"
	decodeFunc = "hook_decode"
)

// InitError is returned for every failure while bringing up the hook module.
// The process is expected to exit with models.ExitInitFailure.
type InitError struct {
	Msg string
	Err error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *InitError) Unwrap() error { return e.Err }
func (e *InitError) Cause() error  { return e.Err }

// CPU is the emulator backend as seen from Lua.
type CPU interface {
	debug.State
	debug.Memory
	ppc.Snapshotter
	Disas(op, addr uint32) string
}

type Options struct {
	// directory appended to package.path
	Path string
	// module to require
	Module string

	Log    *slog.Logger
	Output io.Writer
	Color  bool
}

// Host is the Lua side of the debugger. It owns the Lua state and calls the
// hook module's functions on behalf of a debug.Dispatcher.
type Host struct {
	*lua.LState
	io.Writer

	log   *slog.Logger
	color bool
	cpu   CPU
	bp    *debug.Registry
	diff  *ppc.StatusDiff

	module *lua.LTable
	hooks  [4]*lua.LFunction
}

// NewHost starts Lua, installs the sheepbug module, loads the hook module and
// calls its init_debugger. On error nothing is left running.
func NewHost(opts Options, cpu CPU, bp *debug.Registry) (*Host, error) {
	h := &Host{
		LState: lua.NewState(),
		Writer: opts.Output,
		log:    opts.Log,
		color:  opts.Color,
		cpu:    cpu,
		bp:     bp,
		diff:   ppc.NewStatusDiff(cpu),
	}
	if h.Writer == nil {
		h.Writer = os.Stdout
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if err := h.init(opts); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Host) init(opts Options) error {
	if err := h.loadBindings(); err != nil {
		return &InitError{Msg: "Cannot install native module.", Err: err}
	}
	if err := h.appendPath(opts.Path); err != nil {
		return &InitError{Msg: "Cannot set module search path.", Err: err}
	}
	if err := h.require(opts.Module); err != nil {
		return &InitError{Msg: "Cannot load debugger hook module.", Err: err}
	}
	initFn, err := h.resolve(initFunc)
	if err != nil {
		return err
	}
	for i, name := range []string{pauseFunc, readFunc, writeFunc, decodeFunc} {
		if h.hooks[i], err = h.resolve(name); err != nil {
			return err
		}
	}
	if err := h.CallByParam(lua.P{Fn: initFn, NRet: 0, Protect: true}); err != nil {
		return &InitError{Msg: fmt.Sprintf("%s failed.", initFunc), Err: err}
	}
	h.log.Debug("hook module loaded", "module", opts.Module, "path", opts.Path)
	return nil
}

func (h *Host) appendPath(dir string) error {
	if dir == "" {
		return nil
	}
	pkg, ok := h.GetGlobal("package").(*lua.LTable)
	if !ok {
		return errors.New("package library is not loaded")
	}
	path := lua.LVAsString(h.GetField(pkg, "path"))
	h.SetField(pkg, "path", lua.LString(path+";"+filepath.Join(dir, "?.lua")))
	return nil
}

// require loads the module by name. Functions are looked up on the table it
// returns, or on the globals if it returns anything else.
func (h *Host) require(name string) error {
	top := h.GetTop()
	defer h.SetTop(top)
	if err := h.CallByParam(lua.P{Fn: h.GetGlobal("require"), NRet: 1, Protect: true}, lua.LString(name)); err != nil {
		return err
	}
	if tbl, ok := h.Get(-1).(*lua.LTable); ok {
		h.module = tbl
	} else {
		h.module = h.G.Global
	}
	return nil
}

func (h *Host) resolve(name string) (*lua.LFunction, error) {
	v := h.GetField(h.module, name)
	if v == lua.LNil {
		return nil, &InitError{Msg: fmt.Sprintf("Cannot find %s function.", name)}
	}
	fn, ok := v.(*lua.LFunction)
	if !ok {
		return nil, &InitError{Msg: fmt.Sprintf("%s is not callable.", name)}
	}
	return fn, nil
}

// Call runs one hook synchronously. Return values are dropped and the stack
// is restored on every path.
func (h *Host) Call(c debug.HookCall) error {
	fn := h.hooks[c.Kind]
	top := h.GetTop()
	defer h.SetTop(top)
	args := c.Args()
	largs := make([]lua.LValue, len(args))
	for i, v := range args {
		largs[i] = lua.LInt(v)
	}
	return h.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, largs...)
}

func (h *Host) Printf(f string, arg ...interface{}) {
	fmt.Fprintf(h, f, arg...)
}

func (h *Host) Println(arg ...interface{}) {
	fmt.Fprintln(h, arg...)
}
