package lua

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/lunixbochs/luaish"
	"github.com/lunixbochs/luaish/parse"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
)

// console words that hand control back to the emulator
var resumeWords = map[string]bool{"cont": true, "c": true}

// Console is an interactive Lua prompt over the host's state, usually opened
// from a pause hook. The emulator stays blocked until it returns.
type Console struct {
	h     *Host
	lines []string
}

func (h *Host) NewConsole() *Console {
	return &Console{h: h}
}

func historyPath() string {
	cache := configdir.New("sheepbug", "console").QueryCacheFolder()
	if err := cache.MkdirAll(); err != nil {
		return ""
	}
	return filepath.Join(cache.Path, "history")
}

// Console runs a prompt on the terminal until EOF or "cont".
func (h *Host) Console() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          h.prompt(false),
		InterruptPrompt: "^C",
		HistoryFile:     historyPath(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to open console")
	}
	defer rl.Close()

	out := h.Writer
	h.Writer = rl.Stderr()
	defer func() { h.Writer = out }()

	c := h.NewConsole()
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			c.lines = nil
			rl.SetPrompt(h.prompt(false))
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "console read failed")
		}
		more, resume := c.Feed(line)
		if resume {
			return nil
		}
		rl.SetPrompt(h.prompt(more))
	}
}

func (h *Host) prompt(more bool) string {
	if more {
		return "... "
	}
	return fmt.Sprintf("%#08x> ", h.cpu.Pc())
}

// Feed adds one line of input. more reports that the chunk is incomplete,
// resume that the user asked to continue emulation.
func (c *Console) Feed(line string) (more, resume bool) {
	if len(c.lines) == 0 && resumeWords[strings.TrimSpace(line)] {
		return false, true
	}
	c.lines = append(c.lines, line)
	if c.exec(c.lines) {
		return true, false
	}
	c.lines = nil
	return false, false
}

func (c *Console) loadstring(lines []string, recurse bool) (*lua.LFunction, error, bool) {
	L := c.h.LState
	code := strings.Join(lines, "\n")
	if len(lines) == 1 && recurse {
		code = "return " + code
	}
	fn, err := L.LoadString(code)
	if err == nil {
		return fn, nil, false
	}
	// check for incomplete parse
	if lerr, ok := err.(*lua.ApiError); ok {
		if perr, ok := lerr.Cause.(*parse.Error); ok {
			if perr.Pos.Line == parse.EOF {
				return nil, err, true
			} else if recurse {
				// not an expression, try as a statement
				return c.loadstring(lines, false)
			}
		}
	}
	return nil, err, false
}

// exec runs the pending chunk and prints what it returns. It reports true if
// more input is needed.
func (c *Console) exec(lines []string) bool {
	h := c.h
	fn, err, incomplete := c.loadstring(lines, true)
	if incomplete {
		return true
	}
	if err != nil {
		h.PrintError(err)
		return false
	}
	top := h.GetTop()
	defer h.SetTop(top)
	h.Push(fn)
	if err := h.PCall(0, lua.MultRet, nil); err != nil {
		h.PrintError(err)
		return false
	}
	ret := make([]lua.LValue, h.GetTop()-top)
	for i := range ret {
		ret[i] = h.Get(top + i + 1)
	}
	if len(ret) == 1 && ret[0] == lua.LNil {
		return false
	}
	if len(ret) > 0 {
		h.Println(strings.Join(PrettyDump(ret, true), " "))
	}
	return false
}
