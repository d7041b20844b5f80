package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/lua"
	"github.com/sheepshaver/sheepbug/go/models"
)

const testHooks = `
init_debugger = func()
    sheepbug.add_bp(sheepbug.BP_WRITE, 0x1000)
end
hook_pause = func() end
hook_read = func(size, addr) end
hook_write = func(size, addr)
    print('write %d %x = %x' % {size, addr, sheepbug.read_word(addr)})
end
hook_decode = func(pc, op) end
`

// stores 7 to 0x1000 and exits with 5
var testProgram = ppc.Assemble(
	ppc.Li(4, 0x1000),
	ppc.Li(5, 7),
	ppc.Stw(5, 4, 0),
	ppc.Li(3, 5),
	ppc.Sc(),
)

type env struct {
	dir    string
	image  string
	config string
}

func newEnv(t *testing.T, hooks string) *env {
	dir := t.TempDir()
	e := &env{
		dir:    dir,
		image:  filepath.Join(dir, "prog.bin"),
		config: filepath.Join(dir, "sheepbug.yaml"),
	}
	require.NoError(t, os.WriteFile(e.image, testProgram, 0644))
	if hooks != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "test_hooks.lua"), []byte(hooks), 0644))
	}
	config := fmt.Sprintf("hooks:\n  path: %s\n  module: test_hooks\nmem:\n  size: 0x100000\n", dir)
	require.NoError(t, os.WriteFile(e.config, []byte(config), 0644))
	return e
}

func execute(t *testing.T, e *env, args ...string) (string, string, int) {
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append([]string{"--config", e.config, "--color=false"}, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), exitCode(err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 3, exitCode(models.ExitStatus(3)))
	assert.Equal(t, 0, exitCode(models.ExitStatus(0)))
	assert.Equal(t, 42, exitCode(errors.Wrap(&lua.InitError{Msg: "Cannot find hook_read function."}, "setup")))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 0, exitCode(errors.WithStack(context.Canceled)))
}

func TestRunInterrupted(t *testing.T) {
	e := newEnv(t, testHooks)
	cfg := models.DefaultConfig()
	cfg.Hooks = models.HooksConfig{Path: e.dir, Module: "test_hooks"}
	cfg.Mem.Size = 0x100000
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, logs bytes.Buffer
	err := runImage(ctx, cfg, e.image, &out, &logs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, exitCode(err))
	assert.True(t, stopped(err))
	assert.Contains(t, logs.String(), "interrupted")
	assert.Empty(t, out.String(), "no instruction ran")
}

func TestRunBackend(t *testing.T) {
	e := newEnv(t, testHooks)
	out, _, code := execute(t, e, "run", "--backend", "interp", e.image)
	assert.Equal(t, 5, code)
	assert.Equal(t, "write 4 1000 = 7\n", out)

	_, _, code = execute(t, e, "run", "--backend", "bochs", e.image)
	assert.Equal(t, 1, code)
	_, err := newMachine("bochs")
	assert.ErrorContains(t, err, `unknown backend "bochs"`)
}

func TestRun(t *testing.T) {
	e := newEnv(t, testHooks)
	out, _, code := execute(t, e, "run", e.image)
	assert.Equal(t, 5, code)
	assert.Equal(t, "write 4 1000 = 7\n", out)
}

func TestRunMissingModule(t *testing.T) {
	e := newEnv(t, "")
	_, _, code := execute(t, e, "run", e.image)
	assert.Equal(t, models.ExitInitFailure, code)
}

func TestRunBadHostError(t *testing.T) {
	e := newEnv(t, testHooks)
	_, _, code := execute(t, e, "run", "--host-error", "explode", e.image)
	assert.Equal(t, 1, code)
}

func TestRunHalt(t *testing.T) {
	e := newEnv(t, `
init_debugger = func() sheepbug.add_bp(sheepbug.BP_WRITE, 0x1000) end
hook_pause = func() end
hook_read = func() end
hook_write = func() error('stop here') end
hook_decode = func() end
`)
	_, logs, code := execute(t, e, "run", e.image)
	assert.Equal(t, 5, code, "continue policy keeps running")
	assert.Contains(t, logs, "stop here")

	_, _, code = execute(t, e, "run", "--host-error", "halt", e.image)
	assert.Equal(t, 1, code)
}

func TestRunJournal(t *testing.T) {
	e := newEnv(t, testHooks)
	journal := filepath.Join(e.dir, "hooks.sbj")
	_, _, code := execute(t, e, "run", "--trace", journal, e.image)
	require.Equal(t, 5, code)

	out, _, code := execute(t, e, "journal", journal)
	require.Equal(t, 0, code)
	assert.Equal(t, "# arch ppc, decode set exec\n000000 write(4, 0x1000)\n", out)
}

func TestDis(t *testing.T) {
	e := newEnv(t, "")
	out, _, code := execute(t, e, "dis", e.image)
	require.Equal(t, 0, code)
	assert.Equal(t, `0x0:
> 00000000  38801000  li r4, 0x1000
  00000004  38a00007  li r5, 0x7
  00000008  90a40000  stw r5, 0(r4)
  0000000c  38600005  li r3, 0x5
  00000010  44000002  sc
`, out)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.Wrap(errors.New("inner"), "outer"))
	assert.Contains(t, buf.String(), "Error: outer: inner")
	assert.Contains(t, buf.String(), "cmd_test.go:")
}
