package debug_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/debug"
	"github.com/sheepshaver/sheepbug/go/models"
	"github.com/sheepshaver/sheepbug/go/models/cpu"
)

func TestMemoryProxy(t *testing.T) {
	c := ppc.NewCpu()
	require.NoError(t, c.MemMapProt(0x1000, 0x1000, cpu.PROT_READ))
	m := debug.NewMemoryProxy(c)

	require.NoError(t, m.Write32(0x1000, 0xcafebabe))
	v, err := m.Read32(0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafebabe), v)
	v, _ = m.Read8(0x1000)
	assert.Equal(t, uint32(0xca), v)
	v, _ = m.Read16(0x1002)
	assert.Equal(t, uint32(0xbabe), v)

	require.NoError(t, m.Write8(0x1003, 0x1ff))
	require.NoError(t, m.Write16(0x1000, 0x1234))
	v, _ = m.Read32(0x1000)
	assert.Equal(t, uint32(0x1234baff), v)

	_, err = m.Read32(0x3000)
	var merr *cpu.MemError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, uint64(0x3000), merr.Addr)
	assert.Error(t, m.Write32(0x1ffe, 0))
}

// an emulated store to a write breakpoint calls the host once
func TestWriteBreakpointScenario(t *testing.T) {
	c := ppc.NewCpu()
	require.NoError(t, c.MemMapProt(0, 0x2000, cpu.PROT_ALL))
	code := ppc.Assemble(
		ppc.Lis(3, 0xcafe),
		ppc.Ori(3, 3, 0xbabe),
		ppc.Li(4, 0x1000),
		ppc.Stw(3, 4, 0),
		ppc.Lwz(5, 4, 0),
		ppc.Li(3, 0),
		ppc.Sc(),
	)
	require.NoError(t, c.MemWrite(0, code))

	var calls []debug.HookCall
	mem := debug.NewMemoryProxy(c)
	var readBack uint32
	host := debug.HostFunc(func(hc debug.HookCall) error {
		calls = append(calls, hc)
		var err error
		readBack, err = mem.Read32(hc.Addr)
		return err
	})
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	bp := debug.NewRegistry(log)
	bp.Add(debug.Write, 0x1000)
	d := debug.NewDispatcher(bp, &debug.PauseSignal{}, host, debug.Options{Policy: debug.Halt, Log: log})
	c.Attach(d)

	err := c.Run(context.Background(), 100)
	assert.Equal(t, models.ExitStatus(0), err)
	assert.Equal(t, []debug.HookCall{{Kind: debug.HookWrite, Size: 4, Addr: 0x1000}}, calls)
	assert.Equal(t, uint32(0xcafebabe), readBack)
	v, err := mem.Read32(0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafebabe), v)
	assert.Equal(t, uint32(0xcafebabe), c.Gpr(5))
}
