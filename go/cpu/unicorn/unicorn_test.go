//go:build unicorn

package unicorn

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/models"
	"github.com/sheepshaver/sheepbug/go/models/cpu"
)

type hookLog struct {
	c     *Cpu
	calls []string
	seen  uint64
}

func (h *hookLog) OnDecode(pc, op uint32) error {
	h.calls = append(h.calls, fmt.Sprintf("decode %#x", pc))
	return nil
}

func (h *hookLog) OnRead(size int, addr uint32) error {
	h.calls = append(h.calls, fmt.Sprintf("read %d %#x", size, addr))
	return nil
}

func (h *hookLog) OnWrite(size int, addr uint32) error {
	h.calls = append(h.calls, fmt.Sprintf("write %d %#x", size, addr))
	h.seen, _ = h.c.DirectUint(addr, size)
	return nil
}

func newTestCpu(t *testing.T, code ...uint32) *Cpu {
	c, err := NewCpu()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.MemMapDesc(0, 0x1000, cpu.PROT_READ|cpu.PROT_EXEC, "code"))
	require.NoError(t, c.MemMapDesc(0x1000, 0x1000, cpu.PROT_READ|cpu.PROT_WRITE, "data"))
	require.NoError(t, c.MemWrite(0, ppc.Assemble(code...)))
	return c
}

func TestExit(t *testing.T) {
	c := newTestCpu(t, ppc.Li(3, 9), ppc.Sc())
	assert.Equal(t, models.ExitStatus(9), c.Run(context.Background(), 100))
	assert.Equal(t, uint64(1), c.Steps())
}

func TestHooksAfterAccess(t *testing.T) {
	c := newTestCpu(t,
		ppc.Lis(4, 0xcafe),
		ppc.Ori(4, 4, 0xbabe),
		ppc.Li(5, 0x1000),
		ppc.Stw(4, 5, 0),
		ppc.Lwz(6, 5, 0),
		ppc.Sc(),
	)
	h := &hookLog{c: c}
	c.Attach(h)
	require.Equal(t, models.ExitStatus(0), c.Run(context.Background(), 100))
	assert.Equal(t, []string{
		"decode 0x0", "decode 0x4", "decode 0x8", "decode 0xc",
		"write 4 0x1000", "decode 0x10",
		"read 4 0x1000", "decode 0x14",
	}, h.calls)
	assert.Equal(t, uint64(0xcafebabe), h.seen, "write hook sees the stored value")
	assert.Equal(t, uint32(0xcafebabe), c.Gpr(6))
}

func TestRegistersAndMemory(t *testing.T) {
	c := newTestCpu(t)
	c.SetGpr(31, 0x1234)
	c.SetPc(0x40)
	assert.Equal(t, uint32(0x1234), c.Gpr(31))
	assert.Equal(t, uint32(0x40), c.Snapshot().Pc)

	require.NoError(t, c.DirectPutUint(0x1000, 4, 0xdeadbeef))
	v, err := c.DirectUint(0x1002, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xbeef), v)
	_, err = c.DirectUint(0x100000, 4)
	assert.Error(t, err)
}

func TestRemapProtects(t *testing.T) {
	c := newTestCpu(t)
	require.NoError(t, c.MemMapDesc(0x1000, 0x10, cpu.PROT_ALL, "segment"))
}

func TestDisas(t *testing.T) {
	c := newTestCpu(t)
	assert.Contains(t, c.Disas(ppc.Li(3, 9), 0), "li")
}
