//go:build unicorn

package unicorn

import (
	"strings"

	cs "github.com/lunixbochs/capstr"
	"github.com/pkg/errors"
)

// Capstr disassembles big-endian PowerPC with capstone. The engine is opened
// on first use.
type Capstr struct {
	cs *cs.Engine
}

func (c *Capstr) Open() error {
	engine, err := cs.New(cs.ARCH_PPC, cs.MODE_32+cs.MODE_BIG_ENDIAN)
	if err != nil {
		return errors.Wrap(err, "cs.New() failed")
	}
	c.cs = engine
	return nil
}

func (c *Capstr) Dis(mem []byte, addr uint32) (string, error) {
	if c.cs == nil {
		if err := c.Open(); err != nil {
			return "", err
		}
	}
	dis, err := c.cs.Dis(mem, uint64(addr), 1)
	if err != nil {
		return "", errors.Wrap(err, "capstone disassembly failed")
	}
	if len(dis) == 0 {
		return "", errors.New("no instruction decoded")
	}
	return strings.TrimSpace(dis[0].Mnemonic() + " " + dis[0].OpStr()), nil
}

func (c *Capstr) Close() {
	if c.cs != nil {
		c.cs.Close()
		c.cs = nil
	}
}
