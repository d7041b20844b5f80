package cmd

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/sheepshaver/sheepbug/go/cpu/ppc"
	"github.com/sheepshaver/sheepbug/go/loader"
	"github.com/sheepshaver/sheepbug/go/lua"
)

// machine is an emulator backend driven by the run command.
type machine interface {
	lua.CPU
	loader.Mapper
	Attach(h ppc.Hooks)
	SetPc(pc uint32)
	SetGpr(i int, v uint32)
	Run(ctx context.Context, max uint64) error
	Steps() uint64
}

// backends are selected by the backend config key. Optional ones register
// themselves from build-tagged files.
var backends = map[string]func() (machine, error){
	"interp": func() (machine, error) { return ppc.NewCpu(), nil },
}

func newMachine(name string) (machine, error) {
	if fn, ok := backends[name]; ok {
		return fn()
	}
	var names []string
	for k := range backends {
		names = append(names, k)
	}
	sort.Strings(names)
	return nil, errors.Errorf("unknown backend %q (available: %v)", name, names)
}
