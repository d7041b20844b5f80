//go:build !unix

package debug

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

func ParseSignal(name string) (os.Signal, error) {
	return nil, errors.Errorf("signal %q: pause signals are only supported on unix", name)
}

func (p *PauseSignal) Notify(ctx context.Context, sigs ...os.Signal) {}
