//go:build unix

package debug

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ParseSignal accepts names like "SIGUSR1" or "usr1".
func ParseSignal(name string) (os.Signal, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return nil, errors.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

// Notify requests a pause each time one of sigs is delivered, until ctx is done.
// Nothing but the flag store happens on delivery.
func (p *PauseSignal) Notify(ctx context.Context, sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ch:
				p.Request()
			case <-ctx.Done():
				return
			}
		}
	}()
}
