package debug

import "sync/atomic"

// PauseSignal is a single pending pause request. Requests made before the
// request is consumed collapse into one.
type PauseSignal struct {
	flag atomic.Bool
}

// Request marks a pause as pending. It is safe to call from any goroutine.
func (p *PauseSignal) Request() {
	p.flag.Store(true)
}

func (p *PauseSignal) Pending() bool {
	return p.flag.Load()
}

// Consume clears a pending request and reports whether there was one.
func (p *PauseSignal) Consume() bool {
	return p.flag.CompareAndSwap(true, false)
}
