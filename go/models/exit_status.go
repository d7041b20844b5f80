package models

import "fmt"

// ExitStatus is returned by the emulator when the guest program asks to exit.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit %d", e)
}

// ExitInitFailure is the process status used for every debugger host
// initialization failure.
const ExitInitFailure = 42
