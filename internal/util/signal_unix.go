//go:build !windows

package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// ShutdownSignals returns the signals that trigger a graceful shutdown.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, unix.SIGTERM}
}
