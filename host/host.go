// Package host defines the abstract boundary between the machine and the
// operating system: process spawning and home-directory lookup. Concrete
// implementations live in host/exechost (real processes) and
// host/hosttest (a deterministic fixture used by tests).
package host

import (
	"github.com/davide125/wzsh/env"
	"github.com/davide125/wzsh/ioenv"
	"github.com/davide125/wzsh/value"
)

// Host abstracts everything the machine needs from the surrounding
// operating system.
type Host interface {
	// LookupHomeDir returns the home directory for user, or for the
	// invoking user if user is "".
	LookupHomeDir(user string) (string, error)

	// SpawnCommand starts argv[0] with the remaining argv as arguments,
	// the given environment and working directory, and the given
	// file-descriptor bindings, returning a handle to its eventual status.
	SpawnCommand(argv []string, environment *env.Environment, cwd string, io *ioenv.IoEnvironment) (value.WaitableStatus, error)
}
