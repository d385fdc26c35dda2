// Package hosttest provides a deterministic, in-memory host.Host used by
// compiler and machine tests: a small fixed set of built-in commands
// (true, false, echo, uppercase) and a recorded log of every spawn,
// modeled on the fixture host used to validate the original compiler
// algorithm end to end.
package hosttest

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	"github.com/davide125/wzsh/env"
	"github.com/davide125/wzsh/ioenv"
	"github.com/davide125/wzsh/value"
)

// SpawnEntry records one SpawnCommand call.
type SpawnEntry struct {
	Argv []string
	Env  map[string]string
}

// Host is a fixture host.Host.
type Host struct {
	mu       sync.Mutex
	SpawnLog []SpawnEntry

	// HomeDirs maps a user name (or "" for the invoking user) to a home
	// directory; LookupHomeDir errors for names absent from this map.
	HomeDirs map[string]string
}

// New returns a Host with a default home directory for the invoking user.
func New() *Host {
	return &Host{HomeDirs: map[string]string{"": "/home/test"}}
}

// LookupHomeDir looks up user (or "" for the invoking user) in HomeDirs.
func (h *Host) LookupHomeDir(user string) (string, error) {
	dir, ok := h.HomeDirs[user]
	if !ok {
		return "", fmt.Errorf("hosttest: unknown user %q", user)
	}
	return dir, nil
}

// SpawnCommand implements the small built-in command set and records the
// call in SpawnLog.
func (h *Host) SpawnCommand(argv []string, environment *env.Environment, cwd string, io *ioenv.IoEnvironment) (value.WaitableStatus, error) {
	if len(argv) == 0 {
		return value.WaitableStatus{}, fmt.Errorf("hosttest: argv0 is missing")
	}

	h.mu.Lock()
	entry := SpawnEntry{Argv: append([]string(nil), argv...), Env: snapshotEnv(environment)}
	h.SpawnLog = append(h.SpawnLog, entry)
	h.mu.Unlock()

	switch argv[0] {
	case "true":
		return value.Completed(0), nil

	case "false":
		return value.Completed(1), nil

	case "echo":
		if out := io.Stdout(); out != nil && out.File != nil {
			for i, arg := range argv[1:] {
				if i > 0 {
					fmt.Fprint(out.File, " ")
				}
				fmt.Fprint(out.File, arg)
			}
			fmt.Fprintln(out.File)
		}
		return value.Completed(0), nil

	case "uppercase":
		in, out := io.Stdin(), io.Stdout()
		if in == nil || out == nil || in.File == nil || out.File == nil {
			return value.Completed(1), nil
		}
		scan := bufio.NewScanner(in.File)
		for scan.Scan() {
			fmt.Fprintln(out.File, strings.ToUpper(scan.Text()))
		}
		return value.Completed(0), nil

	default:
		return value.Completed(2), nil
	}
}

func snapshotEnv(e *env.Environment) map[string]string {
	out := map[string]string{}
	for _, pair := range e.Pairs() {
		for i := 0; i < len(pair); i++ {
			if pair[i] == '=' {
				out[pair[:i]] = pair[i+1:]
				break
			}
		}
	}
	return out
}
