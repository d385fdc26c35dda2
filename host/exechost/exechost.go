// Package exechost implements host.Host against real operating-system
// processes, grounded on the Cmd/Start/Wait shape of an os/exec-compatible
// process launcher, with PATH resolution modeled on a simple
// explode-and-stat search.
package exechost

import (
	"errors"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/davide125/wzsh/env"
	"github.com/davide125/wzsh/ioenv"
	"github.com/davide125/wzsh/value"
)

// Host spawns real child processes via os/exec.
type Host struct{}

// New returns a Host.
func New() *Host { return &Host{} }

// LookupHomeDir resolves a user's home directory via os/user, falling back
// to $HOME for the empty (invoking-user) case.
func (Host) LookupHomeDir(name string) (string, error) {
	if name == "" {
		if home := os.Getenv("HOME"); home != "" {
			return home, nil
		}
		u, err := user.Current()
		if err != nil {
			return "", err
		}
		return u.HomeDir, nil
	}
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

// SpawnCommand resolves argv[0] against PATH (unless it already contains a
// path separator), then starts it with the given environment, working
// directory, and file-descriptor bindings.
func (Host) SpawnCommand(argv []string, environment *env.Environment, cwd string, io *ioenv.IoEnvironment) (value.WaitableStatus, error) {
	if len(argv) == 0 {
		return value.WaitableStatus{}, errors.New("exechost: empty argv")
	}

	name := argv[0]
	if !strings.ContainsRune(name, os.PathSeparator) {
		resolved, ok := LookPath(name, os.Getenv("PATH"))
		if !ok {
			return value.WaitableStatus{}, &exec.Error{Name: name, Err: exec.ErrNotFound}
		}
		name = resolved
	}

	cmd := exec.Command(name, argv[1:]...)
	cmd.Env = environment.Pairs()
	if cwd != "" {
		cmd.Dir = cwd
	}
	if h := io.Stdin(); h != nil {
		cmd.Stdin = h.File
	}
	if h := io.Stdout(); h != nil {
		cmd.Stdout = h.File
	}
	if h := io.Stderr(); h != nil {
		cmd.Stderr = h.File
	}

	if err := cmd.Start(); err != nil {
		return value.WaitableStatus{}, err
	}

	w := &waiter{cmd: cmd}
	w.g.Go(func() error {
		return cmd.Wait()
	})
	return value.NewWaitableStatus(w), nil
}

// waiter adapts an in-flight *exec.Cmd into a value.Waiter, running the
// actual Wait() on a goroutine via errgroup so Poll can return immediately
// while a blocking Wait waits on the group.
type waiter struct {
	cmd *exec.Cmd
	g   errgroup.Group

	mu   sync.Mutex
	done bool
	st   value.Status
}

func (w *waiter) finish() value.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return w.st
	}
	err := w.g.Wait()
	w.done = true
	w.st = statusFromError(w.cmd, err)
	return w.st
}

func (w *waiter) Wait() value.Status { return w.finish() }

func (w *waiter) Poll() (value.Status, bool) {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done {
		return w.finish(), true
	}
	if w.cmd.ProcessState == nil {
		return value.RunningStatus(), false
	}
	return w.finish(), true
}

func statusFromError(cmd *exec.Cmd, err error) value.Status {
	if err == nil {
		if ws, ok := cmd.ProcessState.Sys().(unix.WaitStatus); ok && ws.Signaled() {
			return value.StoppedStatus(int(ws.Signal()))
		}
		return value.CompleteStatus(0)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(unix.WaitStatus); ok && ws.Signaled() {
			return value.StoppedStatus(int(ws.Signal()))
		}
		return value.CompleteStatus(exitErr.ExitCode())
	}
	return value.CompleteStatus(127)
}

// LookPath searches path (a PATH-style, OS-list-separated string) for an
// executable regular file named command, returning the PATH entry joined
// with command (relative when that entry is relative; an empty entry means
// ".").
func LookPath(command, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, command)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 != 0 {
			return candidate, true
		}
	}
	return "", false
}
