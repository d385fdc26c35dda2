// Package ioenv implements the machine's file-descriptor environment: the
// mapping from small integer fd numbers to open handles, and the stack of
// such mappings pushed and popped around redirections and pipeline stages.
package ioenv

import (
	"fmt"
	"os"
)

// Handle is an open file-like object bound to a descriptor number.
type Handle struct {
	File     *os.File
	Readable bool
	Writable bool
}

// IoEnvironment maps fd numbers to Handles.
type IoEnvironment struct {
	fds map[int]*Handle
}

// New returns an IoEnvironment with stdin/stdout/stderr bound to the given
// files (typically os.Stdin/os.Stdout/os.Stderr).
func New(stdin, stdout, stderr *os.File) *IoEnvironment {
	e := &IoEnvironment{fds: make(map[int]*Handle)}
	e.fds[0] = &Handle{File: stdin, Readable: true}
	e.fds[1] = &Handle{File: stdout, Writable: true}
	e.fds[2] = &Handle{File: stderr, Writable: true}
	return e
}

// Get returns the handle bound to fd.
func (e *IoEnvironment) Get(fd int) (*Handle, bool) {
	h, ok := e.fds[fd]
	return h, ok
}

// Assign binds fd to h, replacing any existing binding.
func (e *IoEnvironment) Assign(fd int, h *Handle) {
	e.fds[fd] = h
}

// Dup binds dstFd to the same handle currently bound to srcFd.
func (e *IoEnvironment) Dup(dstFd, srcFd int) error {
	h, ok := e.fds[srcFd]
	if !ok {
		return fmt.Errorf("ioenv: dup of unbound fd %d", srcFd)
	}
	e.fds[dstFd] = h
	return nil
}

// Stdin, Stdout, Stderr are convenience accessors for the conventional fds.
func (e *IoEnvironment) Stdin() *Handle  { h, _ := e.Get(0); return h }
func (e *IoEnvironment) Stdout() *Handle { h, _ := e.Get(1); return h }
func (e *IoEnvironment) Stderr() *Handle { h, _ := e.Get(2); return h }

// Clone returns a shallow copy: handles are shared (they are open files),
// but the fd-number map is independent so the clone's rebindings do not
// affect the original.
func (e *IoEnvironment) Clone() *IoEnvironment {
	c := &IoEnvironment{fds: make(map[int]*Handle, len(e.fds))}
	for fd, h := range e.fds {
		c.fds[fd] = h
	}
	return c
}

// Stack is a push/pop stack of IoEnvironments.
type Stack struct {
	frames []*IoEnvironment
}

// NewStack returns a Stack with a single base IoEnvironment.
func NewStack(base *IoEnvironment) *Stack {
	if base == nil {
		base = New(os.Stdin, os.Stdout, os.Stderr)
	}
	return &Stack{frames: []*IoEnvironment{base}}
}

// Top returns the current IoEnvironment.
func (s *Stack) Top() *IoEnvironment { return s.frames[len(s.frames)-1] }

// Push clones the current IoEnvironment and pushes the clone.
func (s *Stack) Push() {
	s.frames = append(s.frames, s.Top().Clone())
}

// Pop discards the current IoEnvironment, closing any handle it introduced
// that is not still referenced by some other frame remaining on the stack.
// A handle is reference-counted across frames (a duplication via DupFd or a
// clone via PushIo is another reference to the same *Handle, under whatever
// fd numbers), not tied to the specific fd it was popped from, so a handle
// bound to two different fds in the popped frame (e.g. "2>&1") is only
// closed once neither fd's reference survives anywhere else on the stack.
func (s *Stack) Pop() {
	if len(s.frames) == 1 {
		panic("ioenv: pop of base io environment")
	}
	popped := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	closed := make(map[*Handle]bool)
	for _, h := range popped.fds {
		if h == nil || h.File == nil || closed[h] {
			continue
		}
		if s.references(h) {
			continue
		}
		h.File.Close()
		closed[h] = true
	}
}

// references reports whether h is still bound to some fd in any frame
// remaining on the stack.
func (s *Stack) references(h *Handle) bool {
	for _, f := range s.frames {
		for _, fh := range f.fds {
			if fh == h {
				return true
			}
		}
	}
	return false
}

// Depth returns the number of frames currently on the stack.
func (s *Stack) Depth() int { return len(s.frames) }

// Pipe opens an os.Pipe and returns read/write Handles for it, for use by
// PushPipe.
func Pipe() (r, w *Handle, err error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	return &Handle{File: pr, Readable: true}, &Handle{File: pw, Writable: true}, nil
}
