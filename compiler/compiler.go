// Package compiler lowers an ast.Command into a flat vm.Program. Its
// structure mirrors a frame-reservation, word-expansion, and
// jump-backpatching algorithm used by register-allocating expression
// compilers generally: each command gets a frame of scratch slots, simple
// commands build an argv list and spawn it, and if/then/else lowers to a
// JumpIfZero/Jump pair with the jump targets patched in once both arms
// have been emitted.
package compiler

import (
	"fmt"

	"github.com/davide125/wzsh/internal/regalloc"
	"github.com/davide125/wzsh/vm"
)

// Error reports a command shape or parameter expansion the compiler cannot
// lower.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "compiler: " + e.Msg }

func errorf(format string, args ...interface{}) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

type frameCompiler struct {
	alloc      *regalloc.Allocator
	startAddr  int
}

// Compiler accumulates a vm.Program across one or more CompileCommand calls.
type Compiler struct {
	program  []vm.Operation
	frames   []*frameCompiler
	logf     func(mess string, args ...interface{})
	memLimit uint
}

// Option configures a Compiler at construction time.
type Option interface{ apply(c *Compiler) }

type optionFunc func(c *Compiler)

func (f optionFunc) apply(c *Compiler) { f(c) }

// WithLogf installs a trace function invoked as operations are emitted.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return optionFunc(func(c *Compiler) { c.logf = logf })
}

// WithMemLimit bounds the number of frame slots any single frame may grow
// to; commitFrame fails once a frame's size (its high-water mark plus the
// reserved slot 0) exceeds it. Zero (the default) means unbounded.
func WithMemLimit(limit uint) Option {
	return optionFunc(func(c *Compiler) { c.memLimit = limit })
}

// New returns an empty Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// Finish appends a trailing Exit on the last wait status and returns the
// assembled Program.
func (c *Compiler) Finish() vm.Program {
	c.push(vm.Exit{Code: vm.LastWaitStatus})
	return vm.Program{Ops: c.program, Start: 0}
}

func (c *Compiler) push(op vm.Operation) {
	if c.logf != nil {
		c.logf("emit[%d] %T", len(c.program), op)
	}
	c.program = append(c.program, op)
}

func (c *Compiler) trace(mess string, args ...interface{}) {
	if c.logf != nil {
		c.logf(mess, args...)
	}
}

func (c *Compiler) curFrame() (*frameCompiler, error) {
	if len(c.frames) == 0 {
		return nil, errorf("no active frame")
	}
	return c.frames[len(c.frames)-1], nil
}

// reserveFrame emits a placeholder PushFrame and opens a new register
// allocator scope; commitFrame patches the real size back in once the
// frame's body has been compiled.
func (c *Compiler) reserveFrame() {
	start := len(c.program)
	c.push(vm.PushFrame{Size: 0})
	c.frames = append(c.frames, &frameCompiler{alloc: regalloc.New(), startAddr: start})
}

func (c *Compiler) commitFrame() error {
	if len(c.frames) == 0 {
		return errorf("no frame to commit")
	}
	fc := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	pf, ok := c.program[fc.startAddr].(vm.PushFrame)
	if !ok {
		return errorf("opcode mismatch while patching frame size")
	}
	size := fc.alloc.FrameSize()
	if c.memLimit != 0 && uint(size) > c.memLimit {
		return errorf("frame size %d exceeds memory limit %d", size, c.memLimit)
	}
	pf.Size = size
	c.program[fc.startAddr] = pf
	c.push(vm.PopFrame{})
	return nil
}

func (c *Compiler) allocateList() (int, error) {
	fc, err := c.curFrame()
	if err != nil {
		return 0, err
	}
	slot := fc.alloc.Allocate()
	c.push(vm.Copy{Dst: slot, Src: vm.Immediate(emptyList())})
	return slot, nil
}

func (c *Compiler) allocateString() (int, error) {
	fc, err := c.curFrame()
	if err != nil {
		return 0, err
	}
	slot := fc.alloc.Allocate()
	c.push(vm.Copy{Dst: slot, Src: vm.Immediate(emptyString())})
	return slot, nil
}

func (c *Compiler) free(slot int) error {
	fc, err := c.curFrame()
	if err != nil {
		return err
	}
	fc.alloc.Free(slot)
	return nil
}

// ifThenElse emits:
//
//	JumpIfZero .ELSE
//	{then}
//	Jump .DONE
//
// .ELSE:
//
//	{else}
//
// .DONE:
func (c *Compiler) ifThenElse(cond vm.Operand, then, els func() error) error {
	firstJump := len(c.program)
	c.push(vm.JumpIfZero{Cond: cond, Target: 0})

	if then != nil {
		if err := then(); err != nil {
			return err
		}
	}
	secondJump := len(c.program)
	c.push(vm.Jump{Target: 0})

	jz, ok := c.program[firstJump].(vm.JumpIfZero)
	if !ok {
		return errorf("opcode mismatch while patching jump")
	}
	jz.Target = secondJump + 1
	c.program[firstJump] = jz

	if els != nil {
		if err := els(); err != nil {
			return err
		}
	}

	after := len(c.program)
	j, ok := c.program[secondJump].(vm.Jump)
	if !ok {
		return errorf("opcode mismatch while patching jump")
	}
	j.Target = after
	c.program[secondJump] = j
	return nil
}
