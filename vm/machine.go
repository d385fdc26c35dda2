package vm

import (
	"context"
	"fmt"
	"os"

	"github.com/davide125/wzsh/env"
	"github.com/davide125/wzsh/host"
	"github.com/davide125/wzsh/internal/panicerr"
	"github.com/davide125/wzsh/ioenv"
	"github.com/davide125/wzsh/value"
)

// frame is one activation record: a flat slice of slots, slot 0 reserved
// for the frame's result.
type frame struct {
	slots []value.Value
}

// Machine runs a compiled Program against a Host.
type Machine struct {
	logging

	prog Program
	ip   int

	frames []frame

	envs *env.Stack
	ios  *ioenv.Stack

	cwd string

	host host.Host

	lastWait value.Status

	// pendingPipeRead holds the read-end handle produced by PushPipe,
	// consumed by the PopPipe of the next pipeline stage.
	pendingPipeRead *ioenv.Handle

	suppressSpawn bool

	halted   bool
	haltCode value.Status
}

// New constructs a Machine ready to Load and Run a Program.
func New(h host.Host, opts ...Option) *Machine {
	m := &Machine{
		envs: env.NewStack(env.FromOS(os.Environ())),
		ios:  ioenv.NewStack(nil),
		host: h,
	}
	for _, opt := range opts {
		opt.apply(m)
	}
	return m
}

// Load installs prog and resets execution state to its Start address.
func (m *Machine) Load(prog Program) {
	m.prog = prog
	m.ip = prog.Start
	m.frames = nil
	m.halted = false
}

// Run executes until the program halts (via Exit or falling off the end,
// which behaves as an implicit Exit on the last wait status), returning the
// final status. A panic inside an operation handler (an internal machine
// bug, not a scripted error) is recovered and returned as an error rather
// than crashing the caller.
func (m *Machine) Run(ctx context.Context) (value.Status, error) {
	var status value.Status
	err := panicerr.Recover("Machine.Run", func() error {
		var err error
		status, err = m.run(ctx)
		return err
	})
	return status, err
}

func (m *Machine) run(ctx context.Context) (value.Status, error) {
	for !m.halted {
		if err := ctx.Err(); err != nil {
			return value.Status{}, err
		}
		if m.ip >= len(m.prog.Ops) {
			m.halted = true
			m.haltCode = m.lastWait
			break
		}
		op := m.prog.Ops[m.ip]
		m.logf("%4d %s", m.ip, opNames[op.opcode()])
		fn := opTable[op.opcode()]
		if fn == nil {
			return value.Status{}, runtimeErrorf(m.ip, op, "unimplemented opcode")
		}
		next, err := fn(m, op)
		if err != nil {
			return value.Status{}, err
		}
		if m.halted {
			break
		}
		m.ip = next
	}
	return m.haltCode, nil
}

func (m *Machine) currentFrame() (*frame, error) {
	if len(m.frames) == 0 {
		return nil, runtimeErrorf(m.ip, m.prog.Ops[m.ip], "no active frame")
	}
	return &m.frames[len(m.frames)-1], nil
}

func (m *Machine) slot(idx int) (value.Value, error) {
	f, err := m.currentFrame()
	if err != nil {
		return value.Value{}, err
	}
	if idx < 0 || idx >= len(f.slots) {
		return value.Value{}, runtimeErrorf(m.ip, m.prog.Ops[m.ip], "slot %d out of range (frame size %d)", idx, len(f.slots))
	}
	return f.slots[idx], nil
}

func (m *Machine) setSlot(idx int, v value.Value) error {
	f, err := m.currentFrame()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(f.slots) {
		return runtimeErrorf(m.ip, m.prog.Ops[m.ip], "slot %d out of range (frame size %d)", idx, len(f.slots))
	}
	f.slots[idx] = v
	return nil
}

func (m *Machine) resolve(o Operand) (value.Value, error) {
	switch o.Kind {
	case OperandImmediate:
		return o.Imm, nil
	case OperandFrameRelative:
		return m.slot(o.Slot)
	case OperandLastWaitStatus:
		return value.FromWaitableStatus(value.CompletedFromStatus(m.lastWait)), nil
	default:
		return value.Value{}, fmt.Errorf("vm: unknown operand kind %d", o.Kind)
	}
}
