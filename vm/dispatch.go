package vm

import (
	"os"
	"strings"

	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/ioenv"
	"github.com/davide125/wzsh/value"
)

type opFunc func(m *Machine, op Operation) (next int, err error)

var opTable [opMax]opFunc

func init() {
	opTable[opPushFrame] = execPushFrame
	opTable[opPopFrame] = execPopFrame
	opTable[opCopy] = execCopy
	opTable[opStringAppend] = execStringAppend
	opTable[opListAppend] = execListAppend
	opTable[opJoinList] = execJoinList
	opTable[opGetEnv] = execGetEnv
	opTable[opSetEnv] = execSetEnv
	opTable[opPushEnvironment] = execPushEnvironment
	opTable[opPopEnvironment] = execPopEnvironment
	opTable[opIsNone] = execIsNone
	opTable[opIsNoneOrEmptyString] = execIsNoneOrEmptyString
	opTable[opStringLength] = execStringLength
	opTable[opTildeExpand] = execTildeExpand
	opTable[opJumpIfZero] = execJumpIfZero
	opTable[opJump] = execJump
	opTable[opSpawnCommand] = execSpawnCommand
	opTable[opWait] = execWait
	opTable[opInvertLastWait] = execInvertLastWait
	opTable[opPushIo] = execPushIo
	opTable[opPopIo] = execPopIo
	opTable[opOpenFile] = execOpenFile
	opTable[opDupFd] = execDupFd
	opTable[opPushPipe] = execPushPipe
	opTable[opPopPipe] = execPopPipe
	opTable[opError] = execError
	opTable[opExit] = execExit
}

func execPushFrame(m *Machine, op Operation) (int, error) {
	pf := op.(PushFrame)
	m.frames = append(m.frames, frame{slots: make([]value.Value, pf.Size)})
	return m.ip + 1, nil
}

func execPopFrame(m *Machine, op Operation) (int, error) {
	if len(m.frames) == 0 {
		return 0, runtimeErrorf(m.ip, op, "pop of empty frame stack")
	}
	m.frames = m.frames[:len(m.frames)-1]
	return m.ip + 1, nil
}

func execCopy(m *Machine, op Operation) (int, error) {
	c := op.(Copy)
	v, err := m.resolve(c.Src)
	if err != nil {
		return 0, err
	}
	if err := m.setSlot(c.Dst, v); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execStringAppend(m *Machine, op Operation) (int, error) {
	sa := op.(StringAppend)
	cur, err := m.slot(sa.Dst)
	if err != nil {
		return 0, err
	}
	src, err := m.resolve(sa.Src)
	if err != nil {
		return 0, err
	}
	base := ""
	if cur.Kind == value.KindString {
		base = cur.Str
	} else if !cur.IsNone() {
		return 0, runtimeErrorf(m.ip, op, "StringAppend onto non-string slot (%s)", cur.Kind)
	}
	if err := m.setSlot(sa.Dst, value.String(base+src.AsString())); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execListAppend(m *Machine, op Operation) (int, error) {
	la := op.(ListAppend)
	cur, err := m.slot(la.Dst)
	if err != nil {
		return 0, err
	}
	src, err := m.resolve(la.Src)
	if err != nil {
		return 0, err
	}
	var items []string
	if cur.Kind == value.KindList {
		items = cur.List
	} else if !cur.IsNone() {
		return 0, runtimeErrorf(m.ip, op, "ListAppend onto non-list slot (%s)", cur.Kind)
	}
	// Split and Glob are advisory only; the machine always appends a single
	// field, per the resolution recorded in DESIGN.md.
	items = append(items, src.AsString())
	if err := m.setSlot(la.Dst, value.List(items)); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execJoinList(m *Machine, op Operation) (int, error) {
	jl := op.(JoinList)
	cur, err := m.resolve(jl.List)
	if err != nil {
		return 0, err
	}
	var items []string
	if cur.Kind == value.KindList {
		items = cur.List
	} else if !cur.IsNone() {
		return 0, runtimeErrorf(m.ip, op, "JoinList on non-list slot (%s)", cur.Kind)
	}
	if err := m.setSlot(jl.Dst, value.String(strings.Join(items, " "))); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execGetEnv(m *Machine, op Operation) (int, error) {
	ge := op.(GetEnv)
	name, err := m.resolve(ge.Name)
	if err != nil {
		return 0, err
	}
	v, ok := m.envs.Top().Get(name.AsString())
	var result value.Value
	if ok {
		result = value.String(v)
	} else {
		result = value.None
	}
	if err := m.setSlot(ge.Dst, result); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execSetEnv(m *Machine, op Operation) (int, error) {
	se := op.(SetEnv)
	name, err := m.resolve(se.Name)
	if err != nil {
		return 0, err
	}
	v, err := m.resolve(se.Value)
	if err != nil {
		return 0, err
	}
	m.envs.Top().Set(name.AsString(), v.AsString())
	return m.ip + 1, nil
}

func execPushEnvironment(m *Machine, op Operation) (int, error) {
	m.envs.Push()
	return m.ip + 1, nil
}

func execPopEnvironment(m *Machine, op Operation) (int, error) {
	m.envs.Pop()
	return m.ip + 1, nil
}

func execIsNone(m *Machine, op Operation) (int, error) {
	in := op.(IsNone)
	v, err := m.resolve(in.Src)
	if err != nil {
		return 0, err
	}
	result := 0
	if v.IsNone() {
		result = 1
	}
	if err := m.setSlot(in.Dst, value.Integer(result)); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execIsNoneOrEmptyString(m *Machine, op Operation) (int, error) {
	in := op.(IsNoneOrEmptyString)
	v, err := m.resolve(in.Src)
	if err != nil {
		return 0, err
	}
	result := 0
	if v.IsNoneOrEmptyString() {
		result = 1
	}
	if err := m.setSlot(in.Dst, value.Integer(result)); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execStringLength(m *Machine, op Operation) (int, error) {
	sl := op.(StringLength)
	v, err := m.resolve(sl.Src)
	if err != nil {
		return 0, err
	}
	if err := m.setSlot(sl.Dst, value.Integer(v.Len())); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execTildeExpand(m *Machine, op Operation) (int, error) {
	te := op.(TildeExpand)
	u, err := m.resolve(te.User)
	if err != nil {
		return 0, err
	}
	dir, err := m.host.LookupHomeDir(u.AsString())
	if err != nil {
		return 0, runtimeErrorf(m.ip, op, "tilde expansion: %v", err)
	}
	if err := m.setSlot(te.Dst, value.String(dir)); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execJumpIfZero(m *Machine, op Operation) (int, error) {
	jz := op.(JumpIfZero)
	v, err := m.resolve(jz.Cond)
	if err != nil {
		return 0, err
	}
	var zero bool
	switch {
	case v.Kind == value.KindWaitableStatus:
		// LastWaitStatus as a branch condition: a successful command (exit
		// code 0) is truthy, mirroring shell if/&&/|| semantics rather than
		// the raw exit code's own zero-means-success encoding.
		zero = !v.Waitable.Wait().Success()
	default:
		zero = v.IsNone() || (v.Kind == value.KindInteger && v.Int == 0)
	}
	if zero {
		return jz.Target, nil
	}
	return m.ip + 1, nil
}

func execJump(m *Machine, op Operation) (int, error) {
	return op.(Jump).Target, nil
}

func execSpawnCommand(m *Machine, op Operation) (int, error) {
	sc := op.(SpawnCommand)
	if m.suppressSpawn {
		m.suppressSpawn = false
		ws := value.Completed(1)
		if err := m.setSlot(sc.Dst, value.FromWaitableStatus(ws)); err != nil {
			return 0, err
		}
		return m.ip + 1, nil
	}
	argvVal, err := m.resolve(sc.Argv)
	if err != nil {
		return 0, err
	}
	var argv []string
	switch argvVal.Kind {
	case value.KindList:
		argv = argvVal.List
	case value.KindString:
		argv = []string{argvVal.Str}
	default:
		return 0, runtimeErrorf(m.ip, op, "SpawnCommand argv must be a list or string, got %s", argvVal.Kind)
	}
	ws, err := m.host.SpawnCommand(argv, m.envs.Top(), m.cwd, m.ios.Top())
	if err != nil {
		// A failure to spawn at all (command not found, empty argv, ...) is
		// reported in-band as a nonzero exit rather than aborting the
		// machine, mirroring a real shell's "command not found".
		ws = value.Completed(127)
	}
	if err := m.setSlot(sc.Dst, value.FromWaitableStatus(ws)); err != nil {
		return 0, err
	}
	return m.ip + 1, nil
}

func execWait(m *Machine, op Operation) (int, error) {
	w := op.(Wait)
	v, err := m.resolve(w.Src)
	if err != nil {
		return 0, err
	}
	if v.Kind != value.KindWaitableStatus {
		return 0, runtimeErrorf(m.ip, op, "Wait requires a WaitableStatus, got %s", v.Kind)
	}
	m.lastWait = v.Waitable.Wait()
	return m.ip + 1, nil
}

func execInvertLastWait(m *Machine, op Operation) (int, error) {
	if m.lastWait.Success() {
		m.lastWait = value.CompleteStatus(1)
	} else {
		m.lastWait = value.CompleteStatus(0)
	}
	return m.ip + 1, nil
}

func execPushIo(m *Machine, op Operation) (int, error) {
	m.ios.Push()
	return m.ip + 1, nil
}

func execPopIo(m *Machine, op Operation) (int, error) {
	m.ios.Pop()
	return m.ip + 1, nil
}

func execOpenFile(m *Machine, op Operation) (int, error) {
	of := op.(OpenFile)
	pathVal, err := m.resolve(of.Path)
	if err != nil {
		return 0, err
	}
	var flag int
	var readable, writable bool
	switch of.Kind {
	case ast.RedirectIn:
		flag, readable = os.O_RDONLY, true
	case ast.RedirectOut:
		flag, writable = os.O_WRONLY|os.O_CREATE|os.O_TRUNC, true
	case ast.RedirectAppend:
		flag, writable = os.O_WRONLY|os.O_CREATE|os.O_APPEND, true
	case ast.RedirectInOut:
		flag, readable, writable = os.O_RDWR|os.O_CREATE, true, true
	default:
		return 0, runtimeErrorf(m.ip, op, "unknown redirection kind %d", of.Kind)
	}
	f, err := os.OpenFile(pathVal.AsString(), flag, 0o644)
	if err != nil {
		return 0, runtimeErrorf(m.ip, op, "open %q: %v", pathVal.AsString(), err)
	}
	m.ios.Top().Assign(of.Fd, &ioenv.Handle{File: f, Readable: readable, Writable: writable})
	return m.ip + 1, nil
}

func execDupFd(m *Machine, op Operation) (int, error) {
	df := op.(DupFd)
	if err := m.ios.Top().Dup(df.Fd, df.SrcFd); err != nil {
		return 0, runtimeErrorf(m.ip, op, "%v", err)
	}
	return m.ip + 1, nil
}

func execPushPipe(m *Machine, op Operation) (int, error) {
	r, w, err := ioenv.Pipe()
	if err != nil {
		return 0, runtimeErrorf(m.ip, op, "pipe: %v", err)
	}
	m.ios.Top().Assign(1, w)
	m.pendingPipeRead = r
	return m.ip + 1, nil
}

func execPopPipe(m *Machine, op Operation) (int, error) {
	if m.pendingPipeRead == nil {
		return 0, runtimeErrorf(m.ip, op, "PopPipe with no pending pipe")
	}
	m.ios.Top().Assign(0, m.pendingPipeRead)
	m.pendingPipeRead = nil
	return m.ip + 1, nil
}

func execError(m *Machine, op Operation) (int, error) {
	e := op.(Error)
	msg, err := m.resolve(e.Message)
	if err != nil {
		return 0, err
	}
	if stderr := m.ios.Top().Stderr(); stderr != nil && stderr.File != nil {
		_, _ = stderr.File.WriteString(msg.AsString())
	}
	m.lastWait = value.CompleteStatus(1)
	m.suppressSpawn = true
	return m.ip + 1, nil
}

func execExit(m *Machine, op Operation) (int, error) {
	e := op.(Exit)
	v, err := m.resolve(e.Code)
	if err != nil {
		return 0, err
	}
	switch v.Kind {
	case value.KindWaitableStatus:
		m.haltCode = v.Waitable.Wait()
	case value.KindInteger:
		m.haltCode = value.CompleteStatus(v.Int)
	default:
		m.haltCode = m.lastWait
	}
	m.halted = true
	return m.ip, nil
}
