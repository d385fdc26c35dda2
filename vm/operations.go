package vm

import "github.com/davide125/wzsh/ast"

// Operation is the sum type of instructions a Program is built from. Each
// variant is a small struct; Machine.run dispatches each one through
// opTable, keyed by opcode().
type Operation interface {
	opcode() opcode
}

type opcode int

const (
	opPushFrame opcode = iota
	opPopFrame
	opCopy
	opStringAppend
	opListAppend
	opJoinList
	opGetEnv
	opSetEnv
	opPushEnvironment
	opPopEnvironment
	opIsNone
	opIsNoneOrEmptyString
	opStringLength
	opTildeExpand
	opJumpIfZero
	opJump
	opSpawnCommand
	opWait
	opInvertLastWait
	opPushIo
	opPopIo
	opOpenFile
	opDupFd
	opPushPipe
	opPopPipe
	opError
	opExit
	opMax
)

var opNames = [opMax]string{
	opPushFrame:           "PushFrame",
	opPopFrame:            "PopFrame",
	opCopy:                "Copy",
	opStringAppend:        "StringAppend",
	opListAppend:          "ListAppend",
	opJoinList:            "JoinList",
	opGetEnv:              "GetEnv",
	opSetEnv:              "SetEnv",
	opPushEnvironment:     "PushEnvironment",
	opPopEnvironment:      "PopEnvironment",
	opIsNone:              "IsNone",
	opIsNoneOrEmptyString: "IsNoneOrEmptyString",
	opStringLength:        "StringLength",
	opTildeExpand:         "TildeExpand",
	opJumpIfZero:          "JumpIfZero",
	opJump:                "Jump",
	opSpawnCommand:        "SpawnCommand",
	opWait:                "Wait",
	opInvertLastWait:      "InvertLastWait",
	opPushIo:              "PushIo",
	opPopIo:               "PopIo",
	opOpenFile:            "OpenFile",
	opDupFd:               "DupFd",
	opPushPipe:            "PushPipe",
	opPopPipe:             "PopPipe",
	opError:               "Error",
	opExit:                "Exit",
}

// PushFrame allocates a new frame of Size slots and pushes it.
type PushFrame struct{ Size int }

// PopFrame discards the current frame. No slot of it, slot 0 included, is
// carried over to the calling frame.
type PopFrame struct{}

// Copy writes Src into frame slot Dst.
type Copy struct {
	Dst int
	Src Operand
}

// StringAppend appends Src's string form onto the String value already in
// slot Dst (treating an initial None as "").
type StringAppend struct {
	Dst int
	Src Operand
}

// ListAppend appends Src's string form as one more element of the List
// value in slot Dst (treating an initial None as an empty list). Split and
// Glob are carried through from the AST but are not interpreted by this
// machine: see DESIGN.md's Open Question resolution.
type ListAppend struct {
	Dst   int
	Src   Operand
	Split bool
	Glob  bool
}

// JoinList reads the List value from List and writes its single-space-
// joined String form to Dst. List and Dst are commonly the same slot.
type JoinList struct {
	Dst  int
	List Operand
}

// GetEnv writes the value of the named variable (or None if unset) into Dst.
type GetEnv struct {
	Dst  int
	Name Operand
}

// SetEnv binds Name to Value's string form in the current environment.
type SetEnv struct {
	Name  Operand
	Value Operand
}

// PushEnvironment pushes a cloned copy of the current environment.
type PushEnvironment struct{}

// PopEnvironment pops the current environment.
type PopEnvironment struct{}

// IsNone writes Integer(1) to Dst if Src is None, else Integer(0).
type IsNone struct {
	Dst int
	Src Operand
}

// IsNoneOrEmptyString writes Integer(1) to Dst if Src is None or an empty
// String, else Integer(0).
type IsNoneOrEmptyString struct {
	Dst int
	Src Operand
}

// StringLength writes Integer(Src.Len()) to Dst.
type StringLength struct {
	Dst int
	Src Operand
}

// TildeExpand writes the home directory for the named user (empty name
// means the invoking user) into Dst, via the machine's Host.
type TildeExpand struct {
	Dst  int
	User Operand
}

// JumpIfZero transfers control to Target if Cond is Integer(0) (or None).
type JumpIfZero struct {
	Cond   Operand
	Target int
}

// Jump transfers control unconditionally to Target.
type Jump struct {
	Target int
}

// SpawnCommand spawns Argv (a List operand) through the machine's Host,
// writing the resulting WaitableStatus to Dst. If the machine's
// spawn-suppression flag is set (see Error), the spawn is skipped and a
// synthesized Complete(1) status is written instead. A Host that fails to
// spawn at all (command not found, bad argv, ...) is likewise reported
// in-band, as Complete(127), rather than aborting the machine.
type SpawnCommand struct {
	Dst  int
	Argv Operand
}

// Wait blocks on the WaitableStatus in Src and records the resulting Status
// as the machine's last wait status.
type Wait struct {
	Src Operand
}

// InvertLastWait replaces the machine's last wait status with
// Complete(0) if it was a nonzero exit, or Complete(1) if it was Complete(0).
type InvertLastWait struct{}

// PushIo pushes a cloned copy of the current io environment.
type PushIo struct{}

// PopIo pops the current io environment.
type PopIo struct{}

// OpenFile opens Path under Kind and binds the resulting handle to Fd in
// the current io environment.
type OpenFile struct {
	Fd     int
	Kind   ast.RedirectionKind
	Path   Operand
}

// DupFd binds Fd to the same handle currently bound to SrcFd.
type DupFd struct {
	Fd    int
	SrcFd int
}

// PushPipe opens a pipe, binds its write end to fd 1 of the current io
// environment, and stashes its read end on the machine for consumption by
// the PopPipe emitted at the start of the next pipeline stage.
type PushPipe struct{}

// PopPipe binds fd 0 of the current io environment to the read end stashed
// by the most recent PushPipe.
type PopPipe struct{}

// Error writes Message to the current stderr handle without a trailing
// newline, sets the machine's exit status to Complete(1), and sets the
// spawn-suppression flag so the next SpawnCommand the machine executes is
// skipped. The flag is not tied to a frame. Execution continues after
// Error; it is not fatal.
type Error struct {
	Message Operand
}

// Exit terminates the machine with the status of Code, a WaitableStatus or
// Integer operand.
type Exit struct {
	Code Operand
}

func (PushFrame) opcode() opcode           { return opPushFrame }
func (PopFrame) opcode() opcode            { return opPopFrame }
func (Copy) opcode() opcode                { return opCopy }
func (StringAppend) opcode() opcode        { return opStringAppend }
func (ListAppend) opcode() opcode          { return opListAppend }
func (JoinList) opcode() opcode            { return opJoinList }
func (GetEnv) opcode() opcode              { return opGetEnv }
func (SetEnv) opcode() opcode              { return opSetEnv }
func (PushEnvironment) opcode() opcode     { return opPushEnvironment }
func (PopEnvironment) opcode() opcode      { return opPopEnvironment }
func (IsNone) opcode() opcode              { return opIsNone }
func (IsNoneOrEmptyString) opcode() opcode { return opIsNoneOrEmptyString }
func (StringLength) opcode() opcode        { return opStringLength }
func (TildeExpand) opcode() opcode         { return opTildeExpand }
func (JumpIfZero) opcode() opcode          { return opJumpIfZero }
func (Jump) opcode() opcode                { return opJump }
func (SpawnCommand) opcode() opcode        { return opSpawnCommand }
func (Wait) opcode() opcode                { return opWait }
func (InvertLastWait) opcode() opcode      { return opInvertLastWait }
func (PushIo) opcode() opcode              { return opPushIo }
func (PopIo) opcode() opcode               { return opPopIo }
func (OpenFile) opcode() opcode            { return opOpenFile }
func (DupFd) opcode() opcode               { return opDupFd }
func (PushPipe) opcode() opcode            { return opPushPipe }
func (PopPipe) opcode() opcode             { return opPopPipe }
func (Error) opcode() opcode               { return opError }
func (Exit) opcode() opcode                { return opExit }
