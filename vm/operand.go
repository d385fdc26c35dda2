package vm

import "github.com/davide125/wzsh/value"

// OperandKind discriminates the variants of Operand.
type OperandKind int

const (
	// OperandImmediate carries a literal Value.
	OperandImmediate OperandKind = iota
	// OperandFrameRelative refers to a slot in the current frame.
	OperandFrameRelative
	// OperandLastWaitStatus refers to the machine's last observed wait
	// status.
	OperandLastWaitStatus
)

// Operand is a reference to a value usable by an Operation: either a
// literal, a frame slot, or the machine's last wait status.
type Operand struct {
	Kind OperandKind
	Imm  value.Value
	Slot int
}

// Immediate constructs an Operand wrapping a literal value.
func Immediate(v value.Value) Operand { return Operand{Kind: OperandImmediate, Imm: v} }

// FrameRelative constructs an Operand referring to slot in the current frame.
func FrameRelative(slot int) Operand { return Operand{Kind: OperandFrameRelative, Slot: slot} }

// LastWaitStatus is the Operand referring to the machine's last wait status.
var LastWaitStatus = Operand{Kind: OperandLastWaitStatus}
