// Package ast defines the command-tree shapes the compiler consumes.
// Lexing and parsing live outside this module; callers (a parser, or a
// hand-built script as in cmd/wzsh) construct these values directly.
package ast

// Command is a single command with its redirections and asynchrony flag.
type Command struct {
	Type          CommandType
	Redirections  []Redirection
	Asynchronous  bool
}

// CommandType is the sum type of command shapes the compiler understands.
// Forms outside this set (loops, case, function definitions, subshells)
// are rejected by the compiler with a "not implemented" error.
type CommandType interface {
	isCommandType()
}

// SimpleCommand is a word-list command, optionally preceded by variable
// assignments that apply only for its duration; with no words, the
// assignments are made in the surrounding environment. Redirections are
// command-local: they are pushed before argv expansion and popped once the
// command has been spawned, distinct from a Command's own (outer)
// Redirections.
type SimpleCommand struct {
	Assignments  []Assignment
	Words        []Word
	Redirections []Redirection
}

// If is an if/then/else command. Then and Else may be nil.
//
// Per the desugaring assumption documented in DESIGN.md, "a && b" lowers to
// If{Condition: a, Then: &CompoundList{b}} and "a || b" lowers to
// If{Condition: a, Else: &CompoundList{b}}.
type If struct {
	Condition *CompoundList
	Then      *CompoundList
	Else      *CompoundList
}

// Program is a top-level sequence of commands.
type Program struct {
	Body *CompoundList
}

// BraceGroup runs its body in the current shell context (no subshell).
type BraceGroup struct {
	Body *CompoundList
}

// Pipeline is a sequence of commands connected by pipes, optionally negated.
type Pipeline struct {
	Commands []Command
	Negate   bool
}

func (SimpleCommand) isCommandType() {}
func (If) isCommandType()            {}
func (Program) isCommandType()       {}
func (BraceGroup) isCommandType()    {}
func (Pipeline) isCommandType()      {}

// CompoundList is a sequence of commands executed in order.
type CompoundList struct {
	Commands []Command
}

// Assignment is a single "name=value" prefix on a simple command.
type Assignment struct {
	Name  string
	Value Word
}

// Redirection is either a file redirection or an fd-duplication.
type Redirection interface {
	isRedirection()
}

// RedirectionKind enumerates how a file redirection opens its target.
type RedirectionKind int

const (
	RedirectIn RedirectionKind = iota
	RedirectOut
	RedirectAppend
	RedirectInOut
)

// FileRedirection opens Target under Kind and binds it to Fd. Fd is used as
// given; no default is applied by kind, so an output redirection left with
// the zero Fd binds fd 0.
type FileRedirection struct {
	Fd     int
	Kind   RedirectionKind
	Target Word
}

// FdRedirection dups SrcFd onto Fd (e.g. "2>&1" is FdRedirection{Fd: 2,
// SrcFd: 1}).
type FdRedirection struct {
	Fd    int
	SrcFd int
}

func (FileRedirection) isRedirection() {}
func (FdRedirection) isRedirection()   {}

// Word is a sequence of components concatenated to form one field.
type Word []WordComponent

// WordComponent is one piece of a word.
type WordComponent struct {
	Splittable bool
	Kind       WordComponentKind
}

// WordComponentKind is the sum type of word component shapes.
type WordComponentKind interface {
	isWordComponentKind()
}

// Literal is literal text, copied through verbatim.
type Literal struct {
	Text string
}

// TildeExpand expands to the home directory of User, or the invoking user's
// home directory if User is empty.
type TildeExpand struct {
	User string
}

// ParamExpand expands a parameter reference.
type ParamExpand struct {
	Expr ParamExpr
}

// CommandSubstitution is rejected by the compiler ("not implemented").
type CommandSubstitution struct {
	Body *CompoundList
}

func (Literal) isWordComponentKind()             {}
func (TildeExpand) isWordComponentKind()         {}
func (ParamExpand) isWordComponentKind()         {}
func (CommandSubstitution) isWordComponentKind() {}

// ParamOper enumerates the supported parameter expansion operators. The
// four pattern-removal operators are intentionally absent: the compiler
// rejects them as not implemented.
type ParamOper int

const (
	// ParamGet expands to the parameter's value, or "" if unset.
	ParamGet ParamOper = iota
	// ParamGetDefault expands to Word if the parameter is unset. If
	// AllowNull is false, a parameter set to the empty string is treated
	// the same as unset; if AllowNull is true, an empty value passes
	// through unchanged.
	ParamGetDefault
	// ParamAssignDefault is like ParamGetDefault but also assigns the
	// default back into the parameter.
	ParamAssignDefault
	// ParamStringLength expands to the length of the parameter's value.
	ParamStringLength
	// ParamCheckSet errors out (message from Word) if the parameter is
	// unset (or, when AllowNull is false, also if empty); otherwise
	// expands to its value.
	ParamCheckSet
	// ParamAlternativeValue expands to Word if the parameter is set (and,
	// when AllowNull is false, non-empty); otherwise expands to "".
	ParamAlternativeValue
	// ParamRemoveSmallestPrefix and the three that follow are rejected by
	// the compiler as not implemented.
	ParamRemoveSmallestPrefix
	ParamRemoveLargestPrefix
	ParamRemoveSmallestSuffix
	ParamRemoveLargestSuffix
)

// ParamExpr is a single ${...} expansion. Word holds the operator's
// replacement/default text as a sequence of words (most operators use
// exactly one, but the grammar allows e.g. "${foo:-bar baz}" to supply more
// than one resulting field).
type ParamExpr struct {
	Name string
	Oper ParamOper
	// AllowNull controls whether an empty value is treated as set (true)
	// or as unset (false) by operators that branch on unset-ness.
	AllowNull bool
	Word      []Word
}
