package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/compiler"
	"github.com/davide125/wzsh/vm"
)

func TestSimpleEcho(t *testing.T) {
	status, h, stdout, _ := compileAndRun(t, simple("echo", "hello", "world"))
	assert.True(t, status.Success())
	assert.Equal(t, "hello world\n", stdout)
	assert.Equal(t, []string{"echo", "hello", "world"}, h.SpawnLog[0].Argv)
}

func TestAndRunsSecondOnSuccess(t *testing.T) {
	// true && false
	cmd := ast.Command{Type: ast.If{
		Condition: list(simple("true")),
		Then:      list(simple("false")),
	}}
	status, h, _, _ := compileAndRun(t, cmd)
	assert.False(t, status.Success())
	assert.Len(t, h.SpawnLog, 2)
}

func TestAndShortCircuitsOnFailure(t *testing.T) {
	// false && true: true must not run
	cmd := ast.Command{Type: ast.If{
		Condition: list(simple("false")),
		Then:      list(simple("true")),
	}}
	status, h, _, _ := compileAndRun(t, cmd)
	assert.False(t, status.Success())
	assert.Len(t, h.SpawnLog, 1)
	assert.Equal(t, "false", h.SpawnLog[0].Argv[0])
}

func TestOrShortCircuit(t *testing.T) {
	// false || true
	cmd := ast.Command{Type: ast.If{
		Condition: list(simple("false")),
		Else:      list(simple("true")),
	}}
	status, h, _, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Len(t, h.SpawnLog, 2)
}

func TestOrShortCircuitsOnSuccess(t *testing.T) {
	// true || false: false must not run
	cmd := ast.Command{Type: ast.If{
		Condition: list(simple("true")),
		Else:      list(simple("false")),
	}}
	status, h, _, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Len(t, h.SpawnLog, 1)
}

func TestUnsetUnquotedParamExpandsToNothing(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamGet, true)},
		},
	}}
	_, h, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "\n", stdout)
	assert.Equal(t, []string{"echo", ""}, h.SpawnLog[0].Argv)
}

func TestAssignmentScopesToCommand(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("1")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamGet, true)},
		},
	}}
	_, h, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "1\n", stdout)
	assert.Equal(t, "1", h.SpawnLog[0].Env["foo"])
}

func TestGetDefaultUnset(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamGetDefault, false, "bar")},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "bar\n", stdout)
}

func TestGetDefaultSet(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("real")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamGetDefault, false, "bar")},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "real\n", stdout)
}

func TestGetDefaultAllowNullEmptyPassesThrough(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamGetDefault, true, "bar")},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "\n", stdout)
}

func TestGetDefaultDisallowNullEmptyUsesDefault(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamGetDefault, false, "bar")},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "bar\n", stdout)
}

func TestStringLength(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("hello")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamStringLength, true)},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "5\n", stdout)
}

func TestAssignDefaultSetsEnv(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamAssignDefault, false, "assigned")},
			{param("foo", ast.ParamGet, true)},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "assigned assigned\n", stdout)
}

func TestCheckSetUnsetErrorsAndSuppressesSpawn(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamCheckSet, false, "foo must be set")},
		},
	}}
	status, h, _, stderr := compileAndRun(t, cmd)
	assert.False(t, status.Success())
	assert.Equal(t, "foo must be set", stderr)
	assert.Len(t, h.SpawnLog, 0, "spawn must be suppressed after the parameter error")
}

func TestCheckSetUnsetNoMessage(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamCheckSet, false)},
		},
	}}
	status, _, _, stderr := compileAndRun(t, cmd)
	assert.False(t, status.Success())
	assert.Equal(t, "parameter foo is not set", stderr)
}

func TestCheckSetSetPassesThrough(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("ok")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamCheckSet, false, "unused")},
		},
	}}
	status, h, stdout, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Equal(t, "ok\n", stdout)
	assert.Len(t, h.SpawnLog, 1)
}

func TestAlternativeValueUnset(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamAlternativeValue, false, "alt")},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "\n", stdout)
}

func TestAlternativeValueSet(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Assignments: []ast.Assignment{{Name: "foo", Value: litWord("x")}},
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamAlternativeValue, false, "alt")},
		},
	}}
	_, _, stdout, _ := compileAndRun(t, cmd)
	assert.Equal(t, "alt\n", stdout)
}

func TestBraceGroupRunsInCurrentScope(t *testing.T) {
	cmd := ast.Command{Type: ast.BraceGroup{Body: list(
		simple("echo", "one"),
		simple("echo", "two"),
	)}}
	status, h, stdout, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Equal(t, "one\ntwo\n", stdout)
	assert.Len(t, h.SpawnLog, 2)
}

func TestProgramSequencesCommands(t *testing.T) {
	cmd := ast.Command{Type: ast.Program{Body: list(
		simple("echo", "a"),
		simple("echo", "b"),
		simple("echo", "c"),
	)}}
	status, _, stdout, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Equal(t, "a\nb\nc\n", stdout)
}

func TestNegatedPipelineInvertsStatus(t *testing.T) {
	cmd := ast.Command{Type: ast.Pipeline{
		Commands: []ast.Command{simple("true")},
		Negate:   true,
	}}
	status, _, _, _ := compileAndRun(t, cmd)
	assert.False(t, status.Success())
}

func TestNegatedFailingPipelineSucceeds(t *testing.T) {
	cmd := ast.Command{Type: ast.Pipeline{
		Commands: []ast.Command{simple("false")},
		Negate:   true,
	}}
	status, _, _, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
}

func TestPipelineConnectsStdoutToStdin(t *testing.T) {
	cmd := ast.Command{Type: ast.Pipeline{
		Commands: []ast.Command{
			simple("echo", "hello"),
			simple("uppercase"),
		},
	}}
	status, _, stdout, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Equal(t, "HELLO\n", stdout)
}

func TestPipelineStatusIsLastStage(t *testing.T) {
	cmd := ast.Command{Type: ast.Pipeline{
		Commands: []ast.Command{
			simple("echo", "hello"),
			simple("false"),
		},
	}}
	status, _, _, _ := compileAndRun(t, cmd)
	assert.False(t, status.Success())
}

func TestSimpleCommandFileRedirectionWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{litWord("echo"), litWord("hello")},
		Redirections: []ast.Redirection{
			ast.FileRedirection{Fd: 1, Kind: ast.RedirectOut, Target: litWord(path)},
		},
	}}
	status, _, stdout, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Empty(t, stdout, "command-local redirection must not leak to the outer io environment")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestSimpleCommandFileRedirectionReadsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi\n"), 0o644))
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{litWord("uppercase")},
		Redirections: []ast.Redirection{
			ast.FileRedirection{Fd: 0, Kind: ast.RedirectIn, Target: litWord(path)},
		},
	}}
	status, _, stdout, _ := compileAndRun(t, cmd)
	assert.True(t, status.Success())
	assert.Equal(t, "HI\n", stdout)
}

func TestSimpleCommandFdRedirectionEmitsDupFd(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{litWord("echo")},
		Redirections: []ast.Redirection{
			ast.FdRedirection{Fd: 2, SrcFd: 1},
		},
	}}
	c := compiler.New()
	require.NoError(t, c.CompileCommand(cmd))
	prog := c.Finish()

	var found bool
	for _, op := range prog.Ops {
		if dup, ok := op.(vm.DupFd); ok {
			assert.Equal(t, 2, dup.Fd)
			assert.Equal(t, 1, dup.SrcFd)
			found = true
		}
	}
	assert.True(t, found, "command-local fd redirection must emit DupFd")
}

func TestCommandSubstitutionNotImplemented(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			{ast.WordComponent{Kind: ast.CommandSubstitution{Body: list(simple("true"))}}},
		},
	}}
	c := compiler.New()
	err := c.CompileCommand(cmd)
	assert.Error(t, err)
}

func TestPatternRemovalOperatorNotImplemented(t *testing.T) {
	cmd := ast.Command{Type: ast.SimpleCommand{
		Words: []ast.Word{
			litWord("echo"),
			{param("foo", ast.ParamRemoveSmallestPrefix, true, "x*")},
		},
	}}
	c := compiler.New()
	err := c.CompileCommand(cmd)
	assert.Error(t, err)
}
