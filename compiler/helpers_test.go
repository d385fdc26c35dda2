package compiler_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/compiler"
	"github.com/davide125/wzsh/host/hosttest"
	"github.com/davide125/wzsh/ioenv"
	"github.com/davide125/wzsh/value"
	"github.com/davide125/wzsh/vm"
)

func lit(s string) ast.WordComponent {
	return ast.WordComponent{Splittable: false, Kind: ast.Literal{Text: s}}
}

func litWord(s string) ast.Word {
	return ast.Word{lit(s)}
}

func param(name string, oper ast.ParamOper, allowNull bool, def ...string) ast.WordComponent {
	var words []ast.Word
	for _, d := range def {
		words = append(words, litWord(d))
	}
	return ast.WordComponent{
		Splittable: true,
		Kind: ast.ParamExpand{Expr: ast.ParamExpr{
			Name: name, Oper: oper, AllowNull: allowNull, Word: words,
		}},
	}
}

func simple(words ...string) ast.Command {
	ws := make([]ast.Word, len(words))
	for i, w := range words {
		ws[i] = litWord(w)
	}
	return ast.Command{Type: ast.SimpleCommand{Words: ws}}
}

func list(cmds ...ast.Command) *ast.CompoundList {
	return &ast.CompoundList{Commands: cmds}
}

// compileAndRun compiles cmd and runs it against a fresh hosttest.Host,
// capturing stdout/stderr through real pipes the way the original
// reference test harness did.
func compileAndRun(t *testing.T, cmd ast.Command) (value.Status, *hosttest.Host, string, string) {
	t.Helper()

	c := compiler.New()
	require.NoError(t, c.CompileCommand(cmd))
	prog := c.Finish()

	h := hosttest.New()
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)

	m := vm.New(h, vm.WithIo(ioenv.New(os.Stdin, outW, errW)))
	m.Load(prog)

	status, err := m.Run(context.Background())
	require.NoError(t, err)

	outW.Close()
	errW.Close()
	stdout := readAll(t, outR)
	stderr := readAll(t, errR)

	return status, h, stdout, stderr
}

func readAll(t *testing.T, f *os.File) string {
	t.Helper()
	buf := make([]byte, 64*1024)
	n, _ := f.Read(buf)
	f.Close()
	return string(buf[:n])
}
