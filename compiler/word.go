package compiler

import (
	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/value"
	"github.com/davide125/wzsh/vm"
)

// wordExpand expands word into a single field, appending it to the list in
// argv. The split flag tracked here is carried onto the emitted ListAppend
// for observability, but the machine does not act on it: see DESIGN.md's
// resolution of the split/glob open question.
func (c *Compiler) wordExpand(argv int, word ast.Word) error {
	expanded, err := c.allocateString()
	if err != nil {
		return err
	}

	split := true
	glob := true
	for _, comp := range word {
		if !comp.Splittable {
			split = false
		}
		switch k := comp.Kind.(type) {
		case ast.Literal:
			c.push(vm.StringAppend{Dst: expanded, Src: vm.Immediate(value.String(k.Text))})

		case ast.TildeExpand:
			tmp, err := c.allocateString()
			if err != nil {
				return err
			}
			var user value.Value
			if k.User != "" {
				user = value.String(k.User)
			} else {
				user = value.None
			}
			c.push(vm.TildeExpand{Dst: tmp, User: vm.Immediate(user)})
			c.push(vm.StringAppend{Dst: expanded, Src: vm.FrameRelative(tmp)})
			if err := c.free(tmp); err != nil {
				return err
			}

		case ast.ParamExpand:
			tmp, err := c.allocateString()
			if err != nil {
				return err
			}
			if err := c.parameterExpand(tmp, k.Expr); err != nil {
				return err
			}
			c.push(vm.StringAppend{Dst: expanded, Src: vm.FrameRelative(tmp)})
			if err := c.free(tmp); err != nil {
				return err
			}

		case ast.CommandSubstitution:
			return errorf("command substitution not implemented")

		default:
			return errorf("unknown word component kind %T", k)
		}
	}

	c.push(vm.ListAppend{Dst: argv, Src: vm.FrameRelative(expanded), Split: split, Glob: glob})
	return c.free(expanded)
}
