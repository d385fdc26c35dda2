package compiler

import (
	"fmt"

	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/value"
	"github.com/davide125/wzsh/vm"
)

// parameterExpand lowers a single ${...} expansion, writing its result into
// targetString: a String, except an Integer for ParamStringLength and None
// for an unset parameter passed through unchanged.
func (c *Compiler) parameterExpand(targetString int, expr ast.ParamExpr) error {
	fc, err := c.curFrame()
	if err != nil {
		return err
	}
	slot := fc.alloc.Allocate()
	c.push(vm.GetEnv{Dst: slot, Name: vm.Immediate(value.String(expr.Name))})

	switch expr.Oper {
	case ast.ParamGet:
		c.push(vm.Copy{Dst: targetString, Src: vm.FrameRelative(slot)})
		return nil

	case ast.ParamGetDefault:
		return c.unsetTest(slot, expr, func() error {
			return c.expandWordIntoString(targetString, expr.Word)
		}, func() error {
			c.push(vm.Copy{Dst: targetString, Src: vm.FrameRelative(slot)})
			return nil
		})

	case ast.ParamAssignDefault:
		return c.unsetTest(slot, expr, func() error {
			if err := c.expandWordIntoString(targetString, expr.Word); err != nil {
				return err
			}
			c.push(vm.SetEnv{Name: vm.Immediate(value.String(expr.Name)), Value: vm.FrameRelative(targetString)})
			return nil
		}, func() error {
			c.push(vm.Copy{Dst: targetString, Src: vm.FrameRelative(slot)})
			return nil
		})

	case ast.ParamStringLength:
		c.push(vm.StringLength{Dst: targetString, Src: vm.FrameRelative(slot)})
		return nil

	case ast.ParamCheckSet:
		return c.unsetTest(slot, expr, func() error {
			if len(expr.Word) == 0 {
				c.push(vm.Error{Message: vm.Immediate(value.String(fmt.Sprintf("parameter %s is not set", expr.Name)))})
				return nil
			}
			if err := c.expandWordIntoString(targetString, expr.Word); err != nil {
				return err
			}
			c.push(vm.Error{Message: vm.FrameRelative(targetString)})
			return nil
		}, func() error {
			c.push(vm.Copy{Dst: targetString, Src: vm.FrameRelative(slot)})
			return nil
		})

	case ast.ParamAlternativeValue:
		return c.unsetTest(slot, expr, func() error {
			c.push(vm.Copy{Dst: targetString, Src: vm.Immediate(value.String(""))})
			return nil
		}, func() error {
			return c.expandWordIntoString(targetString, expr.Word)
		})

	case ast.ParamRemoveSmallestPrefix, ast.ParamRemoveLargestPrefix,
		ast.ParamRemoveSmallestSuffix, ast.ParamRemoveLargestSuffix:
		return errorf("pattern-removal parameter operator not implemented")

	default:
		return errorf("unknown parameter operator %d", expr.Oper)
	}
}

// unsetTest allocates and frees the IsNone/IsNoneOrEmptyString test slot
// around an if/then/else straddling the "parameter is unset" branch.
func (c *Compiler) unsetTest(slot int, expr ast.ParamExpr, then, els func() error) error {
	fc, err := c.curFrame()
	if err != nil {
		return err
	}
	test := fc.alloc.Allocate()
	if expr.AllowNull {
		c.push(vm.IsNone{Dst: test, Src: vm.FrameRelative(slot)})
	} else {
		c.push(vm.IsNoneOrEmptyString{Dst: test, Src: vm.FrameRelative(slot)})
	}
	if err := c.ifThenElse(vm.FrameRelative(test), then, els); err != nil {
		return err
	}
	return c.free(test)
}

// expandWordIntoString expands words (e.g. a parameter's default-value
// text) into a scratch list, then joins it down into targetString.
func (c *Compiler) expandWordIntoString(targetString int, words []ast.Word) error {
	argv, err := c.allocateList()
	if err != nil {
		return err
	}
	for _, w := range words {
		if err := c.wordExpand(argv, w); err != nil {
			return err
		}
	}
	c.push(vm.JoinList{Dst: targetString, List: vm.FrameRelative(argv)})
	return c.free(argv)
}
