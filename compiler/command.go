package compiler

import (
	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/internal/panicerr"
	"github.com/davide125/wzsh/value"
	"github.com/davide125/wzsh/vm"
)

// applyRedirection emits the PushIo plus one OpenFile/DupFd per
// redirection, returning whether a matching PopIo (via popRedirection) is
// needed.
func (c *Compiler) applyRedirection(redirs []ast.Redirection) (bool, error) {
	if len(redirs) == 0 {
		return false, nil
	}
	c.push(vm.PushIo{})

	for _, r := range redirs {
		switch red := r.(type) {
		case ast.FileRedirection:
			filename, err := c.allocateList()
			if err != nil {
				return false, err
			}
			if err := c.wordExpand(filename, red.Target); err != nil {
				return false, err
			}
			c.push(vm.OpenFile{Fd: red.Fd, Kind: red.Kind, Path: vm.FrameRelative(filename)})
			if err := c.free(filename); err != nil {
				return false, err
			}

		case ast.FdRedirection:
			c.push(vm.DupFd{Fd: red.Fd, SrcFd: red.SrcFd})

		default:
			return false, errorf("unknown redirection type %T", red)
		}
	}

	return true, nil
}

func (c *Compiler) popRedirection(doPop bool) {
	if doPop {
		c.push(vm.PopIo{})
	}
}

func (c *Compiler) processAssignments(assignments []ast.Assignment) error {
	for _, a := range assignments {
		val, err := c.allocateList()
		if err != nil {
			return err
		}
		if err := c.wordExpand(val, a.Value); err != nil {
			return err
		}
		c.push(vm.JoinList{Dst: val, List: vm.FrameRelative(val)})
		c.push(vm.SetEnv{Name: vm.Immediate(value.String(a.Name)), Value: vm.FrameRelative(val)})
		if err := c.free(val); err != nil {
			return err
		}
	}
	return nil
}

// CompileCommand lowers one ast.Command, appending its operations to the
// program under construction. A panic during compilation (an internal
// compiler bug, not a malformed AST) is recovered and returned as an error.
func (c *Compiler) CompileCommand(command ast.Command) error {
	return panicerr.Recover("Compiler.CompileCommand", func() error {
		return c.compileCommand(command)
	})
}

func (c *Compiler) compileCommand(command ast.Command) error {
	c.reserveFrame()
	popOuterRedir, err := c.applyRedirection(command.Redirections)
	if err != nil {
		return err
	}

	switch cmd := command.Type.(type) {
	case ast.SimpleCommand:
		if err := c.compileSimpleCommand(cmd, command.Asynchronous); err != nil {
			return err
		}

	case ast.If:
		if err := c.compoundList(cmd.Condition); err != nil {
			return err
		}
		if err := c.ifThenElse(vm.LastWaitStatus, func() error {
			if cmd.Then != nil {
				return c.compoundList(cmd.Then)
			}
			return nil
		}, func() error {
			if cmd.Else != nil {
				return c.compoundList(cmd.Else)
			}
			return nil
		}); err != nil {
			return err
		}

	case ast.Program:
		if err := c.compoundList(cmd.Body); err != nil {
			return err
		}

	case ast.BraceGroup:
		if err := c.compoundList(cmd.Body); err != nil {
			return err
		}

	case ast.Pipeline:
		if err := c.compilePipeline(cmd); err != nil {
			return err
		}

	default:
		return errorf("unhandled command type %T: not implemented", cmd)
	}

	c.popRedirection(popOuterRedir)
	return c.commitFrame()
}

func (c *Compiler) compileSimpleCommand(cmd ast.SimpleCommand, asynchronous bool) error {
	argv, err := c.allocateList()
	if err != nil {
		return err
	}

	popInnerRedir, err := c.applyRedirection(cmd.Redirections)
	if err != nil {
		return err
	}

	popEnv := len(cmd.Words) != 0 && len(cmd.Assignments) != 0
	if popEnv {
		c.push(vm.PushEnvironment{})
	}

	if err := c.processAssignments(cmd.Assignments); err != nil {
		return err
	}

	for _, w := range cmd.Words {
		if err := c.wordExpand(argv, w); err != nil {
			return err
		}
	}

	fc, err := c.curFrame()
	if err != nil {
		return err
	}
	status := fc.alloc.Allocate()
	c.push(vm.SpawnCommand{Dst: status, Argv: vm.FrameRelative(argv)})
	if !asynchronous {
		c.push(vm.Wait{Src: vm.FrameRelative(status)})
	}
	if err := c.free(status); err != nil {
		return err
	}

	if popEnv {
		c.push(vm.PopEnvironment{})
	}
	c.popRedirection(popInnerRedir)
	return nil
}

func (c *Compiler) compilePipeline(p ast.Pipeline) error {
	n := len(p.Commands)
	if n <= 1 {
		for _, cmd := range p.Commands {
			if err := c.compileCommand(cmd); err != nil {
				return err
			}
		}
	} else {
		for i, cmd := range p.Commands {
			c.push(vm.PushIo{})
			if i != 0 {
				c.push(vm.PopPipe{})
			}
			if i != n-1 {
				c.push(vm.PushPipe{})
			}
			if err := c.compileCommand(cmd); err != nil {
				return err
			}
			c.push(vm.PopIo{})
		}
	}
	if p.Negate {
		c.push(vm.InvertLastWait{})
	}
	return nil
}

func (c *Compiler) compoundList(list *ast.CompoundList) error {
	if list == nil {
		return nil
	}
	for _, cmd := range list.Commands {
		if err := c.compileCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}
