// Command wzsh drives a hand-built command tree through the compiler and
// machine. Parsing a real script into an ast.Command is outside this
// module's scope; this binary exists to exercise the compiler/machine
// pipeline end to end against the real operating system.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/davide125/wzsh/ast"
	"github.com/davide125/wzsh/compiler"
	"github.com/davide125/wzsh/host/exechost"
	"github.com/davide125/wzsh/internal/config"
	"github.com/davide125/wzsh/internal/logio"
	"github.com/davide125/wzsh/vm"
)

func main() {
	var (
		memLimit    uint
		timeout     time.Duration
		trace       bool
		dumpProgram bool
		configPath  string
	)
	flag.UintVar(&memLimit, "mem-limit", 0, "enable a frame-slot allocation limit")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.BoolVar(&dumpProgram, "dump-program", false, "log the compiled instruction listing before running it")
	flag.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Errorf("loading config: %+v", err)
			return
		}
		cfg = loaded
	}
	if cfg != nil {
		if cfg.Trace {
			trace = true
		}
		if cfg.Timeout != 0 && timeout == 0 {
			timeout = cfg.Timeout
		}
	}

	traceLogf := log.Leveledf("TRACE")
	if !trace {
		traceLogf = nil
	}

	if cfg != nil && cfg.MemLimit != 0 && memLimit == 0 {
		memLimit = cfg.MemLimit
	}

	c := compiler.New(compiler.WithLogf(traceLogf), compiler.WithMemLimit(memLimit))
	if err := c.CompileCommand(demoCommand(flag.Args())); err != nil {
		log.Errorf("compiling: %+v", err)
		return
	}
	prog := c.Finish()

	if dumpProgram {
		dump := &logio.Writer{Logf: log.Leveledf("PROGRAM")}
		for i, name := range prog.Names() {
			fmt.Fprintf(dump, "%4d %s\n", i, name)
		}
		dump.Sync()
	}

	vmOpts := []vm.Option{vm.WithLogf(traceLogf)}
	if cfg != nil && len(cfg.Env) > 0 {
		vmOpts = append(vmOpts, vm.WithEnvOverrides(cfg.Env))
	}
	m := vm.New(exechost.New(), vmOpts...)
	m.Load(prog)

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	status, err := m.Run(ctx)
	if err != nil {
		log.Errorf("running: %+v", err)
		return
	}
	if !status.Success() {
		log.Errorf("exit status: %+v", status)
	}
}

// demoCommand builds "echo $@" as a SimpleCommand over the CLI's
// positional arguments, standing in for a real parsed script.
func demoCommand(args []string) ast.Command {
	words := []ast.Word{{{Splittable: false, Kind: ast.Literal{Text: "echo"}}}}
	for _, a := range args {
		words = append(words, ast.Word{{Splittable: false, Kind: ast.Literal{Text: a}}})
	}
	return ast.Command{Type: ast.SimpleCommand{Words: words}}
}
