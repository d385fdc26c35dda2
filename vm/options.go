package vm

import "github.com/davide125/wzsh/ioenv"

// Option configures a Machine at construction time.
type Option interface {
	apply(m *Machine)
}

type optionFunc func(m *Machine)

func (f optionFunc) apply(m *Machine) { f(m) }

// WithLogf installs a trace function invoked once per executed operation.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return optionFunc(func(m *Machine) { m.logfn = logf })
}

// WithCwd sets the machine's initial working directory.
func WithCwd(cwd string) Option {
	return optionFunc(func(m *Machine) { m.cwd = cwd })
}

// WithIo replaces the machine's base io environment, e.g. to bind stdout
// to a pipe for test capture.
func WithIo(io *ioenv.IoEnvironment) Option {
	return optionFunc(func(m *Machine) { m.ios = ioenv.NewStack(io) })
}

// WithEnvOverrides binds each key/value pair into the machine's base
// environment, on top of whatever it was seeded with.
func WithEnvOverrides(overrides map[string]string) Option {
	return optionFunc(func(m *Machine) {
		for k, v := range overrides {
			m.envs.Top().Set(k, v)
		}
	})
}
