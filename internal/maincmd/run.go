package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/drdynamic/piscript/lang/native"
	"github.com/drdynamic/piscript/lang/vm"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFile(ctx, stdio, c.StressGC, c.LogGC, args[0])
}

func RunFile(ctx context.Context, stdio mainer.Stdio, stressGC, logGC bool, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	m := vm.New()
	m.SetStdout(stdio.Stdout)
	m.SetStderr(stdio.Stderr)
	m.Debug.StressGC = stressGC
	m.Debug.LogGC = logGC
	native.RegisterAll(m)

	switch m.Interpret(string(src)) {
	case vm.InterpretCompileError:
		return fmt.Errorf("%s: compile error", path)
	case vm.InterpretRuntimeError:
		return fmt.Errorf("%s: runtime error", path)
	default:
		return nil
	}
}
