package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/drdynamic/piscript/lang/compiler"
	"github.com/drdynamic/piscript/lang/table"
)

func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisassembleFile(ctx, stdio, args[0])
}

func DisassembleFile(ctx context.Context, stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	var strings table.Strings
	var globals table.AddressTable
	fn, ok := compiler.Compile(string(src), &strings, &globals, compiler.WithErrorWriter(stdio.Stderr))
	if !ok {
		return fmt.Errorf("%s: compile error", path)
	}
	compiler.Disassemble(stdio.Stdout, fn, path)
	return nil
}
