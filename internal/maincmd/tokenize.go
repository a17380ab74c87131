package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/drdynamic/piscript/lang/scanner"
	"github.com/drdynamic/piscript/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFile(ctx, stdio, args[0])
}

func TokenizeFile(ctx context.Context, stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	s := scanner.New(string(src))
	for {
		tok := s.Scan()
		fmt.Fprintf(stdio.Stdout, "%4d %-14s", tok.Line, tok.Kind)
		if tok.Kind == token.ERROR {
			fmt.Fprintf(stdio.Stdout, " %s\n", s.Message())
		} else if tok.Kind != token.EOF {
			fmt.Fprintf(stdio.Stdout, " %s\n", tok.Lexeme(string(src)))
		} else {
			fmt.Fprintln(stdio.Stdout)
		}
		if tok.Kind == token.EOF {
			return nil
		}
	}
}
